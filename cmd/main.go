// Command auctionease serves live auctions: bid placement over HTTP and
// websocket, and the periodic settlement of expired auctions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cristianortiz/auctionEase/internal/auction/application"
	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/events"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/httpapi"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/lock"
	auctionws "github.com/cristianortiz/auctionEase/internal/auction/infra/websocket"
	"github.com/cristianortiz/auctionEase/internal/shared/auth"
	"github.com/cristianortiz/auctionEase/internal/shared/clock"
	"github.com/cristianortiz/auctionEase/internal/shared/config"
	"github.com/cristianortiz/auctionEase/internal/shared/httpserver"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	sharedredis "github.com/cristianortiz/auctionEase/internal/shared/redis"
	"github.com/cristianortiz/auctionEase/internal/shared/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var log = logger.GetLogger()

func main() {
	configPath := flag.String("config", os.Getenv("AUCTION_CONFIG"), "path to a TOML configuration file")
	tokenFor := flag.String("token", "", "print a JWT for the given user id and exit")
	seed := flag.Bool("seed", false, "create demo users and an auction on startup")
	flag.Parse()

	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if *tokenFor != "" {
		userID, err := uuid.Parse(*tokenFor)
		if err != nil {
			log.Fatal("invalid user id", zap.String("token", *tokenFor), zap.Error(err))
		}
		token, err := jwtManager.Generate(userID)
		if err != nil {
			log.Fatal("failed to generate token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	log.Info("Starting AuctionEase server...", zap.Any("config", config.Redacted(cfg)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, jwtManager, *seed); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("AuctionEase server stopped")
}

func run(ctx context.Context, cfg *config.Config, jwtManager *auth.JWTManager, seed bool) error {
	st, err := openStorage(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.close()

	if seed {
		if err := seedDemo(ctx, st); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	hub := websocket.NewHub()
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	hubPublisher := auctionws.NewHubPublisher(hub)

	// events go straight to local rooms unless redis fans them out to every instance
	var (
		publisher domain.EventPublisher = hubPublisher
		locker    domain.SweepLocker
	)
	if cfg.Redis.Addr != "" {
		rc, err := sharedredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()

		bus := sharedredis.NewBus(rc)
		publisher = events.NewBusPublisher(bus, cfg.Redis.Channel)
		g.Go(func() error {
			return events.Relay(gctx, bus, cfg.Redis.Channel, hubPublisher)
		})
		if cfg.Settlement.SweepLock {
			locker = lock.NewLocker(rc)
		}
	}

	archiver, err := newArchiver(ctx, cfg.S3)
	if err != nil {
		return err
	}

	clk := clock.Real{}
	svc := application.NewAuctionServiceFromStore(st.store, st.users, clk, publisher, application.BidPolicy{
		Timeout:     cfg.Bidding.Timeout,
		MaxAttempts: cfg.Bidding.MaxAttempts,
	})

	wsHandler := auctionws.NewAuctionWSHandler(gctx, svc, hub)
	g.Go(func() error {
		wsHandler.ListenForMessages(gctx)
		return nil
	})

	settle := application.NewSettleExpiredUseCase(st.store, st.users, newGateway(cfg.Notify), clk,
		application.SettlementPolicy{
			BatchSize:    cfg.Settlement.BatchSize,
			Workers:      cfg.Settlement.Workers,
			SweepLockTTL: cfg.Settlement.SweepLockTTL,
		},
		application.SettlementDeps{
			Publisher: publisher,
			Archiver:  archiver,
			Locker:    locker,
		},
	)
	scheduler := application.NewSettlementScheduler(settle, cfg.Settlement.Interval)
	scheduler.Start(gctx)
	defer scheduler.Stop()

	server := httpserver.NewServer()
	httpapi.RegisterRoutes(server.App(), httpapi.NewAuctionHandler(svc), jwtManager, wsHandler)

	g.Go(func() error {
		return server.Start(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
