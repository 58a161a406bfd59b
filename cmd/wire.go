package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/archive"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/notify"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/repository/memory"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/repository/postgres"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/repository/sqlite"
	s3blob "github.com/cristianortiz/auctionEase/internal/shared/blob/s3"
	"github.com/cristianortiz/auctionEase/internal/shared/config"
	"github.com/cristianortiz/auctionEase/internal/shared/db"
	"github.com/cristianortiz/auctionEase/internal/shared/db/migrations"
	userdomain "github.com/cristianortiz/auctionEase/internal/user/domain"
	usermemory "github.com/cristianortiz/auctionEase/internal/user/infra/repository/memory"
	userpostgres "github.com/cristianortiz/auctionEase/internal/user/infra/repository/postgres"
	usersqlite "github.com/cristianortiz/auctionEase/internal/user/infra/repository/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// userStore is what every user repository implementation offers.
type userStore interface {
	userdomain.UserRepository
	userdomain.UserWriter
}

type storage struct {
	store domain.Store
	users userStore
	close func()
}

// openStorage connects the engine selected by cfg.Driver.
func openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		if cfg.RunMigrations {
			log.Info("Running database migrations...")
			if err := migrations.RunMigrations(cfg.PostgresDSN()); err != nil {
				return nil, fmt.Errorf("database migration failed: %w", err)
			}
		}
		pool, err := db.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &storage{
			store: postgres.NewStore(pool),
			users: userpostgres.NewUserRepository(pool),
			close: pool.Close,
		}, nil

	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storage{
			store: st,
			users: usersqlite.NewUserRepository(st.DB()),
			close: func() { _ = st.Close() },
		}, nil

	case "memory":
		log.Warn("memory driver selected, auctions and bids are lost on exit")
		return &storage{
			store: memory.NewStore(),
			users: usermemory.NewUserRepository(),
			close: func() {},
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// newGateway builds the notification gateway from the configured channels.
func newGateway(cfg config.NotifyConfig) *notify.Gateway {
	var senders []notify.Sender
	if cfg.SMTPHost != "" {
		senders = append(senders, notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From))
	}
	if cfg.WebhookURL != "" {
		senders = append(senders, notify.NewWebhookSender(cfg.WebhookURL))
	}
	if len(senders) == 0 {
		senders = append(senders, notify.LogSender{})
	}
	return notify.NewGateway(senders...)
}

// newArchiver returns nil when no bucket is configured.
func newArchiver(ctx context.Context, cfg config.S3Config) (domain.OutcomeArchiver, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	client, err := s3blob.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Health(hctx); err != nil {
		// settlement keeps working; archiving failures are logged per outcome
		log.Warn("settlement archive bucket unreachable", zap.String("bucket", cfg.Bucket), zap.Error(err))
	}
	return archive.NewS3Archiver(s3blob.NewWriter(client), cfg.Prefix), nil
}

// seedDemo creates a seller, a bidder and one auction closing in ten minutes.
func seedDemo(ctx context.Context, st *storage) error {
	suffix := uuid.NewString()[:8]
	seller := &userdomain.User{ID: uuid.New(), Username: "seller-" + suffix, Email: "seller-" + suffix + "@example.com"}
	bidder := &userdomain.User{ID: uuid.New(), Username: "bidder-" + suffix, Email: "bidder-" + suffix + "@example.com"}
	for _, u := range []*userdomain.User{seller, bidder} {
		if err := st.users.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}

	a := domain.NewAuction(uuid.New(), seller.ID, "Demo camera", "photo", "Seeded listing",
		decimal.NewFromInt(100), time.Now().UTC().Add(10*time.Minute))
	if err := st.store.Auctions().Create(ctx, a); err != nil {
		return fmt.Errorf("seed auction: %w", err)
	}

	log.Info("demo data seeded",
		zap.String("sellerID", seller.ID.String()),
		zap.String("bidderID", bidder.ID.String()),
		zap.String("auctionID", a.ID.String()),
		zap.Time("endTime", a.EndTime),
	)
	return nil
}
