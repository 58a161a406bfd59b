package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/clock"
	"github.com/cristianortiz/auctionEase/internal/shared/metrics"
	userdomain "github.com/cristianortiz/auctionEase/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SweepLockKey is the key of the distributed sweep lock.
const SweepLockKey = "settlement-sweep"

// SettlementPolicy tunes one sweep.
type SettlementPolicy struct {
	BatchSize int
	Workers   int
	// ClaimTimeout bounds the claim unit of work of one auction.
	ClaimTimeout time.Duration
	// NotifyTimeout bounds the delivery of one auction's messages.
	NotifyTimeout time.Duration
	SweepLockTTL  time.Duration
}

var DefaultSettlementPolicy = SettlementPolicy{
	BatchSize:     100,
	Workers:       4,
	ClaimTimeout:  10 * time.Second,
	NotifyTimeout: 30 * time.Second,
	SweepLockTTL:  30 * time.Second,
}

// SweepReport summarizes one RunOnce.
type SweepReport struct {
	Scanned             int
	Claimed             int
	Sold                int
	Unsold              int
	LostClaims          int
	Failed              int
	NotificationsSent   int
	NotificationsFailed int
	// LockHeld is set when another instance held the sweep lock and nothing was scanned.
	LockHeld bool
}

// SettleExpiredUseCase finalizes every expired, unsettled auction exactly once
// and tells buyer and seller about the outcome.
type SettleExpiredUseCase struct {
	store     domain.Store
	users     userdomain.UserRepository
	gateway   domain.NotificationGateway
	publisher domain.EventPublisher
	archiver  domain.OutcomeArchiver
	locker    domain.SweepLocker
	clock     clock.Clock
	policy    SettlementPolicy
}

// SettlementDeps groups the optional collaborators of SettleExpiredUseCase.
// Nil members are skipped.
type SettlementDeps struct {
	Publisher domain.EventPublisher
	Archiver  domain.OutcomeArchiver
	Locker    domain.SweepLocker
}

func NewSettleExpiredUseCase(
	store domain.Store,
	users userdomain.UserRepository,
	gateway domain.NotificationGateway,
	clk clock.Clock,
	policy SettlementPolicy,
	deps SettlementDeps,
) *SettleExpiredUseCase {
	if policy.BatchSize < 1 {
		policy.BatchSize = DefaultSettlementPolicy.BatchSize
	}
	if policy.Workers < 1 {
		policy.Workers = DefaultSettlementPolicy.Workers
	}
	if policy.ClaimTimeout <= 0 {
		policy.ClaimTimeout = DefaultSettlementPolicy.ClaimTimeout
	}
	if policy.NotifyTimeout <= 0 {
		policy.NotifyTimeout = DefaultSettlementPolicy.NotifyTimeout
	}
	if policy.SweepLockTTL <= 0 {
		policy.SweepLockTTL = DefaultSettlementPolicy.SweepLockTTL
	}
	return &SettleExpiredUseCase{
		store:     store,
		users:     users,
		gateway:   gateway,
		publisher: deps.Publisher,
		archiver:  deps.Archiver,
		locker:    deps.Locker,
		clock:     clk,
		policy:    policy,
	}
}

// RunOnce performs one sweep. It returns an error only when the candidate scan
// itself fails; per-auction failures are logged and counted in the report.
// Cancelling ctx stops new claims from starting but lets in-flight ones finish.
func (uc *SettleExpiredUseCase) RunOnce(ctx context.Context) (SweepReport, error) {
	start := time.Now()
	defer metrics.Since(metrics.SweepDuration, start)

	var report SweepReport

	if uc.locker != nil {
		unlock, err := uc.locker.Acquire(ctx, SweepLockKey, uc.policy.SweepLockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			log.Debug("Settlement sweep skipped: lock held by another instance")
			report.LockHeld = true
			return report, nil
		case err != nil:
			// the lock only saves duplicate scans, claims stay exactly-once without it
			log.Warn("Settlement sweep: lock unavailable, sweeping anyway", zap.Error(err))
		default:
			defer unlock()
		}
	}

	now := uc.clock.Now()
	candidates, err := uc.store.Auctions().ListExpiredUnsettled(ctx, now, uc.policy.BatchSize)
	if err != nil {
		log.Error("Settlement sweep: failed to list expired auctions", zap.Error(err))
		return report, fmt.Errorf("settlement sweep: list expired auctions: %w", err)
	}
	report.Scanned = len(candidates)
	if len(candidates) == 0 {
		return report, nil
	}

	detached := context.WithoutCancel(ctx)
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(uc.policy.Workers)

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			log.Info("Settlement sweep interrupted, remaining candidates wait for the next run")
			break
		}
		auctionID := candidate.ID
		g.Go(func() error {
			res := uc.settle(detached, auctionID)
			mu.Lock()
			report.add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	log.Info("Settlement sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("claimed", report.Claimed),
		zap.Int("sold", report.Sold),
		zap.Int("unsold", report.Unsold),
		zap.Int("lostClaims", report.LostClaims),
		zap.Int("failed", report.Failed),
		zap.Int("notificationsSent", report.NotificationsSent),
		zap.Int("notificationsFailed", report.NotificationsFailed),
	)
	return report, nil
}

type settleResult struct {
	claimed  bool
	sold     bool
	failed   bool
	sent     int
	notified int
}

func (r *SweepReport) add(res settleResult) {
	switch {
	case res.failed:
		r.Failed++
	case !res.claimed:
		r.LostClaims++
	default:
		r.Claimed++
		if res.sold {
			r.Sold++
		} else {
			r.Unsold++
		}
	}
	r.NotificationsSent += res.sent
	r.NotificationsFailed += res.notified - res.sent
}

func (uc *SettleExpiredUseCase) settle(ctx context.Context, auctionID uuid.UUID) settleResult {
	outcome, err := uc.claim(ctx, auctionID)
	if err != nil {
		metrics.SettlementsTotal.WithLabelValues("error").Inc()
		log.Error("Settlement: claim failed, auction left for the next run",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
		return settleResult{failed: true}
	}
	if outcome == nil {
		metrics.SettlementsTotal.WithLabelValues("lost_claim").Inc()
		log.Debug("Settlement: claim lost to another instance", zap.String("auctionID", auctionID.String()))
		return settleResult{}
	}

	res := settleResult{claimed: true, sold: outcome.Sold()}
	if !outcome.Sold() {
		metrics.SettlementsTotal.WithLabelValues("unsold").Inc()
		log.Info("Auction closed without sale", zap.String("auctionID", auctionID.String()))
	} else {
		metrics.SettlementsTotal.WithLabelValues("sold").Inc()
		res.notified = 2
		res.sent = uc.notify(ctx, outcome)
	}

	uc.archive(ctx, outcome)
	uc.publish(ctx, domain.AuctionSettledEvent(outcome))
	return res
}

// claim flips the settled flag under the auction row lock and reads the final
// winning bid in the same unit of work. A nil outcome means someone else
// settled the auction first.
func (uc *SettleExpiredUseCase) claim(ctx context.Context, auctionID uuid.UUID) (*domain.SettlementOutcome, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.policy.ClaimTimeout)
	defer cancel()

	var outcome *domain.SettlementOutcome
	err := uc.store.Within(cctx, func(ctx context.Context, repos domain.Repositories) error {
		auction, err := repos.Auctions().LockByID(ctx, auctionID)
		if err != nil {
			return err
		}
		if auction.Settled {
			return nil
		}

		at := uc.clock.Now()
		claimed, err := repos.Auctions().ClaimSettlement(ctx, auctionID, at)
		if err != nil || !claimed {
			return err
		}
		auction.Settled = true
		auction.SettledAt = &at

		winning, err := repos.Bids().FindWinning(ctx, auctionID)
		if err != nil && !errors.Is(err, domain.ErrNoWinningBid) {
			return err
		}
		outcome = &domain.SettlementOutcome{
			Auction:    auction,
			WinningBid: winning,
			ClaimedAt:  at,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// notify sends the buyer and seller messages and returns how many were
// delivered. Failures are logged and never retried; the claim stands.
func (uc *SettleExpiredUseCase) notify(ctx context.Context, outcome *domain.SettlementOutcome) int {
	nctx, cancel := context.WithTimeout(ctx, uc.policy.NotifyTimeout)
	defer cancel()

	auction, bid := outcome.Auction, outcome.WinningBid
	fields := []zap.Field{
		zap.String("auctionID", auction.ID.String()),
		zap.String("bidID", bid.ID.String()),
	}

	contacts, err := uc.users.GetByIDs(nctx, []uuid.UUID{bid.BidderID, auction.OwnerID})
	buyer, seller := contacts[bid.BidderID], contacts[auction.OwnerID]
	if err != nil || buyer == nil || seller == nil {
		if err == nil {
			err = userdomain.ErrUserNotFound
		}
		outcome.DeliveryErr = fmt.Sprintf("resolve contacts: %v", err)
		metrics.NotificationsTotal.WithLabelValues(string(domain.MessageToBuyer), "failed").Inc()
		metrics.NotificationsTotal.WithLabelValues(string(domain.MessageToSeller), "failed").Inc()
		log.Error("Settlement: cannot resolve buyer or seller, notifications not sent",
			append(fields, zap.Error(err))...,
		)
		return 0
	}
	outcome.Buyer, outcome.Seller = buyer, seller

	var failures []string
	for _, msg := range []domain.Message{
		domain.BuyerMessage(auction, bid, *buyer, *seller),
		domain.SellerMessage(auction, bid, *buyer, *seller),
	} {
		if err := uc.gateway.Send(nctx, msg); err != nil {
			metrics.NotificationsTotal.WithLabelValues(string(msg.Kind), "failed").Inc()
			failures = append(failures, fmt.Sprintf("%s: %v", msg.Kind, err))
			log.Error("Settlement: notification delivery failed",
				append(fields, zap.String("kind", string(msg.Kind)), zap.Error(err))...,
			)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(string(msg.Kind), "sent").Inc()
		outcome.Delivered++
	}
	outcome.DeliveryErr = strings.Join(failures, "; ")

	if outcome.Delivered == 2 {
		log.Info("Settlement: buyer and seller notified", fields...)
	}
	return outcome.Delivered
}

func (uc *SettleExpiredUseCase) archive(ctx context.Context, outcome *domain.SettlementOutcome) {
	if uc.archiver == nil {
		return
	}
	if err := uc.archiver.Archive(ctx, outcome); err != nil {
		log.Warn("Settlement: failed to archive outcome",
			zap.String("auctionID", outcome.Auction.ID.String()),
			zap.Error(err),
		)
	}
}

func (uc *SettleExpiredUseCase) publish(ctx context.Context, event domain.Event) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Warn("Settlement: failed to publish event",
			zap.String("auctionID", event.AuctionID.String()),
			zap.Error(err),
		)
	}
}
