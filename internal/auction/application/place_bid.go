package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/clock"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"github.com/cristianortiz/auctionEase/internal/shared/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// PlaceBidDTO is DTO input for PlaceBid useCase, contains the necesary data to make a bid
type PlaceBidDTO struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
}

// BidPolicy bounds a single placement: each attempt runs under Timeout and
// write conflicts are retried until MaxAttempts attempts were made.
type BidPolicy struct {
	Timeout     time.Duration
	MaxAttempts int
}

// DefaultBidPolicy matches the configuration defaults.
var DefaultBidPolicy = BidPolicy{Timeout: 5 * time.Second, MaxAttempts: 3}

// PlaceBidUseCase is useCase to make a bid in an auction, orchestrate bussines logic and persistence
type PlaceBidUseCase struct {
	store     domain.Store
	clock     clock.Clock
	publisher domain.EventPublisher
	policy    BidPolicy
}

// NewPlaceBidUseCase creates a new instace of PlaceBidUseCase struct, it receives dependency through injection.
// publisher may be nil.
func NewPlaceBidUseCase(store domain.Store, clk clock.Clock, publisher domain.EventPublisher, policy BidPolicy) *PlaceBidUseCase {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultBidPolicy.Timeout
	}
	return &PlaceBidUseCase{
		store:     store,
		clock:     clk,
		publisher: publisher,
		policy:    policy,
	}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	start := time.Now()
	defer metrics.Since(metrics.BidDuration, start)

	log.Info("Executing PlaceBidUseCase",
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.Stringer("amount", cmd.Amount),
	)

	// 1. input sanity comes first, before the auction is even loaded
	if !cmd.Amount.IsPositive() {
		log.Warn("PlaceBidUseCase: Invalid bid amount",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.Stringer("amount", cmd.Amount),
		)
		metrics.BidsTotal.WithLabelValues(domain.ReasonInvalidAmount).Inc()
		return nil, domain.ErrInvalidAmount
	}

	var (
		bid *domain.Bid
		err error
	)
	for attempt := 1; ; attempt++ {
		bid, err = uc.attempt(ctx, cmd)
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= uc.policy.MaxAttempts || ctx.Err() != nil {
			break
		}
		metrics.BidRetriesTotal.Inc()
		log.Warn("PlaceBidUseCase: write conflict, retrying",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	if err != nil {
		metrics.BidsTotal.WithLabelValues(domain.Reason(err)).Inc()
		if domain.IsRetryable(err) {
			log.Error("PlaceBidUseCase: bid not placed",
				zap.String("auctionID", cmd.AuctionID.String()),
				zap.String("bidderID", cmd.BidderID.String()),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("place bid use case: auction %s: %w", cmd.AuctionID, err)
	}

	metrics.BidsTotal.WithLabelValues("accepted").Inc()
	uc.publish(ctx, domain.BidPlacedEvent(bid))
	return bid, nil
}

// attempt runs one unit of work under the per-attempt timeout. The auction row
// lock taken by LockByID serializes it against other bids and settlement claims.
func (uc *PlaceBidUseCase) attempt(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	actx, cancel := context.WithTimeout(ctx, uc.policy.Timeout)
	defer cancel()

	var accepted *domain.Bid
	err := uc.store.Within(actx, func(ctx context.Context, repos domain.Repositories) error {
		auction, err := repos.Auctions().LockByID(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}

		now := uc.clock.Now()
		if err := auction.CheckBid(cmd.BidderID, cmd.Amount, now); err != nil {
			return err
		}

		previous, err := repos.Bids().FindWinning(ctx, auction.ID)
		if err != nil && !errors.Is(err, domain.ErrNoWinningBid) {
			return err
		}
		if previous != nil {
			if err := repos.Bids().ClearWinning(ctx, auction.ID); err != nil {
				return err
			}
		}

		bid := domain.NewBid(uuid.New(), auction.ID, cmd.BidderID, cmd.Amount, domain.NextBidTimestamp(now, previous))
		if err := repos.Bids().Insert(ctx, bid); err != nil {
			return err
		}
		auction.AcceptBid(bid)
		if err := repos.Auctions().UpdateCurrentPrice(ctx, auction.ID, auction.CurrentPrice, bid.Timestamp); err != nil {
			return err
		}
		accepted = bid
		return nil
	})
	if err != nil {
		if !domain.IsRetryable(err) && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			err = fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
		return nil, err
	}
	return accepted, nil
}

func (uc *PlaceBidUseCase) publish(ctx context.Context, event domain.Event) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Warn("PlaceBidUseCase: failed to publish event",
			zap.String("auctionID", event.AuctionID.String()),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
