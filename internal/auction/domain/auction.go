package domain

import (
	"time"

	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Auction is a listing sold by competitive bidding with a fixed end time.
// Listing CRUD lives elsewhere; this service only moves CurrentPrice and the
// settlement flag.
type Auction struct {
	ID            uuid.UUID
	Name          string
	Category      string
	Description   string
	StartingPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	EndTime       time.Time
	OwnerID       uuid.UUID
	ImageRef      string
	Settled       bool
	SettledAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAuction creates an open auction whose current price starts at the starting price.
func NewAuction(id, ownerID uuid.UUID, name, category, description string, startingPrice decimal.Decimal, endTime time.Time) *Auction {
	return &Auction{
		ID:            id,
		Name:          name,
		Category:      category,
		Description:   description,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		EndTime:       endTime,
		OwnerID:       ownerID,
	}
}

// IsOpen reports whether bids may still move the price at instant now.
func (a *Auction) IsOpen(now time.Time) bool {
	return !a.Settled && now.Before(a.EndTime)
}

// IsExpired reports whether the end time has strictly passed, which makes the
// auction a settlement candidate.
func (a *Auction) IsExpired(now time.Time) bool {
	return a.EndTime.Before(now)
}

// CheckBid applies the business rules a bid must pass against the current
// state, in order: closed, self-bid, too low. Amount sanity is checked by the
// caller before the auction is even loaded.
func (a *Auction) CheckBid(bidderID uuid.UUID, amount decimal.Decimal, now time.Time) error {
	if !a.IsOpen(now) {
		log.Warn("Bid rejected: auction closed",
			zap.String("auctionID", a.ID.String()),
			zap.Time("endTime", a.EndTime),
			zap.Bool("settled", a.Settled),
			zap.String("bidderID", bidderID.String()),
		)
		return ErrAuctionClosed
	}

	if bidderID == a.OwnerID {
		log.Warn("Bid rejected: seller bidding on own auction",
			zap.String("auctionID", a.ID.String()),
			zap.String("bidderID", bidderID.String()),
		)
		return ErrSelfBid
	}

	if !amount.GreaterThan(a.CurrentPrice) {
		log.Warn("Bid rejected: amount too low",
			zap.String("auctionID", a.ID.String()),
			zap.Stringer("bidAmount", amount),
			zap.Stringer("currentPrice", a.CurrentPrice),
			zap.String("bidderID", bidderID.String()),
		)
		return ErrBidTooLow
	}
	return nil
}

// NextBidTimestamp returns the acceptance timestamp for a new bid: now at
// microsecond precision, pushed past the previous winning bid when the clock
// has not moved, so timestamps stay strictly increasing per auction.
func NextBidTimestamp(now time.Time, previous *Bid) time.Time {
	ts := now.UTC().Truncate(time.Microsecond)
	if previous != nil && !ts.After(previous.Timestamp) {
		ts = previous.Timestamp.Add(time.Microsecond)
	}
	return ts
}

// AcceptBid moves the current price to the accepted bid amount.
func (a *Auction) AcceptBid(bid *Bid) {
	a.CurrentPrice = bid.Amount
	a.UpdatedAt = bid.Timestamp
	log.Info("Bid accepted",
		zap.String("auctionID", a.ID.String()),
		zap.String("bidID", bid.ID.String()),
		zap.String("bidderID", bid.BidderID.String()),
		zap.Stringer("newCurrentPrice", a.CurrentPrice),
	)
}
