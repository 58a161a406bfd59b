package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is the ledger record of one accepted bid. Only IsWinning ever changes,
// and only from true to false when a higher bid supersedes it.
type Bid struct {
	ID        uuid.UUID
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
	IsWinning bool
	Timestamp time.Time
}

// NewBid creates a new winning Bid instance
func NewBid(id, auctionID, bidderID uuid.UUID, amount decimal.Decimal, timestamp time.Time) *Bid {
	return &Bid{
		ID:        id,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		IsWinning: true,
		Timestamp: timestamp,
	}
}
