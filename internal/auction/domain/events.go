package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventBidPlaced      EventType = "bid_placed"
	EventAuctionSettled EventType = "auction_settled"
)

// Event is what live listeners (websocket rooms on every instance) receive
// after a bid commits or an auction settles.
type Event struct {
	Type         EventType       `json:"type"`
	AuctionID    uuid.UUID       `json:"auction_id"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	BidID        *uuid.UUID      `json:"bid_id,omitempty"`
	BidderID     *uuid.UUID      `json:"bidder_id,omitempty"`
	Sold         bool            `json:"sold,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// BidPlacedEvent describes a committed bid.
func BidPlacedEvent(bid *Bid) Event {
	bidID, bidderID := bid.ID, bid.BidderID
	return Event{
		Type:         EventBidPlaced,
		AuctionID:    bid.AuctionID,
		CurrentPrice: bid.Amount,
		BidID:        &bidID,
		BidderID:     &bidderID,
		OccurredAt:   bid.Timestamp,
	}
}

// AuctionSettledEvent describes a finished settlement.
func AuctionSettledEvent(outcome *SettlementOutcome) Event {
	ev := Event{
		Type:         EventAuctionSettled,
		AuctionID:    outcome.Auction.ID,
		CurrentPrice: outcome.Auction.CurrentPrice,
		Sold:         outcome.Sold(),
		OccurredAt:   outcome.ClaimedAt,
	}
	if outcome.WinningBid != nil {
		bidID, bidderID := outcome.WinningBid.ID, outcome.WinningBid.BidderID
		ev.BidID = &bidID
		ev.BidderID = &bidderID
	}
	return ev
}
