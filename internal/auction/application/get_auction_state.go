package application

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Auction status as shown to clients.
const (
	StatusOpen    = "open"
	StatusClosed  = "closed"
	StatusSettled = "settled"
)

// AuctionStateDTO is the output DTO for exposing auction state to the UI/WS
type AuctionStateDTO struct {
	AuctionID     uuid.UUID        `json:"auction_id"`
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	ImageRef      string           `json:"image_ref,omitempty"`
	OwnerID       uuid.UUID        `json:"owner_id"`
	StartingPrice decimal.Decimal  `json:"starting_price"`
	CurrentPrice  decimal.Decimal  `json:"current_price"`
	EndTime       time.Time        `json:"end_time"`
	Status        string           `json:"status"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
	LastBidAmount *decimal.Decimal `json:"last_bid_amount,omitempty"`
	LastBidderID  *uuid.UUID       `json:"last_bidder_id,omitempty"`
	LastBidTime   *time.Time       `json:"last_bid_time,omitempty"`
}

// GetAuctionStateUseCase retrieves the current state of an auction
type GetAuctionStateUseCase struct {
	repos domain.Repositories
	clock clock.Clock
}

// NewGetAuctionStateUseCase creates a new instance of GetAuctionStateUseCase.
func NewGetAuctionStateUseCase(repos domain.Repositories, clk clock.Clock) *GetAuctionStateUseCase {
	return &GetAuctionStateUseCase{
		repos: repos,
		clock: clk,
	}
}

func (uc *GetAuctionStateUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	auction, err := uc.repos.Auctions().GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	dto := &AuctionStateDTO{
		AuctionID:     auction.ID,
		Name:          auction.Name,
		Category:      auction.Category,
		Description:   auction.Description,
		ImageRef:      auction.ImageRef,
		OwnerID:       auction.OwnerID,
		StartingPrice: auction.StartingPrice,
		CurrentPrice:  auction.CurrentPrice,
		EndTime:       auction.EndTime,
		Status:        statusOf(auction, uc.clock.Now()),
		SettledAt:     auction.SettledAt,
	}

	bid, err := uc.repos.Bids().FindWinning(ctx, auctionID)
	switch {
	case err == nil:
		dto.LastBidAmount = &bid.Amount
		dto.LastBidderID = &bid.BidderID
		dto.LastBidTime = &bid.Timestamp
	case !errors.Is(err, domain.ErrNoWinningBid):
		return nil, err
	}

	return dto, nil
}

func statusOf(a *domain.Auction, now time.Time) string {
	switch {
	case a.Settled:
		return StatusSettled
	case a.IsOpen(now):
		return StatusOpen
	default:
		return StatusClosed
	}
}
