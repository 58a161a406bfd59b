package application

import (
	"context"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	userdomain "github.com/cristianortiz/auctionEase/internal/user/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BidDTO is a ledger entry with the bidder's public identity.
type BidDTO struct {
	ID             uuid.UUID       `json:"id"`
	AuctionID      uuid.UUID       `json:"auction_id"`
	BidderID       uuid.UUID       `json:"bidder_id"`
	BidderUsername string          `json:"bidder_username,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	IsWinning      bool            `json:"is_winning"`
	Timestamp      time.Time       `json:"timestamp"`
}

// AuctionSummaryDTO is one row of the per-user auction views.
type AuctionSummaryDTO struct {
	AuctionID    uuid.UUID       `json:"auction_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	ImageRef     string          `json:"image_ref,omitempty"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	EndTime      time.Time       `json:"end_time"`
	Settled      bool            `json:"settled"`
}

func toBidDTO(b *domain.Bid, bidder *userdomain.User) BidDTO {
	dto := BidDTO{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		IsWinning: b.IsWinning,
		Timestamp: b.Timestamp,
	}
	if bidder != nil {
		dto.BidderUsername = bidder.Username
	}
	return dto
}

func toSummary(a *domain.Auction) AuctionSummaryDTO {
	return AuctionSummaryDTO{
		AuctionID:    a.ID,
		Name:         a.Name,
		Category:     a.Category,
		ImageRef:     a.ImageRef,
		CurrentPrice: a.CurrentPrice,
		EndTime:      a.EndTime,
		Settled:      a.Settled,
	}
}

// GetWinningBidUseCase returns the current winning bid of an auction.
type GetWinningBidUseCase struct {
	repos domain.Repositories
	users userdomain.UserRepository
}

func NewGetWinningBidUseCase(repos domain.Repositories, users userdomain.UserRepository) *GetWinningBidUseCase {
	return &GetWinningBidUseCase{repos: repos, users: users}
}

// Execute returns ErrAuctionNotFound for an unknown auction and ErrNoWinningBid
// when nobody has bid yet.
func (uc *GetWinningBidUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*BidDTO, error) {
	if _, err := uc.repos.Auctions().GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	bid, err := uc.repos.Bids().FindWinning(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	bidder, err := uc.users.GetByID(ctx, bid.BidderID)
	if err != nil {
		log.Warn("GetWinningBidUseCase: bidder identity unavailable",
			zap.String("bidderID", bid.BidderID.String()),
			zap.Error(err),
		)
		bidder = nil
	}
	dto := toBidDTO(bid, bidder)
	return &dto, nil
}

// GetBidHistoryUseCase lists an auction's bids, newest first.
type GetBidHistoryUseCase struct {
	repos domain.Repositories
	users userdomain.UserRepository
}

func NewGetBidHistoryUseCase(repos domain.Repositories, users userdomain.UserRepository) *GetBidHistoryUseCase {
	return &GetBidHistoryUseCase{repos: repos, users: users}
}

// Execute returns an empty list for an auction without bids.
func (uc *GetBidHistoryUseCase) Execute(ctx context.Context, auctionID uuid.UUID) ([]BidDTO, error) {
	bids, err := uc.repos.Bids().FindByAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(bids))
	seen := make(map[uuid.UUID]bool, len(bids))
	for _, b := range bids {
		if !seen[b.BidderID] {
			seen[b.BidderID] = true
			ids = append(ids, b.BidderID)
		}
	}
	bidders, err := uc.users.GetByIDs(ctx, ids)
	if err != nil {
		log.Warn("GetBidHistoryUseCase: bidder identities unavailable",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
		bidders = nil
	}

	out := make([]BidDTO, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidDTO(b, bidders[b.BidderID]))
	}
	return out, nil
}

// UserAuctionsUseCase serves the per-user views: auctions bid on, auctions
// currently led and auctions sold.
type UserAuctionsUseCase struct {
	repos domain.Repositories
}

func NewUserAuctionsUseCase(repos domain.Repositories) *UserAuctionsUseCase {
	return &UserAuctionsUseCase{repos: repos}
}

func (uc *UserAuctionsUseCase) Bidded(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error) {
	return uc.byBidder(ctx, userID, false)
}

func (uc *UserAuctionsUseCase) Winning(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error) {
	return uc.byBidder(ctx, userID, true)
}

func (uc *UserAuctionsUseCase) Sold(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error) {
	auctions, err := uc.repos.Auctions().ListSoldBySeller(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]AuctionSummaryDTO, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, toSummary(a))
	}
	return out, nil
}

func (uc *UserAuctionsUseCase) byBidder(ctx context.Context, userID uuid.UUID, winningOnly bool) ([]AuctionSummaryDTO, error) {
	ids, err := uc.repos.Bids().ListAuctionIDsByBidder(ctx, userID, winningOnly)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []AuctionSummaryDTO{}, nil
	}
	auctions, err := uc.repos.Auctions().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// keep the ledger's ordering
	byID := make(map[uuid.UUID]*domain.Auction, len(auctions))
	for _, a := range auctions {
		byID[a.ID] = a
	}
	out := make([]AuctionSummaryDTO, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, toSummary(a))
		}
	}
	return out, nil
}
