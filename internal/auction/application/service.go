package application

import (
	"context"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/clock"
	userdomain "github.com/cristianortiz/auctionEase/internal/user/domain"
	"github.com/google/uuid"
)

// AuctionService defines application interface layer of auction module
// exposes uses cases to external layer, aka infra
type AuctionService interface {
	// PlaceBid handles logic when a user makes a bid on an auction
	// receives a command with necesary data and returns the created bid or an error
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error)
	GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error)
	GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*BidDTO, error)
	GetBidHistory(ctx context.Context, auctionID uuid.UUID) ([]BidDTO, error)
	ListBiddedAuctions(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error)
	ListWinningAuctions(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error)
	ListSoldAuctions(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error)
}

// concret implementation of AuctionService (struct)
type auctionService struct {
	placeBidUC      *PlaceBidUseCase
	getStateUC      *GetAuctionStateUseCase
	getWinningBidUC *GetWinningBidUseCase
	getHistoryUC    *GetBidHistoryUseCase
	userAuctionsUC  *UserAuctionsUseCase
}

func NewAuctionService(
	placeBidUC *PlaceBidUseCase,
	getStateUC *GetAuctionStateUseCase,
	getWinningBidUC *GetWinningBidUseCase,
	getHistoryUC *GetBidHistoryUseCase,
	userAuctionsUC *UserAuctionsUseCase,
) AuctionService {
	return &auctionService{
		placeBidUC:      placeBidUC,
		getStateUC:      getStateUC,
		getWinningBidUC: getWinningBidUC,
		getHistoryUC:    getHistoryUC,
		userAuctionsUC:  userAuctionsUC,
	}
}

// NewAuctionServiceFromStore wires every use case of the service over store.
func NewAuctionServiceFromStore(
	store domain.Store,
	users userdomain.UserRepository,
	clk clock.Clock,
	publisher domain.EventPublisher,
	policy BidPolicy,
) AuctionService {
	return NewAuctionService(
		NewPlaceBidUseCase(store, clk, publisher, policy),
		NewGetAuctionStateUseCase(store, clk),
		NewGetWinningBidUseCase(store, users),
		NewGetBidHistoryUseCase(store, users),
		NewUserAuctionsUseCase(store),
	)
}

// PlaceBid implements AuctionService.
func (as *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*domain.Bid, error) {
	return as.placeBidUC.Execute(ctx, cmd)
}

// GetAuctionState implements AuctionService.
func (as *auctionService) GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return as.getStateUC.Execute(ctx, auctionID)
}

func (as *auctionService) GetWinningBid(ctx context.Context, auctionID uuid.UUID) (*BidDTO, error) {
	return as.getWinningBidUC.Execute(ctx, auctionID)
}

func (as *auctionService) GetBidHistory(ctx context.Context, auctionID uuid.UUID) ([]BidDTO, error) {
	return as.getHistoryUC.Execute(ctx, auctionID)
}

func (as *auctionService) ListBiddedAuctions(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error) {
	return as.userAuctionsUC.Bidded(ctx, userID)
}

func (as *auctionService) ListWinningAuctions(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error) {
	return as.userAuctionsUC.Winning(ctx, userID)
}

func (as *auctionService) ListSoldAuctions(ctx context.Context, userID uuid.UUID) ([]AuctionSummaryDTO, error) {
	return as.userAuctionsUC.Sold(ctx, userID)
}
