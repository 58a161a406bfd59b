package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedAuction(t *testing.T, s *Store, end time.Time) *domain.Auction {
	t.Helper()
	a := domain.NewAuction(uuid.New(), uuid.New(), "lamp", "home", "", decimal.RequireFromString("10"), end)
	require.NoError(t, s.Auctions().Create(context.Background(), a))
	return a
}

func TestStore_WithinCommits(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAuction(t, s, time.Now().Add(time.Hour))
	bid := domain.NewBid(uuid.New(), a.ID, uuid.New(), decimal.RequireFromString("12"), time.Now())

	err := s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Bids().ClearWinning(ctx, a.ID); err != nil {
			return err
		}
		if err := repos.Bids().Insert(ctx, bid); err != nil {
			return err
		}
		return repos.Auctions().UpdateCurrentPrice(ctx, a.ID, bid.Amount, bid.Timestamp)
	})
	require.NoError(t, err)

	got, err := s.Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentPrice.Equal(bid.Amount))

	w, err := s.Bids().FindWinning(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, bid.ID, w.ID)
}

func TestStore_WithinRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAuction(t, s, time.Now().Add(time.Hour))
	boom := errors.New("boom")

	err := s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		bid := domain.NewBid(uuid.New(), a.ID, uuid.New(), decimal.RequireFromString("12"), time.Now())
		require.NoError(t, repos.Bids().Insert(ctx, bid))
		require.NoError(t, repos.Auctions().UpdateCurrentPrice(ctx, a.ID, bid.Amount, bid.Timestamp))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentPrice.Equal(decimal.RequireFromString("10")))

	_, err = s.Bids().FindWinning(ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrNoWinningBid)

	bids, err := s.Bids().FindByAuction(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, bids)
}

func TestStore_WithinCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	a := seedAuction(t, s, time.Now().Add(time.Hour))

	err := s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		cancel()
		return repos.Auctions().UpdateCurrentPrice(ctx, a.ID, decimal.RequireFromString("50"), time.Now())
	})
	require.ErrorIs(t, err, domain.ErrTransient)

	got, err := s.Auctions().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentPrice.Equal(decimal.RequireFromString("10")))
}

func TestStore_ClaimSettlementOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedAuction(t, s, time.Now().Add(-time.Minute))

	claimed, err := s.Auctions().ClaimSettlement(ctx, a.ID, time.Now())
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = s.Auctions().ClaimSettlement(ctx, a.ID, time.Now())
	require.NoError(t, err)
	require.False(t, claimed)

	got, err := s.Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Settled)
	require.NotNil(t, got.SettledAt)
}

func TestStore_ListExpiredUnsettled(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()

	older := seedAuction(t, s, now.Add(-2*time.Hour))
	newer := seedAuction(t, s, now.Add(-time.Hour))
	seedAuction(t, s, now.Add(time.Hour))
	atNow := seedAuction(t, s, now)
	settled := seedAuction(t, s, now.Add(-3*time.Hour))
	_, err := s.Auctions().ClaimSettlement(ctx, settled.ID, now)
	require.NoError(t, err)

	got, err := s.Auctions().ListExpiredUnsettled(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, older.ID, got[0].ID)
	require.Equal(t, newer.ID, got[1].ID)
	for _, a := range got {
		require.NotEqual(t, atNow.ID, a.ID)
	}

	got, err = s.Auctions().ListExpiredUnsettled(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestStore_BidderViews(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()
	bidder := uuid.New()
	other := uuid.New()
	a1 := seedAuction(t, s, now.Add(time.Hour))
	a2 := seedAuction(t, s, now.Add(time.Hour))

	place := func(a *domain.Auction, who uuid.UUID, amount string, ts time.Time) {
		err := s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
			if err := repos.Bids().ClearWinning(ctx, a.ID); err != nil {
				return err
			}
			return repos.Bids().Insert(ctx, domain.NewBid(uuid.New(), a.ID, who, decimal.RequireFromString(amount), ts))
		})
		require.NoError(t, err)
	}
	place(a1, bidder, "11", now)
	place(a2, bidder, "11", now.Add(time.Second))
	place(a2, other, "12", now.Add(2*time.Second))

	all, err := s.Bids().ListAuctionIDsByBidder(ctx, bidder, false)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a2.ID, a1.ID}, all)

	winning, err := s.Bids().ListAuctionIDsByBidder(ctx, bidder, true)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a1.ID}, winning)

	history, err := s.Bids().FindByAuction(ctx, a2.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, other, history[0].BidderID)
	require.False(t, history[1].IsWinning)
}
