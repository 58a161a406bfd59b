package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	userdomain "github.com/cristianortiz/auctionEase/internal/user/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAuction_CheckBid(t *testing.T) {
	end := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	owner := uuid.New()
	bidder := uuid.New()

	tests := []struct {
		name    string
		mutate  func(a *Auction)
		bidder  uuid.UUID
		amount  string
		now     time.Time
		wantErr error
	}{
		{name: "accepted", bidder: bidder, amount: "10.01", now: end.Add(-time.Minute)},
		{name: "equal_to_current_price", bidder: bidder, amount: "10", now: end.Add(-time.Minute), wantErr: ErrBidTooLow},
		{name: "below_current_price", bidder: bidder, amount: "9.99", now: end.Add(-time.Minute), wantErr: ErrBidTooLow},
		{name: "at_end_time", bidder: bidder, amount: "50", now: end, wantErr: ErrAuctionClosed},
		{name: "after_end_time", bidder: bidder, amount: "50", now: end.Add(time.Second), wantErr: ErrAuctionClosed},
		{name: "settled", mutate: func(a *Auction) { a.Settled = true }, bidder: bidder, amount: "50", now: end.Add(-time.Hour), wantErr: ErrAuctionClosed},
		{name: "self_bid", bidder: owner, amount: "50", now: end.Add(-time.Minute), wantErr: ErrSelfBid},
		// closed is reported before self-bid and too-low
		{name: "closed_self_low", bidder: owner, amount: "1", now: end.Add(time.Minute), wantErr: ErrAuctionClosed},
		// self-bid is reported before too-low
		{name: "self_and_low", bidder: owner, amount: "1", now: end.Add(-time.Minute), wantErr: ErrSelfBid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAuction(uuid.New(), owner, "lamp", "home", "", decimal.RequireFromString("10"), end)
			if tc.mutate != nil {
				tc.mutate(a)
			}
			err := a.CheckBid(tc.bidder, decimal.RequireFromString(tc.amount), tc.now)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAuction_IsExpired(t *testing.T) {
	end := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := NewAuction(uuid.New(), uuid.New(), "lamp", "home", "", decimal.Zero, end)

	require.False(t, a.IsExpired(end))
	require.True(t, a.IsExpired(end.Add(time.Nanosecond)))
	require.True(t, a.IsOpen(end.Add(-time.Nanosecond)))
	require.False(t, a.IsOpen(end))
}

func TestAuction_AcceptBid(t *testing.T) {
	a := NewAuction(uuid.New(), uuid.New(), "lamp", "home", "", decimal.RequireFromString("10"), time.Now().Add(time.Hour))
	require.True(t, a.CurrentPrice.Equal(a.StartingPrice))

	bid := NewBid(uuid.New(), a.ID, uuid.New(), decimal.RequireFromString("20"), time.Now())
	a.AcceptBid(bid)

	require.True(t, a.CurrentPrice.Equal(decimal.RequireFromString("20")))
	require.True(t, a.StartingPrice.Equal(decimal.RequireFromString("10")))
	require.True(t, bid.IsWinning)
}

func TestNextBidTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 123456789, time.UTC)

	ts := NextBidTimestamp(now, nil)
	require.Equal(t, now.Truncate(time.Microsecond), ts)

	prev := &Bid{Timestamp: ts}
	next := NextBidTimestamp(now, prev)
	require.True(t, next.After(prev.Timestamp))
	require.Equal(t, time.Microsecond, next.Sub(prev.Timestamp))

	// clock behind the previous bid still yields a later timestamp
	behind := NextBidTimestamp(now.Add(-time.Second), prev)
	require.True(t, behind.After(prev.Timestamp))

	later := NextBidTimestamp(now.Add(time.Second), prev)
	require.Equal(t, now.Add(time.Second).Truncate(time.Microsecond), later)
}

func TestSettlementMessages(t *testing.T) {
	a := NewAuction(uuid.New(), uuid.New(), "Vintage lamp", "home", "", decimal.RequireFromString("10"), time.Now())
	bid := NewBid(uuid.New(), a.ID, uuid.New(), decimal.RequireFromString("20"), time.Date(2026, 1, 1, 11, 59, 50, 0, time.UTC))
	buyer := userdomain.User{ID: bid.BidderID, Username: "u1", Email: "u1@example.com"}
	seller := userdomain.User{ID: a.OwnerID, Username: "s1", Email: "s1@example.com"}

	bm := BuyerMessage(a, bid, buyer, seller)
	require.Equal(t, MessageToBuyer, bm.Kind)
	require.Equal(t, buyer, bm.To)
	require.True(t, strings.Contains(bm.Body, "20.00"))
	require.True(t, strings.Contains(bm.Body, "s1@example.com"))
	require.True(t, strings.Contains(bm.Body, "2026-01-01T11:59:50Z"))

	sm := SellerMessage(a, bid, buyer, seller)
	require.Equal(t, MessageToSeller, sm.Kind)
	require.Equal(t, seller, sm.To)
	require.True(t, strings.Contains(sm.Body, "u1@example.com"))
	require.True(t, strings.Contains(sm.Body, "20.00"))
}

func TestEvents(t *testing.T) {
	bid := NewBid(uuid.New(), uuid.New(), uuid.New(), decimal.RequireFromString("15"), time.Now())
	ev := BidPlacedEvent(bid)
	require.Equal(t, EventBidPlaced, ev.Type)
	require.Equal(t, bid.ID, *ev.BidID)

	outcome := &SettlementOutcome{Auction: &Auction{ID: bid.AuctionID}, ClaimedAt: time.Now()}
	settled := AuctionSettledEvent(outcome)
	require.False(t, settled.Sold)
	require.Nil(t, settled.BidID)

	outcome.WinningBid = bid
	settled = AuctionSettledEvent(outcome)
	require.True(t, settled.Sold)
	require.Equal(t, bid.BidderID, *settled.BidderID)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(ErrConflict))
	require.True(t, IsRetryable(ErrTransient))
	require.False(t, IsRetryable(ErrBidTooLow))
}

func TestReasonAndPublicMessage(t *testing.T) {
	wrapped := fmt.Errorf("place bid: %w", ErrBidTooLow)
	require.Equal(t, ReasonBidTooLow, Reason(wrapped))
	require.Equal(t, ErrBidTooLow.Error(), PublicMessage(wrapped))

	transient := fmt.Errorf("%w: dial tcp 10.0.0.1:5432: connection refused", ErrTransient)
	require.Equal(t, ReasonUnavailable, Reason(transient))
	require.Equal(t, ErrTransient.Error(), PublicMessage(transient))

	unknownUser := fmt.Errorf("%w: FOREIGN KEY constraint failed", ErrUnknownUser)
	require.Equal(t, ReasonUnknownUser, Reason(unknownUser))
	require.Equal(t, ErrUnknownUser.Error(), PublicMessage(unknownUser))

	// storage detail never reaches clients
	unknown := errors.New("pq: relation \"bids\" does not exist")
	require.Equal(t, ReasonInternal, Reason(unknown))
	require.Equal(t, "internal error", PublicMessage(unknown))
}
