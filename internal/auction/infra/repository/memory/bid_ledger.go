package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
)

type bidLedger struct {
	st *state
}

func copyBid(b *domain.Bid) *domain.Bid {
	out := *b
	return &out
}

func winningOf(bids []*domain.Bid) *domain.Bid {
	for i := len(bids) - 1; i >= 0; i-- {
		if bids[i].IsWinning {
			return bids[i]
		}
	}
	return nil
}

func (l *bidLedger) Insert(_ context.Context, bid *domain.Bid) error {
	if _, ok := l.st.auctions[bid.AuctionID]; !ok {
		return domain.ErrAuctionNotFound
	}
	bids := l.st.bids[bid.AuctionID]
	if bid.IsWinning && winningOf(bids) != nil {
		return fmt.Errorf("memory: auction %s already has a winning bid", bid.AuctionID)
	}
	l.st.bids[bid.AuctionID] = append(bids, copyBid(bid))
	return nil
}

func (l *bidLedger) FindWinning(_ context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	if w := winningOf(l.st.bids[auctionID]); w != nil {
		return copyBid(w), nil
	}
	return nil, domain.ErrNoWinningBid
}

func (l *bidLedger) ClearWinning(_ context.Context, auctionID uuid.UUID) error {
	bids := l.st.bids[auctionID]
	for i, b := range bids {
		if b.IsWinning {
			cleared := copyBid(b)
			cleared.IsWinning = false
			bids[i] = cleared
		}
	}
	return nil
}

func (l *bidLedger) FindByAuction(_ context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	bids := l.st.bids[auctionID]
	out := make([]*domain.Bid, 0, len(bids))
	for i := len(bids) - 1; i >= 0; i-- {
		out = append(out, copyBid(bids[i]))
	}
	return out, nil
}

// ListAuctionIDsByBidder returns the auctions the bidder took part in, most
// recently bid on first.
func (l *bidLedger) ListAuctionIDsByBidder(_ context.Context, bidderID uuid.UUID, winningOnly bool) ([]uuid.UUID, error) {
	type hit struct {
		id   uuid.UUID
		last int64
	}
	var hits []hit
	for auctionID, bids := range l.st.bids {
		var last int64
		found := false
		for _, b := range bids {
			if b.BidderID != bidderID || (winningOnly && !b.IsWinning) {
				continue
			}
			found = true
			if ts := b.Timestamp.UnixMicro(); ts > last {
				last = ts
			}
		}
		if found {
			hits = append(hits, hit{id: auctionID, last: last})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].last > hits[j].last })

	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids, nil
}

type directBids struct {
	s *Store
}

func (d *directBids) read() *bidLedger { return &bidLedger{st: d.s.snapshot()} }

func (d *directBids) Insert(ctx context.Context, bid *domain.Bid) error {
	return d.s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		return repos.Bids().Insert(ctx, bid)
	})
}

func (d *directBids) FindWinning(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	return d.read().FindWinning(ctx, auctionID)
}

func (d *directBids) ClearWinning(ctx context.Context, auctionID uuid.UUID) error {
	return d.s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		return repos.Bids().ClearWinning(ctx, auctionID)
	})
}

func (d *directBids) FindByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	return d.read().FindByAuction(ctx, auctionID)
}

func (d *directBids) ListAuctionIDsByBidder(ctx context.Context, bidderID uuid.UUID, winningOnly bool) ([]uuid.UUID, error) {
	return d.read().ListAuctionIDsByBidder(ctx, bidderID, winningOnly)
}
