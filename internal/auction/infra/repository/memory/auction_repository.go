package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type auctionRepo struct {
	st *state
}

func copyAuction(a *domain.Auction) *domain.Auction {
	out := *a
	if a.SettledAt != nil {
		at := *a.SettledAt
		out.SettledAt = &at
	}
	return &out
}

func (r *auctionRepo) Create(_ context.Context, a *domain.Auction) error {
	if _, ok := r.st.auctions[a.ID]; ok {
		return fmt.Errorf("memory: auction %s already exists", a.ID)
	}
	stored := copyAuction(a)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.UpdatedAt = stored.CreatedAt
	r.st.auctions[a.ID] = stored
	return nil
}

func (r *auctionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	a, ok := r.st.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return copyAuction(a), nil
}

// LockByID needs no extra locking: the unit of work already owns the store.
func (r *auctionRepo) LockByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return r.GetByID(ctx, id)
}

func (r *auctionRepo) UpdateCurrentPrice(_ context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	a, ok := r.st.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	updated := copyAuction(a)
	updated.CurrentPrice = price
	updated.UpdatedAt = at
	r.st.auctions[id] = updated
	return nil
}

func (r *auctionRepo) ClaimSettlement(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	a, ok := r.st.auctions[id]
	if !ok {
		return false, domain.ErrAuctionNotFound
	}
	if a.Settled {
		return false, nil
	}
	updated := copyAuction(a)
	updated.Settled = true
	updated.SettledAt = &at
	updated.UpdatedAt = at
	r.st.auctions[id] = updated
	return true, nil
}

func (r *auctionRepo) ListExpiredUnsettled(_ context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	var out []*domain.Auction
	for _, a := range r.st.auctions {
		if !a.Settled && a.IsExpired(now) {
			out = append(out, copyAuction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *auctionRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Auction, error) {
	out := make([]*domain.Auction, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.st.auctions[id]; ok {
			out = append(out, copyAuction(a))
		}
	}
	return out, nil
}

func (r *auctionRepo) ListSoldBySeller(_ context.Context, sellerID uuid.UUID) ([]*domain.Auction, error) {
	var out []*domain.Auction
	for id, a := range r.st.auctions {
		if a.OwnerID != sellerID || !a.Settled {
			continue
		}
		if winningOf(r.st.bids[id]) != nil {
			out = append(out, copyAuction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.After(out[j].EndTime) })
	return out, nil
}

// directAuctions reads the committed state and runs writes as their own unit of work.
type directAuctions struct {
	s *Store
}

func (d *directAuctions) read() *auctionRepo { return &auctionRepo{st: d.s.snapshot()} }

func (d *directAuctions) Create(ctx context.Context, a *domain.Auction) error {
	return d.s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		return repos.Auctions().Create(ctx, a)
	})
}

func (d *directAuctions) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return d.read().GetByID(ctx, id)
}

func (d *directAuctions) LockByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return d.read().GetByID(ctx, id)
}

func (d *directAuctions) UpdateCurrentPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, at time.Time) error {
	return d.s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		return repos.Auctions().UpdateCurrentPrice(ctx, id, price, at)
	})
}

func (d *directAuctions) ClaimSettlement(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	var claimed bool
	err := d.s.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		claimed, err = repos.Auctions().ClaimSettlement(ctx, id, at)
		return err
	})
	return claimed, err
}

func (d *directAuctions) ListExpiredUnsettled(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	return d.read().ListExpiredUnsettled(ctx, now, limit)
}

func (d *directAuctions) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Auction, error) {
	return d.read().ListByIDs(ctx, ids)
}

func (d *directAuctions) ListSoldBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Auction, error) {
	return d.read().ListSoldBySeller(ctx, sellerID)
}
