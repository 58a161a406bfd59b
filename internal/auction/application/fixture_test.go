package application

import (
	"context"
	"sync"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/auction/infra/repository/memory"
	"github.com/cristianortiz/auctionEase/internal/shared/clock"
	userdomain "github.com/cristianortiz/auctionEase/internal/user/domain"
	usermemory "github.com/cristianortiz/auctionEase/internal/user/infra/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	users *usermemory.UserRepository
	clock *clock.Fake
	owner userdomain.User
}

func newFixture() *fixture {
	owner := userdomain.User{ID: uuid.New(), Username: "seller", Email: "seller@example.com"}
	return &fixture{
		store: memory.NewStore(),
		users: usermemory.NewUserRepository(owner),
		clock: clock.NewFake(t0),
		owner: owner,
	}
}

func (f *fixture) bidder(name string) uuid.UUID {
	u := userdomain.User{ID: uuid.New(), Username: name, Email: name + "@example.com"}
	f.users.Add(u)
	return u.ID
}

func (f *fixture) auction(t require.TestingT, startingPrice string, end time.Time) *domain.Auction {
	a := domain.NewAuction(uuid.New(), f.owner.ID, "Vintage lamp", "home", "brass", decimal.RequireFromString(startingPrice), end)
	require.NoError(t, f.store.Auctions().Create(context.Background(), a))
	return a
}

func (f *fixture) placeBid(publisher domain.EventPublisher) *PlaceBidUseCase {
	return NewPlaceBidUseCase(f.store, f.clock, publisher, DefaultBidPolicy)
}

func bidCmd(auctionID, bidderID uuid.UUID, amount string) PlaceBidDTO {
	return PlaceBidDTO{AuctionID: auctionID, BidderID: bidderID, Amount: decimal.RequireFromString(amount)}
}

// flakyStore fails the first n units of work with err before they reach the
// wrapped store.
type flakyStore struct {
	domain.Store
	mu    sync.Mutex
	n     int
	err   error
	calls int
}

func (s *flakyStore) Within(ctx context.Context, fn domain.TxFunc) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.n
	s.mu.Unlock()
	if fail {
		return s.err
	}
	return s.Store.Within(ctx, fn)
}

// stallingStore runs the unit of work but blocks inside it until the context
// is done, as a hung database would.
type stallingStore struct {
	domain.Store
}

func (s stallingStore) Within(ctx context.Context, fn domain.TxFunc) error {
	return s.Store.Within(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := fn(ctx, repos); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	})
}
