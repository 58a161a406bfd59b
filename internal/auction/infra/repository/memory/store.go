// Package memory is an in-process storage engine. Units of work are serialized
// by a single slot semaphore and run against a private copy of the committed
// state that replaces it on commit, so a failed unit of work leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

var _ domain.Store = (*Store)(nil)

// state is never mutated once committed; units of work mutate a clone and
// writers replace individual elements instead of editing them in place.
type state struct {
	auctions map[uuid.UUID]*domain.Auction
	// bids per auction in insertion order, which is ascending timestamp order
	bids map[uuid.UUID][]*domain.Bid
}

func newState() *state {
	return &state{
		auctions: make(map[uuid.UUID]*domain.Auction),
		bids:     make(map[uuid.UUID][]*domain.Bid),
	}
}

func (st *state) clone() *state {
	out := &state{
		auctions: make(map[uuid.UUID]*domain.Auction, len(st.auctions)),
		bids:     make(map[uuid.UUID][]*domain.Bid, len(st.bids)),
	}
	for id, a := range st.auctions {
		out.auctions[id] = a
	}
	for id, bids := range st.bids {
		out.bids[id] = append([]*domain.Bid(nil), bids...)
	}
	return out
}

// Store implements domain.Store in memory.
type Store struct {
	slot chan struct{}

	mu        sync.RWMutex
	committed *state
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		slot:      make(chan struct{}, 1),
		committed: newState(),
	}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

// Within implements domain.Store.
func (s *Store) Within(ctx context.Context, fn domain.TxFunc) error {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for unit of work: %v", domain.ErrTransient, ctx.Err())
	}
	defer func() { <-s.slot }()

	work := s.snapshot().clone()
	if err := fn(ctx, &txRepos{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		log.Warn("memory store: unit of work outlived its context, discarding", zap.Error(err))
		return fmt.Errorf("%w: commit: %v", domain.ErrTransient, err)
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

// Auctions implements domain.Repositories outside any unit of work. Reads see
// the last committed state; writes run as their own unit of work.
func (s *Store) Auctions() domain.AuctionRepository {
	return &directAuctions{s: s}
}

// Bids implements domain.Repositories outside any unit of work.
func (s *Store) Bids() domain.BidLedger {
	return &directBids{s: s}
}

type txRepos struct {
	st *state
}

func (r *txRepos) Auctions() domain.AuctionRepository { return &auctionRepo{st: r.st} }
func (r *txRepos) Bids() domain.BidLedger             { return &bidLedger{st: r.st} }
