package application

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper runs one settlement pass.
type Sweeper interface {
	RunOnce(ctx context.Context) (SweepReport, error)
}

// SettlementScheduler runs a Sweeper every interval until stopped. Several
// instances may run at once on different hosts; only the claim decides who
// settles an auction.
type SettlementScheduler struct {
	sweeper  Sweeper
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSettlementScheduler(sweeper Sweeper, interval time.Duration) *SettlementScheduler {
	return &SettlementScheduler{sweeper: sweeper, interval: interval}
}

// Start launches the loop; the first sweep runs immediately so auctions that
// expired while no instance was up are settled on boot. Start on a running
// scheduler does nothing.
func (s *SettlementScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		log.Warn("Settlement scheduler already running")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	log.Info("Settlement scheduler started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *SettlementScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
	log.Info("Settlement scheduler stopped")
}

func (s *SettlementScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SettlementScheduler) sweep(ctx context.Context) {
	if _, err := s.sweeper.RunOnce(ctx); err != nil {
		log.Error("Settlement sweep failed", zap.Error(err))
	}
}
