package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/auction/domain/mocks"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recorder captures what a mocked gateway was asked to deliver.
type recorder struct {
	mu   sync.Mutex
	sent []domain.Message
}

func (r *recorder) record(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recorder) messages() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.sent...)
}

func (f *fixture) settler(gateway domain.NotificationGateway, deps SettlementDeps) *SettleExpiredUseCase {
	return NewSettleExpiredUseCase(f.store, f.users, gateway, f.clock, DefaultSettlementPolicy, deps)
}

func TestSettle_EndToEndScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	u1, u2 := f.bidder("u1"), f.bidder("u2")
	end := t0.Add(time.Minute)
	a := f.auction(t, "10", end)
	place := f.placeBid(nil)

	f.clock.Set(end.Add(-10 * time.Second))
	_, err := place.Execute(ctx, bidCmd(a.ID, u1, "20"))
	require.NoError(t, err)

	f.clock.Set(end.Add(-5 * time.Second))
	_, err = place.Execute(ctx, bidCmd(a.ID, u2, "25"))
	require.NoError(t, err)

	f.clock.Set(end.Add(time.Second))
	_, err = place.Execute(ctx, bidCmd(a.ID, u1, "30"))
	require.ErrorIs(t, err, domain.ErrAuctionClosed)

	rec := &recorder{}
	gateway := mocks.NewMockNotificationGateway(ctrl)
	gateway.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(rec.record).Times(2)

	f.clock.Set(end.Add(2 * time.Second))
	report, err := f.settler(gateway, SettlementDeps{}).RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Scanned)
	require.Equal(t, 1, report.Claimed)
	require.Equal(t, 1, report.Sold)
	require.Equal(t, 2, report.NotificationsSent)

	msgs := rec.messages()
	require.Len(t, msgs, 2)
	byKind := map[domain.MessageKind]domain.Message{}
	for _, m := range msgs {
		byKind[m.Kind] = m
	}
	buyer := byKind[domain.MessageToBuyer]
	require.Equal(t, u2, buyer.To.ID)
	require.True(t, strings.Contains(buyer.Body, "25.00"))
	require.True(t, strings.Contains(buyer.Body, f.owner.Email))
	seller := byKind[domain.MessageToSeller]
	require.Equal(t, f.owner.ID, seller.To.ID)
	require.True(t, strings.Contains(seller.Body, "u2@example.com"))

	got, err := f.store.Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Settled)
	require.Equal(t, end.Add(2*time.Second), *got.SettledAt)
}

func TestSettle_WithoutBidsClosesWithoutSale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	a := f.auction(t, "10", t0.Add(-time.Minute))
	gateway := mocks.NewMockNotificationGateway(ctrl) // no Send expected

	report, err := f.settler(gateway, SettlementDeps{}).RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Claimed)
	require.Equal(t, 1, report.Unsold)
	require.Zero(t, report.NotificationsSent)

	got, err := f.store.Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Settled)
}

func TestSettle_IsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	a := f.auction(t, "10", t0.Add(time.Minute))
	_, err := f.placeBid(nil).Execute(ctx, bidCmd(a.ID, f.bidder("u1"), "11"))
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	gateway := mocks.NewMockNotificationGateway(ctrl)
	gateway.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	uc := f.settler(gateway, SettlementDeps{})

	first, err := uc.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.Claimed)

	second, err := uc.RunOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, second.Scanned)
	require.Zero(t, second.Claimed)
}

func TestSettle_ConcurrentSweepersClaimOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	const auctions = 10
	for i := 0; i < auctions; i++ {
		a := f.auction(t, "10", t0.Add(time.Minute))
		_, err := f.placeBid(nil).Execute(ctx, bidCmd(a.ID, f.bidder("u"), "11"))
		require.NoError(t, err)
	}
	f.clock.Advance(2 * time.Minute)

	gateway := mocks.NewMockNotificationGateway(ctrl)
	gateway.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2 * auctions)

	reports := make([]SweepReport, 3)
	var wg sync.WaitGroup
	for i := range reports {
		uc := f.settler(gateway, SettlementDeps{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			reports[i], err = uc.RunOnce(ctx)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	claimed := 0
	for _, r := range reports {
		claimed += r.Claimed
	}
	require.Equal(t, auctions, claimed)
}

func TestSettle_DeliveryFailureKeepsClaim(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	a := f.auction(t, "10", t0.Add(time.Minute))
	_, err := f.placeBid(nil).Execute(ctx, bidCmd(a.ID, f.bidder("u1"), "11"))
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	gateway := mocks.NewMockNotificationGateway(ctrl)
	gateway.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg domain.Message) error {
		if msg.Kind == domain.MessageToBuyer {
			return errors.New("smtp: 421 service not available")
		}
		return nil
	}).Times(2)

	archiver := mocks.NewMockOutcomeArchiver(ctrl)
	archiver.EXPECT().Archive(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o *domain.SettlementOutcome) error {
		require.Equal(t, 1, o.Delivered)
		require.Contains(t, o.DeliveryErr, "421")
		return nil
	})

	uc := f.settler(gateway, SettlementDeps{Archiver: archiver})
	report, err := uc.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Claimed)
	require.Equal(t, 1, report.NotificationsSent)
	require.Equal(t, 1, report.NotificationsFailed)

	got, err := f.store.Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Settled)

	// never retried
	again, err := uc.RunOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, again.Scanned)
}

func TestSettle_UnknownContactsCountAsFailedDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	a := f.auction(t, "10", t0.Add(time.Minute))
	ghost := uuid.New() // not in the user directory
	_, err := f.placeBid(nil).Execute(ctx, bidCmd(a.ID, ghost, "11"))
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)

	gateway := mocks.NewMockNotificationGateway(ctrl)
	report, err := f.settler(gateway, SettlementDeps{}).RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Sold)
	require.Equal(t, 2, report.NotificationsFailed)

	got, err := f.store.Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Settled)
}

func TestSettle_BoundaryAndFutureAuctionsUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	atNow := f.auction(t, "10", t0)
	future := f.auction(t, "10", t0.Add(time.Hour))
	gateway := mocks.NewMockNotificationGateway(ctrl)

	report, err := f.settler(gateway, SettlementDeps{}).RunOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, report.Scanned)

	for _, id := range []uuid.UUID{atNow.ID, future.ID} {
		got, err := f.store.Auctions().GetByID(ctx, id)
		require.NoError(t, err)
		require.False(t, got.Settled)
	}
}

func TestSettle_ClaimFailureRetriedNextRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	a := f.auction(t, "10", t0.Add(-time.Minute))
	gateway := mocks.NewMockNotificationGateway(ctrl)
	store := &flakyStore{Store: f.store, n: 1, err: domain.ErrTransient}
	uc := NewSettleExpiredUseCase(store, f.users, gateway, f.clock, DefaultSettlementPolicy, SettlementDeps{})

	report, err := uc.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	got, err := f.store.Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, got.Settled)

	report, err = uc.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Claimed)
}

func TestSettle_SweepLock(t *testing.T) {
	ctx := context.Background()

	t.Run("held_elsewhere_skips", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newFixture()
		a := f.auction(t, "10", t0.Add(-time.Minute))

		locker := mocks.NewMockSweepLocker(ctrl)
		locker.EXPECT().Acquire(gomock.Any(), SweepLockKey, DefaultSettlementPolicy.SweepLockTTL).Return(nil, domain.ErrLockHeld)

		report, err := f.settler(mocks.NewMockNotificationGateway(ctrl), SettlementDeps{Locker: locker}).RunOnce(ctx)
		require.NoError(t, err)
		require.True(t, report.LockHeld)

		got, err := f.store.Auctions().GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.False(t, got.Settled)
	})

	t.Run("acquired_and_released", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newFixture()
		f.auction(t, "10", t0.Add(-time.Minute))

		released := false
		locker := mocks.NewMockSweepLocker(ctrl)
		locker.EXPECT().Acquire(gomock.Any(), SweepLockKey, gomock.Any()).Return(func() { released = true }, nil)

		report, err := f.settler(mocks.NewMockNotificationGateway(ctrl), SettlementDeps{Locker: locker}).RunOnce(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Claimed)
		require.True(t, released)
	})

	t.Run("lock_backend_down_still_sweeps", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		f := newFixture()
		f.auction(t, "10", t0.Add(-time.Minute))

		locker := mocks.NewMockSweepLocker(ctrl)
		locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("dial tcp: connection refused"))

		report, err := f.settler(mocks.NewMockNotificationGateway(ctrl), SettlementDeps{Locker: locker}).RunOnce(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Claimed)
	})
}

func TestSettle_PublishesSettledEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	a := f.auction(t, "10", t0.Add(-time.Minute))

	publisher := mocks.NewMockEventPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev domain.Event) error {
		require.Equal(t, domain.EventAuctionSettled, ev.Type)
		require.Equal(t, a.ID, ev.AuctionID)
		require.False(t, ev.Sold)
		return nil
	})

	_, err := f.settler(mocks.NewMockNotificationGateway(ctrl), SettlementDeps{Publisher: publisher}).RunOnce(ctx)
	require.NoError(t, err)
}

func TestSettle_BatchSizeBoundsOneRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	f := newFixture()
	for i := 0; i < 5; i++ {
		f.auction(t, "10", t0.Add(-time.Duration(i+1)*time.Minute))
	}
	policy := DefaultSettlementPolicy
	policy.BatchSize = 2
	uc := NewSettleExpiredUseCase(f.store, f.users, mocks.NewMockNotificationGateway(ctrl), f.clock, policy, SettlementDeps{})

	total := 0
	for i := 0; i < 3; i++ {
		report, err := uc.RunOnce(ctx)
		require.NoError(t, err)
		total += report.Claimed
	}
	require.Equal(t, 5, total)
}
