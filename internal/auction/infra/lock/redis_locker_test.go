package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/config"
	sharedredis "github.com/cristianortiz/auctionEase/internal/shared/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *sharedredis.Client {
	t.Helper()
	addr := os.Getenv("AUCTION_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AUCTION_TEST_REDIS_ADDR not set")
	}
	c, err := sharedredis.New(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLocker_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	l := NewLocker(testClient(t))
	key := "test-" + uuid.NewString()

	release, err := l.Acquire(ctx, key, 10*time.Second)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key, 10*time.Second)
	require.ErrorIs(t, err, domain.ErrLockHeld)

	release()
	release()

	again, err := l.Acquire(ctx, key, 10*time.Second)
	require.NoError(t, err)
	again()
}

func TestLocker_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	l := NewLocker(testClient(t))
	key := "test-" + uuid.NewString()

	_, err := l.Acquire(ctx, key, 100*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		release, err := l.Acquire(ctx, key, time.Second)
		if err != nil {
			return false
		}
		release()
		return true
	}, 2*time.Second, 50*time.Millisecond)
}
