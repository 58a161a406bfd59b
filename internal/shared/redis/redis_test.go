package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cristianortiz/auctionEase/internal/shared/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// These tests need a live server; set AUCTION_TEST_REDIS_ADDR to run them.
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("AUCTION_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AUCTION_TEST_REDIS_ADDR not set")
	}
	c, err := New(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBus_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewBus(testClient(t))
	channel := "test-" + uuid.NewString()

	msgs, err := b.Subscribe(ctx, channel)
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, channel, []byte(`{"hello":"world"}`)))

	select {
	case got := <-msgs:
		require.JSONEq(t, `{"hello":"world"}`, string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	cancel()
	select {
	case _, ok := <-msgs:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}
