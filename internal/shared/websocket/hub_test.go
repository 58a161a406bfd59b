package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

// deliver broadcasts until c sees the payload, since registration and
// broadcast travel on different channels.
func deliver(t *testing.T, hub *Hub, auctionID string, c *Client, payload string) {
	t.Helper()
	require.Eventually(t, func() bool {
		hub.BroadcastToAuction(auctionID, []byte(payload))
		select {
		case got := <-c.Send:
			return string(got) == payload
		case <-time.After(10 * time.Millisecond):
			return false
		}
	}, time.Second, time.Millisecond)
}

// next returns the first queued message that is not a "ready" probe.
func next(t *testing.T, c *Client) string {
	t.Helper()
	for {
		select {
		case got := <-c.Send:
			if string(got) != "ready" {
				return string(got)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s received nothing", c.ID)
		}
	}
}

func TestHub_BroadcastStaysInRoom(t *testing.T) {
	hub, _ := startHub(t)
	a1 := NewClient(hub, nil, "a1", "auction-a", "u1")
	a2 := NewClient(hub, nil, "a2", "auction-a", "u2")
	b1 := NewClient(hub, nil, "b1", "auction-b", "u3")
	hub.RegisterClient(a1)
	hub.RegisterClient(a2)
	hub.RegisterClient(b1)

	deliver(t, hub, "auction-a", a2, "ready")
	deliver(t, hub, "auction-b", b1, "ready")

	hub.BroadcastToAuction("auction-a", []byte("price=11"))
	require.Equal(t, "price=11", next(t, a1))
	require.Equal(t, "price=11", next(t, a2))

	time.Sleep(20 * time.Millisecond)
	for len(b1.Send) > 0 {
		require.Equal(t, "ready", string(<-b1.Send))
	}
}

func TestHub_UnregisterClosesQueue(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, nil, "c", "auction-a", "u1")
	hub.RegisterClient(c)
	deliver(t, hub, "auction-a", c, "ready")

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub, _ := startHub(t)
	slow := &Client{Hub: hub, Send: make(chan []byte), AuctionID: "auction-a", ID: "slow"}
	marker := NewClient(hub, nil, "marker", "auction-a", "u1")
	hub.RegisterClient(slow)
	hub.RegisterClient(marker)

	// registrations are served in order, so slow is in the room once marker
	// hears a broadcast; slow never reads and gets evicted by it
	deliver(t, hub, "auction-a", marker, "ready")
	time.Sleep(50 * time.Millisecond)

	select {
	case _, ok := <-slow.Send:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("slow client still registered")
	}
}

func TestHub_ShutdownClosesEveryQueue(t *testing.T) {
	hub, cancel := startHub(t)
	c := NewClient(hub, nil, "c", "auction-a", "u1")
	hub.RegisterClient(c)
	deliver(t, hub, "auction-a", c, "ready")

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestHub_InitialMessagesComeFirst(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, nil, "c", "auction-a", "u1")
	hub.RegisterClient(c, []byte("state"), []byte("hello"))

	hub.BroadcastToAuction("auction-a", []byte("price=11"))
	require.Equal(t, "state", next(t, c))
	require.Equal(t, "hello", next(t, c))

	deliver(t, hub, "auction-a", c, "ready")
}

func TestHub_SendTo(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, nil, "c", "auction-a", "u1")
	hub.RegisterClient(c)
	deliver(t, hub, "auction-a", c, "ready")

	hub.SendTo(c, []byte("ack"))
	require.Equal(t, "ack", next(t, c))

	hub.UnregisterClient(c)
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	// a departed client is skipped and the hub keeps serving
	hub.SendTo(c, []byte("late"))
	other := NewClient(hub, nil, "other", "auction-b", "u2")
	hub.RegisterClient(other)
	deliver(t, hub, "auction-b", other, "ready")
}
