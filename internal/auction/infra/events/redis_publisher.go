// Package events fans auction events out across instances. Each instance
// publishes on a shared redis channel and relays what it receives to its own
// websocket rooms.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Bus is the pub/sub transport, implemented by the shared redis package.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BusPublisher implements domain.EventPublisher by writing JSON events to a
// bus channel.
type BusPublisher struct {
	bus     Bus
	channel string
}

var _ domain.EventPublisher = (*BusPublisher)(nil)

func NewBusPublisher(bus Bus, channel string) *BusPublisher {
	return &BusPublisher{bus: bus, channel: channel}
}

func (p *BusPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	if err := p.bus.Publish(ctx, p.channel, payload); err != nil {
		return fmt.Errorf("publish %s event for auction %s: %w", event.Type, event.AuctionID, err)
	}
	return nil
}

// Relay subscribes to channel and hands every decoded event to target until
// ctx is done. Undecodable payloads are logged and skipped.
func Relay(ctx context.Context, bus Bus, channel string, target domain.EventPublisher) error {
	msgs, err := bus.Subscribe(ctx, channel)
	if err != nil {
		return err
	}
	log.Info("event relay started", zap.String("channel", channel))

	for payload := range msgs {
		var event domain.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Warn("event relay: dropping malformed payload",
				zap.String("channel", channel),
				zap.ByteString("payload", payload),
				zap.Error(err),
			)
			continue
		}
		if err := target.Publish(ctx, event); err != nil {
			log.Warn("event relay: local delivery failed",
				zap.String("auctionID", event.AuctionID.String()),
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
		}
	}
	log.Info("event relay stopped", zap.String("channel", channel))
	return nil
}
