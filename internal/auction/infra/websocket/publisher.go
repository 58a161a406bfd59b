package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/websocket"
)

// HubPublisher implements domain.EventPublisher for the clients connected to
// this instance.
type HubPublisher struct {
	hub *websocket.Hub
}

var _ domain.EventPublisher = (*HubPublisher)(nil)

func NewHubPublisher(hub *websocket.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, event domain.Event) error {
	data, err := json.Marshal(ServerEventMessage{
		BaseMessage: BaseMessage{Type: eventMessageType(event.Type)},
		Payload:     event,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	p.hub.BroadcastToAuction(event.AuctionID.String(), data)
	return nil
}
