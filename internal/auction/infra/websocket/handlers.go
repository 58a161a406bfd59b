package websocket

import (
	"context"
	"encoding/json"

	"github.com/cristianortiz/auctionEase/internal/auction/application"
	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"github.com/cristianortiz/auctionEase/internal/shared/websocket"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// LocalsUserID is the fiber locals key under which the upgrade route stores
// the authenticated user id as a string before the connection is handed over.
const LocalsUserID = "ws.userID"

// AuctionWSHandler handles the ws inbound msgs wich are specific for auction module (remember is a bounded context)
type AuctionWSHandler struct {
	auctionService application.AuctionService
	hub            *websocket.Hub
	// ctx bounds the pumps of every connection served by this handler.
	ctx context.Context
}

// NewAuctionWSHandler creates a new instance of AuctionWSHandler. Connections
// it serves are closed when ctx ends.
func NewAuctionWSHandler(ctx context.Context, auctionService application.AuctionService, hub *websocket.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
		ctx:            ctx,
	}
}

// Serve runs one connection on /ws/auctions/:id. It sends the auction state,
// joins the auction room and blocks in the read pump until the peer leaves.
func (h *AuctionWSHandler) Serve(conn *fiberws.Conn) {
	userID, _ := conn.Locals(LocalsUserID).(string)
	auctionID, err := uuid.Parse(conn.Params("id"))
	if err != nil {
		h.rejectConn(conn, domain.ErrInvalidID)
		return
	}

	state, err := h.auctionService.GetAuctionState(h.ctx, auctionID)
	if err != nil {
		h.rejectConn(conn, err)
		return
	}

	initial, err := json.Marshal(ServerInitialStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
		Payload:     state,
	})
	if err != nil {
		log.Error("failed to marshal initial state", zap.String("auctionID", auctionID.String()), zap.Error(err))
		h.rejectConn(conn, err)
		return
	}

	client := websocket.NewClient(h.hub, conn, uuid.NewString(), auctionID.String(), userID)
	// the hub queues the state before any room event
	h.hub.RegisterClient(client, initial)

	go client.WritePump(h.ctx)
	client.ReadPump(h.ctx)
}

func (h *AuctionWSHandler) rejectConn(conn *fiberws.Conn, err error) {
	data, mErr := json.Marshal(newErrorMessage(err))
	if mErr == nil {
		_ = conn.WriteMessage(fiberws.TextMessage, data)
	}
	_ = conn.Close()
}

// ListenForMessages starts a go routine that listen the Hub inbound channel for messages and proccess every one of them
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

// processMessage dispatches the message by its type
func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendError(client, domain.ReasonInvalidRequest, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBidMessage(ctx, client, data)
	default:
		h.sendError(client, domain.ReasonInvalidRequest, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleClientBidMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendError(client, domain.ReasonInvalidAmount, "invalid bid message format")
		return
	}

	if bidMsg.Payload.AuctionID.String() != client.AuctionID {
		h.sendError(client, domain.ReasonInvalidRequest, "auction ID mismatch")
		return
	}
	bidderID, err := uuid.Parse(client.UserID)
	if err != nil {
		h.sendError(client, domain.ReasonInvalidRequest, "unauthenticated connection")
		return
	}

	bid, err := h.auctionService.PlaceBid(ctx, application.PlaceBidDTO{
		AuctionID: bidMsg.Payload.AuctionID,
		BidderID:  bidderID,
		Amount:    bidMsg.Payload.Amount,
	})
	if err != nil {
		h.send(client, newErrorMessage(err))
		return
	}

	// the room learns about the bid from the event publisher
	ack := ServerBidAcceptedMessage{BaseMessage: BaseMessage{Type: MessageTypeServerBidAccepted}}
	ack.Payload.BidID = bid.ID
	ack.Payload.AuctionID = bid.AuctionID
	ack.Payload.Amount = bid.Amount
	h.send(client, ack)
}

func newErrorMessage(err error) ServerErrorMessage {
	msg := ServerErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeServerError}}
	msg.Payload.Reason = domain.Reason(err)
	msg.Payload.Error = domain.PublicMessage(err)
	return msg
}

func (h *AuctionWSHandler) sendError(client *websocket.Client, reason, text string) {
	msg := ServerErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeServerError}}
	msg.Payload.Reason = reason
	msg.Payload.Error = text
	h.send(client, msg)
}

// send serializes v and hands it to the hub for one client.
func (h *AuctionWSHandler) send(client *websocket.Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("failed to marshal ws message", zap.Error(err))
		return
	}
	h.hub.SendTo(client, data)
}
