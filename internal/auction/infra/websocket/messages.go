package websocket

import (
	"github.com/cristianortiz/auctionEase/internal/auction/application"
	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MessageType defines ws type message
type MessageType string

const (
	MessageTypeClientBid            MessageType = "client_bid"             // client msg to make a bid
	MessageTypeServerInitialState   MessageType = "server_initial_state"   // auction state sent on connect
	MessageTypeServerBidAccepted    MessageType = "server_bid_accepted"    // ack to the bidder
	MessageTypeServerBidPlaced      MessageType = "server_bid_placed"      // broadcast after a bid commits
	MessageTypeServerAuctionSettled MessageType = "server_auction_settled" // broadcast after settlement
	MessageTypeServerError          MessageType = "server_error"           // server msg indicating error
)

// BaseMessage is base struct for all the WS messages, includes a Type field for identify the message type
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is the DTO of a bid sent by the client. The bidder is the
// authenticated user of the connection, never a payload field.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		AuctionID uuid.UUID       `json:"auction_id"`
		Amount    decimal.Decimal `json:"amount"`
	} `json:"payload"`
}

type ServerInitialStateMessage struct {
	BaseMessage
	Payload *application.AuctionStateDTO `json:"payload"`
}

type ServerBidAcceptedMessage struct {
	BaseMessage
	Payload struct {
		BidID     uuid.UUID       `json:"bid_id"`
		AuctionID uuid.UUID       `json:"auction_id"`
		Amount    decimal.Decimal `json:"amount"`
	} `json:"payload"`
}

// ServerEventMessage carries a domain event to every client of a room.
type ServerEventMessage struct {
	BaseMessage
	Payload domain.Event `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Reason string `json:"reason"`
		Error  string `json:"error"`
	} `json:"payload"`
}

func eventMessageType(t domain.EventType) MessageType {
	if t == domain.EventAuctionSettled {
		return MessageTypeServerAuctionSettled
	}
	return MessageTypeServerBidPlaced
}
