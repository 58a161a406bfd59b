package websocket

import (
	"context"
	"time"

	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"github.com/cristianortiz/auctionEase/internal/shared/metrics"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Capacity of the hub control channels and of each client's outbound queue.
	queueSize = 256
)

// Hub keeps the registry of live connections, grouped in one room per
// auction, and fans broadcast messages out to every client of a room.
type Hub struct {
	// rooms maps an auction id to its clients; the bool value is ignored.
	rooms      map[string]map[*Client]bool
	broadcast  chan *Message
	direct     chan *directMessage
	register   chan *registration
	unregister chan *Client
	// InboundMessages is consumed by module specific handlers (the auction ws handler).
	InboundMessages chan *ClientMessage
}

// Client is one websocket connection joined to an auction room.
type Client struct {
	Hub *Hub
	// Conn is nil for clients that never touch the network (tests).
	Conn *websocket.Conn
	// Send is the buffered queue of outbound messages.
	Send chan []byte
	// AuctionID is the room this client joined.
	AuctionID string
	// UserID is the authenticated user behind the connection.
	UserID string
	// ID uniquely identifies the connection.
	ID         string
	RemoteAddr string

	// removed is owned by the Run goroutine; once set, Send is closed.
	removed bool
}

// NewClient builds a client for conn with an outbound queue of the hub's size.
func NewClient(hub *Hub, conn *websocket.Conn, id, auctionID, userID string) *Client {
	c := &Client{
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, queueSize),
		AuctionID: auctionID,
		UserID:    userID,
		ID:        id,
	}
	if conn != nil {
		c.RemoteAddr = conn.RemoteAddr().String()
	}
	return c
}

type Message struct {
	AuctionID string
	Data      []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

type registration struct {
	client  *Client
	initial [][]byte
}

// ClientMessage wraps a message received from a client so hub handlers know
// who sent it.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:       make(chan *Message, queueSize),
		direct:          make(chan *directMessage, queueSize),
		register:        make(chan *registration, queueSize),
		unregister:      make(chan *Client, queueSize),
		rooms:           make(map[string]map[*Client]bool),
		InboundMessages: make(chan *ClientMessage, queueSize),
	}
}

func (h *Hub) total() int {
	count := 0
	for _, clients := range h.rooms {
		count += len(clients)
	}
	return count
}

// Run serves the hub channels until ctx is done. Every registry change
// happens on this goroutine.
func (h *Hub) Run(ctx context.Context) {
	log.Info("Websocket Hub started")
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.rooms {
				for client := range clients {
					client.removed = true
					close(client.Send)
				}
			}
			h.rooms = make(map[string]map[*Client]bool)
			metrics.LiveConnections.Set(0)
			log.Info("WebSocket Hub shutting down due to context cancellation")
			return

		case reg := <-h.register:
			client := reg.client
			if client.removed {
				// unregistered before the registration was served
				continue
			}
			if !h.queueInitial(client, reg.initial) {
				continue
			}
			if _, ok := h.rooms[client.AuctionID]; !ok {
				h.rooms[client.AuctionID] = make(map[*Client]bool)
			}
			h.rooms[client.AuctionID][client] = true
			metrics.LiveConnections.Inc()
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.String("auctionID", client.AuctionID),
				zap.String("remote_addr", client.RemoteAddr),
				zap.Int("total_clients", h.total()),
			)

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.direct:
			if msg.client.removed {
				log.Debug("Dropping message for departed client", zap.String("clientID", msg.client.ID))
				continue
			}
			select {
			case msg.client.Send <- msg.data:
			default:
				log.Warn("Client send queue full, unregistering",
					zap.String("clientID", msg.client.ID),
					zap.String("auctionID", msg.client.AuctionID),
				)
				h.remove(msg.client)
			}

		case message := <-h.broadcast:
			clients, ok := h.rooms[message.AuctionID]
			if !ok {
				continue
			}
			log.Debug("Broadcasting message to auction", zap.String("auctionID", message.AuctionID), zap.Int("clients", len(clients)))
			for client := range clients {
				select {
				case client.Send <- message.Data:
				default:
					// slow consumer; drop it rather than stall the room
					log.Warn("Failed to Send message to client, unregistering",
						zap.String("clientID", client.ID),
						zap.String("auctionID", client.AuctionID),
						zap.String("remote_addr", client.RemoteAddr),
					)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) queueInitial(client *Client, initial [][]byte) bool {
	for _, data := range initial {
		select {
		case client.Send <- data:
		default:
			log.Warn("Client send queue full before registration", zap.String("clientID", client.ID))
			h.remove(client)
			return false
		}
	}
	return true
}

// remove closes the client's queue exactly once, whether or not its
// registration was served yet.
func (h *Hub) remove(client *Client) {
	if client.removed {
		return
	}
	client.removed = true
	close(client.Send)

	clients, ok := h.rooms[client.AuctionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	metrics.LiveConnections.Dec()
	log.Info("Client unregistered",
		zap.String("clientID", client.ID),
		zap.String("auctionID", client.AuctionID),
		zap.String("remote_addr", client.RemoteAddr),
		zap.Int("total_clients", h.total()),
	)
	if len(clients) == 0 {
		delete(h.rooms, client.AuctionID)
		log.Debug("Auction room removed as empty", zap.String("auctionID", client.AuctionID))
	}
}

// RegisterClient queues client for registration. The initial messages are
// queued for the client ahead of any broadcast to its room.
func (h *Hub) RegisterClient(client *Client, initial ...[]byte) {
	select {
	case h.register <- &registration{client: client, initial: initial}:
		log.Debug("Client queued for registration",
			zap.String("clientID", client.ID),
			zap.String("auctionID", client.AuctionID),
		)
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID),
			zap.String("auctionID", client.AuctionID),
		)
		if client.Conn != nil {
			_ = client.Conn.Close()
		}
	}
}

// UnregisterClient queues client for removal. Removing twice is harmless.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
		log.Debug("Client queued for unregistration",
			zap.String("clientID", client.ID),
			zap.String("auctionID", client.AuctionID),
		)
	default:
		log.Error("Unregister channel is full, client unregistration failed",
			zap.String("clientID", client.ID),
			zap.String("auctionID", client.AuctionID),
		)
	}
}

// SendTo queues data for a single client. The message is dropped if the client
// has already left.
func (h *Hub) SendTo(client *Client, data []byte) {
	select {
	case h.direct <- &directMessage{client: client, data: data}:
	default:
		log.Error("Direct channel is full, message dropped",
			zap.String("clientID", client.ID),
			zap.String("auctionID", client.AuctionID),
		)
	}
}

// BroadcastToAuction sends data to every client in the auction's room.
func (h *Hub) BroadcastToAuction(auctionID string, data []byte) {
	select {
	case h.broadcast <- &Message{AuctionID: auctionID, Data: data}:
		log.Debug("Message queued for broadcast", zap.String("auctionID", auctionID))
	default:
		log.Error("Broadcast channel is full, message dropped", zap.String("auctionID", auctionID))
	}
}

// ReadPump reads client frames and forwards them to InboundMessages. Run one
// per connection.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("ReadPump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("auctionID", c.AuctionID),
			zap.String("remote_addr", c.RemoteAddr),
		)
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("auctionID", c.AuctionID),
					zap.String("remote_addr", c.RemoteAddr),
					zap.Error(err),
				)
			} else {
				log.Info("WebSocket connection closed by peer",
					zap.String("clientID", c.ID),
					zap.String("auctionID", c.AuctionID),
					zap.Error(err),
				)
			}
			return
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("Hub InboundMessages channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("auctionID", c.AuctionID),
				zap.ByteString("message", message),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection and keeps
// it alive with pings. It is the only writer of the connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
		log.Info("WritePump stopped for client",
			zap.String("clientID", c.ID),
			zap.String("auctionID", c.AuctionID),
			zap.String("remote_addr", c.RemoteAddr),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			err := c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			if err != nil {
				log.Debug("Failed to send close control message",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			}
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the queue
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// one JSON document per frame, clients parse frames individually
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.String("auctionID", c.AuctionID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error("Failed to write ping message to client",
					zap.String("clientID", c.ID),
					zap.String("auctionID", c.AuctionID),
					zap.Error(err),
				)
				return
			}
		}
	}
}
