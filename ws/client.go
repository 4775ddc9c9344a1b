package ws

import (
	"chat-rooms/contract"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client owns one websocket connection. All inbound frames are decoded
// and dispatched to the coordinator from the single read pump goroutine,
// which is what gives each connection its delivery-order guarantee.
// Outbound events go through a buffered channel drained by the write
// pump, so a slow client never blocks a broadcast.
type Client struct {
	log         *slog.Logger
	connID      string
	conn        *websocket.Conn
	coordinator contract.ICoordinator

	// Token-verified identity; empty when the connection is anonymous.
	// When set, it overrides whatever the join payload claims.
	verifiedUserID   string
	verifiedUsername string

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func newClient(log *slog.Logger, connID string, conn *websocket.Conn,
	coordinator contract.ICoordinator, sendBuffer int) *Client {
	return &Client{
		log:         log.With("conn_id", connID),
		connID:      connID,
		conn:        conn,
		coordinator: coordinator,
		send:        make(chan []byte, sendBuffer),
	}
}

// Consume implements contract.EventSink: it encodes the event and queues
// it for the write pump. Events for a closed connection are silently
// dropped, and a full buffer is reported rather than waited on.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	frame, err := Encode(e)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return fmt.Errorf("send buffer full for connection %s", c.connID)
	}
}

// closeSend marks the client closed and closes the outbound channel so
// the write pump drains and exits. Safe to call more than once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.coordinator.Disconnect(ctx, c.connID)
		c.closeSend()
		if err := c.conn.Close(); err != nil {
			c.log.Debug("Error closing connection in read pump", "err", err)
		}
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Debug("Error setting initial read deadline", "err", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("Unexpected websocket close", "err", err)
			}
			return
		}
		c.dispatch(ctx, raw)
	}
}

// dispatch decodes one inbound frame and routes it to the coordinator.
// Unknown event names are ignored; unparseable payloads earn the client
// a chatError instead of a disconnect.
func (c *Client) dispatch(ctx context.Context, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.log.Debug("Malformed frame", "err", err)
		c.rejectFrame(ctx, "Malformed message envelope.")
		return
	}

	switch envelope.Event {
	case EventJoinRoom:
		var payload JoinRoomPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.rejectFrame(ctx, "Malformed joinRoom payload.")
			return
		}
		userID, username := payload.UserID, payload.Username
		if c.verifiedUserID != "" {
			userID, username = c.verifiedUserID, c.verifiedUsername
		}
		c.coordinator.Join(ctx, c.connID, userID, username, payload.Room)

	case EventSendMessage:
		var payload SendMessagePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.rejectFrame(ctx, "Malformed sendMessage payload.")
			return
		}
		c.coordinator.Send(ctx, c.connID, payload.Message, payload.Room)

	case EventLeaveRoom:
		room, err := decodeLeaveRoom(envelope.Data)
		if err != nil {
			c.rejectFrame(ctx, "Malformed leaveRoom payload.")
			return
		}
		c.coordinator.Leave(ctx, c.connID, room)

	default:
		c.log.Debug("Unknown event ignored", "event", envelope.Event)
	}
}

func (c *Client) rejectFrame(ctx context.Context, message string) {
	err := c.Consume(ctx, event.ChatError{Reason: errors.ReasonInvalidInput, Message: message})
	if err != nil {
		c.log.Debug("Could not deliver frame rejection", "err", err)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.log.Debug("Error closing connection in write pump", "err", err)
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Debug("Error setting write deadline", "err", err)
				return
			}
			if !ok {
				// closeSend ran: tell the peer we are done.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Error writing frame", "err", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.Debug("Error setting write deadline for ping", "err", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
