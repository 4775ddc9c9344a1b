// Package ws is the websocket transport: it upgrades HTTP connections,
// decodes client envelopes into coordinator calls, and encodes domain
// events back onto the wire.
package ws

import (
	"chat-rooms/domain/event"
	"encoding/json"
	"fmt"
	"strings"
)

// Client-to-server event names.
const (
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"
	EventLeaveRoom   = "leaveRoom"
)

// Envelope is the wire frame in both directions: an event name and its
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinRoomPayload struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Room     string `json:"room"`
}

type SendMessagePayload struct {
	Message string `json:"message"`
	Room    string `json:"room"`
}

// decodeLeaveRoom accepts the two shapes clients send: a bare JSON
// string holding the room name, or an object with a room field.
func decodeLeaveRoom(data json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var room string
		if err := json.Unmarshal(data, &room); err != nil {
			return "", fmt.Errorf("decoding leaveRoom string payload: %w", err)
		}
		return room, nil
	}
	var payload struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decoding leaveRoom object payload: %w", err)
	}
	return payload.Room, nil
}

// Encode wraps a domain event into its outgoing envelope.
func Encode(e event.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", e.EventName(), err)
	}
	frame, err := json.Marshal(Envelope{Event: e.EventName(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshaling %s envelope: %w", e.EventName(), err)
	}
	return frame, nil
}
