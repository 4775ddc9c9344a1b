// Package event defines the outbound domain events delivered to connected
// clients. Wire names and payload shapes are part of the protocol and must
// stay stable.
package event

import "time"

// DomainEvent is anything the coordinator can deliver to a connection sink.
// EventName returns the wire name used in the transport envelope.
type DomainEvent interface {
	EventName() string
}

// MessageView is the client-facing projection of a stored message.
// CreatedAt marshals as RFC 3339 with an explicit offset, never a
// locale-dependent string.
type MessageView struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomJoined confirms a join to the joining connection only. Receiving it
// signals the client it may now send messages, so it is always delivered
// after HistoryLoaded.
type RoomJoined struct {
	Room string `json:"room"`
}

func (RoomJoined) EventName() string { return "joinedRoom" }

// HistoryLoaded carries the bounded recent slice of a room's log, ordered
// oldest to newest. It marshals as a bare array, matching the protocol.
type HistoryLoaded []MessageView

func (HistoryLoaded) EventName() string { return "loadHistory" }

// UserJoined is broadcast to the other members of a room when a connection
// joins it.
type UserJoined struct {
	Username string `json:"username"`
}

func (UserJoined) EventName() string { return "userJoined" }

// UserLeft is broadcast to the remaining members of a room when a
// connection leaves it or disconnects.
type UserLeft struct {
	Username string `json:"username"`
}

func (UserLeft) EventName() string { return "userLeft" }

// MessagePosted is broadcast to every member of the room, including the
// sender. The sender's own echo is how the client confirms delivery and
// learns the server-assigned timestamp.
type MessagePosted struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"createdAt"`
}

func (MessagePosted) EventName() string { return "newMessage" }

// ChatError is delivered only to the connection that triggered the failure.
// Reason is a stable code from the errors package; Message is human-readable.
type ChatError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (ChatError) EventName() string { return "chatError" }
