// Package domain contains core concepts of the chat system.
// This file defines the per-connection session state tracked by the registry.
package domain

// ConnectionState tracks one live transport connection. It exists only
// between transport-connect and transport-disconnect.
//
// UserID and Username are set exactly once, on the first successful join,
// and never change afterwards: a connection represents one authenticated
// session, not a re-authenticatable one. Room is empty while the connection
// is not a member of any room.
type ConnectionState struct {
	ConnID   string
	UserID   string
	Username string
	Room     string
}

// HasIdentity reports whether the connection completed a join at least once.
func (s ConnectionState) HasIdentity() bool {
	return s.UserID != ""
}

// InRoom reports whether the connection is currently a member of a room.
func (s ConnectionState) InRoom() bool {
	return s.Room != ""
}
