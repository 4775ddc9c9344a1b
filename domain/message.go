// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once created and are never edited or deleted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one immutable chat message addressed to a room.
// Text is stored verbatim; the only validation performed on it is the
// emptiness check on a trimmed copy at send time.
type Message struct {
	ID        uuid.UUID
	Room      string
	AuthorID  string
	Username  string
	Text      string
	CreatedAt time.Time
}
