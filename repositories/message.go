//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-rooms/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Store(message domain.Message) error
	Since(room string, since time.Time) ([]domain.Message, error)
}

// MessageRepository is the durable, append-only per-room message log,
// backed by BadgerDB.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored representation of a message. It is decoupled
// from domain.Message so the storage encoding can evolve independently.
type diskMessage struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	AuthorID  string    `json:"author_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// messageKey formats the badger key as "msg:{room}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding makes lexicographical order equal
//     chronological order within a room prefix.
//  2. The UUID suffix disambiguates two messages stored in the same
//     nanosecond, so neither is overwritten.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s",
		message.Room,
		message.CreatedAt.UnixNano(),
		message.ID,
	))
}

// Store appends a message to the room's log. Messages are immutable once
// written; nothing in this repository mutates or deletes them.
func (m MessageRepository) Store(message domain.Message) error {
	bytes, err := json.Marshal(fromDomain(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
}

// Since retrieves the messages of a room created at or after the given
// instant, oldest to newest. Thanks to the padded timestamp in the key, a
// forward prefix scan starting at the window boundary is already in
// chronological order.
func (m MessageRepository) Since(room string, since time.Time) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", room))
		seekKey := append(append([]byte{}, prefix...),
			[]byte(fmt.Sprintf("%019d", since.UnixNano()))...)

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var dm diskMessage
		if err = json.Unmarshal(b, &dm); err != nil {
			return nil, err
		}
		message, err := toDomain(dm)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	m.log.Debug("History window loaded", "room", room, "count", len(messages))
	return messages, nil
}

func fromDomain(message domain.Message) diskMessage {
	return diskMessage{
		ID:        message.ID.String(),
		Room:      message.Room,
		AuthorID:  message.AuthorID,
		Username:  message.Username,
		Text:      message.Text,
		CreatedAt: message.CreatedAt.UTC(),
	}
}

func toDomain(dm diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		Room:      dm.Room,
		AuthorID:  dm.AuthorID,
		Username:  dm.Username,
		Text:      dm.Text,
		CreatedAt: dm.CreatedAt.UTC(),
	}, nil
}
