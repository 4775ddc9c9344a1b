package repositories

import (
	"chat-rooms/domain"
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

type ISearchIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, room, terms string, limit int) ([]domain.Message, error)
}

// SearchIndex is a Bluge full-text index over the message log. It is fed
// asynchronously by the indexer worker: indexing lag never blocks the send
// path, and a message missing from the index is still in badger.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index upserts one message document. The message ID is the document
// identifier, so re-indexing the same message is idempotent.
func (s *SearchIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("room", message.Room).StoreValue()).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewKeywordField("username", message.Username).StoreValue()).
		AddField(bluge.NewKeywordField("author_id", message.AuthorID).StoreValue()).
		AddField(bluge.NewStoredOnlyField("created_at",
			[]byte(message.CreatedAt.UTC().Format(time.RFC3339Nano))))

	return s.writer.Update(doc.ID(), doc)
}

// Search returns the best-scoring messages of a room matching the terms.
func (s *SearchIndex) Search(ctx context.Context, room, terms string, limit int) ([]domain.Message, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			s.log.Warn("Failed to close index reader", "error", cerr)
		}
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("text")).
		AddMust(bluge.NewTermQuery(room).SetField("room"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var results []domain.Message
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var message domain.Message
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					message.ID = id
				}
			case "room":
				message.Room = string(value)
			case "text":
				message.Text = string(value)
			case "username":
				message.Username = string(value)
			case "author_id":
				message.AuthorID = string(value)
			case "created_at":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					message.CreatedAt = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		results = append(results, message)
	}
	return results, nil
}
