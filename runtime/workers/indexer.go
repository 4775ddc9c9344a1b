package workers

import (
	"chat-rooms/domain"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"context"
	"log/slog"
)

// IndexerWorker drains the message queue fed by the send path and writes
// each message into the full-text index. Indexing runs off the hot path,
// so a slow or failing index never delays a broadcast.
type IndexerWorker struct {
	log     *slog.Logger
	queue   <-chan domain.Message
	index   repositories.ISearchIndex
	monitor *observability.Monitor
}

func NewIndexerWorker(log *slog.Logger, queue <-chan domain.Message,
	index repositories.ISearchIndex, monitor *observability.Monitor) *IndexerWorker {
	return &IndexerWorker{log: log, queue: queue, index: index, monitor: monitor}
}

func (w *IndexerWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping indexer")
			return nil
		case message := <-w.queue:
			if err := w.index.Index(message); err != nil {
				// The message is already stored and broadcast; a failed
				// index entry only narrows search results.
				w.log.Error("Failed to index message", "id", message.ID, "room", message.Room, "err", err)
				continue
			}
			w.monitor.IncrMessagesIndexed()
		}
	}
}
