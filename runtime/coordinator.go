package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Coordinator drives the per-connection state machine:
//
//	Connected-NoIdentity -> Connected-NoRoom -> Connected-InRoom -> Terminated
//
// The transport calls it from a single goroutine per connection, in delivery
// order, so one connection's operations never overlap. Cross-connection
// consistency comes from the registry lock plus a per-room ordering lock on
// the send path, which guarantees that within a room the broadcast order
// equals the store's append order.
type Coordinator struct {
	log           *slog.Logger
	registry      contract.IRegistry
	messages      repositories.IMessageRepository
	monitor       *observability.Monitor
	historyWindow time.Duration
	indexQueue    chan<- domain.Message

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewCoordinator(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, monitor *observability.Monitor,
	historyWindow time.Duration, indexQueue chan<- domain.Message) *Coordinator {
	return &Coordinator{
		log:           log,
		registry:      registry,
		messages:      messages,
		monitor:       monitor,
		historyWindow: historyWindow,
		indexQueue:    indexQueue,
		roomLocks:     make(map[string]*sync.Mutex),
	}
}

// Connect registers a fresh transport connection with no identity yet.
// The only event accepted in this state is a join.
func (c *Coordinator) Connect(connID string, sink contract.EventSink) {
	c.registry.Register(connID, sink)
	c.log.Debug("Connection registered", "conn_id", connID)
}

// Join puts the connection into a room. If it is already in a different
// room, the leave sequence for the old room runs first: stale membership is
// never silently abandoned. The joiner then receives the bounded recent
// history followed by the join confirmation, in that order; the other
// members are told someone arrived.
//
// The claimed identity is trusted as-is; the transport layer replaces it
// with token-verified claims when the client authenticated its connection.
func (c *Coordinator) Join(ctx context.Context, connID, claimedUserID, claimedUsername, room string) {
	state, err := c.registry.Lookup(connID)
	if err != nil {
		// Terminated while the event was in flight: discard.
		return
	}

	if !domain.ValidRoom(room) {
		c.emitError(ctx, connID, errors.ErrInvalidInput, "A valid room name is required.")
		return
	}

	// Identity is immutable once set; a re-join only moves rooms.
	userID, username := claimedUserID, claimedUsername
	if state.HasIdentity() {
		userID, username = state.UserID, state.Username
	}
	if userID == "" || username == "" {
		c.emitError(ctx, connID, errors.ErrInvalidInput, "Username and userId are required to join.")
		return
	}

	if state.InRoom() && state.Room != room {
		oldRoom := state.Room
		if err := c.registry.SetRoom(connID, ""); err != nil {
			c.resetConnection(connID, err)
			return
		}
		c.broadcast(ctx, oldRoom, event.UserLeft{Username: username})
	}

	if err := c.registry.SetIdentity(connID, userID, username, room); err != nil {
		c.resetConnection(connID, err)
		return
	}
	c.log.Info("User joined room", "username", username, "user_id", userID, "room", room)

	c.broadcastExcept(ctx, room, connID, event.UserJoined{Username: username})

	since := time.Now().Add(-c.historyWindow)
	messages, err := c.messages.Since(room, since)
	if err != nil {
		// Partial failure is tolerated: the join stands, sending still works.
		c.log.Error("Failed to load history", "room", room, "error", err)
		c.emitError(ctx, connID, errors.ErrHistoryUnavailable, "Error loading message history.")
		return
	}

	history := lo.Map(messages, func(item domain.Message, _ int) event.MessageView {
		return event.MessageView{
			Username:  item.Username,
			Text:      item.Text,
			Room:      item.Room,
			CreatedAt: item.CreatedAt,
		}
	})
	c.emitTo(ctx, connID, event.HistoryLoaded(history))
	c.emitTo(ctx, connID, event.RoomJoined{Room: room})
}

// Send appends a message to the room's log and broadcasts it to every
// member, the sender included. The stored payload is the raw text; only the
// emptiness check runs on a trimmed copy.
func (c *Coordinator) Send(ctx context.Context, connID, text, room string) {
	state, err := c.registry.Lookup(connID)
	if err != nil {
		return
	}

	if !state.HasIdentity() {
		c.emitError(ctx, connID, errors.ErrNotAuthenticated, "Please join a room before sending messages.")
		return
	}
	if room == "" {
		c.emitError(ctx, connID, errors.ErrInvalidInput, "No room selected.")
		return
	}
	if state.Room != room {
		c.emitError(ctx, connID, errors.ErrRoomMismatch, "You are not in that room.")
		return
	}
	if strings.TrimSpace(text) == "" {
		// Whitespace-only submissions are an expected no-op, not an error.
		c.log.Debug("Empty message ignored", "username", state.Username)
		return
	}

	// The room lock makes append+broadcast atomic per room, so concurrent
	// senders cannot interleave their broadcasts against the append order.
	lock := c.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	message := domain.Message{
		ID:        uuid.New(),
		Room:      room,
		AuthorID:  state.UserID,
		Username:  state.Username,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.messages.Store(message); err != nil {
		c.log.Error("Failed to store message", "room", room, "author", state.UserID, "error", err)
		c.emitError(ctx, connID, errors.ErrSendFailed, "Error sending message.")
		return
	}

	if c.monitor != nil {
		c.monitor.IncrMessagesSent()
	}
	select {
	case c.indexQueue <- message:
	default:
		// Search indexing is best effort and never blocks the send path.
		c.log.Debug("Index queue full, message left unindexed", "id", message.ID)
	}

	c.broadcast(ctx, room, event.MessagePosted{
		Username:  message.Username,
		Text:      message.Text,
		Room:      message.Room,
		CreatedAt: message.CreatedAt,
	})
}

// Leave removes the connection from a room it is actually in; duplicate or
// late leave events are no-ops, so remaining members see exactly one
// userLeft per departure.
func (c *Coordinator) Leave(ctx context.Context, connID, room string) {
	state, err := c.registry.Lookup(connID)
	if err != nil {
		return
	}
	if room == "" || state.Room != room {
		return
	}

	if err := c.registry.SetRoom(connID, ""); err != nil {
		c.resetConnection(connID, err)
		return
	}
	c.log.Info("User left room", "username", state.Username, "room", room)
	c.broadcast(ctx, room, event.UserLeft{Username: state.Username})
}

// Disconnect terminates the connection. The registry entry is removed
// before the userLeft broadcast, so the departing connection can never
// receive its own departure, and any operation still in flight for this
// connID will find nothing and be discarded.
func (c *Coordinator) Disconnect(ctx context.Context, connID string) {
	state, err := c.registry.Lookup(connID)
	if err != nil {
		return
	}
	c.registry.Remove(connID)
	c.log.Debug("Connection terminated", "conn_id", connID, "username", state.Username)

	if state.HasIdentity() && state.InRoom() {
		c.broadcast(ctx, state.Room, event.UserLeft{Username: state.Username})
	}
}

// roomLock returns the ordering lock of a room, creating it on first use.
// Locks are never reclaimed; the map is bounded by the number of distinct
// rooms seen during the process lifetime.
func (c *Coordinator) roomLock(room string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.roomLocks[room]
	if !ok {
		lock = &sync.Mutex{}
		c.roomLocks[room] = lock
	}
	return lock
}

// emitTo delivers an event to one connection. A lookup miss means the
// connection terminated while the operation was pending; the emit is
// suppressed, never queued.
func (c *Coordinator) emitTo(ctx context.Context, connID string, e event.DomainEvent) {
	sink, ok := c.registry.Sink(connID)
	if !ok {
		return
	}
	if err := sink.Consume(ctx, e); err != nil {
		c.log.Debug("Event delivery failed", "conn_id", connID, "event", e.EventName(), "error", err)
	}
}

func (c *Coordinator) emitError(ctx context.Context, connID string, err error, message string) {
	c.emitTo(ctx, connID, event.ChatError{Reason: errors.Reason(err), Message: message})
}

// broadcast fans an event out to every current member of a room. The sink
// snapshot comes from the registry under its lock, so members that already
// left are excluded and no present member is silently skipped.
func (c *Coordinator) broadcast(ctx context.Context, room string, e event.DomainEvent) {
	for _, sink := range c.registry.Sinks(room) {
		if err := sink.Consume(ctx, e); err != nil {
			c.log.Debug("Broadcast delivery failed", "room", room, "event", e.EventName(), "error", err)
		}
	}
}

func (c *Coordinator) broadcastExcept(ctx context.Context, room, connID string, e event.DomainEvent) {
	for _, sink := range c.registry.SinksExcept(room, connID) {
		if err := sink.Consume(ctx, e); err != nil {
			c.log.Debug("Broadcast delivery failed", "room", room, "event", e.EventName(), "error", err)
		}
	}
}

// resetConnection handles a registry invariant violation: a mutation hit a
// connID the registry does not know. This is a server-side bug, not a
// client error, so it is logged loudly and the connection state is cleared.
func (c *Coordinator) resetConnection(connID string, err error) {
	c.log.Error("Registry invariant violation, resetting connection", "conn_id", connID, "error", err)
	c.registry.Remove(connID)
}
