// Package runtime hosts the room engine: the connection registry and the
// coordinator that drives join/leave/send/disconnect against it.
package runtime

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/errors"
	"sync"
)

type Set map[string]struct{}

type entry struct {
	state domain.ConnectionState
	sink  contract.EventSink
}

// Registry is the single authoritative in-memory table of live connections.
// It is rebuilt empty on every process start; there is no persistence.
//
// The primary table (connID -> state+sink) and the secondary index
// (room -> member connIDs) always mutate under the same lock, so any
// membership snapshot taken for a broadcast is consistent: a connection
// never appears in a room it already left.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*entry
	roomMembers map[string]Set
}

func NewRegistry() *Registry {
	return &Registry{
		conns:       make(map[string]*entry),
		roomMembers: make(map[string]Set),
	}
}

// Register creates an empty ConnectionState for a freshly connected
// transport connection. No identity, no room, no failure mode.
func (r *Registry) Register(connID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &entry{
		state: domain.ConnectionState{ConnID: connID},
		sink:  sink,
	}
}

// SetIdentity records the authenticated identity and the current room.
// UserID and username are written exactly once: repeated calls for the same
// connection only move it between rooms, they never rewrite who it is.
func (r *Registry) SetIdentity(connID, userID, username, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return errors.ErrNotRegistered
	}
	if !e.state.HasIdentity() {
		e.state.UserID = userID
		e.state.Username = username
	}
	r.moveRoomLocked(e, room)
	return nil
}

// SetRoom updates the connection's current room; an empty room means
// "connected but in no room".
func (r *Registry) SetRoom(connID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return errors.ErrNotRegistered
	}
	r.moveRoomLocked(e, room)
	return nil
}

// moveRoomLocked updates the room index together with the connection state.
// Callers must hold the write lock.
func (r *Registry) moveRoomLocked(e *entry, room string) {
	if e.state.Room == room {
		return
	}
	if e.state.Room != "" {
		r.dropMemberLocked(e.state.Room, e.state.ConnID)
	}
	e.state.Room = room
	if room == "" {
		return
	}
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(Set)
	}
	r.roomMembers[room][e.state.ConnID] = struct{}{}
}

// dropMemberLocked removes a member and deletes the room entry once the
// last member is gone, so abandoned rooms do not accumulate.
func (r *Registry) dropMemberLocked(room, connID string) {
	members, ok := r.roomMembers[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.roomMembers, room)
	}
}

// Lookup returns a copy of the connection's state, or ErrNotFound once the
// connection has terminated.
func (r *Registry) Lookup(connID string) (domain.ConnectionState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return domain.ConnectionState{}, errors.ErrNotFound
	}
	return e.state, nil
}

// Remove deletes the connection and its room membership. Idempotent.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return
	}
	if e.state.Room != "" {
		r.dropMemberLocked(e.state.Room, connID)
	}
	delete(r.conns, connID)
}

// Sink resolves a single connection's delivery channel.
func (r *Registry) Sink(connID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	return e.sink, true
}

// Sinks returns the delivery channels of every current member of a room,
// as one consistent snapshot.
func (r *Registry) Sinks(room string) []contract.EventSink {
	return r.sinksExceptLocked(room, "")
}

// SinksExcept is Sinks minus one connection, used for "everyone but the
// actor" broadcasts such as userJoined.
func (r *Registry) SinksExcept(room, connID string) []contract.EventSink {
	return r.sinksExceptLocked(room, connID)
}

func (r *Registry) sinksExceptLocked(room, excluded string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connID := range members {
		if connID == excluded {
			continue
		}
		if e, exists := r.conns[connID]; exists {
			sinks = append(sinks, e.sink)
		}
	}
	return sinks
}

// Members returns the connection IDs currently in a room.
func (r *Registry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for connID := range members {
		ids = append(ids, connID)
	}
	return ids
}

// ConnectionCount reports the number of live connections, for telemetry.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// RoomCount reports the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roomMembers)
}
