package runtime

import (
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) Consume(_ context.Context, _ event.DomainEvent) error { return nil }

func TestRegistry_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()

	// Given no connection is known
	req.Empty(registry.conns)

	// When a transport connection registers
	registry.Register(connID, nopSink{})

	// Then it exists with no identity and no room
	state, err := registry.Lookup(connID)
	req.NoError(err)
	req.Equal(connID, state.ConnID)
	req.False(state.HasIdentity())
	req.False(state.InRoom())
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, err := registry.Lookup(uuid.NewString())
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestRegistry_SetIdentity_PopulatesRoomIndex(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	registry.Register(connID, nopSink{})

	// When the first join records identity and room
	err := registry.SetIdentity(connID, "user-1", "alice", "general")
	req.NoError(err)

	// Then state and index agree
	state, err := registry.Lookup(connID)
	req.NoError(err)
	req.Equal("user-1", state.UserID)
	req.Equal("alice", state.Username)
	req.Equal("general", state.Room)
	req.Equal([]string{connID}, registry.Members("general"))
	req.Len(registry.Sinks("general"), 1)
}

func TestRegistry_SetIdentity_IsSetOnce(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	registry.Register(connID, nopSink{})
	req.NoError(registry.SetIdentity(connID, "user-1", "alice", "general"))

	// When a second call claims a different identity
	req.NoError(registry.SetIdentity(connID, "user-2", "mallory", "lobby"))

	// Then only the room moved; who the connection is never changes
	state, err := registry.Lookup(connID)
	req.NoError(err)
	req.Equal("user-1", state.UserID)
	req.Equal("alice", state.Username)
	req.Equal("lobby", state.Room)
	req.Empty(registry.Members("general"))
	req.Equal([]string{connID}, registry.Members("lobby"))
}

func TestRegistry_SetIdentity_NotRegistered(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	err := registry.SetIdentity(uuid.NewString(), "user-1", "alice", "general")
	req.ErrorIs(err, errors.ErrNotRegistered)
}

func TestRegistry_SetRoom_ClearAndMove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	registry.Register(connID, nopSink{})
	req.NoError(registry.SetIdentity(connID, "user-1", "alice", "general"))

	// When the room is cleared
	req.NoError(registry.SetRoom(connID, ""))

	// Then the connection stays, the empty room entry is gone
	state, err := registry.Lookup(connID)
	req.NoError(err)
	req.True(state.HasIdentity())
	req.False(state.InRoom())
	req.Empty(registry.roomMembers)
}

func TestRegistry_SetRoom_NotRegistered(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	err := registry.SetRoom(uuid.NewString(), "general")
	req.ErrorIs(err, errors.ErrNotRegistered)
}

func TestRegistry_Remove_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	registry.Register(connID, nopSink{})
	req.NoError(registry.SetIdentity(connID, "user-1", "alice", "general"))

	// When removed twice in a row
	registry.Remove(connID)
	registry.Remove(connID)

	// Then everything is gone and nothing panicked
	req.Empty(registry.conns)
	req.Empty(registry.roomMembers)
	_, err := registry.Lookup(connID)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestRegistry_SinksExcept(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connA := uuid.NewString()
	connB := uuid.NewString()
	registry.Register(connA, nopSink{})
	registry.Register(connB, nopSink{})
	req.NoError(registry.SetIdentity(connA, "user-a", "alice", "general"))
	req.NoError(registry.SetIdentity(connB, "user-b", "bob", "general"))

	// The exclusion drops exactly the actor, not anyone else
	req.Len(registry.Sinks("general"), 2)
	req.Len(registry.SinksExcept("general", connA), 1)
	req.Len(registry.SinksExcept("general", uuid.NewString()), 2)
}

func TestRegistry_Counts(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connA := uuid.NewString()
	connB := uuid.NewString()
	registry.Register(connA, nopSink{})
	registry.Register(connB, nopSink{})
	req.NoError(registry.SetIdentity(connA, "user-a", "alice", "general"))

	req.Equal(2, registry.ConnectionCount())
	req.Equal(1, registry.RoomCount())

	registry.Remove(connA)
	req.Equal(1, registry.ConnectionCount())
	req.Equal(0, registry.RoomCount())
}
