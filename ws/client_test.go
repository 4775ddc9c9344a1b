package ws

import (
	"chat-rooms/contract"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCoordinator records calls without touching any real state.
type fakeCoordinator struct {
	joins       []string
	sends       []string
	leaves      []string
	disconnects int
}

func (f *fakeCoordinator) Connect(string, contract.EventSink) {}

func (f *fakeCoordinator) Join(_ context.Context, connID, userID, username, room string) {
	f.joins = append(f.joins, userID+"/"+username+"/"+room)
}

func (f *fakeCoordinator) Send(_ context.Context, connID, text, room string) {
	f.sends = append(f.sends, text+"/"+room)
}

func (f *fakeCoordinator) Leave(_ context.Context, connID, room string) {
	f.leaves = append(f.leaves, room)
}

func (f *fakeCoordinator) Disconnect(context.Context, string) {
	f.disconnects++
}

func newDispatchClient(coordinator contract.ICoordinator) *Client {
	// No conn: dispatch and Consume only touch the send channel.
	return newClient(slog.Default(), "conn-1", nil, coordinator, 8)
}

func TestDispatch_JoinRoom(t *testing.T) {
	req := require.New(t)
	coordinator := &fakeCoordinator{}
	client := newDispatchClient(coordinator)

	client.dispatch(context.Background(),
		[]byte(`{"event":"joinRoom","data":{"username":"alice","userId":"user-a","room":"general"}}`))

	req.Equal([]string{"user-a/alice/general"}, coordinator.joins)
}

func TestDispatch_JoinRoom_VerifiedIdentityWins(t *testing.T) {
	req := require.New(t)
	coordinator := &fakeCoordinator{}
	client := newDispatchClient(coordinator)
	client.verifiedUserID = "token-user"
	client.verifiedUsername = "tokenalice"

	// The payload claims someone else; the token claims win
	client.dispatch(context.Background(),
		[]byte(`{"event":"joinRoom","data":{"username":"mallory","userId":"user-m","room":"general"}}`))

	req.Equal([]string{"token-user/tokenalice/general"}, coordinator.joins)
}

func TestDispatch_SendMessage(t *testing.T) {
	req := require.New(t)
	coordinator := &fakeCoordinator{}
	client := newDispatchClient(coordinator)

	client.dispatch(context.Background(),
		[]byte(`{"event":"sendMessage","data":{"message":"hi","room":"general"}}`))

	req.Equal([]string{"hi/general"}, coordinator.sends)
}

func TestDispatch_LeaveRoom_BareString(t *testing.T) {
	req := require.New(t)
	coordinator := &fakeCoordinator{}
	client := newDispatchClient(coordinator)

	client.dispatch(context.Background(), []byte(`{"event":"leaveRoom","data":"general"}`))

	req.Equal([]string{"general"}, coordinator.leaves)
}

func TestDispatch_UnknownEventIsIgnored(t *testing.T) {
	req := require.New(t)
	coordinator := &fakeCoordinator{}
	client := newDispatchClient(coordinator)

	client.dispatch(context.Background(), []byte(`{"event":"selfDestruct","data":{}}`))

	req.Empty(coordinator.joins)
	req.Empty(coordinator.sends)
	req.Empty(coordinator.leaves)
	req.Empty(client.send)
}

func TestDispatch_MalformedEnvelopeGetsChatError(t *testing.T) {
	req := require.New(t)
	coordinator := &fakeCoordinator{}
	client := newDispatchClient(coordinator)

	client.dispatch(context.Background(), []byte(`{not json`))

	// The rejection is queued for the write pump, nothing reaches the coordinator
	req.Empty(coordinator.joins)
	req.Len(client.send, 1)

	var envelope Envelope
	req.NoError(json.Unmarshal(<-client.send, &envelope))
	req.Equal("chatError", envelope.Event)
}

func TestConsume_AfterCloseIsSuppressed(t *testing.T) {
	req := require.New(t)
	client := newDispatchClient(&fakeCoordinator{})

	client.closeSend()
	client.closeSend() // idempotent

	err := client.Consume(context.Background(), mustChatError())
	req.NoError(err)
}

func TestConsume_FullBufferErrors(t *testing.T) {
	req := require.New(t)
	client := newClient(slog.Default(), "conn-1", nil, &fakeCoordinator{}, 1)

	req.NoError(client.Consume(context.Background(), mustChatError()))
	req.Error(client.Consume(context.Background(), mustChatError()))
}

func mustChatError() event.ChatError {
	return event.ChatError{Reason: errors.ReasonInternal, Message: "test"}
}
