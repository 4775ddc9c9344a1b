package ws

import (
	"chat-rooms/domain/event"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncode_MessagePosted(t *testing.T) {
	req := require.New(t)
	createdAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	frame, err := Encode(event.MessagePosted{
		Username:  "alice",
		Text:      "hi",
		Room:      "general",
		CreatedAt: createdAt,
	})
	req.NoError(err)

	var envelope Envelope
	req.NoError(json.Unmarshal(frame, &envelope))
	req.Equal("newMessage", envelope.Event)

	var payload map[string]any
	req.NoError(json.Unmarshal(envelope.Data, &payload))
	req.Equal("alice", payload["username"])
	req.Equal("hi", payload["text"])
	req.Equal("general", payload["room"])
}

func TestEncode_HistoryIsABareArray(t *testing.T) {
	req := require.New(t)

	frame, err := Encode(event.HistoryLoaded{
		{Username: "alice", Text: "first", Room: "general"},
		{Username: "bob", Text: "second", Room: "general"},
	})
	req.NoError(err)

	var envelope Envelope
	req.NoError(json.Unmarshal(frame, &envelope))
	req.Equal("loadHistory", envelope.Event)

	var payload []map[string]any
	req.NoError(json.Unmarshal(envelope.Data, &payload))
	req.Len(payload, 2)
	req.Equal("first", payload[0]["text"])
}

func TestEncode_EmptyHistory(t *testing.T) {
	req := require.New(t)

	frame, err := Encode(event.HistoryLoaded{})
	req.NoError(err)

	var envelope Envelope
	req.NoError(json.Unmarshal(frame, &envelope))

	var payload []map[string]any
	req.NoError(json.Unmarshal(envelope.Data, &payload))
	req.Empty(payload)
}

func TestEncode_ChatError(t *testing.T) {
	req := require.New(t)

	frame, err := Encode(event.ChatError{Reason: "InvalidInput", Message: "A valid room name is required."})
	req.NoError(err)

	var envelope Envelope
	req.NoError(json.Unmarshal(frame, &envelope))
	req.Equal("chatError", envelope.Event)

	var payload map[string]string
	req.NoError(json.Unmarshal(envelope.Data, &payload))
	req.Equal("InvalidInput", payload["reason"])
}

func TestDecodeLeaveRoom(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "bare string payload", data: `"general"`, want: "general"},
		{name: "object payload", data: `{"room":"general"}`, want: "general"},
		{name: "object without room", data: `{}`, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			room, err := decodeLeaveRoom(json.RawMessage(tc.data))
			req.NoError(err)
			req.Equal(tc.want, room)
		})
	}
}

func TestDecodeLeaveRoom_Malformed(t *testing.T) {
	req := require.New(t)
	_, err := decodeLeaveRoom(json.RawMessage(`"unterminated`))
	req.Error(err)
}
