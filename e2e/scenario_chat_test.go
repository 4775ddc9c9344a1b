package e2e

import (
	"chat-rooms/ws"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type testChatScenarioSuite struct {
	BaseChatSuite
}

func TestChatScenarioSuite(t *testing.T) {
	suite.Run(t, &testChatScenarioSuite{})
}

func (s *testChatScenarioSuite) TestFullChatScenario() {
	// --- STEP 0: ACCOUNT ---
	// Alice signs up and connects with her token; Bob stays anonymous.
	session := s.Signup("alice", "ComplexPass123")
	s.Require().NotEmpty(session["token"])

	alice := s.Dial("alice", session["token"])
	bob := s.Dial("bob", "")

	// --- STEP 1: FIRST JOIN ---
	s.Run("Step 1: Alice joins and receives history before confirmation", func() {
		alice.join(session["userId"], session["username"], "general")

		var history []map[string]any
		s.Require().NoError(json.Unmarshal(alice.expect("loadHistory"), &history))
		s.Require().Empty(history)

		var joined map[string]string
		s.Require().NoError(json.Unmarshal(alice.expect("joinedRoom"), &joined))
		s.Require().Equal("general", joined["room"])
	})

	// --- STEP 2: SECOND MEMBER ---
	s.Run("Step 2: Bob joins and Alice is notified", func() {
		bob.join("user-bob", "bob", "general")
		bob.expect("loadHistory")
		bob.expect("joinedRoom")

		var joined map[string]string
		s.Require().NoError(json.Unmarshal(alice.expect("userJoined"), &joined))
		s.Require().Equal("bob", joined["username"])
	})

	// --- STEP 3: BROADCAST ---
	s.Run("Step 3: Bob's message reaches both members, sender included", func() {
		bob.send(ws.EventSendMessage, ws.SendMessagePayload{Message: "hi", Room: "general"})

		for _, member := range []*chatConn{alice, bob} {
			var message map[string]any
			s.Require().NoError(json.Unmarshal(member.expect("newMessage"), &message))
			s.Require().Equal("bob", message["username"])
			s.Require().Equal("hi", message["text"])
		}
	})

	// --- STEP 4: DEPARTURE ---
	s.Run("Step 4: Bob disconnects and Alice sees him leave", func() {
		bob.close()

		var left map[string]string
		s.Require().NoError(json.Unmarshal(alice.expect("userLeft"), &left))
		s.Require().Equal("bob", left["username"])
	})
}

func (s *testChatScenarioSuite) TestHistorySurvivesReconnect() {
	alice := s.Dial("alice", "")
	alice.join("user-a", "alice", "lobby")
	alice.expect("loadHistory")
	alice.expect("joinedRoom")

	alice.send(ws.EventSendMessage, ws.SendMessagePayload{Message: "first", Room: "lobby"})
	alice.expect("newMessage")
	alice.send(ws.EventSendMessage, ws.SendMessagePayload{Message: "second", Room: "lobby"})
	alice.expect("newMessage")
	alice.close()

	// A later connection replays the log in order
	bob := s.Dial("bob", "")
	bob.join("user-b", "bob", "lobby")

	var history []map[string]any
	s.Require().NoError(json.Unmarshal(bob.expect("loadHistory"), &history))
	s.Require().Len(history, 2)
	s.Require().Equal("first", history[0]["text"])
	s.Require().Equal("second", history[1]["text"])
}

func (s *testChatScenarioSuite) TestSendBeforeJoinIsRejected() {
	alice := s.Dial("alice", "")

	alice.send(ws.EventSendMessage, ws.SendMessagePayload{Message: "hello?", Room: "general"})

	var chatErr map[string]string
	s.Require().NoError(json.Unmarshal(alice.expect("chatError"), &chatErr))
	s.Require().Equal("NotAuthenticated", chatErr["reason"])
}

func (s *testChatScenarioSuite) TestLeaveRoomAsBareString() {
	alice := s.Dial("alice", "")
	bob := s.Dial("bob", "")
	for _, member := range []*chatConn{alice, bob} {
		member.join("user-"+member.name, member.name, "general")
		member.expect("loadHistory")
		member.expect("joinedRoom")
	}
	alice.expect("userJoined") // bob arriving

	// The legacy client encodes leaveRoom data as a plain string
	bob.send(ws.EventLeaveRoom, "general")

	var left map[string]string
	s.Require().NoError(json.Unmarshal(alice.expect("userLeft"), &left))
	s.Require().Equal("bob", left["username"])
}

func (s *testChatScenarioSuite) TestInvalidTokenIsRejected() {
	s.DialExpectReject("not-a-jwt")
}

func (s *testChatScenarioSuite) TestSearchFindsIndexedMessages() {
	alice := s.Dial("alice", "")
	alice.join("user-a", "alice", "devops")
	alice.expect("loadHistory")
	alice.expect("joinedRoom")

	alice.send(ws.EventSendMessage, ws.SendMessagePayload{Message: "deploy finished", Room: "devops"})
	alice.expect("newMessage")

	// Indexing is asynchronous; poll until the hit shows up
	s.Require().Eventually(func() bool {
		resp, err := http.Get(s.server.URL + "/search?room=devops&q=deploy")
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		defer resp.Body.Close()
		var hits []map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
			return false
		}
		return len(hits) == 1 && hits[0]["text"] == "deploy finished"
	}, 5*time.Second, 100*time.Millisecond)
}
