package e2e

import (
	"bytes"
	"chat-rooms/api"
	"chat-rooms/auth"
	"chat-rooms/domain"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"chat-rooms/runtime"
	"chat-rooms/runtime/workers"
	"chat-rooms/services"
	"chat-rooms/ws"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

const frameTimeout = 2 * time.Second

// BaseChatSuite boots the whole server in-process for every test: badger
// in memory, a throwaway bluge index, the coordinator, the indexer
// worker, and the HTTP surface behind an httptest server.
type BaseChatSuite struct {
	suite.Suite
	Config Config

	server *httptest.Server
	db     *badger.DB
	writer *bluge.Writer
	cancel context.CancelFunc
}

func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

func (s *BaseChatSuite) SetupTest() {
	log := logs.GetLoggerFromString("ERROR")

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	s.Require().NoError(err)
	s.db = db

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(s.T().TempDir()))
	s.Require().NoError(err)
	s.writer = writer

	monitor := observability.NewMonitor(log)
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	searchIndex := repositories.NewSearchIndex(writer, log)

	indexQueue := make(chan domain.Message, 64)
	coordinator := runtime.NewCoordinator(log, registry, messageRepository,
		monitor, 24*time.Hour, indexQueue)

	tokens := auth.NewTokenManager("e2e-secret", time.Hour)
	authService := services.NewAuthService(userRepository, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	sup := workers.NewSupervisor(log, 50*time.Millisecond)
	sup.Add(workers.NewIndexerWorker(log, indexQueue, searchIndex, monitor))
	go sup.Run(ctx)

	wsHandler := ws.NewHandler(log, coordinator, tokens, 64, 8192)
	handlers := api.NewHandlers(log, authService, searchIndex)
	s.server = httptest.NewServer(api.Routes(handlers, wsHandler))
}

func (s *BaseChatSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.writer != nil {
		_ = s.writer.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *BaseChatSuite) logStep(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Signup registers an account over HTTP and returns the session fields.
func (s *BaseChatSuite) Signup(username, password string) map[string]string {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	s.Require().NoError(err)

	resp, err := http.Post(s.server.URL+"/signup", "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var session map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&session))
	return session
}

// chatConn is one websocket participant in a scenario.
type chatConn struct {
	s    *BaseChatSuite
	name string
	conn *websocket.Conn
}

// Dial opens a websocket to the suite's server. An empty token connects
// anonymously.
func (s *BaseChatSuite) Dial(name, token string) *chatConn {
	s.logStep("connect " + name)

	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	if token != "" {
		wsURL += "?token=" + url.QueryEscape(token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().NoError(err, "Failed to connect websocket for "+name)

	c := &chatConn{s: s, name: name, conn: conn}
	s.T().Cleanup(c.close)
	return c
}

// DialExpectReject asserts the handshake is refused, for invalid tokens.
func (s *BaseChatSuite) DialExpectReject(token string) {
	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?token=" + url.QueryEscape(token)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if conn != nil {
		_ = conn.Close()
	}
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Require().Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (c *chatConn) send(eventName string, payload any) {
	data, err := json.Marshal(payload)
	c.s.Require().NoError(err)
	c.s.Require().NoError(c.conn.WriteJSON(ws.Envelope{Event: eventName, Data: data}))
}

func (c *chatConn) join(userID, username, room string) {
	c.send(ws.EventJoinRoom, ws.JoinRoomPayload{UserID: userID, Username: username, Room: room})
}

// expect reads frames until one matches the wanted event name and
// returns its payload. Any other event arriving first fails the test, so
// scenarios also verify ordering.
func (c *chatConn) expect(eventName string) json.RawMessage {
	c.s.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(frameTimeout)))
	_, frame, err := c.conn.ReadMessage()
	c.s.Require().NoError(err, "%s timed out waiting for %s", c.name, eventName)

	if c.s.Config.DebugFrames {
		c.s.T().Logf("%s <- %s", c.name, frame)
	}

	var envelope ws.Envelope
	c.s.Require().NoError(json.Unmarshal(frame, &envelope))
	c.s.Require().Equal(eventName, envelope.Event,
		"%s expected %s but received %s", c.name, eventName, envelope.Event)
	return envelope.Data
}

func (c *chatConn) close() {
	_ = c.conn.Close()
}
