package ws

import (
	"chat-rooms/auth"
	"chat-rooms/contract"
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The chat protocol authenticates through tokens, not origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler upgrades HTTP requests into chat connections.
type Handler struct {
	log            *slog.Logger
	coordinator    contract.ICoordinator
	tokens         *auth.TokenManager
	sendBuffer     int
	maxMessageSize int64
}

func NewHandler(log *slog.Logger, coordinator contract.ICoordinator,
	tokens *auth.TokenManager, sendBuffer int, maxMessageSize int64) *Handler {
	return &Handler{
		log:            log,
		coordinator:    coordinator,
		tokens:         tokens,
		sendBuffer:     sendBuffer,
		maxMessageSize: maxMessageSize,
	}
}

// ServeHTTP upgrades the connection and starts the pumps. A token query
// parameter is optional: when present it must validate, and the claims
// it carries replace the identity the client later puts in joinRoom.
// Anonymous connections keep the claimed-identity behavior.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Websocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	var verifiedUserID, verifiedUsername string
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.tokens.Validate(token)
		if err != nil {
			h.log.Debug("Rejected connection with invalid token", "remote", r.RemoteAddr, "err", err)
			http.Error(w, "Invalid token.", http.StatusUnauthorized)
			return
		}
		verifiedUserID, verifiedUsername = claims.UserID, claims.Username
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	conn.SetReadLimit(h.maxMessageSize)

	connID := uuid.NewString()
	client := newClient(h.log, connID, conn, h.coordinator, h.sendBuffer)
	client.verifiedUserID = verifiedUserID
	client.verifiedUsername = verifiedUsername

	h.coordinator.Connect(connID, client)
	h.log.Debug("Connection upgraded", "conn_id", connID, "remote", r.RemoteAddr,
		"authenticated", verifiedUserID != "")

	// The request context dies when ServeHTTP returns; the pumps outlive
	// it and are bounded by the connection itself.
	go client.writePump()
	go client.readPump(context.Background())
}
