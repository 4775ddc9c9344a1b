// Package api exposes the account and search endpoints that sit next to
// the websocket: signup, login, and full-text message search.
package api

import (
	"chat-rooms/errors"
	"chat-rooms/repositories"
	"chat-rooms/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const defaultSearchLimit = 20

type Handlers struct {
	log         *slog.Logger
	authService services.IAuthService
	searchIndex repositories.ISearchIndex
}

func NewHandlers(log *slog.Logger, authService services.IAuthService,
	searchIndex repositories.ISearchIndex) *Handlers {
	return &Handlers{log: log, authService: authService, searchIndex: searchIndex}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Signup creates an account and returns the identity the client will use
// to join rooms, plus a token binding it.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Malformed request body."})
		return
	}

	session, err := h.authService.Register(body.Username, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrUserAlreadyExists):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "Username already taken."})
		case errors.Is(err, errors.ErrInvalidPassword):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Username or password does not meet the requirements."})
		default:
			h.log.Error("Signup failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal error."})
		}
		return
	}

	h.log.Info("User registered", "username", session.Username, "user_id", session.UserID)
	writeJSON(w, http.StatusCreated, sessionResponse{
		UserID:   session.UserID,
		Username: session.Username,
		Token:    session.Token,
	})
}

// Login verifies credentials and returns a fresh session token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Malformed request body."})
		return
	}

	session, err := h.authService.Login(body.Username, body.Password)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials."})
			return
		}
		h.log.Error("Login failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal error."})
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:   session.UserID,
		Username: session.Username,
		Token:    session.Token,
	})
}

type searchHit struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Room      string    `json:"room"`
	CreatedAt time.Time `json:"createdAt"`
}

// Search runs a full-text query scoped to one room.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	terms := r.URL.Query().Get("q")
	if room == "" || terms == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Both room and q parameters are required."})
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer."})
			return
		}
		limit = parsed
	}

	messages, err := h.searchIndex.Search(r.Context(), room, terms, limit)
	if err != nil {
		h.log.Error("Search failed", "room", room, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Search unavailable."})
		return
	}

	hits := make([]searchHit, 0, len(messages))
	for _, message := range messages {
		hits = append(hits, searchHit{
			Username:  message.Username,
			Text:      message.Text,
			Room:      message.Room,
			CreatedAt: message.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, hits)
}

// Health reports liveness for load balancers and probes.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("Error encoding response", "err", err)
	}
}
