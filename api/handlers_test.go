package api

import (
	"chat-rooms/domain"
	"chat-rooms/errors"
	"chat-rooms/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubAuthService struct {
	session services.Session
	err     error
}

func (s *stubAuthService) Register(username, password string) (services.Session, error) {
	return s.session, s.err
}

func (s *stubAuthService) Login(username, password string) (services.Session, error) {
	return s.session, s.err
}

type stubSearchIndex struct {
	hits []domain.Message
	err  error
}

func (s *stubSearchIndex) Index(domain.Message) error { return nil }

func (s *stubSearchIndex) Search(_ context.Context, room, terms string, limit int) ([]domain.Message, error) {
	return s.hits, s.err
}

func newTestHandlers(authService services.IAuthService, index *stubSearchIndex) *Handlers {
	if index == nil {
		index = &stubSearchIndex{}
	}
	return NewHandlers(slog.Default(), authService, index)
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		service    *stubAuthService
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"username":"alice","password":"ComplexPass123"}`,
			service:    &stubAuthService{session: services.Session{UserID: "u1", Username: "alice", Token: "tok"}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate username",
			body:       `{"username":"alice","password":"ComplexPass123"}`,
			service:    &stubAuthService{err: errors.ErrUserAlreadyExists},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "weak password",
			body:       `{"username":"alice","password":"weak"}`,
			service:    &stubAuthService{err: errors.ErrInvalidPassword},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{not json`,
			service:    &stubAuthService{},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			handlers := newTestHandlers(tc.service, nil)

			r := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			handlers.Signup(w, r)

			req.Equal(tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusCreated {
				var resp map[string]string
				req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
				req.Equal("u1", resp["userId"])
				req.Equal("alice", resp["username"])
				req.NotEmpty(resp["token"])
			}
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("returns the session token", func(t *testing.T) {
		req := require.New(t)
		handlers := newTestHandlers(&stubAuthService{
			session: services.Session{UserID: "u1", Username: "alice", Token: "tok"},
		}, nil)

		r := httptest.NewRequest(http.MethodPost, "/login",
			strings.NewReader(`{"username":"alice","password":"ComplexPass123"}`))
		w := httptest.NewRecorder()
		handlers.Login(w, r)

		req.Equal(http.StatusOK, w.Code)
		var resp map[string]string
		req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		req.Equal("tok", resp["token"])
	})

	t.Run("invalid credentials are a 401", func(t *testing.T) {
		req := require.New(t)
		handlers := newTestHandlers(&stubAuthService{err: errors.ErrInvalidCredentials}, nil)

		r := httptest.NewRequest(http.MethodPost, "/login",
			strings.NewReader(`{"username":"alice","password":"wrong"}`))
		w := httptest.NewRecorder()
		handlers.Login(w, r)

		req.Equal(http.StatusUnauthorized, w.Code)
	})
}

func TestSearch(t *testing.T) {
	t.Run("returns scoped hits", func(t *testing.T) {
		req := require.New(t)
		index := &stubSearchIndex{hits: []domain.Message{
			{Username: "alice", Text: "deploy is done", Room: "devops", CreatedAt: time.Now().UTC()},
		}}
		handlers := newTestHandlers(&stubAuthService{}, index)

		r := httptest.NewRequest(http.MethodGet, "/search?room=devops&q=deploy", nil)
		w := httptest.NewRecorder()
		handlers.Search(w, r)

		req.Equal(http.StatusOK, w.Code)
		var hits []map[string]any
		req.NoError(json.Unmarshal(w.Body.Bytes(), &hits))
		req.Len(hits, 1)
		req.Equal("deploy is done", hits[0]["text"])
	})

	t.Run("missing parameters are a 400", func(t *testing.T) {
		req := require.New(t)
		handlers := newTestHandlers(&stubAuthService{}, nil)

		r := httptest.NewRequest(http.MethodGet, "/search?room=devops", nil)
		w := httptest.NewRecorder()
		handlers.Search(w, r)

		req.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("bad limit is a 400", func(t *testing.T) {
		req := require.New(t)
		handlers := newTestHandlers(&stubAuthService{}, nil)

		r := httptest.NewRequest(http.MethodGet, "/search?room=devops&q=deploy&limit=zero", nil)
		w := httptest.NewRecorder()
		handlers.Search(w, r)

		req.Equal(http.StatusBadRequest, w.Code)
	})
}
