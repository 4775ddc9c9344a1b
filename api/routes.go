package api

import "net/http"

// Routes mounts every HTTP endpoint on one mux; the websocket endpoint
// comes in as a plain handler so this package stays transport-agnostic.
func Routes(handlers *Handlers, wsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("POST /signup", handlers.Signup)
	mux.HandleFunc("POST /login", handlers.Login)
	mux.HandleFunc("GET /search", handlers.Search)
	mux.Handle("GET /ws", wsHandler)
	return mux
}
