package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notetoself/internal/remote"
)

// NewRouter creates a chi router with all registry routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, is told about every committed write.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(backend remote.Backend, events Publisher, authEnabled bool, token string, sseHandler http.Handler, logger *slog.Logger) chi.Router {
	h := NewHandler(backend, events, logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/entries/{publicKey}", h.GetEntry)
	r.Put("/entries/{publicKey}", h.PutEntry)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
