package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
//
// Vault paths are arbitrary filesystem locations, so browser pages from
// other origins are refused even with auth disabled, and request bodies
// must be JSON (no form-encoded or text/plain simple requests).
func NewRouter(svc VaultService, configs ConfigSource, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, configs)

	r := chi.NewRouter()
	r.Use(SameOriginMiddleware())
	r.Use(AuthMiddleware(authEnabled, token))
	r.Use(middleware.AllowContentType("application/json"))

	r.Post("/vaults", h.CreateVault)
	r.Post("/vaults/import", h.ImportVault)
	r.Get("/vault", h.ReadVault)
	r.Get("/config", h.GetConfig)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
