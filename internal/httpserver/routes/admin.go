package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/handlers"
)

// Tokens and stats must never be served from an intermediate cache.
func init() { Register(registerAdmin, middleware.NoCache) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.With(writeLimit(d)).Post("/api/auth", handlers.Login(d))

	r.With(adminOnly(d)).Get("/api/stats", handlers.GetStats(d))
	r.With(writeLimit(d)).Post("/api/stats", handlers.RecordView(d))

	r.Get("/api/config", handlers.GetConfig(d))
	r.With(adminOnly(d)).Put("/api/config", handlers.UpdateConfig(d))
}
