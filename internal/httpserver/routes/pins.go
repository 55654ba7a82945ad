package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/handlers"
)

func init() { Register(registerPins) }

func registerPins(r chi.Router, d deps.Deps) {
	r.Route("/api/pins", func(r chi.Router) {
		r.Get("/", handlers.ListPins(d))
		r.Get("/markers", handlers.ListMarkers(d))
		r.With(writeLimit(d)).Post("/", handlers.CreatePin(d))
		r.With(adminOnly(d)).Delete("/", handlers.DeletePin(d))
		r.With(adminOnly(d)).Delete("/{id}", handlers.DeletePin(d))
	})
	r.Get("/api/markers/icon.svg", handlers.MarkerIcon(d))
}
