package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/handlers"
)

func init() { Register(registerEvents) }

func registerEvents(r chi.Router, d deps.Deps) {
	r.Get("/api/events", handlers.ListEvents(d))
	r.Get("/api/events/calendar", handlers.CalendarMonth(d))
	r.Get("/api/events.ics", handlers.EventsICS(d))
}
