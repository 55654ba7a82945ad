package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
)

// MarkerIcon renders the SVG icon for ?shape=&color=.
func MarkerIcon(_ deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		shape, ok := domain.ParseShape(q.Get("shape"))
		if !ok {
			shape = domain.ShapeCircle
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write([]byte(domain.MarkerSVG(shape, q.Get("color"))))
	}
}
