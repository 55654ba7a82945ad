package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

const pingTimeout = 2 * time.Second

type componentStatus struct {
	OK      bool   `json:"ok"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz pings every backend. Any failure answers 503.
func Readyz(d deps.Deps) http.HandlerFunc {
	names := make([]string, 0, len(d.Pingers))
	for name := range d.Pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		resp := readyzResponse{Ready: true, Components: make(map[string]componentStatus, len(names))}
		for _, name := range names {
			st := ping(r.Context(), d.Pingers[name].Ping)
			if !st.OK {
				resp.Ready = false
				d.Logger.Warn("readiness check failed",
					logger.String("component", name),
					logger.String("error", st.Error))
			}
			resp.Components[name] = st
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		_ = respond.JSON(w, status, resp)
	}
}

func ping(ctx context.Context, fn func(context.Context) error) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true, Latency: time.Since(start).Round(time.Microsecond).String()}
}
