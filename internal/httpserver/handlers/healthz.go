package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status string    `json:"status"`
	Uptime string    `json:"uptime"`
	Build  buildInfo `json:"build"`
}

// Healthz answers while the process serves HTTP. Backends are Readyz's job.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		_ = respond.JSON(w, http.StatusOK, healthzResponse{
			Status: "ok",
			Uptime: time.Since(d.StartTime).Truncate(time.Second).String(),
			Build:  build,
		})
	}
}
