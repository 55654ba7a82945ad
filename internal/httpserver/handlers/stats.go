package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/store"
)

// GetStats returns the dashboard summary, cached per UTC day.
func GetStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := d.TimeNow()
		day := now.UTC().Format("2006-01-02")

		if stats, ok, err := d.Cache.GetStats(ctx, day); err != nil {
			d.Logger.Warn("stats cache read failed", logger.Error(err))
		} else if ok {
			w.Header().Set("X-Cache", "HIT")
			_ = respond.JSON(w, http.StatusOK, stats)
			return
		}

		pins, err := d.Store.ListPins(ctx, store.PinFilter{})
		if err != nil {
			d.Logger.Error("list pins failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "failed to fetch stats")
			return
		}
		views, err := d.Store.ListPageViews(ctx)
		if err != nil {
			d.Logger.Error("list page views failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "failed to fetch stats")
			return
		}

		stats := domain.AggregateStats(pins, views, now)
		if err := d.Cache.SetStats(ctx, day, stats); err != nil {
			d.Logger.Warn("stats cache write failed", logger.Error(err))
		}

		w.Header().Set("X-Cache", "MISS")
		_ = respond.JSON(w, http.StatusOK, stats)
	}
}

type pageViewRequest struct {
	Path        string `json:"path"`
	VisitorHash string `json:"visitor_hash"`
}

// RecordView stores a page view. The visitor hash is derived from the client
// when the payload carries none.
func RecordView(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pageViewRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		v := domain.PageView{
			ID:          d.NewID(),
			Timestamp:   d.TimeNow().UTC(),
			Path:        strings.TrimSpace(req.Path),
			VisitorHash: strings.TrimSpace(req.VisitorHash),
		}
		if v.Path == "" {
			v.Path = "/"
		}
		if v.VisitorHash == "" {
			v.VisitorHash = visitorHash(r, d.TrustProxy)
		}

		if err := d.Store.InsertPageView(r.Context(), v); err != nil {
			d.Logger.Error("insert page view failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to record page view")
			return
		}
		invalidateStats(r.Context(), d)
		_ = respond.JSON(w, http.StatusOK, successResponse{Success: true})
	}
}
