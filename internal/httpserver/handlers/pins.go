package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/notify"
	"github.com/MrSnakeDoc/pinmap/internal/store"
)

type pinResponse struct {
	domain.Pin
	PinType domain.PinType `json:"pin_type"`
}

func newPinResponse(p domain.Pin) pinResponse {
	return pinResponse{Pin: p, PinType: domain.Classify(p)}
}

// ListPins returns pins newest first. Temporary events whose end date has
// passed are hidden unless include_expired=true.
func ListPins(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f store.PinFilter
		if r.URL.Query().Get("include_expired") != "true" {
			now := d.TimeNow().UTC()
			f.ActiveAt = &now
		}

		pins, err := d.Store.ListPins(r.Context(), f)
		if err != nil {
			d.Logger.Error("list pins failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to fetch pins")
			return
		}

		out := make([]pinResponse, 0, len(pins))
		for _, p := range pins {
			out = append(out, newPinResponse(p))
		}
		_ = respond.JSON(w, http.StatusOK, out)
	}
}

// ListMarkers returns the pins visible on the map, styled from the legend.
func ListMarkers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := d.TimeNow()

		cfg, err := siteConfig(ctx, d)
		if err != nil {
			d.Logger.Error("load site config failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to load site config")
			return
		}

		// No store-side expiry filter: an end date without a start date still
		// marks a location, and only IsVisibleOnMap knows that.
		pins, err := d.Store.ListPins(ctx, store.PinFilter{})
		if err != nil {
			d.Logger.Error("list pins failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to fetch pins")
			return
		}

		_ = respond.JSON(w, http.StatusOK, domain.BuildMarkers(pins, cfg, now))
	}
}

// CreatePin validates and stores a visitor pin. Event pins trigger an
// asynchronous notification that can never fail the request.
func CreatePin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var in domain.PinInput
		if err := decodeJSON(w, r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		p, err := in.Build(d.NewID(), d.TimeNow())
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := d.Store.InsertPin(ctx, p); err != nil {
			d.Logger.Error("insert pin failed", logger.String("pin_id", p.ID), logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to save pin")
			return
		}
		invalidateStats(ctx, d)

		pinType := domain.Classify(p)
		d.Logger.Info("pin created",
			logger.String("pin_id", p.ID),
			logger.String("pin_type", string(pinType)),
			logger.String("category", p.Category))

		if domain.ShouldNotify(p) && d.Events != nil {
			d.Events.Dispatch(notify.NewEventCreated(p))
		}

		_ = respond.JSON(w, http.StatusCreated, pinResponse{Pin: p, PinType: pinType})
	}
}

type deleteRequest struct {
	ID string `json:"id"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// DeletePin removes a pin by id, taken from the URL or from a {"id": ...} body.
func DeletePin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := chi.URLParam(r, "id")
		if id == "" {
			var req deleteRequest
			if err := decodeJSON(w, r, &req); err != nil {
				respond.Error(w, http.StatusBadRequest, err.Error())
				return
			}
			id = req.ID
		}
		id = strings.TrimSpace(id)
		if id == "" {
			respond.Error(w, http.StatusBadRequest, "id is required")
			return
		}

		err := d.Store.DeletePin(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "pin not found")
			return
		case err != nil:
			d.Logger.Error("delete pin failed", logger.String("pin_id", id), logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to delete pin")
			return
		}
		invalidateStats(ctx, d)

		d.Logger.Info("pin deleted", logger.String("pin_id", id))
		_ = respond.JSON(w, http.StatusOK, successResponse{Success: true})
	}
}
