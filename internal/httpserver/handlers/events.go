package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/calfeed"
	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pinmap/internal/httpserver/respond"
	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

// ListEvents returns event pins ordered by start date, each flagged is_past.
// With year and month, only events starting in that UTC month are returned.
func ListEvents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month, filtered, err := parseYearMonth(r)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		var from, to *time.Time
		if filtered {
			start, end, _ := domain.MonthBounds(year, month)
			from, to = &start, &end
		}

		pins, err := d.Store.ListEvents(r.Context(), from, to)
		if err != nil {
			d.Logger.Error("list events failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to fetch events")
			return
		}
		if filtered {
			pins = domain.EventsInRange(pins, *from, *to)
		}

		now := d.TimeNow()
		out := make([]domain.CalendarEvent, 0, len(pins))
		for _, p := range pins {
			out = append(out, domain.NewCalendarEvent(p, now))
		}
		_ = respond.JSON(w, http.StatusOK, out)
	}
}

// CalendarMonth returns the month grid for year and month, using the
// configured time zone for day boundaries.
func CalendarMonth(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month, ok, err := parseYearMonth(r)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if !ok {
			respond.Error(w, http.StatusBadRequest, "year and month are required")
			return
		}

		// Widen the UTC month by a day on each side so events near midnight
		// in other time zones are fetched.
		start, end, _ := domain.MonthBounds(year, month)
		from, to := start.AddDate(0, 0, -1), end.AddDate(0, 0, 1)

		pins, err := d.Store.ListEvents(r.Context(), &from, &to)
		if err != nil {
			d.Logger.Error("list events failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to fetch events")
			return
		}

		cal, err := domain.BuildCalendarMonth(pins, year, month, d.TimeNow(), d.Location)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		_ = respond.JSON(w, http.StatusOK, cal)
	}
}

// EventsICS serves every event as an iCalendar feed.
func EventsICS(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		pins, err := d.Store.ListEvents(ctx, nil, nil)
		if err != nil {
			d.Logger.Error("list events failed", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "unable to fetch events")
			return
		}

		name := domain.DefaultSiteConfig().SiteName
		if cfg, err := siteConfig(ctx, d); err == nil {
			name = cfg.SiteName
		}

		cal := calfeed.Build(pins, calfeed.Options{Name: name, SiteURL: d.SiteURL}, d.TimeNow())

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
		if err := cal.SerializeTo(w); err != nil {
			d.Logger.Warn("write calendar feed failed", logger.Error(err))
		}
	}
}
