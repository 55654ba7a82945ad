// Package calfeed renders event pins as an iCalendar feed.
package calfeed

import (
	"fmt"
	"net/url"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
)

const productID = "-//pinmap//events//EN"

// Options describes the feed as a whole.
type Options struct {
	Name    string // X-WR-CALNAME
	SiteURL string // used for event URLs and UID domain, may be empty
}

// Build returns a VCALENDAR with one VEVENT per pin that has a start date.
// Pins without a start date are skipped.
func Build(pins []domain.Pin, opts Options, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, p := range pins {
		if !domain.IsVisibleOnCalendar(p) {
			continue
		}
		addEvent(cal, p, opts, now)
	}
	return cal
}

func addEvent(cal *ical.Calendar, p domain.Pin, opts Options, now time.Time) {
	ev := cal.AddEvent(uid(p.ID, opts.SiteURL))
	ev.SetDtStampTime(now.UTC())
	ev.SetCreatedTime(p.CreatedAt.UTC())
	ev.SetStartAt(p.StartDate.UTC())
	if p.EndDate != nil {
		ev.SetEndAt(p.EndDate.UTC())
	}
	ev.SetSummary(p.Title)
	if p.Description != "" {
		ev.SetDescription(p.Description)
	}
	if p.Category != "" {
		ev.AddProperty(ical.ComponentPropertyCategories, p.Category)
	}
	if p.Address != nil {
		ev.SetLocation(*p.Address)
	}
	if p.HasCoordinates() {
		ev.SetGeo(*p.Lat, *p.Lng)
	}
	if opts.SiteURL != "" {
		ev.SetURL(opts.SiteURL + "/?pin=" + p.ID)
	}
}

func uid(id, siteURL string) string {
	return fmt.Sprintf("%s@%s", id, hostOf(siteURL))
}

func hostOf(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return "pinmap"
	}
	return u.Hostname()
}
