package domain

import (
	"fmt"
	"time"
)

var shapeSVG = map[Shape]string{
	ShapeCircle:   `<circle cx="12" cy="12" r="10" fill="%s" stroke="#fff" stroke-width="2"/>`,
	ShapeSquare:   `<rect x="2" y="2" width="20" height="20" rx="3" fill="%s" stroke="#fff" stroke-width="2"/>`,
	ShapeStar:     `<polygon points="12,2 15,9 22,9 16.5,14 18.5,22 12,17.5 5.5,22 7.5,14 2,9 9,9" fill="%s" stroke="#fff" stroke-width="1.5"/>`,
	ShapeTriangle: `<polygon points="12,2 22,22 2,22" fill="%s" stroke="#fff" stroke-width="2"/>`,
	ShapeDiamond:  `<polygon points="12,1 23,12 12,23 1,12" fill="%s" stroke="#fff" stroke-width="2"/>`,
}

// MarkerSVG renders a 24x24 marker icon.
// Unknown shapes render as a circle; colors that are not hex fall back to
// FallbackStyle's color so the output never carries caller markup.
func MarkerSVG(shape Shape, color string) string {
	body, ok := shapeSVG[shape]
	if !ok {
		body = shapeSVG[ShapeCircle]
	}
	if !IsHexColor(color) {
		color = FallbackStyle.Color
	}
	return `<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24">` +
		fmt.Sprintf(body, color) + `</svg>`
}

// Marker is a pin as drawn on the map.
type Marker struct {
	Pin
	PinType PinType `json:"pin_type"`
	Color   string  `json:"color"`
	Shape   Shape   `json:"shape"`
}

// BuildMarkers keeps the pins visible on the map at now and styles them
// from the legend of cfg. Input order is preserved.
func BuildMarkers(pins []Pin, cfg SiteConfig, now time.Time) []Marker {
	out := make([]Marker, 0, len(pins))
	for _, p := range pins {
		if !IsVisibleOnMap(p, now) {
			continue
		}
		style := cfg.StyleFor(p.Category)
		out = append(out, Marker{
			Pin:     p,
			PinType: Classify(p),
			Color:   style.Color,
			Shape:   style.Shape,
		})
	}
	return out
}

// CalendarEvent is an event placed on a calendar day.
type CalendarEvent struct {
	Pin
	PinType PinType `json:"pin_type"`
	IsPast  bool    `json:"is_past"`
}

// CalendarDay is one cell of a month grid.
type CalendarDay struct {
	Day    int             `json:"day"`
	Date   string          `json:"date"`
	Events []CalendarEvent `json:"events"`
}

// CalendarMonth is a full month grid ready for rendering.
type CalendarMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	// FirstWeekday is the weekday of day 1, 0 being Sunday.
	FirstWeekday int           `json:"first_weekday"`
	DaysInMonth  int           `json:"days_in_month"`
	Days         []CalendarDay `json:"days"`
	EventCount   int           `json:"event_count"`
}

// NewCalendarEvent flags p as past or not at now.
func NewCalendarEvent(p Pin, now time.Time) CalendarEvent {
	return CalendarEvent{Pin: p, PinType: Classify(p), IsPast: IsPast(p, now)}
}

// BuildCalendarMonth lays the events of pins out on the grid of a month,
// using the calendar of loc (UTC when nil).
func BuildCalendarMonth(pins []Pin, year, month int, now time.Time, loc *time.Location) (CalendarMonth, error) {
	if loc == nil {
		loc = time.UTC
	}
	days, err := DaysInMonth(year, month)
	if err != nil {
		return CalendarMonth{}, err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	cal := CalendarMonth{
		Year:         year,
		Month:        month,
		FirstWeekday: int(first.Weekday()),
		DaysInMonth:  days,
		Days:         make([]CalendarDay, days),
	}

	buckets := BucketByDayIn(pins, year, month, loc)
	for d := 1; d <= days; d++ {
		day := CalendarDay{
			Day:    d,
			Date:   first.AddDate(0, 0, d-1).Format(dayLayout),
			Events: []CalendarEvent{},
		}
		for _, p := range buckets[d] {
			day.Events = append(day.Events, NewCalendarEvent(p, now))
		}
		cal.EventCount += len(day.Events)
		cal.Days[d-1] = day
	}
	return cal, nil
}
