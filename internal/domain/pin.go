package domain

import "time"

// DefaultVisitorID is used when a pin is created without a visitor identifier.
const DefaultVisitorID = "anonymous"

// PinType is the derived classification of a pin.
type PinType string

const (
	PinTypeLocationOnly   PinType = "location-only"
	PinTypePermanentEvent PinType = "permanent-event"
	PinTypeTemporaryEvent PinType = "temporary-event"
)

// Pin is a visitor-submitted record: a place, a permanent happening,
// or a time-bounded event.
//
// Its type is never stored. It is derived from StartDate and EndDate
// every time it is needed (see Classify).
type Pin struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is an opaque identifier assigned at creation.
	ID string `json:"id"`

	// CreatedAt is set once at creation, always UTC.
	CreatedAt time.Time `json:"created_at"`

	// VisitorID identifies the anonymous creator. "anonymous" when absent.
	VisitorID string `json:"visitor_id"`

	// ─────────────────────────────
	// Placement
	// ─────────────────────────────

	// Lat and Lng are either both set or both nil.
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`

	// Address is free text, independent of the coordinates.
	Address *string `json:"address"`

	// ─────────────────────────────
	// Description
	// ─────────────────────────────

	Title       string `json:"title"`
	Description string `json:"description"`

	// Category references a legend entry by name. No integrity is enforced.
	Category string `json:"category"`

	// ─────────────────────────────
	// Event window
	// ─────────────────────────────

	// StartDate marks the pin as an event when set.
	StartDate *time.Time `json:"start_date"`

	// EndDate only has meaning when StartDate is set.
	EndDate *time.Time `json:"end_date"`
}

// HasCoordinates reports whether the pin can be plotted.
func (p Pin) HasCoordinates() bool {
	return p.Lat != nil && p.Lng != nil
}

// Classify derives the pin type from its event window.
// An EndDate without a StartDate is treated as location-only.
func Classify(p Pin) PinType {
	if p.StartDate == nil {
		return PinTypeLocationOnly
	}
	if p.EndDate == nil {
		return PinTypePermanentEvent
	}
	return PinTypeTemporaryEvent
}

// IsEvent reports whether the pin is classified as an event of any kind.
func IsEvent(p Pin) bool {
	return Classify(p) != PinTypeLocationOnly
}

// IsVisibleOnMap decides whether the pin is plotted at instant now.
// A temporary event is still visible when its end equals now.
func IsVisibleOnMap(p Pin, now time.Time) bool {
	if !p.HasCoordinates() {
		return false
	}

	switch Classify(p) {
	case PinTypeLocationOnly, PinTypePermanentEvent:
		return true
	default:
		return !p.EndDate.Before(now)
	}
}

// IsVisibleOnCalendar reports whether the pin belongs on the calendar.
// Expired events stay on the calendar; they are only flagged (see IsPast).
func IsVisibleOnCalendar(p Pin) bool {
	return p.StartDate != nil
}

// IsPast reports whether the pin ended strictly before now.
func IsPast(p Pin, now time.Time) bool {
	return p.EndDate != nil && p.EndDate.Before(now)
}
