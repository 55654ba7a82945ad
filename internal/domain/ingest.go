package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTitleRequired      = errors.New("title is required")
	ErrCategoryRequired   = errors.New("category is required")
	ErrAnchorRequired     = errors.New("must provide location, address, or event date")
	ErrPartialCoordinates = errors.New("lat and lng must be provided together")
	ErrLatitudeRange      = errors.New("lat must be between -90 and 90")
	ErrLongitudeRange     = errors.New("lng must be between -180 and 180")
	ErrEndWithoutStart    = errors.New("end_date requires start_date")
	ErrEndBeforeStart     = errors.New("end_date must not be before start_date")
)

// PinInput is the payload a visitor submits to create a pin.
type PinInput struct {
	Lat         *float64   `json:"lat"`
	Lng         *float64   `json:"lng"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	VisitorID   string     `json:"visitor_id"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Address     *string    `json:"address"`
}

// Validate rejects input that cannot become a well-formed pin.
// A coordinate of 0 is a valid value.
func (in PinInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrCategoryRequired
	}

	if (in.Lat == nil) != (in.Lng == nil) {
		return ErrPartialCoordinates
	}
	if in.Lat != nil {
		if *in.Lat < -90 || *in.Lat > 90 {
			return fmt.Errorf("%w: got %v", ErrLatitudeRange, *in.Lat)
		}
		if *in.Lng < -180 || *in.Lng > 180 {
			return fmt.Errorf("%w: got %v", ErrLongitudeRange, *in.Lng)
		}
	}

	if in.Lat == nil && in.address() == nil && in.StartDate == nil {
		return ErrAnchorRequired
	}

	if in.EndDate != nil {
		if in.StartDate == nil {
			return ErrEndWithoutStart
		}
		if in.EndDate.Before(*in.StartDate) {
			return ErrEndBeforeStart
		}
	}
	return nil
}

// Build validates the input and turns it into a pin created at now.
func (in PinInput) Build(id string, now time.Time) (Pin, error) {
	if err := in.Validate(); err != nil {
		return Pin{}, err
	}

	visitor := strings.TrimSpace(in.VisitorID)
	if visitor == "" {
		visitor = DefaultVisitorID
	}

	return Pin{
		ID:          id,
		CreatedAt:   now.UTC(),
		VisitorID:   visitor,
		Lat:         in.Lat,
		Lng:         in.Lng,
		Address:     in.address(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		StartDate:   utcPtr(in.StartDate),
		EndDate:     utcPtr(in.EndDate),
	}, nil
}

func (in PinInput) address() *string {
	if in.Address == nil {
		return nil
	}
	a := strings.TrimSpace(*in.Address)
	if a == "" {
		return nil
	}
	return &a
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// ShouldNotify reports whether creating p informs the notification channel.
func ShouldNotify(p Pin) bool {
	return IsEvent(p)
}
