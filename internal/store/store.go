// Package store defines the persistence contracts used by the HTTP layer
// and background jobs. Implementations live in store/sql (PostgreSQL, MySQL)
// and index (in-memory).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// PinFilter narrows ListPins.
type PinFilter struct {
	// ActiveAt, when set, drops pins whose EndDate is before it.
	// Pins without an EndDate are always kept.
	ActiveAt *time.Time
}

// PinStore persists pins. Pins are never updated in place.
type PinStore interface {
	InsertPin(ctx context.Context, p domain.Pin) error
	DeletePin(ctx context.Context, id string) error

	// ListPins returns pins newest first.
	ListPins(ctx context.Context, f PinFilter) ([]domain.Pin, error)

	// ListEvents returns pins with a StartDate, ordered by StartDate.
	// Non-nil bounds restrict StartDate to [from, to].
	ListEvents(ctx context.Context, from, to *time.Time) ([]domain.Pin, error)
}

// PageViewStore persists page views.
type PageViewStore interface {
	InsertPageView(ctx context.Context, v domain.PageView) error
	ListPageViews(ctx context.Context) ([]domain.PageView, error)

	// DeletePageViewsBefore removes views older than cutoff and returns how many were removed.
	DeletePageViewsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SiteConfigStore persists the single site configuration record.
type SiteConfigStore interface {
	// GetSiteConfig returns ErrNotFound until a configuration was saved.
	GetSiteConfig(ctx context.Context) (domain.SiteConfig, error)
	SaveSiteConfig(ctx context.Context, cfg domain.SiteConfig) error
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store groups every persistence contract.
type Store interface {
	PinStore
	PageViewStore
	SiteConfigStore
	Pinger
}
