package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/store"
)

// MemoryStore keeps pins, page views and the site config in process memory.
// It backs the "memory" database driver and the HTTP tests.
// Pins and views keep their insertion order, which breaks ordering ties.
type MemoryStore struct {
	mu     sync.RWMutex
	pins   []domain.Pin
	byID   map[string]int // ID -> position in pins
	views  []domain.PageView
	config *domain.SiteConfig
}

var _ store.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]int),
	}
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// ─────────────────────────────────────────────────────────────────
// Pins
// ─────────────────────────────────────────────────────────────────

// InsertPin appends a pin; IDs must be unique.
func (m *MemoryStore) InsertPin(_ context.Context, p domain.Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[p.ID]; exists {
		return fmt.Errorf("pin %s already exists", p.ID)
	}
	m.byID[p.ID] = len(m.pins)
	m.pins = append(m.pins, p)
	return nil
}

// DeletePin removes a pin by ID
func (m *MemoryStore) DeletePin(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}

	m.pins = append(m.pins[:pos], m.pins[pos+1:]...)
	delete(m.byID, id)
	for i := pos; i < len(m.pins); i++ {
		m.byID[m.pins[i].ID] = i
	}
	return nil
}

// ListPins returns pins newest first. Pins created at the same instant are
// returned most recently inserted first.
func (m *MemoryStore) ListPins(_ context.Context, f store.PinFilter) ([]domain.Pin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Pin, 0, len(m.pins))
	for i := len(m.pins) - 1; i >= 0; i-- {
		p := m.pins[i]
		if f.ActiveAt != nil && p.EndDate != nil && p.EndDate.Before(*f.ActiveAt) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListEvents returns events ordered by StartDate, optionally within [from, to].
func (m *MemoryStore) ListEvents(_ context.Context, from, to *time.Time) ([]domain.Pin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Pin, 0)
	for _, p := range m.pins {
		if p.StartDate == nil {
			continue
		}
		if from != nil && p.StartDate.Before(*from) {
			continue
		}
		if to != nil && p.StartDate.After(*to) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(*out[j].StartDate)
	})
	return out, nil
}

// Count returns the number of pins in the store
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.pins)
}

// ─────────────────────────────────────────────────────────────────
// Page views
// ─────────────────────────────────────────────────────────────────

// InsertPageView records a visit
func (m *MemoryStore) InsertPageView(_ context.Context, v domain.PageView) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.views = append(m.views, v)
	return nil
}

// ListPageViews returns all recorded visits
func (m *MemoryStore) ListPageViews(context.Context) ([]domain.PageView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.PageView, len(m.views))
	copy(out, m.views)
	return out, nil
}

// DeletePageViewsBefore drops visits older than cutoff
func (m *MemoryStore) DeletePageViewsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.views[:0]
	var removed int64
	for _, v := range m.views {
		if v.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	m.views = kept
	return removed, nil
}

// ─────────────────────────────────────────────────────────────────
// Site config
// ─────────────────────────────────────────────────────────────────

// GetSiteConfig returns the saved configuration or store.ErrNotFound
func (m *MemoryStore) GetSiteConfig(context.Context) (domain.SiteConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return domain.SiteConfig{}, store.ErrNotFound
	}
	cfg := *m.config
	cfg.Legend = append([]domain.LegendItem(nil), m.config.Legend...)
	return cfg, nil
}

// SaveSiteConfig replaces the configuration
func (m *MemoryStore) SaveSiteConfig(_ context.Context, cfg domain.SiteConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg.Legend = append([]domain.LegendItem(nil), cfg.Legend...)
	m.config = &cfg
	return nil
}
