package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
	"github.com/MrSnakeDoc/pinmap/internal/store"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := base.Add(d)
	return &t
}

func TestNewMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	if s == nil {
		t.Fatal("NewMemoryStore() returned nil")
	}
	pins, err := s.ListPins(context.Background(), store.PinFilter{})
	if err != nil || len(pins) != 0 {
		t.Errorf("ListPins() = %v, %v; want empty", pins, err)
	}
	if _, err := s.GetSiteConfig(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetSiteConfig() error = %v, want ErrNotFound", err)
	}
}

func TestListPinsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	pins := []domain.Pin{
		{ID: "old", CreatedAt: base},
		{ID: "expired", CreatedAt: base.Add(time.Hour), StartDate: at(0), EndDate: at(2 * time.Hour)},
		{ID: "tie-1", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "tie-2", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "ends-now", CreatedAt: base, StartDate: at(0), EndDate: at(3 * time.Hour)},
	}
	for _, p := range pins {
		if err := s.InsertPin(ctx, p); err != nil {
			t.Fatalf("InsertPin(%s) error = %v", p.ID, err)
		}
	}

	all, _ := s.ListPins(ctx, store.PinFilter{})
	want := []string{"tie-2", "tie-1", "expired", "ends-now", "old"}
	if got := ids(all); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ListPins() = %v, want %v", got, want)
	}

	active, _ := s.ListPins(ctx, store.PinFilter{ActiveAt: at(3 * time.Hour)})
	want = []string{"tie-2", "tie-1", "ends-now", "old"}
	if got := ids(active); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ListPins(active) = %v, want %v", got, want)
	}
}

func TestInsertPinDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.InsertPin(ctx, domain.Pin{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertPin(ctx, domain.Pin{ID: "a"}); err == nil {
		t.Error("InsertPin() duplicate should fail")
	}
}

func TestDeletePin(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		_ = s.InsertPin(ctx, domain.Pin{ID: id, CreatedAt: base})
	}

	if err := s.DeletePin(ctx, "b"); err != nil {
		t.Fatalf("DeletePin() error = %v", err)
	}
	if err := s.DeletePin(ctx, "b"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeletePin() twice error = %v, want ErrNotFound", err)
	}
	// Positions after the deleted pin must still resolve.
	if err := s.DeletePin(ctx, "c"); err != nil {
		t.Errorf("DeletePin(c) error = %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestListEvents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	pins := []domain.Pin{
		{ID: "place"},
		{ID: "late", StartDate: at(48 * time.Hour)},
		{ID: "early", StartDate: at(0)},
		{ID: "tie", StartDate: at(0)},
	}
	for _, p := range pins {
		_ = s.InsertPin(ctx, p)
	}

	all, _ := s.ListEvents(ctx, nil, nil)
	if got := fmt.Sprint(ids(all)); got != "[early tie late]" {
		t.Errorf("ListEvents() = %s", got)
	}

	ranged, _ := s.ListEvents(ctx, at(time.Hour), at(48*time.Hour))
	if got := fmt.Sprint(ids(ranged)); got != "[late]" {
		t.Errorf("ListEvents(range) = %s", got)
	}
}

func TestPageViews(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i, ts := range []time.Time{base, base.Add(24 * time.Hour), base.Add(48 * time.Hour)} {
		_ = s.InsertPageView(ctx, domain.PageView{ID: fmt.Sprint(i), Timestamp: ts, VisitorHash: "v"})
	}

	removed, err := s.DeletePageViewsBefore(ctx, base.Add(24*time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("DeletePageViewsBefore() = %d, %v; want 1", removed, err)
	}
	views, _ := s.ListPageViews(ctx)
	if len(views) != 2 || views[0].ID != "1" {
		t.Errorf("ListPageViews() = %+v", views)
	}
}

func TestSiteConfigIsCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	cfg := domain.DefaultSiteConfig()

	if err := s.SaveSiteConfig(ctx, cfg); err != nil {
		t.Fatal(err)
	}
	cfg.Legend[0].Name = "mutated"

	got, err := s.GetSiteConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Legend[0].Name != "Default" {
		t.Errorf("stored legend was mutated: %+v", got.Legend)
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup

	// Concurrent writes
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.InsertPin(ctx, domain.Pin{ID: fmt.Sprintf("pin-%d", i), CreatedAt: base})
			_ = s.InsertPageView(ctx, domain.PageView{ID: fmt.Sprint(i), Timestamp: base})
		}(i)
	}

	// Concurrent reads
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ListPins(ctx, store.PinFilter{})
			_, _ = s.ListEvents(ctx, nil, nil)
			_, _ = s.ListPageViews(ctx)
		}()
	}

	wg.Wait()

	if s.Count() != 50 {
		t.Errorf("Count() = %d, want 50", s.Count())
	}
}

func ids(pins []domain.Pin) []string {
	out := make([]string, len(pins))
	for i, p := range pins {
		out[i] = p.ID
	}
	return out
}
