package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

func fastBackoff(total time.Duration) Backoff {
	return Backoff{
		Total:         total,
		Initial:       time.Millisecond,
		MaxWait:       5 * time.Millisecond,
		PingTimeout:   50 * time.Millisecond,
		WarnThreshold: 1,
	}
}

func TestWaitForRetriesUntilSuccess(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	err := WaitFor(context.Background(), "db", "localhost", fastBackoff(2*time.Second), logger.NewNop(), ping)
	if err != nil {
		t.Fatalf("WaitFor() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("ping called %d times, want 3", calls)
	}
}

func TestWaitForTimesOut(t *testing.T) {
	down := errors.New("connection refused")
	ping := func(context.Context) error { return down }

	err := WaitFor(context.Background(), "db", "localhost", fastBackoff(30*time.Millisecond), logger.NewNop(), ping)
	if !errors.Is(err, down) {
		t.Fatalf("WaitFor() error = %v, want wrapped ping error", err)
	}
}

func TestBackoffValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Backoff)
	}{
		{"total", func(b *Backoff) { b.Total = 0 }},
		{"initial", func(b *Backoff) { b.Initial = 0 }},
		{"max wait", func(b *Backoff) { b.MaxWait = -1 }},
		{"ping timeout", func(b *Backoff) { b.PingTimeout = 0 }},
		{"warn threshold", func(b *Backoff) { b.WarnThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := fastBackoff(time.Second)
			tt.mutate(&b)
			if err := b.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
