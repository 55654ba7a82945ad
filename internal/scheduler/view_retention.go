package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
	"github.com/MrSnakeDoc/pinmap/internal/store"
)

const (
	// DefaultRetentionSchedule runs the cleanup every night at 03:00.
	DefaultRetentionSchedule = "0 3 * * *"

	// DefaultViewRetention keeps roughly three months of page views.
	DefaultViewRetention = 90 * 24 * time.Hour
)

// ViewRetention deletes page views older than the retention window.
type ViewRetention struct {
	store     store.PageViewStore
	logger    logger.Logger
	schedule  string
	retention time.Duration
	loc       *time.Location
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewViewRetention creates the retention job. A zero retention disables it.
func NewViewRetention(
	st store.PageViewStore,
	log logger.Logger,
	schedule string,
	retention time.Duration,
	loc *time.Location,
) *ViewRetention {
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}
	if loc == nil {
		loc = time.UTC
	}

	return &ViewRetention{
		store:     st,
		logger:    log,
		schedule:  schedule,
		retention: retention,
		loc:       loc,
		now:       time.Now,
	}
}

// Enabled reports whether a retention window is set.
func (vr *ViewRetention) Enabled() bool {
	return vr.retention > 0
}

// Start registers the cron entry and starts the scheduler.
func (vr *ViewRetention) Start(ctx context.Context) error {
	if !vr.Enabled() {
		vr.logger.Info("page view retention disabled")
		return nil
	}

	cl := cronLogger{vr.logger}
	c := cron.New(
		cron.WithLocation(vr.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := c.AddFunc(vr.schedule, func() {
		if _, err := vr.Collect(ctx); err != nil {
			vr.logger.Error("page view retention failed", logger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", vr.schedule, err)
	}

	vr.mu.Lock()
	vr.cron = c
	vr.mu.Unlock()

	c.Start()
	vr.logger.Info("⏱️ page view retention scheduled",
		logger.String("schedule", vr.schedule),
		logger.Duration("retention", vr.retention))

	return nil
}

// Stop halts the scheduler and waits for a running collection or ctx expiry.
func (vr *ViewRetention) Stop(ctx context.Context) {
	vr.mu.Lock()
	c := vr.cron
	vr.cron = nil
	vr.mu.Unlock()

	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		vr.logger.Warn("page view retention still running at shutdown")
	}
}

// Collect removes page views older than the retention window.
func (vr *ViewRetention) Collect(ctx context.Context) (int64, error) {
	if !vr.Enabled() {
		return 0, nil
	}

	cutoff := vr.now().UTC().Add(-vr.retention)
	deleted, err := vr.store.DeletePageViewsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete page views before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if deleted > 0 {
		vr.logger.Info("page view retention completed",
			logger.Int64("deleted", deleted),
			logger.Time("cutoff", cutoff))
	} else {
		vr.logger.Debug("no page views to collect")
	}

	return deleted, nil
}

// cronLogger routes cron's internal logging through the application logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugf("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, logger.Error(err), logger.String("details", fmt.Sprint(keysAndValues...)))
}
