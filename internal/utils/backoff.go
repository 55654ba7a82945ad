package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

// Backoff defines how long and how often a dependency is polled until it answers.
type Backoff struct {
	Total         time.Duration // total time allowed for attempts (ex: 30s)
	Initial       time.Duration // first wait between attempts, doubled after each failure
	MaxWait       time.Duration // cap on the wait between attempts
	PingTimeout   time.Duration // deadline of a single attempt
	WarnThreshold int           // attempts logged as warnings before switching to errors
}

// Validate ensures all durations are usable.
func (b Backoff) Validate() error {
	switch {
	case b.Total <= 0:
		return fmt.Errorf("connect timeout must be > 0, got %v", b.Total)
	case b.Initial <= 0:
		return fmt.Errorf("retry interval must be > 0, got %v", b.Initial)
	case b.MaxWait <= 0:
		return fmt.Errorf("max wait must be > 0, got %v", b.MaxWait)
	case b.PingTimeout <= 0:
		return fmt.Errorf("ping timeout must be > 0, got %v", b.PingTimeout)
	case b.WarnThreshold < 0:
		return fmt.Errorf("warn threshold must be >= 0, got %d", b.WarnThreshold)
	}
	return nil
}

// WaitFor calls ping until it succeeds or b.Total elapses, with exponential
// backoff between attempts. name and addr only label log entries.
func WaitFor(ctx context.Context, name, addr string, b Backoff, log logger.Logger, ping func(context.Context) error) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.Total)
	defer cancel()

	log.Info("connecting to "+name,
		logger.String("addr", addr),
		logger.Duration("timeout", b.Total))

	start := time.Now()
	wait := b.Initial
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, b.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to "+name+" after retry",
					logger.String("addr", addr),
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected to "+name, logger.String("addr", addr))
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error(name+" unavailable - failed to connect after timeout",
				logger.String("addr", addr),
				logger.Int("attempts", attempt),
				logger.Duration("timeout", b.Total),
				logger.Error(err))
			return fmt.Errorf("%s unavailable at %s after %d attempts (timeout: %v): %w",
				name, addr, attempt, b.Total, err)

		case <-timer.C:
			logRetry(log, name, addr, attempt, timeLeft(ctx), wait, b.WarnThreshold, err)
			wait *= 2
			if wait > b.MaxWait {
				wait = b.MaxWait
			}
		}
	}
}

func logRetry(log logger.Logger, name, addr string, attempt int, remaining, next time.Duration, warnThreshold int, err error) {
	fields := []logger.Field{
		logger.String("addr", addr),
		logger.Int("attempt", attempt),
		logger.Duration("next_retry_in", next),
		logger.Error(err),
	}

	switch {
	case remaining < 10*time.Second:
		log.Error(name+" still down - retrying but timeout approaching",
			append(fields, logger.Duration("remaining", remaining))...)
	case attempt <= warnThreshold:
		log.Warn(name+" connection failed, retrying", fields...)
	default:
		log.Error(name+" still unavailable - connection attempts failing", fields...)
	}
}

// timeLeft returns the remaining time before context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
