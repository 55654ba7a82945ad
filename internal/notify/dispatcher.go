package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pinmap/internal/logger"
)

// Dispatcher sends notifications in the background.
// Failures and panics of the wrapped Notifier are logged and swallowed.
type Dispatcher struct {
	next    Notifier
	log     logger.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher wraps next. A zero timeout defaults to 10 seconds.
func NewDispatcher(next Notifier, log logger.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{next: next, log: log, timeout: timeout}
}

// Dispatch queues ev and returns immediately.
// Events dispatched after Close are dropped.
func (d *Dispatcher) Dispatch(ev EventCreated) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn("notification dropped, dispatcher closed", logger.String("pin_id", ev.PinID))
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		start := time.Now()
		if err := d.send(ctx, ev); err != nil {
			d.log.Warn("event notification failed",
				logger.String("pin_id", ev.PinID),
				logger.Duration("elapsed", time.Since(start)),
				logger.Error(err))
			return
		}
		d.log.Debug("event notification sent",
			logger.String("pin_id", ev.PinID),
			logger.Duration("elapsed", time.Since(start)))
	}()
}

func (d *Dispatcher) send(ctx context.Context, ev EventCreated) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return d.next.NotifyEventCreated(ctx, ev)
}

// Close stops accepting events and waits for in-flight sends or ctx expiry.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifications still in flight: %w", ctx.Err())
	}
}
