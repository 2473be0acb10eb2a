// dispatch package

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Action is a unit of work deferred onto the designated goroutine.
type Action func() error

// ErrorHandler receives the failure of a single action.
type ErrorHandler func(err error)

// Dispatcher defers work scheduled from any goroutine onto the single
// goroutine that calls Drain. Actions scheduled by one caller run in the
// order that caller scheduled them.
type Dispatcher struct {
	lock    sync.Mutex
	pending []Action

	onError ErrorHandler
}

type Option func(d *Dispatcher)

// WithErrorHandler sets the handler called for each failed action.
func WithErrorHandler(h ErrorHandler) Option {
	return func(d *Dispatcher) {
		d.onError = h
	}
}

// New creates a new Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetErrorHandler replaces the error handler. It must be called from the
// draining goroutine or before draining starts.
func (d *Dispatcher) SetErrorHandler(h ErrorHandler) {
	d.onError = h
}

// Schedule appends an action to the queue and returns immediately.
func (d *Dispatcher) Schedule(action Action) {
	if action == nil {
		return
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.pending = append(d.pending, action)
}

// Do schedules a function that cannot fail.
func (d *Dispatcher) Do(f func()) {
	if f == nil {
		return
	}
	d.Schedule(func() error {
		f()
		return nil
	})
}

// Len returns the number of actions waiting for the next drain.
func (d *Dispatcher) Len() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.pending)
}

// Drain runs every action scheduled before the call, in order, outside the
// lock. Actions scheduled while draining wait for the next Drain.
// A failing action does not stop the rest; all failures are returned combined.
func (d *Dispatcher) Drain() error {
	d.lock.Lock()
	actions := d.pending
	d.pending = nil
	d.lock.Unlock()

	var errs error
	for i, action := range actions {
		if err := run(action); err != nil {
			err = fmt.Errorf("dispatched action %d failed: %w", i, err)
			if d.onError != nil {
				d.onError(err)
			}
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Run drains on every interval until the context is done. The calling
// goroutine becomes the designated goroutine.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.Drain()
			return
		case <-ticker.C:
			d.Drain()
		}
	}
}

func run(action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action()
}
