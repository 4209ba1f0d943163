// Package dispatch provides the single control goroutine that owns all
// frame state.
//
// Frames never lock: every mutation happens inside a callback run by the
// dispatcher's pump. Asynchronous work (content loads) runs on its own
// goroutine through Go and hands its result back as a callback, which the
// pump runs in a later turn.
//
// There are two ways to pump:
//   - Run: a long-lived loop, used by servers. Other goroutines reach the
//     frames through Invoke.
//   - Drain: the calling goroutine becomes the control goroutine until no
//     callback is queued and no Go work is outstanding. Used by tests and
//     command line tools.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
)

// ErrAlreadyRunning is returned when a second pump is started
var ErrAlreadyRunning = errors.New("dispatcher is already being pumped")

// Dispatcher serialises callbacks onto one control goroutine
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	pending int
	wake    chan struct{}

	pumping atomic.Bool
	logger  *zap.Logger
}

// New creates an idle dispatcher
func New() *Dispatcher {
	return &Dispatcher{
		wake:   make(chan struct{}, 1),
		logger: zap.NewNop(),
	}
}

// WithLogger attaches a logger
func (d *Dispatcher) WithLogger(l *zap.Logger) *Dispatcher {
	d.logger = logging.OrNop(l)
	return d
}

// Post queues fn to run on the control goroutine in a later turn
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	d.signal()
}

// Go runs work on its own goroutine and queues the callback it returns.
// A nil callback is skipped. Drain waits for outstanding Go work.
func (d *Dispatcher) Go(work func() func()) {
	d.mu.Lock()
	d.pending++
	d.mu.Unlock()

	go func() {
		var done func()
		defer func() {
			d.mu.Lock()
			if done != nil {
				d.queue = append(d.queue, done)
			}
			d.pending--
			d.mu.Unlock()
			d.signal()
		}()
		done = work()
	}()
}

// Invoke runs fn on the control goroutine and waits for it. It must not be
// called from the control goroutine itself.
func (d *Dispatcher) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	d.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunPending runs the callbacks queued so far, including ones they queue,
// without waiting for Go work. It returns the number of callbacks run.
func (d *Dispatcher) RunPending() (int, error) {
	if !d.pumping.CompareAndSwap(false, true) {
		return 0, ErrAlreadyRunning
	}
	defer d.pumping.Store(false)

	n := 0
	for {
		fn, ok, _ := d.next()
		if !ok {
			return n, nil
		}
		fn()
		n++
	}
}

// Drain pumps until the queue is empty and no Go work is outstanding
func (d *Dispatcher) Drain(ctx context.Context) error {
	return d.pump(ctx, true)
}

// Run pumps until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Debug("Dispatcher running")
	err := d.pump(ctx, false)
	d.logger.Debug("Dispatcher stopped", zap.Error(err))
	return err
}

// Pending reports the queued callbacks and outstanding Go work
func (d *Dispatcher) Pending() (queued, working int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue), d.pending
}

func (d *Dispatcher) pump(ctx context.Context, untilIdle bool) error {
	if !d.pumping.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.pumping.Store(false)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fn, ok, working := d.next()
		if ok {
			fn()
			continue
		}
		if untilIdle && working == 0 {
			return nil
		}

		select {
		case <-d.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) next() (func(), bool, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return nil, false, d.pending
	}
	fn := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return fn, true, d.pending
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}
