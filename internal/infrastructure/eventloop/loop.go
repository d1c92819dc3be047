package eventloop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned when work is submitted to a loop that is not running.
var ErrStopped = errors.New("event loop stopped")

var errAlreadyRunning = errors.New("event loop already running")

// PanicError carries a panic raised by a handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("event loop handler panicked: %v", e.Value)
}

// Loop runs submitted functions one at a time on a single goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	running bool

	wake chan struct{}
	done chan struct{}
}

// New creates an idle loop. Work may be queued before Run starts.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn without waiting. It returns ErrStopped once the loop has exited.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Call runs fn on the loop and waits for it to finish. It must not be
// called from a handler running on the same loop.
func (l *Loop) Call(fn func()) error {
	ran := make(chan struct{})
	if err := l.Post(func() {
		defer close(ran)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-ran:
		return nil
	case <-l.done:
		// Run may have drained ran's handler just before exiting
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Done is closed when Run returns
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes queued functions until ctx is cancelled or a handler panics.
// A panic stops the loop and is returned as *PanicError. Run may only be
// called once.
func (l *Loop) Run(ctx context.Context) (err error) {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return errAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		for _, fn := range l.drain() {
			if err := l.invoke(fn); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

func (l *Loop) invoke(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

// Timer is a function scheduled on the loop after a delay.
type Timer struct {
	t     *time.Timer
	state atomic.Int32
}

// AfterFunc runs fn on the loop once d has elapsed
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		_ = l.Post(func() {
			if tm.state.CompareAndSwap(timerPending, timerFired) {
				fn()
			}
		})
	})
	return tm
}

// Stop cancels the timer. It reports whether the call prevented fn from
// running; false means fn already ran or Stop was called before.
func (t *Timer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	t.t.Stop()
	return true
}
