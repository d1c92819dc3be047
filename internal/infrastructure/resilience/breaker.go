package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without running the action while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// State of a breaker
type State int

const (
	Closed State = iota
	HalfOpen
	Open
)

// String returns the state name used in logs and metrics
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case HalfOpen:
		return "half_open"
	case Open:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values take the defaults.
type Settings struct {
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before one trial call.
	Cooldown time.Duration
	// OnStateChange is called, under no lock, after every transition.
	OnStateChange func(from, to State)
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Defaults
const (
	DefaultThreshold = 3
	DefaultCooldown  = 30 * time.Second
)

// Breaker stops calling a failing action for a cooldown period. While half
// open it lets a single trial through; success closes it, failure reopens it.
type Breaker struct {
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

// New creates a closed breaker
func New(settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = DefaultThreshold
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = DefaultCooldown
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{settings: settings}
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, _ := b.advance()
	return state
}

// Do runs fn unless the breaker is open, and records its outcome.
// A panic in fn counts as a failure and is re-raised.
func (b *Breaker) Do(fn func() error) (err error) {
	if err := b.before(); err != nil {
		return err
	}

	failed := true
	defer func() {
		b.after(failed)
	}()

	err = fn()
	failed = err != nil
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	state, change := b.advance()
	switch {
	case state == Open:
		b.mu.Unlock()
		return ErrOpen
	case state == HalfOpen && b.trial:
		b.mu.Unlock()
		return ErrOpen
	case state == HalfOpen:
		b.trial = true
	}
	b.mu.Unlock()

	b.notify(change)
	return nil
}

func (b *Breaker) after(failed bool) {
	b.mu.Lock()
	var change *transition
	switch {
	case !failed:
		b.failures = 0
		change = b.set(Closed)
	case b.state == HalfOpen:
		change = b.set(Open)
	default:
		b.failures++
		if b.failures >= b.settings.Threshold {
			change = b.set(Open)
		}
	}
	b.mu.Unlock()

	b.notify(change)
}

type transition struct {
	from, to State
}

// advance moves an expired open breaker to half open. Callers hold mu.
func (b *Breaker) advance() (State, *transition) {
	if b.state == Open && !b.settings.Now().Before(b.openedAt.Add(b.settings.Cooldown)) {
		return HalfOpen, b.set(HalfOpen)
	}
	return b.state, nil
}

// set changes state and returns the transition, or nil if unchanged. Callers hold mu.
func (b *Breaker) set(to State) *transition {
	if b.state == to {
		return nil
	}
	from := b.state
	b.state = to
	b.trial = false
	switch to {
	case Open:
		b.openedAt = b.settings.Now()
	case Closed:
		b.failures = 0
	}
	return &transition{from: from, to: to}
}

func (b *Breaker) notify(t *transition) {
	if t != nil && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(t.from, t.to)
	}
}
