package reload

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/config"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
)

// DefaultDelay is the wait before an automatic reload.
const DefaultDelay = 10 * time.Second

// NoticeTitle heads the failure notification.
const NoticeTitle = "Connection failure"

// Reloader reloads the embedded view.
type Reloader interface {
	Reload() error
}

// Notifier shows the user a modal notice. It must return without waiting
// for the user to dismiss it.
type Notifier interface {
	Notify(title, message string)
}

// Timer is a cancellable scheduled function.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn after d on the shell's event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Failure describes a main frame that failed to load.
type Failure struct {
	URI    string
	Reason string
}

// Supervisor turns load failures into a notice plus one delayed reload.
type Supervisor struct {
	delay     time.Duration
	reloader  Reloader
	notifier  Notifier
	scheduler Scheduler
	logger    *logging.Logger
	metrics   *monitoring.Metrics

	mu      sync.Mutex
	pending map[uint64]Timer
	nextID  uint64
	closed  bool
}

// NewSupervisor creates a supervisor. A non-positive delay means DefaultDelay.
func NewSupervisor(cfg config.ReloadConfig, reloader Reloader, notifier Notifier, scheduler Scheduler, logger *logging.Logger, metrics *monitoring.Metrics) *Supervisor {
	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	return &Supervisor{
		delay:     delay,
		reloader:  reloader,
		notifier:  notifier,
		scheduler: scheduler,
		logger:    logger,
		metrics:   metrics,
		pending:   make(map[uint64]Timer),
	}
}

// Pending is a scheduled reload
type Pending struct {
	s  *Supervisor
	id uint64
}

// Cancel stops the reload if it has not fired yet
func (p *Pending) Cancel() bool {
	return p.s.cancel(p.id)
}

// HandleFailure schedules exactly one reload after the delay, then shows the
// notice. The reload does not wait for the notice to be dismissed, and each
// failure schedules its own reload. It returns nil once the supervisor is closed.
func (s *Supervisor) HandleFailure(f Failure) *Pending {
	s.logger.Error("Failed to load page", zap.String("uri", f.URI), zap.String("reason", f.Reason))
	s.metrics.RecordLoadFailure()

	pending := s.schedule()
	if pending == nil {
		return nil
	}
	s.notifier.Notify(NoticeTitle, s.message(f))
	return pending
}

func (s *Supervisor) message(f Failure) string {
	reason := f.Reason
	if reason == "" {
		reason = "unknown error"
	}
	seconds := int(math.Ceil(s.delay.Seconds()))
	return fmt.Sprintf(
		"Could not load WhatsApp Web.\n\nCheck your internet connection.\nDetail: %s\n\nRetrying in %d seconds...",
		reason, seconds,
	)
}

func (s *Supervisor) schedule() *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.nextID++
	id := s.nextID
	s.pending[id] = s.scheduler.AfterFunc(s.delay, func() { s.fire(id) })
	s.metrics.RecordReloadScheduled()
	s.logger.Info("Reload scheduled", zap.Duration("delay", s.delay))

	return &Pending{s: s, id: id}
}

func (s *Supervisor) fire(id uint64) {
	s.mu.Lock()
	_, ok := s.pending[id]
	delete(s.pending, id)
	closed := s.closed
	s.mu.Unlock()

	if !ok || closed {
		return
	}

	s.metrics.RecordReload("timer")
	s.reload()
}

func (s *Supervisor) cancel(id uint64) bool {
	s.mu.Lock()
	timer, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()

	if !ok || !timer.Stop() {
		return false
	}
	s.metrics.RecordReloadCancelled()
	return true
}

// ReloadNow reloads immediately, as a user-requested refresh.
func (s *Supervisor) ReloadNow() {
	s.logger.Info("Manual reload requested")
	s.metrics.RecordReload("manual")
	s.reload()
}

func (s *Supervisor) reload() {
	if err := s.reloader.Reload(); err != nil {
		s.logger.Warn("Reload failed", zap.Error(err))
	}
}

// PendingCount returns the number of reloads waiting to fire
func (s *Supervisor) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every pending reload. Later failures schedule nothing.
func (s *Supervisor) Close() {
	s.mu.Lock()
	s.closed = true
	timers := s.pending
	s.pending = make(map[uint64]Timer)
	s.mu.Unlock()

	for _, timer := range timers {
		if timer.Stop() {
			s.metrics.RecordReloadCancelled()
		}
	}
}
