package shell

import (
	"time"

	"github.com/lourivaldantas/whatsapp-shell/internal/domain/reload"
	"github.com/lourivaldantas/whatsapp-shell/internal/engine"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/eventloop"
)

// loopScheduler schedules reloads on the event loop.
type loopScheduler struct {
	loop *eventloop.Loop
}

func (s loopScheduler) AfterFunc(d time.Duration, fn func()) reload.Timer {
	return s.loop.AfterFunc(d, fn)
}

// viewProxy lets the supervisor exist before the view does. It is only
// touched from the event loop.
type viewProxy struct {
	view engine.View
}

func (p *viewProxy) Reload() error {
	if p.view == nil {
		return engine.ErrClosed
	}
	return p.view.Reload()
}

func (p *viewProxy) Notify(title, message string) {
	if p.view != nil {
		p.view.Notify(title, message)
	}
}
