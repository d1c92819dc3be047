package engine

import (
	"context"
	"errors"

	"github.com/lourivaldantas/whatsapp-shell/internal/domain/windowstate"
)

// ErrClosed is returned by view operations after the window has gone away.
var ErrClosed = errors.New("view closed")

// PermissionSetting is a pre-decided answer for a device capability.
type PermissionSetting int

const (
	// PermissionPrompt leaves the question to the engine's native prompt.
	PermissionPrompt PermissionSetting = iota
	PermissionGranted
	PermissionDenied
)

func (s PermissionSetting) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "prompt"
	}
}

// Options configures the embedded view.
type Options struct {
	// URL is the single application loaded at startup.
	URL string
	// UserAgent is presented on every request.
	UserAgent string
	// DataDir isolates cookies, storage and cache from any other browser.
	DataDir string
	// Bin overrides engine binary discovery.
	Bin string
	// Headless runs without a visible window, for diagnostics.
	Headless bool
	// UserStyle injects the shell's stylesheet into every document.
	UserStyle bool
	// Geometry is the window placement at launch.
	Geometry windowstate.State
}

// Handlers are the callbacks the engine raises. Navigate and Permission
// must answer before the engine proceeds; the others are notifications.
type Handlers struct {
	// Navigate decides an in-place main frame navigation. Returning false
	// suppresses it.
	Navigate func(uri string) bool
	// Popup is told about a new window request. No window is ever created.
	Popup func(uri string)
	// PermissionDefault is the standing answer for a capability ("camera",
	// "microphone") at launch. It is not an actual request.
	PermissionDefault func(kind string) PermissionSetting
	// Permission answers a media request from origin for one or more
	// capabilities. It runs once per request the page makes.
	Permission func(origin string, kinds []string) PermissionSetting
	// LoadFailed reports a main frame that failed to load.
	LoadFailed func(uri, reason string)
}

// View is the live embedded view and its toplevel window.
type View interface {
	windowstate.Window

	// Reload reloads the current page.
	Reload() error
	// Notify shows a modal notice without waiting for it to be dismissed.
	Notify(title, message string)
	// Done is closed once the window is gone.
	Done() <-chan struct{}
	// Close shuts the engine down.
	Close() error
}

// Engine launches embedded views.
type Engine interface {
	Launch(ctx context.Context, opts Options, h Handlers) (View, error)
}
