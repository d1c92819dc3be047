package navigation

// Decision is the outcome for one navigation or popup event.
type Decision int

const (
	// None leaves the event to the engine's default handling.
	None Decision = iota
	// Allow lets the embedded view load the URI in place.
	Allow
	// RedirectExternal suppresses the load; the URI went to the system browser.
	RedirectExternal
	// PopupExternal refuses the new view; the URI went to the system browser.
	PopupExternal
)

func (d Decision) String() string {
	switch d {
	case None:
		return "none"
	case Allow:
		return "allow"
	case RedirectExternal:
		return "redirect_external"
	case PopupExternal:
		return "popup_external"
	default:
		return "unknown"
	}
}

// Suppress reports whether the embedded view must not load the URI itself.
func (d Decision) Suppress() bool {
	return d == RedirectExternal || d == PopupExternal
}

// Event is a navigation or popup request raised by the engine.
type Event struct {
	URI string
}
