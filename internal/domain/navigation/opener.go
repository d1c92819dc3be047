package navigation

import (
	"io"

	"github.com/pkg/browser"
)

// Opener hands a URI to something outside the embedded view.
type Opener interface {
	Open(uri string) error
}

// SystemOpener opens URIs in the user's default browser.
type SystemOpener struct{}

// NewSystemOpener returns an opener backed by the desktop's URL handler.
// Output of the launched helper (xdg-open and friends) is discarded.
func NewSystemOpener() SystemOpener {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return SystemOpener{}
}

// Open launches the default browser on uri
func (SystemOpener) Open(uri string) error {
	return browser.OpenURL(uri)
}
