package chromium

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/engine"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
)

const (
	pageWaitTimeout = 15 * time.Second
	pagePoll        = 100 * time.Millisecond
)

// permissionKinds are the capabilities pre-decided for the application origin.
var permissionKinds = []string{"camera", "microphone"}

// Engine launches Chromium in app mode over the DevTools protocol.
type Engine struct {
	logger *logging.Logger
}

// New creates a Chromium engine
func New(logger *logging.Logger) *Engine {
	return &Engine{logger: logger}
}

// Launch starts Chromium, wires the handlers and loads opts.URL.
func (e *Engine) Launch(ctx context.Context, opts engine.Options, h engine.Handlers) (engine.View, error) {
	origin, err := originOf(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid application url: %w", err)
	}
	if err := seedPreferences(opts.DataDir); err != nil {
		e.logger.Warn("Could not seed engine preferences", zap.Error(err))
	}

	// The browser outlives ctx so the window can be measured during shutdown
	l := newLauncher(opts)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}

	page, err := waitForPage(ctx, browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, err
	}

	v := newView(browser, page, l, e.logger)
	if err := v.wire(opts, origin, h); err != nil {
		_ = v.Close()
		return nil, err
	}

	e.logger.Info("Loading application", zap.String("url", opts.URL))
	go func() {
		res, err := proto.PageNavigate{URL: opts.URL}.Call(page)
		switch {
		case err != nil:
			e.logger.Warn("Navigation request failed", zap.Error(err))
		case res.ErrorText != "":
			// Reported again through the load failure handler
			e.logger.Debug("Initial navigation failed", zap.String("reason", res.ErrorText))
		}
	}()

	return v, nil
}

// waitForPage returns the app window's page once Chromium has created it.
func waitForPage(ctx context.Context, browser *rod.Browser) (*rod.Page, error) {
	deadline := time.Now().Add(pageWaitTimeout)
	for {
		pages, err := browser.Pages()
		if err == nil && len(pages) > 0 {
			return pages.First(), nil
		}
		if time.Now().After(deadline) {
			return nil, errors.New("timed out waiting for the application window")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pagePoll):
		}
	}
}
