package chromium

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/domain/windowstate"
	"github.com/lourivaldantas/whatsapp-shell/internal/engine"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
)

// boundsRefresh is how often the cached window geometry is refreshed, so it
// can still be reported after the window is gone.
const boundsRefresh = time.Second

const cdpTimeout = 5 * time.Second

// view is the app-mode window and its single page.
type view struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	logger   *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	windowID proto.BrowserWindowID
	bounds   windowstate.State

	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

func newView(browser *rod.Browser, page *rod.Page, l *launcher.Launcher, logger *logging.Logger) *view {
	ctx, cancel := context.WithCancel(context.Background())
	return &view{
		browser:  browser,
		page:     page,
		launcher: l,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		bounds:   windowstate.Default(),
		done:     make(chan struct{}),
	}
}

// documentRequests pauses every document request. Subframe documents are
// continued straight away in route.
var documentRequests = []*proto.FetchRequestPattern{{
	URLPattern:   "*",
	ResourceType: proto.NetworkResourceTypeDocument,
	RequestStage: proto.FetchRequestStageRequest,
}}

// wire installs the stylesheet, permissions, request interception and event streams.
func (v *view) wire(opts engine.Options, origin string, h engine.Handlers) error {
	if opts.UserStyle {
		script, err := styleScript(userStyle)
		if err != nil {
			return err
		}
		if _, err := v.page.EvalOnNewDocument(script); err != nil {
			v.logger.Warn("Failed to install user stylesheet", zap.Error(err))
		}
	}

	v.applyPermissions(origin, h.PermissionDefault)
	if err := v.bridgeMedia(origin, h.Permission); err != nil {
		v.logger.Warn("Failed to watch media requests", zap.Error(err))
	}

	// Enabled explicitly so the event stream below does not widen it to
	// every request
	if err := (proto.FetchEnable{Patterns: documentRequests}).Call(v.page); err != nil {
		return fmt.Errorf("enable request interception: %w", err)
	}

	v.watchPage(h)
	v.watchBrowser()
	go v.trackBounds()

	return nil
}

func (v *view) applyPermissions(origin string, preset func(kind string) engine.PermissionSetting) {
	if preset == nil {
		return
	}
	for _, kind := range permissionKinds {
		err := proto.BrowserSetPermission{
			Permission: &proto.BrowserPermissionDescriptor{Name: kind},
			Setting:    permissionSetting(preset(kind)),
			Origin:     origin,
		}.Call(v.browser)
		if err != nil {
			v.logger.Warn("Failed to set permission", zap.String("kind", kind), zap.Error(err))
		}
	}
}

// bridgeMedia routes every getUserMedia call through decide.
func (v *view) bridgeMedia(origin string, decide func(origin string, kinds []string) engine.PermissionSetting) error {
	if decide == nil {
		return nil
	}

	_, err := v.page.Expose(mediaBinding, func(req gson.JSON) (interface{}, error) {
		return answerMedia(req, origin, decide), nil
	})
	if err != nil {
		return err
	}

	script, err := mediaScript(mediaBinding)
	if err != nil {
		return err
	}
	_, err = v.page.EvalOnNewDocument(script)
	return err
}

// route answers a paused request. Suppressed navigations are aborted,
// which keeps the current document on screen.
func (v *view) route(e *proto.FetchRequestPaused, navigate func(uri string) bool) {
	page := v.page.Context(v.ctx)

	var err error
	if allowRequest(e, proto.PageFrameID(v.page.TargetID), navigate) {
		err = proto.FetchContinueRequest{RequestID: e.RequestID}.Call(page)
	} else {
		err = proto.FetchFailRequest{
			RequestID:   e.RequestID,
			ErrorReason: proto.NetworkErrorReasonAborted,
		}.Call(page)
	}
	if err != nil {
		v.logger.Debug("Failed to answer paused request", zap.Error(err))
	}
}

func (v *view) watchPage(h engine.Handlers) {
	// Main frame document requests in flight, by request ID
	docs := make(map[proto.NetworkRequestID]string)

	wait := v.page.Context(v.ctx).EachEvent(
		func(e *proto.FetchRequestPaused) {
			// Navigate may wait on the event loop
			go v.route(e, h.Navigate)
		},
		func(e *proto.PageWindowOpen) {
			if h.Popup != nil {
				h.Popup(e.URL)
			}
		},
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Type == proto.NetworkResourceTypeDocument && string(e.FrameID) == string(v.page.TargetID) {
				docs[e.RequestID] = e.Request.URL
			}
		},
		func(e *proto.NetworkLoadingFinished) {
			delete(docs, e.RequestID)
		},
		func(e *proto.NetworkLoadingFailed) {
			uri, ok := docs[e.RequestID]
			delete(docs, e.RequestID)
			if ok && loadFailed(e) && h.LoadFailed != nil {
				h.LoadFailed(uri, e.ErrorText)
			}
		},
	)
	go wait()
}

func (v *view) watchBrowser() {
	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(v.browser); err != nil {
		v.logger.Warn("Failed to watch targets", zap.Error(err))
	}

	wait := v.browser.Context(v.ctx).EachEvent(
		func(e *proto.TargetTargetCreated) {
			info := e.TargetInfo
			// Popups were already handed to the popup handler; the window itself goes
			if string(info.Type) == "page" && info.OpenerID == v.page.TargetID {
				if _, err := (proto.TargetCloseTarget{TargetID: info.TargetID}).Call(v.browser); err != nil {
					v.logger.Debug("Failed to close popup window", zap.Error(err))
				}
			}
		},
		func(e *proto.TargetTargetDestroyed) {
			if e.TargetID == v.page.TargetID {
				v.markDone()
			}
		},
	)
	go func() {
		wait()
		v.markDone()
	}()
}

func (v *view) trackBounds() {
	ticker := time.NewTicker(boundsRefresh)
	defer ticker.Stop()

	_ = v.refreshBounds()
	for {
		select {
		case <-v.done:
			return
		case <-ticker.C:
			_ = v.refreshBounds()
		}
	}
}

// refreshBounds updates the cached geometry. Normal-state bounds are kept
// while maximized so the restored size survives.
func (v *view) refreshBounds() error {
	res, err := proto.BrowserGetWindowForTarget{TargetID: v.page.TargetID}.Call(v.cdp())
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.windowID = res.WindowID
	b := res.Bounds
	if b == nil {
		return nil
	}
	v.bounds.IsMaximized = b.WindowState == proto.BrowserWindowStateMaximized
	if b.WindowState == proto.BrowserWindowStateNormal || b.WindowState == "" {
		setInt(&v.bounds.Width, b.Width)
		setInt(&v.bounds.Height, b.Height)
		setInt(&v.bounds.X, b.Left)
		setInt(&v.bounds.Y, b.Top)
	}
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// cdp returns the browser bound to a short timeout.
func (v *view) cdp() *rod.Browser {
	return v.browser.Timeout(cdpTimeout)
}

func (v *view) setBounds(bounds *proto.BrowserBounds) error {
	select {
	case <-v.done:
		return engine.ErrClosed
	default:
	}

	if err := v.refreshBounds(); err != nil {
		return err
	}
	v.mu.RLock()
	id := v.windowID
	maximized := v.bounds.IsMaximized
	v.mu.RUnlock()

	// Chromium ignores geometry while maximized
	if maximized && bounds.WindowState == "" {
		err := proto.BrowserSetWindowBounds{
			WindowID: id,
			Bounds:   &proto.BrowserBounds{WindowState: proto.BrowserWindowStateNormal},
		}.Call(v.cdp())
		if err != nil {
			return err
		}
	}

	if err := (proto.BrowserSetWindowBounds{WindowID: id, Bounds: bounds}).Call(v.cdp()); err != nil {
		return err
	}
	return v.refreshBounds()
}

func (v *view) Size() (int, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bounds.Width, v.bounds.Height
}

func (v *view) Position() (int, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bounds.X, v.bounds.Y
}

func (v *view) IsMaximized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bounds.IsMaximized
}

func (v *view) Resize(width, height int) error {
	return v.setBounds(&proto.BrowserBounds{Width: &width, Height: &height})
}

func (v *view) Move(x, y int) error {
	return v.setBounds(&proto.BrowserBounds{Left: &x, Top: &y})
}

func (v *view) Maximize() error {
	return v.setBounds(&proto.BrowserBounds{WindowState: proto.BrowserWindowStateMaximized})
}

// Reload requests a reload without waiting for the navigation. An open
// notice is dismissed first, since a pending dialog blocks the page.
func (v *view) Reload() error {
	select {
	case <-v.done:
		return engine.ErrClosed
	default:
	}

	go func() {
		page := v.page.Timeout(cdpTimeout)
		_ = proto.PageHandleJavaScriptDialog{Accept: true}.Call(page)
		if err := (proto.PageReload{}).Call(page); err != nil {
			v.logger.Warn("Failed to reload page", zap.Error(err))
		}
	}()
	return nil
}

// Notify raises a page-modal alert. It returns at once; the alert stays
// until dismissed or until the next reload.
func (v *view) Notify(title, message string) {
	go func() {
		_, err := v.page.Context(v.ctx).Eval(`(title, message) => alert(title + "\n\n" + message)`, title, message)
		if err != nil {
			v.logger.Debug("Notice closed", zap.Error(err))
		}
	}()
}

func (v *view) Done() <-chan struct{} {
	return v.done
}

func (v *view) markDone() {
	v.doneOnce.Do(func() { close(v.done) })
}

// Close stops event handling and shuts Chromium down.
func (v *view) Close() error {
	var err error
	v.closeOnce.Do(func() {
		v.cancel()
		err = v.browser.Close()
		v.launcher.Kill()
		v.markDone()
	})
	return err
}
