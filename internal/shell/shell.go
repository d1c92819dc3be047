package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/domain/navigation"
	"github.com/lourivaldantas/whatsapp-shell/internal/domain/permission"
	"github.com/lourivaldantas/whatsapp-shell/internal/domain/reload"
	"github.com/lourivaldantas/whatsapp-shell/internal/domain/useragent"
	"github.com/lourivaldantas/whatsapp-shell/internal/domain/windowstate"
	"github.com/lourivaldantas/whatsapp-shell/internal/engine"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/config"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/eventloop"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/server"
	"github.com/lourivaldantas/whatsapp-shell/internal/shared/paths"
)

// Options are the shell's collaborators. The profile must already exist
// and be locked by the caller.
type Options struct {
	Config  *config.Config
	Profile paths.Profile
	Engine  engine.Engine
	Opener  navigation.Opener
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
	RunID   string
}

// Shell wires the governance policies to an embedded view.
type Shell struct {
	cfg     *config.Config
	profile paths.Profile
	engine  engine.Engine
	opener  navigation.Opener
	logger  *logging.Logger
	metrics *monitoring.Metrics
	runID   string
	started time.Time

	loop       *eventloop.Loop
	store      *windowstate.Store
	navigation *navigation.Policy
	permission *permission.Policy
	supervisor *reload.Supervisor
	proxy      *viewProxy

	mu        sync.RWMutex
	userAgent useragent.Result
}

// New creates a shell
func New(opts Options) (*Shell, error) {
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}

	perm, err := permission.NewPolicy(opts.Config.Permissions, nil, opts.Logger, opts.Metrics)
	if err != nil {
		return nil, err
	}

	s := &Shell{
		cfg:        opts.Config,
		profile:    opts.Profile,
		engine:     opts.Engine,
		opener:     opts.Opener,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		runID:      opts.RunID,
		started:    time.Now(),
		loop:       eventloop.New(),
		store:      windowstate.NewStore(opts.Profile.StatePath(), opts.Logger),
		navigation: navigation.NewPolicy(opts.Config.App, opts.Config.Navigation, opts.Opener, opts.Logger, opts.Metrics),
		permission: perm,
		proxy:      &viewProxy{},
	}
	s.supervisor = reload.NewSupervisor(opts.Config.Reload, s.proxy, s.proxy, loopScheduler{s.loop}, opts.Logger, opts.Metrics)

	return s, nil
}

// Run starts the application and blocks until the window closes or ctx is
// cancelled, both of which are a normal shutdown. A panic anywhere in the
// shell is logged as critical and returned as an error.
func (s *Shell) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Critical("Application crashed unexpectedly", zap.Any("panic", r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- s.loop.Run(loopCtx)
	}()

	initial := s.store.Initial()

	ua := useragent.NewResolver(s.cfg.UserAgent, s.logger, s.metrics).Resolve(ctx)
	s.mu.Lock()
	s.userAgent = ua
	s.mu.Unlock()

	if ctx.Err() != nil {
		s.logger.Info("Application interrupted by user")
		return nil
	}

	view, err := s.engine.Launch(ctx, engine.Options{
		URL:       s.cfg.App.URL,
		UserAgent: ua.UserAgent,
		DataDir:   s.profile.EnginePath(),
		Bin:       s.cfg.Engine.Bin,
		Headless:  s.cfg.Engine.Headless,
		UserStyle: s.cfg.Engine.UserStyle,
		Geometry:  initial,
	}, s.handlers())
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Info("Application interrupted by user")
			return nil
		}
		return fmt.Errorf("failed to launch engine: %w", err)
	}

	if err := s.loop.Call(func() {
		s.proxy.view = view
		s.store.Apply(initial, view)
	}); err != nil {
		_ = view.Close()
		return s.loopFailure(<-loopErr)
	}
	s.logger.Info("Application started", zap.String("url", s.cfg.App.URL))

	serverDone := s.startDiagnostics(loopCtx)
	go s.metrics.Run(loopCtx)

	var failure error
	select {
	case <-ctx.Done():
		s.logger.Info("Application interrupted by user")
	case <-view.Done():
		s.logger.Info("Window closed")
	case err := <-loopErr:
		failure = s.loopFailure(err)
	}

	s.shutdown(view)
	stopLoop()
	<-serverDone
	return failure
}

func (s *Shell) loopFailure(err error) error {
	var panicErr *eventloop.PanicError
	if errors.As(err, &panicErr) {
		s.logger.Critical("Application crashed unexpectedly",
			zap.Any("panic", panicErr.Value),
			zap.ByteString("handler_stack", panicErr.Stack),
		)
	}
	if err == nil {
		err = eventloop.ErrStopped
	}
	return err
}

// shutdown cancels pending reloads, saves the window state and closes the view.
func (s *Shell) shutdown(view engine.View) {
	s.supervisor.Close()

	result := "ok"
	if !s.store.Save(windowstate.Capture(view)) {
		result = "error"
	}
	s.metrics.RecordWindowStateSave(result)

	if err := view.Close(); err != nil {
		s.logger.Debug("Engine did not close cleanly", zap.Error(err))
	}
	s.logger.Info("Application stopped")
}

// handlers bridges engine callbacks onto the event loop.
func (s *Shell) handlers() engine.Handlers {
	return engine.Handlers{
		Navigate: func(uri string) bool {
			decision := navigation.None
			if err := s.loop.Call(func() {
				decision = s.navigation.DecideNavigation(navigation.Event{URI: uri})
			}); err != nil {
				return true
			}
			return !decision.Suppress()
		},
		Popup: func(uri string) {
			_ = s.loop.Post(func() {
				s.navigation.DecidePopup(navigation.Event{URI: uri})
			})
		},
		PermissionDefault: func(kind string) engine.PermissionSetting {
			return settingFor(s.permission.Preset(permission.Kind(kind)))
		},
		Permission: func(origin string, kinds []string) engine.PermissionSetting {
			req := permission.Request{Origin: origin}
			for _, kind := range kinds {
				req.Kinds = append(req.Kinds, permission.Kind(kind))
			}

			verdict := permission.Ask
			if err := s.loop.Call(func() {
				verdict = s.permission.Evaluate(req)
			}); err != nil {
				return engine.PermissionPrompt
			}
			return settingFor(verdict)
		},
		LoadFailed: func(uri, reason string) {
			_ = s.loop.Post(func() {
				s.supervisor.HandleFailure(reload.Failure{URI: uri, Reason: reason})
			})
		},
	}
}

func settingFor(v permission.Verdict) engine.PermissionSetting {
	switch v {
	case permission.Grant:
		return engine.PermissionGranted
	case permission.Deny:
		return engine.PermissionDenied
	default:
		return engine.PermissionPrompt
	}
}

// Reload reloads the page now, from outside the loop.
func (s *Shell) Reload() error {
	return s.loop.Call(s.supervisor.ReloadNow)
}

// Status reports the running shell
func (s *Shell) Status() server.Status {
	s.mu.RLock()
	ua := s.userAgent
	s.mu.RUnlock()

	return server.Status{
		RunID:           s.runID,
		StartedAt:       s.started,
		ProfileDir:      s.profile.Dir,
		URL:             s.cfg.App.URL,
		UserAgent:       ua.UserAgent,
		UserAgentSource: string(ua.Source),
		PermissionMode:  string(s.permission.Mode()),
		PendingReloads:  s.supervisor.PendingCount(),
		Permissions:     s.permission.Audit(),
	}
}

func (s *Shell) startDiagnostics(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if s.cfg.Diagnostics.Addr == "" {
		close(done)
		return done
	}

	srv := server.New(server.Config{
		Addr:              s.cfg.Diagnostics.Addr,
		Development:       s.cfg.Logging.Development,
		RequestsPerSecond: 20,
		Burst:             40,
		AllowOrigins:      s.cfg.Diagnostics.AllowOrigins,
	}, server.Deps{
		Status:  s.Status,
		Reload:  s.Reload,
		Metrics: s.metrics,
		Logger:  s.logger,
	})

	go func() {
		defer close(done)
		if err := srv.Run(ctx); err != nil {
			s.logger.Warn("Diagnostics server failed", zap.Error(err))
		}
	}()
	return done
}
