package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/domain/instance"
	"github.com/lourivaldantas/whatsapp-shell/internal/domain/navigation"
	"github.com/lourivaldantas/whatsapp-shell/internal/engine/chromium"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/config"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
	"github.com/lourivaldantas/whatsapp-shell/internal/shared/id"
	"github.com/lourivaldantas/whatsapp-shell/internal/shared/paths"
	"github.com/lourivaldantas/whatsapp-shell/internal/shell"
)

// globalFlags are shared by every command
type globalFlags struct {
	profileDir      string
	portable        bool
	logLevel        string
	diagnosticsAddr string
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	return newRootCommand(version, commit, buildDate).ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "whatsapp-shell",
		Short: "WhatsApp Web in its own window",
		Long: `whatsapp-shell opens WhatsApp Web in a dedicated Chromium window.

It keeps a private profile, refuses to start twice on the same profile,
opens foreign links in the system browser, remembers the window geometry
and reloads the page after connection failures.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.profileDir, "profile-dir", "", "profile directory (default: XDG data home)")
	rootCmd.PersistentFlags().BoolVar(&flags.portable, "portable", false, "keep the profile next to the executable")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&flags.diagnosticsAddr, "diagnostics-addr", "", "serve health, status and metrics on this address")

	rootCmd.AddCommand(newUserAgentCommand(flags))
	rootCmd.AddCommand(newStateCommand(flags))

	return rootCmd
}

// setup resolves and creates the profile, then loads its configuration.
// Environment variables may name the profile; flags override them.
func setup(flags *globalFlags) (paths.Profile, *config.Config, error) {
	envCfg, err := config.Load("")
	if err != nil {
		return paths.Profile{}, nil, err
	}

	dir := flags.profileDir
	if dir == "" {
		dir = envCfg.Profile.Dir
	}
	profile, err := paths.Resolve(dir, flags.portable || envCfg.Profile.Portable)
	if err != nil {
		return paths.Profile{}, nil, err
	}
	if err := profile.Ensure(); err != nil {
		return paths.Profile{}, nil, err
	}

	cfg, err := config.Load(profile.SettingsPath())
	if err != nil {
		return paths.Profile{}, nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.diagnosticsAddr != "" {
		cfg.Diagnostics.Addr = flags.diagnosticsAddr
	}
	return profile, cfg, nil
}

func newLogger(profile paths.Profile, cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.New(logging.FileConfig(profile.LogPath(), cfg.Logging.Level, cfg.Logging.Development))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func run(ctx context.Context, flags *globalFlags) error {
	profile, cfg, err := setup(flags)
	if err != nil {
		return err
	}

	// The log belongs to the instance holding the lock
	lock, err := instance.Acquire(profile.LockPath())
	if errors.Is(err, instance.ErrAlreadyRunning) {
		pterm.Info.Printfln("Another instance is already running on %s, exiting", profile.Dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to lock profile: %w", err)
	}
	defer lock.Release()

	logger, err := newLogger(profile, cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	runID := id.NewRunID().String()
	logger = logger.With(zap.String("run_id", runID))

	logger.Info("Starting application",
		zap.String("profile", profile.Dir),
		zap.String("log_level", cfg.Logging.Level),
	)

	app, err := shell.New(shell.Options{
		Config:  cfg,
		Profile: profile,
		Engine:  chromium.New(logger),
		Opener:  navigation.NewSystemOpener(),
		Logger:  logger,
		Metrics: monitoring.NewMetrics(),
		RunID:   runID,
	})
	if err != nil {
		logger.Critical("Failed to initialize application", zap.Error(err))
		return err
	}

	if err := app.Run(ctx); err != nil {
		logger.Critical("Application stopped with an error", zap.Error(err))
		return err
	}
	return nil
}
