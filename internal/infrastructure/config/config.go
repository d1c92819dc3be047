package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WHATSAPP"

// FallbackUserAgent is presented when the remote list cannot be used.
const FallbackUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	App         AppConfig         `split_words:"true"`
	Profile     ProfileConfig     `split_words:"true"`
	UserAgent   UserAgentConfig   `split_words:"true"`
	Navigation  NavigationConfig  `split_words:"true"`
	Permissions PermissionsConfig `split_words:"true"`
	Reload      ReloadConfig      `split_words:"true"`
	Engine      EngineConfig      `split_words:"true"`
	Logging     LogConfig         `split_words:"true"`
	Diagnostics DiagnosticsConfig `split_words:"true"`
}

// AppConfig holds the single trusted web application.
type AppConfig struct {
	URL     string   `split_words:"true"`
	Domains []string `split_words:"true"`
}

// ProfileConfig selects the profile directory.
type ProfileConfig struct {
	Dir      string `split_words:"true"`
	Portable bool   `split_words:"true"`
}

// UserAgentConfig holds user agent resolution settings.
type UserAgentConfig struct {
	ListURL  string        `split_words:"true"`
	Timeout  time.Duration `split_words:"true"`
	Fallback string        `split_words:"true"`
	Remote   bool          `split_words:"true"`
}

// NavigationConfig bounds how fast links may be handed to the external browser.
type NavigationConfig struct {
	OpenRate  float64 `split_words:"true"`
	OpenBurst int     `split_words:"true"`

	// OpenFailures consecutive opener failures pause external opens for OpenCooldown.
	OpenFailures int           `split_words:"true"`
	OpenCooldown time.Duration `split_words:"true"`
}

// PermissionsConfig holds the device permission mode.
type PermissionsConfig struct {
	Mode string `split_words:"true"`
}

// ReloadConfig holds load failure retry settings.
type ReloadConfig struct {
	Delay time.Duration `split_words:"true"`
}

// EngineConfig holds embedded engine settings.
type EngineConfig struct {
	Bin       string `split_words:"true"`
	Headless  bool   `split_words:"true"`
	UserStyle bool   `split_words:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `split_words:"true"`
	Development bool   `split_words:"true"`
}

// DiagnosticsConfig holds the local diagnostics server address; empty disables it.
type DiagnosticsConfig struct {
	Addr         string   `split_words:"true"`
	AllowOrigins []string `split_words:"true"`
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			URL:     "https://web.whatsapp.com/",
			Domains: []string{"whatsapp.com"},
		},
		UserAgent: UserAgentConfig{
			ListURL:  "https://jnrbsn.github.io/user-agents/user-agents.json",
			Timeout:  3 * time.Second,
			Fallback: FallbackUserAgent,
			Remote:   true,
		},
		Navigation: NavigationConfig{
			OpenRate:     2,
			OpenBurst:    5,
			OpenFailures: 3,
			OpenCooldown: 30 * time.Second,
		},
		Permissions: PermissionsConfig{
			Mode: "allow",
		},
		Reload: ReloadConfig{
			Delay: 10 * time.Second,
		},
		Engine: EngineConfig{
			UserStyle: true,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Load builds configuration from defaults, then the settings file at
// settingsPath (skipped when empty or missing), then environment variables.
func Load(settingsPath string) (*Config, error) {
	cfg := Default()

	if settingsPath != "" {
		if err := cfg.applyFile(settingsPath); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	u, err := url.Parse(c.App.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid app url %q", c.App.URL)
	}
	if len(c.App.Domains) == 0 {
		return errors.New("at least one app domain is required")
	}
	for _, d := range c.App.Domains {
		if strings.TrimSpace(d) == "" {
			return errors.New("app domains cannot be empty")
		}
	}
	if c.UserAgent.Timeout <= 0 {
		return fmt.Errorf("user agent timeout must be positive, got %s", c.UserAgent.Timeout)
	}
	if strings.TrimSpace(c.UserAgent.Fallback) == "" {
		return errors.New("fallback user agent cannot be empty")
	}
	if c.Reload.Delay <= 0 {
		return fmt.Errorf("reload delay must be positive, got %s", c.Reload.Delay)
	}
	if c.Navigation.OpenRate < 0 || c.Navigation.OpenBurst < 0 {
		return errors.New("navigation open rate and burst cannot be negative")
	}
	if c.Navigation.OpenFailures < 0 || c.Navigation.OpenCooldown < 0 {
		return errors.New("navigation open failures and cooldown cannot be negative")
	}
	switch c.Permissions.Mode {
	case "allow", "deny", "prompt":
	default:
		return fmt.Errorf("unknown permissions mode %q", c.Permissions.Mode)
	}
	return nil
}

// fileConfig mirrors Config for settings.toml. Nil fields keep the current value.
type fileConfig struct {
	App struct {
		URL     *string  `toml:"url"`
		Domains []string `toml:"domains"`
	} `toml:"app"`
	UserAgent struct {
		ListURL  *string `toml:"list_url"`
		Timeout  *string `toml:"timeout"`
		Fallback *string `toml:"fallback"`
		Remote   *bool   `toml:"remote"`
	} `toml:"user_agent"`
	Navigation struct {
		OpenRate     *float64 `toml:"open_rate"`
		OpenBurst    *int     `toml:"open_burst"`
		OpenFailures *int     `toml:"open_failures"`
		OpenCooldown *string  `toml:"open_cooldown"`
	} `toml:"navigation"`
	Permissions struct {
		Mode *string `toml:"mode"`
	} `toml:"permissions"`
	Reload struct {
		Delay *string `toml:"delay"`
	} `toml:"reload"`
	Engine struct {
		Bin       *string `toml:"bin"`
		Headless  *bool   `toml:"headless"`
		UserStyle *bool   `toml:"user_style"`
	} `toml:"engine"`
	Logging struct {
		Level       *string `toml:"level"`
		Development *bool   `toml:"development"`
	} `toml:"logging"`
	Diagnostics struct {
		Addr         *string  `toml:"addr"`
		AllowOrigins []string `toml:"allow_origins"`
	} `toml:"diagnostics"`
}

// applyFile overlays settings.toml onto c. A missing file is not an error.
func (c *Config) applyFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open settings: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	setString(&c.App.URL, fc.App.URL)
	if len(fc.App.Domains) > 0 {
		c.App.Domains = fc.App.Domains
	}

	setString(&c.UserAgent.ListURL, fc.UserAgent.ListURL)
	setString(&c.UserAgent.Fallback, fc.UserAgent.Fallback)
	setBool(&c.UserAgent.Remote, fc.UserAgent.Remote)
	if err := setDuration(&c.UserAgent.Timeout, fc.UserAgent.Timeout); err != nil {
		return fmt.Errorf("user_agent.timeout: %w", err)
	}

	if fc.Navigation.OpenRate != nil {
		c.Navigation.OpenRate = *fc.Navigation.OpenRate
	}
	if fc.Navigation.OpenBurst != nil {
		c.Navigation.OpenBurst = *fc.Navigation.OpenBurst
	}
	if fc.Navigation.OpenFailures != nil {
		c.Navigation.OpenFailures = *fc.Navigation.OpenFailures
	}
	if err := setDuration(&c.Navigation.OpenCooldown, fc.Navigation.OpenCooldown); err != nil {
		return fmt.Errorf("navigation.open_cooldown: %w", err)
	}

	setString(&c.Permissions.Mode, fc.Permissions.Mode)
	if err := setDuration(&c.Reload.Delay, fc.Reload.Delay); err != nil {
		return fmt.Errorf("reload.delay: %w", err)
	}

	setString(&c.Engine.Bin, fc.Engine.Bin)
	setBool(&c.Engine.Headless, fc.Engine.Headless)
	setBool(&c.Engine.UserStyle, fc.Engine.UserStyle)

	setString(&c.Logging.Level, fc.Logging.Level)
	setBool(&c.Logging.Development, fc.Logging.Development)

	setString(&c.Diagnostics.Addr, fc.Diagnostics.Addr)
	if len(fc.Diagnostics.AllowOrigins) > 0 {
		c.Diagnostics.AllowOrigins = fc.Diagnostics.AllowOrigins
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
