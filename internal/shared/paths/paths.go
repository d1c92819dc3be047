// Package paths provides the profile directory layout shared by every component.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppDirName is the directory created under the user data directory.
const AppDirName = "python-whatsapp-gtk"

// PortableDirName is the directory colocated with the executable in portable mode.
const PortableDirName = "wtp_data"

// Files inside the profile directory
const (
	LockFile     = "app.lock"
	StateFile    = "window_state.json"
	LogFile      = "application.log"
	SettingsFile = "settings.toml"
	EngineDir    = "engine"
)

// Profile returns paths inside a resolved profile directory
type Profile struct {
	Dir string
}

// LockPath returns the advisory lock file path
func (p Profile) LockPath() string {
	return filepath.Join(p.Dir, LockFile)
}

// StatePath returns the window state file path
func (p Profile) StatePath() string {
	return filepath.Join(p.Dir, StateFile)
}

// LogPath returns the application log path
func (p Profile) LogPath() string {
	return filepath.Join(p.Dir, LogFile)
}

// SettingsPath returns the optional settings file path
func (p Profile) SettingsPath() string {
	return filepath.Join(p.Dir, SettingsFile)
}

// EnginePath returns the engine's isolated data and cache directory
func (p Profile) EnginePath() string {
	return filepath.Join(p.Dir, EngineDir)
}

// Ensure creates the profile directory if it does not exist
func (p Profile) Ensure() error {
	if p.Dir == "" {
		return fmt.Errorf("profile directory cannot be empty")
	}
	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	return nil
}

// Resolve picks the profile directory. An explicit directory wins; portable
// mode uses a directory next to the executable; otherwise the XDG data home.
func Resolve(explicit string, portable bool) (Profile, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return Profile{}, fmt.Errorf("invalid profile directory: %w", err)
		}
		return Profile{Dir: abs}, nil
	}

	if portable {
		exe, err := os.Executable()
		if err != nil {
			return Profile{}, fmt.Errorf("failed to locate executable: %w", err)
		}
		return Profile{Dir: filepath.Join(filepath.Dir(exe), PortableDirName)}, nil
	}

	base, err := UserDataDir()
	if err != nil {
		return Profile{}, err
	}
	return Profile{Dir: filepath.Join(base, AppDirName)}, nil
}

// UserDataDir returns $XDG_DATA_HOME, falling back to ~/.local/share
func UserDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" && filepath.IsAbs(dir) {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}
