package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFiles(t *testing.T) {
	p := Profile{Dir: "/data/profile"}

	assert.Equal(t, filepath.Join("/data/profile", "app.lock"), p.LockPath())
	assert.Equal(t, filepath.Join("/data/profile", "window_state.json"), p.StatePath())
	assert.Equal(t, filepath.Join("/data/profile", "application.log"), p.LogPath())
	assert.Equal(t, filepath.Join("/data/profile", "settings.toml"), p.SettingsPath())
	assert.Equal(t, filepath.Join("/data/profile", "engine"), p.EnginePath())
}

func TestResolveExplicit(t *testing.T) {
	dir := t.TempDir()

	p, err := Resolve(dir, true)
	require.NoError(t, err)
	assert.Equal(t, dir, p.Dir)
}

func TestResolveXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	p, err := Resolve("", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, AppDirName), p.Dir)
}

func TestResolveRelativeXDGIgnored(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_DATA_HOME", "relative/dir")
	t.Setenv("HOME", home)

	p, err := Resolve("", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", AppDirName), p.Dir)
}

func TestResolvePortable(t *testing.T) {
	p, err := Resolve("", true)
	require.NoError(t, err)
	assert.Equal(t, PortableDirName, filepath.Base(p.Dir))
}

func TestEnsure(t *testing.T) {
	p := Profile{Dir: filepath.Join(t.TempDir(), "a", "b")}

	require.NoError(t, p.Ensure())
	info, err := os.Stat(p.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent
	require.NoError(t, p.Ensure())
}

func TestEnsureFailures(t *testing.T) {
	assert.Error(t, Profile{}.Ensure())

	// A regular file where the directory should be
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, Profile{Dir: filepath.Join(file, "profile")}.Ensure())
}
