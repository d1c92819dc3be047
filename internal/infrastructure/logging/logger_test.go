package logging

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFileLoggerLineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.log")

	logger, err := New(FileConfig(path, "info", false))
	require.NoError(t, err)

	logger.Info("Window state restored")
	logger.Warn("Failed to fetch user agent", zap.Error(errors.New("timeout")))
	logger.Debug("not written at info level")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - INFO - Window state restored$`), lines[0])
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - WARNING - Failed to fetch user agent - \{"error": "timeout"\}$`), lines[1])
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "application.log")
	require.NoError(t, os.WriteFile(path, []byte("previous line\n"), 0o644))

	logger, err := New(FileConfig(path, "info", false))
	require.NoError(t, err)
	logger.Info("next run")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "previous line\n"))
	assert.Contains(t, string(data), "INFO - next run")
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	assert.Error(t, err)
}

func TestCriticalDoesNotPanic(t *testing.T) {
	logger, logs := NewObserved(zapcore.DebugLevel)

	assert.NotPanics(t, func() {
		logger.Critical("Application crashed unexpectedly", zap.String("cause", "test"))
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DPanicLevel, entries[0].Level)
	assert.Equal(t, "CRITICAL", LevelName(entries[0].Level))
	assert.Contains(t, entries[0].ContextMap(), "stacktrace")
}

func TestLevelNames(t *testing.T) {
	tests := []struct {
		level    zapcore.Level
		expected string
	}{
		{zapcore.DebugLevel, "DEBUG"},
		{zapcore.InfoLevel, "INFO"},
		{zapcore.WarnLevel, "WARNING"},
		{zapcore.ErrorLevel, "ERROR"},
		{zapcore.DPanicLevel, "CRITICAL"},
		{zapcore.FatalLevel, "CRITICAL"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevelName(tt.level))
		})
	}
}

func TestWithKeepsFields(t *testing.T) {
	logger, logs := NewObserved(zapcore.InfoLevel)

	logger.With(zap.String("component", "navigation")).Info("decided")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "navigation", logs.All()[0].ContextMap()["component"])
}
