// Package logging provides structured logging using uber/zap.
//
// Every line of the application log has the shape
//
//	2006-01-02 15:04:05 - LEVEL - message	{"structured":"fields"}
//
// and is appended to application.log inside the profile directory.
//
// Log Levels:
//   - DEBUG: Verbose debugging information
//   - INFO: Normal operation (external links opened, state restored)
//   - WARNING: Swallowed failures (state file, user agent fetch, browser open)
//   - ERROR: Load failures of the embedded view
//   - CRITICAL: Unhandled faults at the outermost boundary
//
// The logger is built once at process start and handed to each component
// explicitly; nothing in this module logs through a global.
//
// Example Usage:
//
//	logger, err := logging.New(logging.FileConfig(path, "info", false))
//	logger.Info("External link opened in browser", zap.String("uri", uri))
//	logger.Warn("Failed to save window state", zap.Error(err))
//
// Tests use NewObserved to capture entries in memory.
package logging
