// Package windowstate persists the main window geometry across runs.
//
// The record lives in window_state.json inside the profile directory:
//
//	{"width": 1000, "height": 700, "x": 0, "y": 0, "is_maximized": false}
//
// Reading is tolerant. Missing keys take their defaults one by one, and a
// missing, empty or unparsable file simply means "no saved state". Writing
// goes through a temporary file and a rename, and a failed write is logged
// rather than returned.
package windowstate
