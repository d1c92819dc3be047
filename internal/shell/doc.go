// Package shell runs the application: it launches the embedded view with the
// resolved user agent and saved geometry, routes every engine callback
// through the event loop to the navigation, permission and reload policies,
// and persists the window placement on the way out.
//
// Run returns nil for a normal shutdown, whether the user closed the window
// or the process was interrupted. Panics are logged at critical level and
// returned as errors.
package shell
