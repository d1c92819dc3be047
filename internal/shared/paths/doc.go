// Package paths provides standardized profile paths.
//
// The profile directory isolates this application's session data from any
// general-purpose browser on the machine. One process at a time owns it.
//
// # Directory Structure
//
//	$XDG_DATA_HOME/python-whatsapp-gtk/   (or <exe dir>/wtp_data in portable mode)
//	  ├── app.lock            (advisory single-instance lock, empty)
//	  ├── window_state.json   (last window geometry)
//	  ├── application.log     (append-only text log)
//	  ├── settings.toml       (optional overrides)
//	  └── engine/             (engine data and cache)
//
// # Usage
//
//	profile, err := paths.Resolve(flagDir, portable)
//	if err := profile.Ensure(); err != nil {
//	    // fatal: nothing can run without a profile
//	}
//	statePath := profile.StatePath()
package paths
