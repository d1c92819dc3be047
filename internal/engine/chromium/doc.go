// Package chromium implements the engine on Chromium, driven over the
// DevTools protocol with go-rod.
//
// Chromium runs in app mode (a bare window, no tabs or address bar) with its
// own user-data directory inside the shell profile. Policy hooks map onto
// the protocol as follows:
//
//   - navigation: main frame document requests are intercepted with the
//     Fetch domain and either continued or aborted, which leaves the
//     current page on screen
//   - popups: Page.windowOpen is reported and the new target is closed
//   - permissions: camera and microphone are pre-decided for the
//     application origin with Browser.setPermission
//   - load failures: failed main frame document requests that were neither
//     cancelled nor blocked
//
// Window geometry is read through Browser.getWindowForTarget and cached, so
// the last known placement is still available after the window closes.
package chromium
