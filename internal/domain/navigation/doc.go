// Package navigation keeps the embedded view on the application's own domain.
//
// Every in-place navigation is classified. Script URIs and hosts at or below
// a configured domain (whatsapp.com by default) load normally; anything else
// is handed to the user's default browser and suppressed. Popups never get a
// view of their own: their target always goes to the system browser.
//
// Matching is on the parsed host, so "whatsapp.com.evil.example" and
// "https://whatsapp.com@evil.example/" are both external.
//
// Hand-offs are rate limited so a misbehaving page cannot flood the desktop
// with browser windows. When the system browser keeps failing, hand-offs
// pause for a cooldown and then resume after one successful trial.
package navigation
