// Package permission answers camera and microphone requests from the web
// application.
//
// The default mode grants every request, which voice and video calls need.
// It is a deliberate trade-off, so the mode is configurable: "deny" refuses
// everything and "prompt" asks the user, either through a Prompter or, when
// none is given, by leaving the engine's own prompt in place (verdict Ask).
// Each decision is logged, counted and kept in a short in-memory audit trail.
package permission
