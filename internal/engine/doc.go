// Package engine describes the embedded rendering engine the shell governs.
//
// The shell never renders anything itself. It launches a View through an
// Engine, answers the engine's navigation and permission questions through
// Handlers, and drives the window for geometry, reloads and notices.
// Package chromium provides the implementation used in production.
package engine
