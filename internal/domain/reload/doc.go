// Package reload supervises page load failures.
//
// Each failure is logged, schedules a single reload after a fixed delay (ten
// seconds by default) and raises a modal notice. There is no failure count
// and no backoff; a reload that fails again simply comes back through the
// same path. Scheduled reloads are cancellable, and Close cancels them all
// so nothing fires against a view that has been torn down.
package reload
