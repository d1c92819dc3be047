// Package server provides the optional local diagnostics endpoint.
//
// It is off unless an address is configured, and is meant for loopback use:
//
//	GET  /healthz  liveness
//	GET  /status   run ID, user agent and its source, profile, recent permission decisions
//	POST /reload   reload the page now
//	GET  /metrics  Prometheus exposition
package server
