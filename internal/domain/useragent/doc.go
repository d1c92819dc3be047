// Package useragent resolves the identification string handed to the
// embedded engine.
//
// The web application refuses browsers it considers outdated, so the string
// should follow real browser releases. At startup the resolver downloads a
// JSON array of current user agents and takes the first one. The lookup has
// a hard deadline (3 seconds by default) and no retries; on any failure the
// compiled-in fallback is used and a warning is logged, so an offline start
// still works.
package useragent
