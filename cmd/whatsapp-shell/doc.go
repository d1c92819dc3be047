// Command whatsapp-shell runs WhatsApp Web in a dedicated Chromium window
// with its own profile, external link routing, media permissions and
// automatic reload after connection failures.
//
// Usage:
//
//	whatsapp-shell [--profile-dir DIR] [--portable] [--log-level LEVEL] [--diagnostics-addr ADDR]
//	whatsapp-shell useragent
//	whatsapp-shell state
//
// Exit status is 0 after a normal shutdown, including when another instance
// already holds the profile, and 1 after a fatal error.
package main
