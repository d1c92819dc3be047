// Package config provides layered configuration for the shell.
//
// Configuration is resolved in this order, later sources winning:
//  1. Default() values
//  2. settings.toml in the profile directory (optional)
//  3. Environment variables prefixed with WHATSAPP_
//  4. CLI flags (applied by cmd/shell)
//
// Configuration Sections:
//   - App: the trusted application URL and its internal domains
//   - Profile: profile directory and portable mode
//   - UserAgent: remote list URL, fetch timeout, fallback string
//   - Navigation: external-open rate limit
//   - Permissions: device permission mode (allow, deny, prompt)
//   - Reload: delay before retrying a failed load
//   - Engine: browser binary, headless mode, injected user style
//   - Logging: log level and development mode
//   - Diagnostics: optional local status/metrics listener
//
// Example settings.toml:
//
//	[permissions]
//	mode = "prompt"
//
//	[reload]
//	delay = "15s"
//
// Environment Variables:
//   - WHATSAPP_APP_URL, WHATSAPP_APP_DOMAINS
//   - WHATSAPP_PROFILE_DIR, WHATSAPP_PROFILE_PORTABLE
//   - WHATSAPP_USER_AGENT_LIST_URL, WHATSAPP_USER_AGENT_TIMEOUT, WHATSAPP_USER_AGENT_REMOTE
//   - WHATSAPP_PERMISSIONS_MODE, WHATSAPP_RELOAD_DELAY
//   - WHATSAPP_LOGGING_LEVEL, WHATSAPP_LOGGING_DEVELOPMENT
//   - WHATSAPP_DIAGNOSTICS_ADDR
package config
