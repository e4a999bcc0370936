// Package config loads, normalizes, and validates meetingassist configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the MEETINGASSIST_API_BASE_URL and
// MEETINGASSIST_CLIENTS_API_BASE_URL environment fallbacks. A missing base URL
// is a validation error rather than a silent default: without it no command
// can reach the backend.
package config
