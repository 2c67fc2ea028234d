// Package config loads, normalizes, and validates clipbot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file when present, and applies
// environment overrides such as CLIPBOT_TELEGRAM_TOKEN. The Config type
// centralizes every knob the daemon and CLI need so the bot token, tool
// paths, clip limits, and timeouts are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
