// Package logging assembles structured slog loggers and formatting helpers used
// across clipbot.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handlers and pipeline stages
// tag log lines with user IDs, run IDs, stages, and correlation IDs. The
// daemon logger tees console output into a per-start JSON file that retention
// later prunes. A no-op logger serves tests and wiring code that cannot fail.
package logging
