// Package api defines the wire-format types, converters, and chi router for
// the local HTTP status API. It translates internal history and dependency
// models into transport-friendly DTOs so scripts and dashboards can poll the
// daemon without coupling to internal types.
//
// # Key Types
//
// DaemonStatus: running state, bot identity, session counters, history
// summary, and dependency availability.
//
// ClipRun/HistoryResponse: recorded pipeline runs, newest first.
//
// # Routes
//
// GET /health is always open. GET /status, /history, and /history/{userID}
// require "Authorization: Bearer <token>" when paths.api_token is set.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds in
// UTC. Range bounds are rendered as HH:MM:SS to match what users see in chat.
package api
