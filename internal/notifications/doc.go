// Package notifications delivers operator alerts via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when none is set. Events cover daemon
// starts and restarts plus failed clip runs; identical alerts inside the
// configured window are sent once. Callers depend only on the Service
// interface.
package notifications
