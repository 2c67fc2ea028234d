// Package daemon coordinates the long-running clipbot process.
//
// It wires configuration, the chat poller, the bot, the history store, and
// the status API into a single lifecycle with flock-based locking to prevent
// multiple instances. A supervisor restarts polling after transport failures
// with a fixed backoff and raises an operator alert for each restart, and a
// janitor periodically expires idle sessions, removes stale staging
// workspaces, and prunes old history.
//
// Keep orchestration logic here: dialogue handling lives in the bot package
// and the clip pipeline in its own package, while the daemon focuses on
// startup, shutdown, and high level coordination.
package daemon
