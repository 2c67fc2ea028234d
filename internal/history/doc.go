// Package history records every clip pipeline run in SQLite.
//
// A run is inserted when a selection is committed and updated once the
// pipeline finishes, so the status API and the history command can show what
// each user clipped, how long it took, and why failures happened. Runs left
// in the running state by a crash are marked interrupted on the next start.
//
// The schema version lives in SQLite's user_version. Changes bump it in
// schema.go; operators delete the database to adopt a new schema.
package history
