// Package session owns the per-user dialogue record and the store that keeps
// at most one live record per user.
//
// Records are handed out by value; every change goes through Store.Mutate,
// which holds that user's lock for the duration of the transition only. Long
// running work (metadata fetches, the clip pipeline) must happen outside
// Mutate so other events can still be answered.
package session
