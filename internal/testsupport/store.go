package testsupport

import (
	"context"
	"testing"

	"clipbot/internal/config"
	"clipbot/internal/history"
)

// MustOpenHistory opens a history.Store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginRun records a running clip run for tests.
func BeginRun(t testing.TB, store *history.Store, id string, userID int64) history.Run {
	t.Helper()

	run := history.Run{
		ID:           id,
		UserID:       userID,
		SourceURL:    "https://youtu.be/dQw4w9WgXcQ",
		StartSeconds: 5,
		EndSeconds:   15,
		FrameRate:    15,
		Width:        480,
		PaletteSize:  128,
	}
	if err := store.Begin(context.Background(), run); err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	return run
}
