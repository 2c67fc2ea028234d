package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func TestOpenPathUsesWAL(t *testing.T) {
	store, err := OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var mode string
	if err := store.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected wal journal, got %q", mode)
	}
}

func TestWithBusyRetry(t *testing.T) {
	locked := fmt.Errorf("insert clip run: %w", errors.New("database is locked (5) (SQLITE_BUSY)"))

	calls := 0
	err := withBusyRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return locked
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %v after %d", err, calls)
	}

	calls = 0
	boom := errors.New("constraint failed")
	if err := withBusyRetry(context.Background(), func() error { calls++; return boom }); !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected single attempt for non-busy error, got %v after %d", err, calls)
	}

	calls = 0
	if err := withBusyRetry(context.Background(), func() error { calls++; return locked }); !isBusy(err) || calls != len(busyBackoff)+1 {
		t.Fatalf("expected busy error after %d attempts, got %v after %d", len(busyBackoff)+1, err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := withBusyRetry(ctx, func() error { return locked }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
