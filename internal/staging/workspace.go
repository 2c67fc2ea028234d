package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clipbot/internal/logging"
)

// DirPrefix marks directories created by Acquire so sweeps never touch
// anything else under the staging root.
const DirPrefix = "clip-"

// Workspace is a private directory holding the temporary artifacts of one
// pipeline run.
type Workspace struct {
	dir      string
	released bool
}

// Acquire creates a fresh workspace under root for runID.
func Acquire(root, runID string) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure staging root: %w", err)
	}
	pattern := DirPrefix + sanitize(runID) + "-*"
	dir, err := os.MkdirTemp(root, pattern)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Release removes the workspace and everything in it. It is safe to call
// more than once; failures are logged and returned.
func (w *Workspace) Release(logger *slog.Logger) error {
	if w == nil || w.released {
		return nil
	}
	w.released = true
	if err := os.RemoveAll(w.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "failed to remove workspace", "workspace_cleanup_failed",
			logging.String("path", w.dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed until the next sweep"),
		)
		return err
	}
	return nil
}

func sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, value)
}
