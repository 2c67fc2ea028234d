package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipbot/internal/config"
)

// LogFilePrefix names the per-start daemon log files in the log directory.
const LogFilePrefix = "clipbot-"

// Options selects the format, level and destination of a logger. Path wins
// over Writer; with neither set the logger writes to stdout.
type Options struct {
	Level  string
	Format string
	Path   string
	Writer io.Writer
}

// New builds a logger from opts. Unknown levels fall back to info; unknown
// formats are an error.
func New(opts Options) (*slog.Logger, error) {
	handler, err := newHandler(opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewDaemonLogger logs to stdout in the configured format and tees every
// record, debug included, into a fresh JSON file under the log directory.
// The returned path lets retention skip the active file.
func NewDaemonLogger(cfg *config.Config, started time.Time) (*slog.Logger, string, error) {
	console, err := newHandler(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, "", err
	}
	dir := strings.TrimSpace(cfg.Paths.LogDir)
	if dir == "" {
		return slog.New(console), "", nil
	}
	path := filepath.Join(dir, LogFilePrefix+started.Format("20060102-150405")+".log")
	file, err := newHandler(Options{Level: "debug", Format: "json", Path: path})
	if err != nil {
		return nil, "", err
	}
	return slog.New(TeeHandler(console, file)), path, nil
}

func newHandler(opts Options) (slog.Handler, error) {
	level := parseLevel(opts.Level)

	var w io.Writer = os.Stdout
	switch {
	case strings.TrimSpace(opts.Path) != "":
		f, err := openLogFile(opts.Path)
		if err != nil {
			return nil, err
		}
		w = f
	case opts.Writer != nil:
		w = opts.Writer
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return newConsoleHandler(w, level), nil
	case "json":
		return newJSONHandler(w, level, level <= slog.LevelDebug), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}
