// Package testsupport holds fixtures shared by package tests: isolated
// configs, stub tool binaries, scratch files, and history stores.
package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipbot/internal/config"
)

// ConfigOption adjusts a config built by NewConfig. base is the temp
// directory that holds every path in the config.
type ConfigOption func(t testing.TB, cfg *config.Config, base string)

// NewConfig returns defaults rooted in a fresh temp directory, with a dummy
// bot token and the status API bound to an ephemeral loopback port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Telegram.Token = "123456:test"
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(t, &cfg, base)
	}
	return &cfg
}

// BaseDir returns the temp directory behind a NewConfig result.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}

// WithSubscriptionChannel turns on the membership gate.
func WithSubscriptionChannel(channel string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config, _ string) {
		cfg.Telegram.SubscriptionChannel = channel
	}
}

// WithStubbedBinaries puts no-op executables for names, or for every tool
// clipbot shells out to when names is empty, at the front of PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, _ *config.Config, base string) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "ffprobe", "gifsicle"}
		}
		bin := filepath.Join(base, "bin")
		for _, name := range names {
			writeBytes(t, filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755)
		}
		t.Setenv("PATH", strings.Join([]string{bin, os.Getenv("PATH")}, string(os.PathListSeparator)))
	}
}

// WriteFile creates path, and any missing parents, holding size filler
// bytes. Sizes below one write a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	writeBytes(t, path, bytes.Repeat([]byte{'x'}, int(max(size, 1))), 0o644)
}

func writeBytes(t testing.TB, path string, data []byte, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
