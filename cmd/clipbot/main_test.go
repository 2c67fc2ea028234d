package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"clipbot/internal/api"
	"clipbot/internal/config"
	"clipbot/internal/history"
	"clipbot/internal/testsupport"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

// writeConfig persists cfg as TOML and returns the file path.
func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{"CLIPBOT_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN", "CLIPBOT_NTFY_TOPIC", "CLIPBOT_API_TOKEN"} {
		t.Setenv(name, "")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	isolateEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, err = runCLI(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+target)
	requireContains(t, out, "Configuration valid")
}

func TestCheckReportsDependencies(t *testing.T) {
	isolateEnv(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	path := writeConfig(t, cfg)

	out, err := runCLI(t, "--config", path, "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Bot token:")
	requireContains(t, out, "[OK] configured")
	requireContains(t, out, "yt-dlp")
	requireContains(t, out, "gifsicle")
	if strings.Contains(out, "\x1b[") {
		t.Fatal("expected no colour codes when writing to a buffer")
	}
}

func TestCheckFailsOnMissingRequiredTool(t *testing.T) {
	isolateEnv(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Tools.FFmpeg = "clipbot-test-missing-ffmpeg"
	path := writeConfig(t, cfg)

	out, err := runCLI(t, "--config", path, "check")
	if err == nil {
		t.Fatalf("expected check to fail, output:\n%s", out)
	}
	requireContains(t, err.Error(), "FFmpeg")
	requireContains(t, out, "missing")
}

func TestHistoryCommand(t *testing.T) {
	isolateEnv(t)
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	testsupport.BeginRun(t, store, "4f2c9a1e-run", 42)
	if err := store.Finish(context.Background(), "4f2c9a1e-run", history.Completion{
		Status:    history.StatusSucceeded,
		SizeBytes: 3 << 20,
		Elapsed:   2500 * time.Millisecond,
	}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	store.Close()
	path := writeConfig(t, cfg)

	out, err := runCLI(t, "--config", path, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "4f2c9a1e")
	requireContains(t, out, "00:00:05-00:00:15")
	requireContains(t, out, "3.0 MiB")
	requireContains(t, out, "succeeded")

	out, err = runCLI(t, "--config", path, "history", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var resp api.HistoryResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(resp.Runs) != 1 || resp.Runs[0].UserID != 42 || resp.Runs[0].LengthSeconds != 10 {
		t.Fatalf("unexpected runs: %+v", resp.Runs)
	}

	out, err = runCLI(t, "--config", path, "history", "--user", "7")
	if err != nil {
		t.Fatalf("history --user: %v", err)
	}
	requireContains(t, out, "No clip runs recorded")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	isolateEnv(t)
	cfg := testsupport.NewConfig(t)
	path := writeConfig(t, cfg)

	out, err := runCLI(t, "--config", path, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := humanBytes(tt.in); got != tt.want {
			t.Fatalf("humanBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
