package ytdlp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"clipbot/internal/pipeline"
	"clipbot/internal/services"
	"clipbot/internal/services/command"
	"clipbot/internal/services/ytdlp"
)

type stubRunner struct {
	stdout string
	err    error
	args   [][]string
	write  func(args []string)
}

func (s *stubRunner) Run(_ context.Context, _ string, args []string) (command.Output, error) {
	s.args = append(s.args, append([]string(nil), args...))
	if s.write != nil {
		s.write(args)
	}
	return command.Output{Stdout: []byte(s.stdout)}, s.err
}

func argValue(args []string, flag string) string {
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		return ""
	}
	return args[idx+1]
}

func TestMetadataDecodesInfo(t *testing.T) {
	runner := &stubRunner{stdout: `{"title":" Demo ","duration":61.7,"thumbnail":"https://i.ytimg.com/x.jpg","width":1280}`}
	client, err := ytdlp.New("yt-dlp", ytdlp.WithRunner(runner), ytdlp.WithExtraArgs([]string{"--proxy", "socks5://x"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	meta, err := client.Metadata(context.Background(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.Title != "Demo" || meta.DurationSeconds != 61 || meta.SourceWidth != 1280 {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	args := runner.args[0]
	if args[0] != "--proxy" || !slices.Contains(args, "--dump-single-json") || args[len(args)-1] != "https://youtu.be/abc" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestMetadataFailures(t *testing.T) {
	tests := []struct {
		name   string
		runner *stubRunner
	}{
		{"process", &stubRunner{err: &services.ProcessError{Tool: "yt-dlp", ExitCode: 1, Stderr: "ERROR: Video unavailable"}}},
		{"garbage", &stubRunner{stdout: "not json"}},
		{"live", &stubRunner{stdout: `{"title":"x","is_live":true}`}},
		{"no duration", &stubRunner{stdout: `{"title":"x"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := ytdlp.New("yt-dlp", ytdlp.WithRunner(tt.runner))
			if _, err := client.Metadata(context.Background(), "u"); !errors.Is(err, services.ErrService) {
				t.Fatalf("expected service error, got %v", err)
			}
		})
	}
}

func TestExtractClipIntermediate(t *testing.T) {
	dir := t.TempDir()
	runner := &stubRunner{}
	runner.write = func(args []string) {
		path := strings.Replace(argValue(args, "-o"), "%(ext)s", "mp4", 1)
		runner.stdout = path + "\n"
		_ = os.WriteFile(path, []byte("mp4"), 0o644)
	}
	client, _ := ytdlp.New("yt-dlp", ytdlp.WithRunner(runner), ytdlp.WithFormat("bv*"))
	path, err := client.ExtractClip(context.Background(), pipeline.ClipRequest{
		URL: "https://youtu.be/abc", Start: 5, End: 15, Format: pipeline.FormatIntermediate, ForceKeyframes: true,
	}, dir, "source")
	if err != nil {
		t.Fatalf("ExtractClip: %v", err)
	}
	if path != filepath.Join(dir, "source.mp4") {
		t.Fatalf("unexpected path %q", path)
	}
	args := runner.args[0]
	if got := argValue(args, "--download-sections"); got != "*00:00:05-00:00:15" {
		t.Fatalf("unexpected section %q", got)
	}
	if argValue(args, "-f") != "bv*" || argValue(args, "--remux-video") != "mp4" {
		t.Fatalf("unexpected args %v", args)
	}
	if !slices.Contains(args, "--force-keyframes-at-cuts") {
		t.Fatal("expected keyframe alignment")
	}
}

func TestExtractClipAnimationFallsBackToGlob(t *testing.T) {
	dir := t.TempDir()
	runner := &stubRunner{}
	runner.write = func([]string) {
		_ = os.WriteFile(filepath.Join(dir, "source.gif"), []byte("gif"), 0o644)
		_ = os.WriteFile(filepath.Join(dir, "source.webm.part"), []byte("x"), 0o644)
	}
	client, _ := ytdlp.New("yt-dlp", ytdlp.WithRunner(runner))
	path, err := client.ExtractClip(context.Background(), pipeline.ClipRequest{
		URL: "u", Start: 0, End: 3, Format: pipeline.FormatAnimation,
	}, dir, "source")
	if err != nil {
		t.Fatalf("ExtractClip: %v", err)
	}
	if filepath.Base(path) != "source.gif" {
		t.Fatalf("unexpected path %q", path)
	}
	if argValue(runner.args[0], "--recode-video") != "gif" {
		t.Fatalf("expected gif recode, got %v", runner.args[0])
	}
	if slices.Contains(runner.args[0], "--force-keyframes-at-cuts") {
		t.Fatal("keyframe alignment was not requested")
	}
}

func TestExtractClipMissingOutput(t *testing.T) {
	client, _ := ytdlp.New("yt-dlp", ytdlp.WithRunner(&stubRunner{}))
	_, err := client.ExtractClip(context.Background(), pipeline.ClipRequest{URL: "u", Start: 0, End: 3}, t.TempDir(), "source")
	if !errors.Is(err, services.ErrService) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ytdlp.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
