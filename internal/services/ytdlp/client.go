package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"clipbot/internal/pipeline"
	"clipbot/internal/services"
	"clipbot/internal/services/command"
	"clipbot/internal/session"
	"clipbot/internal/timecode"
)

// DefaultFormat prefers a capped-resolution video stream; audio is useless
// for an animation.
const DefaultFormat = "bv*[height<=1080]/b[height<=1080]/bv*/b"

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r command.Runner) Option {
	return func(c *Client) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithFormat overrides the format selector.
func WithFormat(selector string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(selector); s != "" {
			c.format = s
		}
	}
}

// WithExtraArgs appends arguments such as --cookies or --proxy to every call.
func WithExtraArgs(args []string) Option {
	return func(c *Client) {
		c.extraArgs = append([]string(nil), args...)
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary    string
	format    string
	extraArgs []string
	runner    command.Runner
}

// New constructs a yt-dlp client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary: binary,
		format: DefaultFormat,
		runner: command.Exec{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type infoJSON struct {
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Width     int     `json:"width"`
	IsLive    bool    `json:"is_live"`
}

// Metadata fetches the title, duration, thumbnail, and width of url.
func (c *Client) Metadata(ctx context.Context, url string) (session.Metadata, error) {
	args := append([]string{}, c.extraArgs...)
	args = append(args, "--dump-single-json", "--no-playlist", "--skip-download", "--no-warnings", "--", url)
	out, err := c.runner.Run(ctx, c.binary, args)
	if err != nil {
		return session.Metadata{}, services.Wrap(services.ErrService, "ytdlp", "metadata", "lookup failed", err)
	}
	var info infoJSON
	if err := json.Unmarshal(bytes.TrimSpace(out.Stdout), &info); err != nil {
		return session.Metadata{}, services.Wrap(services.ErrService, "ytdlp", "metadata", "decode response", err)
	}
	if info.IsLive {
		return session.Metadata{}, services.Wrap(services.ErrService, "ytdlp", "metadata", "live streams cannot be clipped", nil)
	}
	if info.Duration <= 0 {
		return session.Metadata{}, services.Wrap(services.ErrService, "ytdlp", "metadata", "video reports no duration", nil)
	}
	return session.Metadata{
		Title:           strings.TrimSpace(info.Title),
		DurationSeconds: int(math.Floor(info.Duration)),
		ThumbnailURL:    strings.TrimSpace(info.Thumbnail),
		SourceWidth:     info.Width,
	}, nil
}

// ExtractClip downloads only the requested range into dir and returns the
// written path.
func (c *Client) ExtractClip(ctx context.Context, req pipeline.ClipRequest, dir, stem string) (string, error) {
	if req.End <= req.Start {
		return "", services.Wrap(services.ErrService, "ytdlp", "extract", "empty range", nil)
	}
	out, err := c.runner.Run(ctx, c.binary, c.extractArgs(req, dir, stem))
	if err != nil {
		return "", services.Wrap(services.ErrService, "ytdlp", "extract", "download failed", err)
	}
	path, err := resolveOutput(out.Stdout, dir, stem)
	if err != nil {
		return "", services.Wrap(services.ErrService, "ytdlp", "extract", "locate output", err)
	}
	return path, nil
}

func (c *Client) extractArgs(req pipeline.ClipRequest, dir, stem string) []string {
	args := append([]string{}, c.extraArgs...)
	args = append(args,
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"-f", c.format,
		"--download-sections", fmt.Sprintf("*%s-%s", timecode.Format(req.Start), timecode.Format(req.End)),
	)
	if req.ForceKeyframes {
		args = append(args, "--force-keyframes-at-cuts")
	}
	switch req.Format {
	case pipeline.FormatAnimation:
		args = append(args, "--recode-video", "gif")
	default:
		args = append(args, "--remux-video", string(pipeline.FormatIntermediate))
	}
	args = append(args,
		"-o", filepath.Join(dir, stem+".%(ext)s"),
		"--print", "after_move:filepath",
		"--no-simulate",
		"--", req.URL,
	)
	return args
}

// resolveOutput prefers the path yt-dlp printed and falls back to the only
// file in dir carrying the stem.
func resolveOutput(stdout []byte, dir, stem string) (string, error) {
	lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		break
	}
	matches, err := filepath.Glob(filepath.Join(dir, stem+".*"))
	if err != nil {
		return "", err
	}
	var files []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		files = append(files, m)
	}
	if len(files) != 1 {
		return "", fmt.Errorf("expected one output file for %q, found %d", stem, len(files))
	}
	return files[0], nil
}
