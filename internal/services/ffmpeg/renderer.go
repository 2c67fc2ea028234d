// Package ffmpeg renders intermediate clips into palette-reduced animations.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clipbot/internal/pipeline"
	"clipbot/internal/services"
	"clipbot/internal/services/command"
)

// DefaultDither is the ordered dithering applied with the palette.
const DefaultDither = "bayer:bayer_scale=3"

// Renderer runs ffmpeg with a two-pass palette filter graph.
type Renderer struct {
	binary string
	dither string
	runner command.Runner
}

// Option configures the renderer.
type Option func(*Renderer)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r command.Runner) Option {
	return func(rd *Renderer) {
		if r != nil {
			rd.runner = r
		}
	}
}

// WithDither overrides the paletteuse dither mode.
func WithDither(mode string) Option {
	return func(rd *Renderer) {
		if m := strings.TrimSpace(mode); m != "" {
			rd.dither = m
		}
	}
}

// New constructs a renderer.
func New(binary string, opts ...Option) (*Renderer, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	r := &Renderer{binary: binary, dither: DefaultDither, runner: command.Exec{}}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// FilterGraph builds the sampling, scaling, and palette graph.
func FilterGraph(frameRate, width, paletteSize int, dither string) string {
	return fmt.Sprintf(
		"fps=%d,scale=%d:-1:flags=lanczos,split[s0][s1];[s0]palettegen=max_colors=%d:stats_mode=diff[p];[s1][p]paletteuse=dither=%s",
		frameRate, width, paletteSize, dither,
	)
}

// Render writes req.Output from req.Input.
func (r *Renderer) Render(ctx context.Context, req pipeline.RenderRequest) error {
	if req.FrameRate <= 0 || req.Width <= 0 || req.PaletteSize <= 0 {
		return services.Wrap(services.ErrProcess, "ffmpeg", "render",
			fmt.Sprintf("invalid parameters fps=%d width=%d colors=%d", req.FrameRate, req.Width, req.PaletteSize), nil)
	}
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", req.Input,
		"-vf", FilterGraph(req.FrameRate, req.Width, req.PaletteSize, r.dither),
		"-loop", "0",
		req.Output,
	}
	if _, err := r.runner.Run(ctx, r.binary, args); err != nil {
		return services.Wrap(services.ErrProcess, "ffmpeg", "render", "", err)
	}
	return nil
}
