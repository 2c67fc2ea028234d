package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"clipbot/internal/services"
	"clipbot/internal/services/command"
)

// Clip is what the pipeline needs to know about a downloaded section.
type Clip struct {
	Width           int
	Height          int
	FrameRate       float64
	DurationSeconds float64
}

// Prober runs ffprobe.
type Prober struct {
	binary string
	runner command.Runner
}

// New constructs a prober. An empty binary selects "ffprobe" from PATH; a nil
// runner selects command.Exec.
func New(binary string, runner command.Runner) *Prober {
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	if runner == nil {
		runner = command.Exec{}
	}
	return &Prober{binary: binary, runner: runner}
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the first video stream of path.
func (p *Prober) Probe(ctx context.Context, path string) (Clip, error) {
	if strings.TrimSpace(path) == "" {
		return Clip{}, errors.New("ffprobe: empty path")
	}
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate:format=duration",
		"-of", "json",
		"--", path,
	}
	out, err := p.runner.Run(ctx, p.binary, args)
	if err != nil {
		return Clip{}, services.Wrap(services.ErrProcess, "ffprobe", "probe", "", err)
	}
	var parsed probeOutput
	if err := json.Unmarshal(out.Stdout, &parsed); err != nil {
		return Clip{}, fmt.Errorf("ffprobe: decode output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return Clip{}, fmt.Errorf("ffprobe: no video stream in %s", path)
	}
	stream := parsed.Streams[0]
	duration, _ := strconv.ParseFloat(strings.TrimSpace(parsed.Format.Duration), 64)
	return Clip{
		Width:           stream.Width,
		Height:          stream.Height,
		FrameRate:       parseRate(stream.AvgFrameRate),
		DurationSeconds: duration,
	}, nil
}

// VideoWidth returns the pixel width of the first video stream in path.
func (p *Prober) VideoWidth(ctx context.Context, path string) (int, error) {
	clip, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if clip.Width <= 0 {
		return 0, fmt.Errorf("ffprobe: video stream in %s reports no width", path)
	}
	return clip.Width, nil
}

// parseRate turns ffprobe's "30000/1001" notation into frames per second.
// Malformed or zero-denominator rates yield 0.
func parseRate(raw string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(raw), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
