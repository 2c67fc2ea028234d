package pipeline

import (
	"context"

	"clipbot/internal/session"
)

// Format selects what the video source writes.
type Format string

const (
	// FormatAnimation asks the source for a directly deliverable animation.
	FormatAnimation Format = "gif"
	// FormatIntermediate asks for a raw container the transcoder consumes.
	FormatIntermediate Format = "mp4"
)

// ClipRequest describes one fetch-and-cut.
type ClipRequest struct {
	URL            string
	Start          int
	End            int
	Format         Format
	ForceKeyframes bool
}

// Source is the remote video service.
type Source interface {
	Metadata(ctx context.Context, url string) (session.Metadata, error)
	// ExtractClip writes the cut into dir using stem as the file name stem and
	// returns the path it wrote.
	ExtractClip(ctx context.Context, req ClipRequest, dir, stem string) (string, error)
}

// RenderRequest parameterises one transcode.
type RenderRequest struct {
	Input       string
	Output      string
	FrameRate   int
	Width       int
	PaletteSize int
}

// Renderer turns an intermediate clip into an animation.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) error
}

// Optimizer shrinks a rendered animation.
type Optimizer interface {
	Optimize(ctx context.Context, input, output string) error
}

// Prober reports the pixel width of a local video file.
type Prober interface {
	VideoWidth(ctx context.Context, path string) (int, error)
}

// Deliverer sends the finished artifact to the user.
type Deliverer interface {
	Deliver(ctx context.Context, path string) error
}

// DeliverFunc adapts a function to Deliverer.
type DeliverFunc func(ctx context.Context, path string) error

func (f DeliverFunc) Deliver(ctx context.Context, path string) error {
	return f(ctx, path)
}
