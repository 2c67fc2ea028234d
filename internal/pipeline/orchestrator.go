package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"clipbot/internal/logging"
	"clipbot/internal/services"
	"clipbot/internal/session"
	"clipbot/internal/staging"
)

// Stage names used in errors, logs, and run history.
const (
	StageWorkspace = "workspace"
	StageFetch     = "fetch"
	StageTranscode = "transcode"
	StageOptimize  = "optimize"
	StageDeliver   = "deliver"
)

// Timeouts bound each external call and the run as a whole. Zero disables a bound.
type Timeouts struct {
	Fetch     time.Duration
	Transcode time.Duration
	Optimize  time.Duration
	Deliver   time.Duration
	Total     time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	StagingDir string
	// LocalTranscode renders through Renderer; otherwise the source produces
	// the animation directly.
	LocalTranscode bool
	Timeouts       Timeouts
}

// Job is one validated clip request.
type Job struct {
	RunID       string
	URL         string
	Start       int
	End         int
	Settings    session.EncodeSettings
	SourceWidth int
}

// Outcome summarises a finished run.
type Outcome struct {
	RunID     string
	Stage     string
	Width     int
	SizeBytes int64
	Elapsed   time.Duration
}

// Orchestrator sequences fetch, transcode, optimize, and delivery.
type Orchestrator struct {
	opts      Options
	source    Source
	renderer  Renderer
	optimizer Optimizer
	prober    Prober
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs an orchestrator. renderer is required only with
// LocalTranscode; optimizer and prober may be nil.
func New(opts Options, source Source, renderer Renderer, optimizer Optimizer, prober Prober, logger *slog.Logger) (*Orchestrator, error) {
	if source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	if opts.LocalTranscode && renderer == nil {
		return nil, errors.New("pipeline: local transcoding needs a renderer")
	}
	return &Orchestrator{
		opts:      opts,
		source:    source,
		renderer:  renderer,
		optimizer: optimizer,
		prober:    prober,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
	}, nil
}

// Run executes job and hands the final artifact to deliver. Every temporary
// file lives in a workspace that is removed before Run returns, whatever
// the outcome.
func (o *Orchestrator) Run(ctx context.Context, job Job, deliver Deliverer) (outcome Outcome, err error) {
	started := o.now()
	outcome = Outcome{RunID: job.RunID, Stage: StageWorkspace}
	ctx = services.WithRunID(ctx, job.RunID)
	if o.opts.Timeouts.Total > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeouts.Total)
		defer cancel()
	}
	logger := logging.WithContext(ctx, o.logger)

	ws, err := staging.Acquire(o.opts.StagingDir, job.RunID)
	if err != nil {
		return outcome, services.Wrap(services.ErrConfiguration, StageWorkspace, "acquire", "could not create workspace", err)
	}
	defer func() {
		_ = ws.Release(logger)
		outcome.Elapsed = o.now().Sub(started)
	}()

	logger.Info("clip run started",
		logging.String(logging.FieldEventType, "clip_run_started"),
		logging.String("url", job.URL),
		logging.Int("start", job.Start),
		logging.Int("end", job.End),
		logging.Bool("local_transcode", o.opts.LocalTranscode),
	)

	outcome.Stage = StageFetch
	format := FormatAnimation
	if o.opts.LocalTranscode {
		format = FormatIntermediate
	}
	var source string
	err = o.step(ctx, StageFetch, o.opts.Timeouts.Fetch, func(stepCtx context.Context) error {
		var ferr error
		source, ferr = o.source.ExtractClip(stepCtx, ClipRequest{
			URL:            job.URL,
			Start:          job.Start,
			End:            job.End,
			Format:         format,
			ForceKeyframes: true,
		}, ws.Dir(), "source")
		return ferr
	})
	if err != nil {
		return outcome, o.classify(StageFetch, services.ErrService, err)
	}

	rendered := source
	if o.opts.LocalTranscode {
		outcome.Stage = StageTranscode
		width := o.renderWidth(ctx, job, source)
		outcome.Width = width
		rendered = ws.Path("render.gif")
		err = o.step(ctx, StageTranscode, o.opts.Timeouts.Transcode, func(stepCtx context.Context) error {
			return o.renderer.Render(stepCtx, RenderRequest{
				Input:       source,
				Output:      rendered,
				FrameRate:   job.Settings.FrameRate,
				Width:       width,
				PaletteSize: job.Settings.PaletteSize,
			})
		})
		if err != nil {
			return outcome, o.classify(StageTranscode, services.ErrProcess, err)
		}
	}

	final := rendered
	if o.optimizer != nil {
		outcome.Stage = StageOptimize
		final = ws.Path("final.gif")
		err = o.step(ctx, StageOptimize, o.opts.Timeouts.Optimize, func(stepCtx context.Context) error {
			return o.optimizer.Optimize(stepCtx, rendered, final)
		})
		if err != nil {
			return outcome, o.classify(StageOptimize, services.ErrProcess, err)
		}
	}

	if info, statErr := os.Stat(final); statErr == nil {
		outcome.SizeBytes = info.Size()
	}

	outcome.Stage = StageDeliver
	err = o.step(ctx, StageDeliver, o.opts.Timeouts.Deliver, func(stepCtx context.Context) error {
		return deliver.Deliver(stepCtx, final)
	})
	if err != nil {
		return outcome, o.classify(StageDeliver, services.ErrDelivery, err)
	}

	logger.Info("clip run delivered",
		logging.String(logging.FieldEventType, "clip_run_delivered"),
		logging.Int64("size_bytes", outcome.SizeBytes),
		logging.Duration("elapsed", o.now().Sub(started)),
	)
	return outcome, nil
}

func (o *Orchestrator) step(ctx context.Context, stage string, timeout time.Duration, fn func(context.Context) error) error {
	stepCtx := services.WithStage(ctx, stage)
	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, timeout)
		defer cancel()
	}
	started := o.now()
	err := fn(stepCtx)
	logging.WithContext(stepCtx, o.logger).Debug("pipeline step finished",
		logging.Duration("elapsed", o.now().Sub(started)),
		logging.Bool("ok", err == nil),
	)
	return err
}

func (o *Orchestrator) classify(stage string, marker, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		// Keep the stage marker so a late delivery still counts as one.
		return services.Wrap(marker, stage, "", "step exceeded its deadline", fmt.Errorf("%w: %w", services.ErrTimeout, err))
	}
	if errors.Is(err, marker) {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return services.Wrap(marker, stage, "", "", err)
}

// renderWidth clamps the selected width to the source width, probing the
// downloaded clip when the metadata did not report one.
func (o *Orchestrator) renderWidth(ctx context.Context, job Job, source string) int {
	sourceWidth := job.SourceWidth
	if sourceWidth <= 0 && o.prober != nil {
		width, err := o.prober.VideoWidth(ctx, source)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, o.logger), "could not probe clip width", "probe_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "ensure ffprobe is installed"),
				logging.String(logging.FieldImpact, "rendering at the selected width without clamping"),
			)
		} else {
			sourceWidth = width
		}
	}
	return job.Settings.EffectiveWidth(sourceWidth)
}
