package bot

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"

	"clipbot/internal/history"
	"clipbot/internal/logging"
	"clipbot/internal/messages"
	"clipbot/internal/notifications"
	"clipbot/internal/pipeline"
	"clipbot/internal/services"
	"clipbot/internal/session"
	"clipbot/internal/timecode"
)

// launch starts the pipeline for a committed session on its own goroutine.
// The session is destroyed when the run ends, whatever the outcome.
func (b *Bot) launch(ctx context.Context, sess session.Session, printer messages.Printer) {
	runID := uuid.NewString()
	ctx = services.WithRunID(services.WithUserID(ctx, sess.UserID), runID)
	b.background.Add(1)
	go func() {
		defer b.background.Done()
		defer b.sessions.Delete(sess.UserID)
		defer func() {
			if rec := recover(); rec != nil {
				logging.ErrorWithContext(b.userLogger(ctx), "clip run panicked", "clip_run_panic",
					logging.String("panic", fmt.Sprint(rec)),
					logging.String("stack", string(debug.Stack())),
				)
			}
		}()
		b.runClip(ctx, runID, sess, printer)
	}()
}

func (b *Bot) runClip(ctx context.Context, runID string, sess session.Session, printer messages.Printer) {
	logger := b.userLogger(ctx)
	started := b.now()

	status, _ := b.send(ctx, sess.ChatID, printer.Text(messages.CreatingGIF,
		"start_time", timecode.Format(sess.Start),
		"end_time", timecode.Format(sess.End),
	), nil)

	b.recordBegin(ctx, history.Run{
		ID:           runID,
		UserID:       sess.UserID,
		SourceURL:    sess.URL,
		Title:        sess.Title,
		StartSeconds: sess.Start,
		EndSeconds:   sess.End,
		FrameRate:    sess.Settings.FrameRate,
		Width:        sess.Settings.EffectiveWidth(sess.SourceWidth),
		PaletteSize:  sess.Settings.PaletteSize,
		CreatedAt:    started,
	})

	caption := printer.Text(messages.GIFReady, "title", sess.Title)
	deliver := pipeline.DeliverFunc(func(stepCtx context.Context, path string) error {
		_, err := b.transport.SendAnimation(stepCtx, sess.ChatID, path, caption)
		return err
	})
	outcome, err := b.runner.Run(ctx, pipeline.Job{
		RunID:       runID,
		URL:         sess.URL,
		Start:       sess.Start,
		End:         sess.End,
		Settings:    sess.Settings,
		SourceWidth: sess.SourceWidth,
	}, deliver)

	// The run context may already be done; the status message still goes.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	b.retire(cleanupCtx, status, "status")

	done := history.Completion{
		Status:    history.StatusSucceeded,
		SizeBytes: outcome.SizeBytes,
		Elapsed:   outcome.Elapsed,
	}
	if done.Elapsed <= 0 {
		done.Elapsed = b.now().Sub(started)
	}
	if err != nil {
		done.Status = history.StatusFailed
		done.FailureKind = services.FailureKind(err)
		done.FailedStage = outcome.Stage
		done.ErrorMessage = err.Error()

		logging.ErrorWithContext(logger, "clip run failed", "clip_run_failed",
			logging.Error(err),
			logging.String(logging.FieldStage, outcome.Stage),
			logging.String("failure_kind", done.FailureKind),
			logging.String(logging.FieldErrorHint, failureHint(done.FailureKind)),
		)
		b.notify(cleanupCtx, sess.ChatID, printer.Text(messages.ErrorCreatingGIF))
		if pubErr := b.notifier.Publish(cleanupCtx, notifications.EventClipFailed, notifications.Payload{
			"stage": outcome.Stage,
			"kind":  done.FailureKind,
			"error": err,
			"url":   sess.URL,
		}); pubErr != nil {
			logging.WarnWithContext(logger, "clip failure notification failed", "notification_failed",
				logging.Error(pubErr),
				logging.String(logging.FieldImpact, "operator not alerted"),
			)
		}
	} else {
		logger.Info("clip delivered",
			logging.String(logging.FieldEventType, "clip_delivered"),
			logging.Int64("output_bytes", outcome.SizeBytes),
			logging.Duration("elapsed", done.Elapsed),
		)
	}
	b.recordFinish(cleanupCtx, runID, done)
}

func failureHint(kind string) string {
	switch kind {
	case "timeout":
		return "raise the matching timeouts entry or pick a shorter range"
	case "service":
		return "check yt-dlp output for the source link"
	case "process":
		return "inspect the tool stderr in the error"
	case "delivery":
		return "telegram rejected the upload; check the file size"
	default:
		return "check logs for details"
	}
}

func (b *Bot) recordBegin(ctx context.Context, run history.Run) {
	if b.history == nil {
		return
	}
	if err := b.history.Begin(ctx, run); err != nil {
		logging.WarnWithContext(b.userLogger(ctx), "could not record clip run", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
	}
}

func (b *Bot) recordFinish(ctx context.Context, id string, done history.Completion) {
	if b.history == nil {
		return
	}
	if err := b.history.Finish(ctx, id, done); err != nil {
		logging.WarnWithContext(b.userLogger(ctx), "could not finish clip run record", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run stays marked running until next start"),
		)
	}
}
