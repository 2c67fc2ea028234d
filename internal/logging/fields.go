package logging

import (
	"context"
	"log/slog"
	"time"

	"clipbot/internal/services"
)

// Standard record keys. Handlers and the console renderer treat these
// specially, so callers should prefer them over ad-hoc names.
const (
	FieldComponent     = "component"
	FieldUserID        = "user_id"
	FieldRunID         = "run_id"
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

// Error records err under "error". A nil error yields an empty attr, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// NewComponentLogger tags every record from the returned logger with name.
func NewComponentLogger(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		base = NewNop()
	}
	return base.With(slog.String(FieldComponent, name))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// WithContext copies the user, run, stage and request identifiers carried by
// ctx onto logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.UserIDFromContext(ctx); ok {
		args = append(args, slog.Int64(FieldUserID, id))
	}
	if run, ok := services.RunIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRunID, run))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldCorrelationID, rid))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}

// WarnWithContext logs a warning tagged with eventType. A generic hint and
// impact are filled in when the caller supplies none.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	logWithEvent(logger, slog.LevelWarn, msg, eventType, attrs)
}

// ErrorWithContext is WarnWithContext at error level.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	logWithEvent(logger, slog.LevelError, msg, eventType, attrs)
}

func logWithEvent(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []slog.Attr) {
	if logger == nil {
		return
	}
	var hasHint, hasImpact bool
	for _, attr := range attrs {
		switch attr.Key {
		case FieldErrorHint:
			hasHint = true
		case FieldImpact:
			hasImpact = true
		}
	}
	all := make([]slog.Attr, 0, len(attrs)+3)
	all = append(all, slog.String(FieldEventType, eventType))
	all = append(all, attrs...)
	if !hasHint {
		all = append(all, slog.String(FieldErrorHint, "see the debug log for details"))
	}
	if !hasImpact {
		impact := "operation degraded"
		if level >= slog.LevelError {
			impact = "operation failed"
		}
		all = append(all, slog.String(FieldImpact, impact))
	}
	logger.LogAttrs(context.Background(), level, msg, all...)
}
