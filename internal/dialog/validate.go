package dialog

import (
	"clipbot/internal/services"
	"clipbot/internal/session"
)

// Reason names the range rule a value broke.
type Reason string

const (
	ReasonStartBeyondSource    Reason = "start_beyond_source"
	ReasonEndBeyondSource      Reason = "end_beyond_source"
	ReasonEndNotAfterStart     Reason = "end_not_after_start"
	ReasonTooLong              Reason = "too_long"
	ReasonDurationBeyondSource Reason = "duration_beyond_source"
	ReasonOutsideSource        Reason = "outside_source"
)

// ConstraintError rejects a start, end, or duration value.
type ConstraintError struct {
	Reason Reason
}

func (e *ConstraintError) Error() string {
	return "range constraint: " + string(e.Reason)
}

// Is matches services.ErrRangeConstraint.
func (e *ConstraintError) Is(target error) bool {
	return target == services.ErrRangeConstraint
}

// Validate is the commit gate: the range must sit inside the source, end
// must follow start and the clip must fit under the configured ceiling.
func (m Machine) Validate(s session.Session) error {
	if s.Start < 0 || s.End > s.SourceDuration {
		return &ConstraintError{Reason: ReasonOutsideSource}
	}
	if s.End <= s.Start {
		return &ConstraintError{Reason: ReasonEndNotAfterStart}
	}
	if m.Limits.MaxClipSeconds > 0 && s.ClipLength() > m.Limits.MaxClipSeconds {
		return &ConstraintError{Reason: ReasonTooLong}
	}
	return nil
}
