package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputFormat marks user text that is not a time literal or duration.
	ErrInputFormat = errors.New("input format error")
	// ErrRangeConstraint marks start/end/duration values that violate ordering or the clip ceiling.
	ErrRangeConstraint = errors.New("range constraint error")
	// ErrSessionNotFound marks an action against a missing or expired session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrService marks remote metadata or fetch failures.
	ErrService = errors.New("service error")
	// ErrProcess marks a local tool (transcoder, optimizer) exiting unsuccessfully.
	ErrProcess = errors.New("process error")
	// ErrDelivery marks a failure to send the finished artifact.
	ErrDelivery = errors.New("delivery error")
	// ErrTransport marks incidental send/edit/delete failures during UI bookkeeping.
	ErrTransport = errors.New("transport error")
	// ErrConfiguration marks missing binaries or settings discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks a step that exceeded its configured deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ProcessError captures a non-zero exit from an external tool together with
// the tail of its diagnostic output.
type ProcessError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	b.WriteString(e.Tool)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(" failed")
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Is reports ProcessError as an ErrProcess marker so callers can classify it
// without unwrapping.
func (e *ProcessError) Is(target error) bool { return target == ErrProcess }

// FailureKind maps a pipeline error onto the short label stored with run
// history. Delivery failures keep their label even when a deadline caused them.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDelivery):
		return "delivery"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrService):
		return "service"
	case errors.Is(err, ErrProcess):
		return "process"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
