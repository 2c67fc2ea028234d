// Package command runs external tools with bounded output capture so adapters
// can report the tail of stderr when a tool fails.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"clipbot/internal/services"
)

const maxStderrBytes = 8 * 1024

// Output holds what a finished command wrote.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (Output, error)
}

// Exec is the production Runner backed by os/exec.
type Exec struct{}

// Run executes binary with args. A non-zero exit is reported as a
// *services.ProcessError carrying the stderr tail; a cancelled or expired
// context surfaces as the context error so callers can classify timeouts.
func (Exec) Run(ctx context.Context, binary string, args []string) (Output, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: maxStderrBytes}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, fmt.Errorf("%s: %w", filepath.Base(binary), ctxErr)
	}
	perr := &services.ProcessError{
		Tool:   filepath.Base(binary),
		Stderr: string(out.Stderr),
		Err:    err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		perr.ExitCode = exitErr.ExitCode()
	}
	return out, perr
}

// tailBuffer keeps only the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0:0], t.buf[over:]...)
	}
	return n, nil
}

func (t *tailBuffer) Bytes() []byte {
	return append([]byte(nil), t.buf...)
}
