package gifsicle

import (
	"context"
	"errors"
	"slices"
	"testing"

	"clipbot/internal/services"
	"clipbot/internal/services/command"
)

type stubRunner struct {
	args []string
	err  error
}

func (s *stubRunner) Run(_ context.Context, _ string, args []string) (command.Output, error) {
	s.args = append([]string(nil), args...)
	return command.Output{}, s.err
}

func TestOptimizeArguments(t *testing.T) {
	runner := &stubRunner{}
	o, err := New("gifsicle", 0, WithRunner(runner))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := o.Optimize(context.Background(), "in.gif", "out.gif"); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	want := []string{"-O3", "--lossy=80", "--no-warnings", "-o", "out.gif", "in.gif"}
	if !slices.Equal(runner.args, want) {
		t.Fatalf("args = %v, want %v", runner.args, want)
	}
}

func TestOptimizeFailure(t *testing.T) {
	o, _ := New("gifsicle", 30, WithRunner(&stubRunner{err: &services.ProcessError{Tool: "gifsicle", ExitCode: 1}}))
	if err := o.Optimize(context.Background(), "a", "b"); !errors.Is(err, services.ErrProcess) {
		t.Fatalf("expected process error, got %v", err)
	}
}
