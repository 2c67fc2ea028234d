// Package gifsicle applies a fixed lossy optimisation pass to rendered animations.
package gifsicle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clipbot/internal/services"
	"clipbot/internal/services/command"
)

// DefaultLossy is the --lossy level used when none is configured.
const DefaultLossy = 80

// Optimizer wraps gifsicle.
type Optimizer struct {
	binary string
	lossy  int
	runner command.Runner
}

// Option configures the optimizer.
type Option func(*Optimizer)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r command.Runner) Option {
	return func(o *Optimizer) {
		if r != nil {
			o.runner = r
		}
	}
}

// New constructs an optimizer. A non-positive lossy level selects DefaultLossy.
func New(binary string, lossy int, opts ...Option) (*Optimizer, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("gifsicle binary required")
	}
	if lossy <= 0 {
		lossy = DefaultLossy
	}
	o := &Optimizer{binary: binary, lossy: lossy, runner: command.Exec{}}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Optimize writes an optimised copy of input to output.
func (o *Optimizer) Optimize(ctx context.Context, input, output string) error {
	args := []string{"-O3", fmt.Sprintf("--lossy=%d", o.lossy), "--no-warnings", "-o", output, input}
	if _, err := o.runner.Run(ctx, o.binary, args); err != nil {
		return services.Wrap(services.ErrProcess, "gifsicle", "optimize", "", err)
	}
	return nil
}
