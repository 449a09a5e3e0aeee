package task

import (
	"context"
	"log/slog"
)

// Runner is responsible for executing steps on a host.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a new Runner with the given logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		logger: logger,
	}
}

// Run executes steps in order and stops at the first failing one.
// The returned result holds every step that was attempted, including the
// failing one, and nothing after it.
func (r *Runner) Run(ctx context.Context, exec Executor, steps ...Step) *StepResult {
	results := NewStepResult()
	for _, s := range steps {
		r.logger.Info("Processing step", "step", s.ID)

		res := exec(ctx, s.Command)
		results.Add(s.ID, res)
		if !res.Succeeded {
			r.logger.Error("Step failed", "step", s.ID, "stderr", res.Stderr)
			return results
		}

		r.logger.Info("Step applied successfully", "step", s.ID)
	}
	return results
}
