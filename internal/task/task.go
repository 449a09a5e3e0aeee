package task

import (
	"context"

	"github.com/tpodg/nfsprov/internal/remote"
)

// Step is a single remote command. ID keys its result in a StepResult.
type Step struct {
	ID      string
	Command string
}

// Executor runs one command on the target host.
type Executor func(ctx context.Context, command string) remote.CommandResult

// CommandSteps returns steps keyed by their own command text.
func CommandSteps(commands ...string) []Step {
	steps := make([]Step, 0, len(commands))
	for _, command := range commands {
		steps = append(steps, Step{ID: command, Command: command})
	}
	return steps
}
