package server

import (
	"context"
	"fmt"
)

// Server represents a remote host that commands can be run on.
type Server interface {
	// ID returns a unique identifier for the server.
	ID() string
	// Address returns the connection address (IP or hostname, optionally with a port).
	Address() string
	// Execute runs a command on the server. The returned Output is populated
	// with whatever was captured, even when err is non-nil.
	Execute(ctx context.Context, command string) (Output, error)
}

// Output holds the captured streams of one remote command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandError reports a remote command that did not exit cleanly.
// ExitCode is -1 when the command never produced an exit status.
type CommandError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
