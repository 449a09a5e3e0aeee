package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/tpodg/nfsprov/internal/config"
	"github.com/tpodg/nfsprov/internal/server"
)

// CommandResult is the outcome of one remote command.
type CommandResult struct {
	Succeeded bool
	Stdout    string
	Stderr    string
}

// Connector opens the remote executor for an execution context.
type Connector func(ec ExecutionContext) server.Server

type Options struct {
	Logger         *slog.Logger
	KnownHostsPath string
	UseAgent       *bool
	// Stdin is attached to remote commands whose context allows prompts.
	Stdin *server.StdinRelay
	// Connect replaces the SSH connector, mainly for tests.
	Connect Connector
}

// Runner executes single commands on remote hosts. It never retries.
type Runner struct {
	store    *config.Store
	override *AuthOverride
	logger   *slog.Logger
	connect  Connector
}

// NewRunner creates a Runner that builds a fresh ExecutionContext from store
// and override for every command.
func NewRunner(store *config.Store, override *AuthOverride, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	connect := opts.Connect
	if connect == nil {
		connect = SSHConnector(logger, opts)
	}
	return &Runner{
		store:    store,
		override: override,
		logger:   logger,
		connect:  connect,
	}
}

// SSHConnector returns a Connector producing SSH servers configured from the
// execution context.
func SSHConnector(logger *slog.Logger, opts Options) Connector {
	return func(ec ExecutionContext) server.Server {
		sshOpts := server.SSHOptions{
			UseAgent:         opts.UseAgent,
			HandshakeTimeout: ec.Timeout(),
			IgnoreHostKeys:   !ec.TrustKnownHosts,
			RequestPTY:       ec.UsePTY,
		}
		if ec.AllowPrompts {
			sshOpts.Stdin = opts.Stdin
		}
		if ec.LineBuffered {
			sshOpts.OnLine = func(stream, line string) {
				logger.Debug("Remote output", "host", ec.Host, "stream", stream, "line", line)
			}
		}
		user := server.User{Name: ec.User, SSHKey: ec.KeyFile}
		return server.NewSSHServer(ec.Host, ec.Host, user, opts.KnownHostsPath, sshOpts)
	}
}

// Run builds the execution context for host and executes command. A context
// that cannot be built yields an unsuccessful result with empty output.
func (r *Runner) Run(ctx context.Context, host, command string) CommandResult {
	ec, err := BuildContext(r.store, host, r.override)
	if err != nil {
		r.logger.Error("Execution context unavailable", "host", host, "command", command, "error", err)
		return CommandResult{}
	}
	return r.Exec(ctx, ec, command)
}

// Exec runs command with an already built context. The context timeout
// bounds connecting to the host, not the command itself.
func (r *Runner) Exec(ctx context.Context, ec ExecutionContext, command string) CommandResult {
	r.logger.Info("Running remote command", "host", ec.Host, "command", command)
	output, err := r.connect(ec).Execute(ctx, command)
	result := CommandResult{
		Succeeded: err == nil,
		Stdout:    output.Stdout,
		Stderr:    output.Stderr,
	}
	if err == nil {
		r.logger.Info("Remote command succeeded", "host", ec.Host, "command", command)
		return result
	}

	level := slog.LevelError
	if ec.WarnOnly {
		level = slog.LevelWarn
	}
	attrs := []any{"host", ec.Host, "command", command, "error", err}
	var cmdErr *server.CommandError
	if errors.As(err, &cmdErr) {
		attrs = append(attrs, "exit_code", cmdErr.ExitCode)
	}
	r.logger.Log(ctx, level, "Remote command failed", attrs...)
	return result
}

// RunRemoteCommand loads the config file and runs a single command on
// address. It reports failure as false rather than an error.
func RunRemoteCommand(ctx context.Context, address, command, configPath string, override *AuthOverride, opts Options) (bool, string, string) {
	store, err := config.Load(configPath)
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Error("Execution context unavailable", "host", address, "error", &ContextError{Host: address, Err: err})
		}
		return false, "", ""
	}
	result := NewRunner(store, override, opts).Run(ctx, address, command)
	return result.Succeeded, result.Stdout, result.Stderr
}
