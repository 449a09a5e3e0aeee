package nfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tpodg/nfsprov/internal/config"
	"github.com/tpodg/nfsprov/internal/probe"
	"github.com/tpodg/nfsprov/internal/remote"
	"github.com/tpodg/nfsprov/internal/server"
	"github.com/tpodg/nfsprov/internal/task"
	"github.com/tpodg/nfsprov/internal/task/taskutil"
)

// PortChecker returns nil when address:port accepts TCP connections.
type PortChecker func(ctx context.Context, address string, port int, timeout time.Duration) error

// Diagnostics describes where a run ended and why.
type Diagnostics struct {
	// State is StateDone on success, otherwise the state that failed.
	State   State
	Message string
	// Err is set when the failure was not a remote command, e.g. a config problem.
	Err error
	// Steps holds the commands attempted in the failing state.
	Steps *task.StepResult
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithRunnerOptions sets the options used for every remote command.
func WithRunnerOptions(opts remote.Options) Option {
	return func(o *Orchestrator) { o.runnerOpts = opts }
}

// WithAddressResolver sets how the host string maps to the host:port that
// is probed in the requirements check.
func WithAddressResolver(resolve func(host string) string) Option {
	return func(o *Orchestrator) { o.resolve = resolve }
}

func WithPortCheck(check PortChecker, timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.checkPort = check
		o.probeTimeout = timeout
	}
}

// Orchestrator applies one role to one host: requirements check, package
// index refresh, package installation and role configuration. It stops at
// the first failure and never rolls back.
type Orchestrator struct {
	role          Role
	host          string
	serverAddress string
	store         *config.Store
	override      *remote.AuthOverride
	logger        *slog.Logger
	runnerOpts    remote.Options
	checkPort     PortChecker
	probeTimeout  time.Duration
	resolve       func(host string) string
}

// NewServer prepares an NFS server deployment on host.
func NewServer(host, configPath string, override *remote.AuthOverride, opts ...Option) (*Orchestrator, error) {
	store, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return New(RoleServer, host, "", store, override, opts...), nil
}

// NewClient prepares an NFS client deployment on host mounting the export of
// serverAddress.
func NewClient(host, configPath, serverAddress string, override *remote.AuthOverride, opts ...Option) (*Orchestrator, error) {
	if serverAddress == "" {
		return nil, errors.New("nfs server address is required")
	}
	store, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return New(RoleClient, host, serverAddress, store, override, opts...), nil
}

// New creates an orchestrator for an already loaded store.
func New(role Role, host, serverAddress string, store *config.Store, override *remote.AuthOverride, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		role:          role,
		host:          host,
		serverAddress: serverAddress,
		store:         store,
		override:      override,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		checkPort:     probe.Dial,
		probeTimeout:  probe.DefaultTimeout,
		resolve:       server.ResolveAddress,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Role() Role   { return o.role }
func (o *Orchestrator) Host() string { return o.host }

// run carries the per-run collaborators through the states.
type run struct {
	logger *slog.Logger
	steps  *task.Runner
	exec   task.Executor
}

type stage struct {
	state State
	apply func(ctx context.Context, r *run) (*task.StepResult, error)
}

// Run executes every state in order. It returns true only when all of them
// succeed; otherwise Diagnostics names the failing state.
func (o *Orchestrator) Run(ctx context.Context) (bool, Diagnostics) {
	logger := o.logger.With("role", o.role.String(), "host", o.host, "run_id", uuid.NewString())

	runnerOpts := o.runnerOpts
	runnerOpts.Logger = logger
	runner := remote.NewRunner(o.store, o.override, runnerOpts)

	r := &run{
		logger: logger,
		steps:  task.NewRunner(logger),
		exec: func(ctx context.Context, command string) remote.CommandResult {
			return runner.Run(ctx, o.host, command)
		},
	}

	stages := []stage{
		{state: StateRequirementsCheck, apply: o.checkRequirements},
		{state: StatePreInstall, apply: o.preInstall},
		{state: StateInstallPackages, apply: o.installPackages},
		{state: StatePostInstall, apply: o.postInstall},
	}

	for _, st := range stages {
		logger.Info("Entering state", "state", st.state.String())
		steps, err := st.apply(ctx, r)
		if err == nil && steps.Succeeded() {
			continue
		}

		diag := Diagnostics{
			State:   st.state,
			Message: fmt.Sprintf("%s failed in %s state", o.role, st.state),
			Err:     err,
			Steps:   steps,
		}
		logger.Error("Deployment failed", "state", st.state.String(), "error", err)
		return false, diag
	}

	logger.Info("Deployment finished successfully")
	return true, Diagnostics{State: StateDone, Message: fmt.Sprintf("%s deployed", o.role)}
}

func (o *Orchestrator) checkRequirements(ctx context.Context, r *run) (*task.StepResult, error) {
	address, port, err := probe.SplitHostPort(o.resolve(o.host))
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Probing SSH port", "address", address, "port", port)
	return nil, o.checkPort(ctx, address, port, o.probeTimeout)
}

func (o *Orchestrator) preInstall(ctx context.Context, r *run) (*task.StepResult, error) {
	prefix, err := taskutil.SudoPrefix(ctx, r.exec)
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		r.logger.Info("Login user is not root, using sudo", "prefix", prefix)
	}
	r.exec = taskutil.Elevated(prefix, r.exec)

	refresh, err := refreshIndexCommand()
	if err != nil {
		return nil, err
	}
	return r.steps.Run(ctx, r.exec, task.CommandSteps(refresh)...), nil
}

func (o *Orchestrator) installPackages(ctx context.Context, r *run) (*task.StepResult, error) {
	pkgs := o.store.List(config.SectionNFS, o.role.packagesKey())
	if len(pkgs) == 0 {
		r.logger.Warn("No packages configured", "key", config.SectionNFS+"."+o.role.packagesKey())
	}

	steps := make([]task.Step, 0, len(pkgs))
	for _, pkg := range pkgs {
		cmd, err := installPackageCommand(pkg)
		if err != nil {
			return nil, err
		}
		steps = append(steps, task.Step{ID: pkg, Command: cmd})
	}
	return r.steps.Run(ctx, r.exec, steps...), nil
}

func (o *Orchestrator) postInstall(ctx context.Context, r *run) (*task.StepResult, error) {
	commands, err := o.role.postInstallCommands(o.store, o.serverAddress)
	if err != nil {
		return nil, err
	}
	return r.steps.Run(ctx, r.exec, task.CommandSteps(commands...)...), nil
}
