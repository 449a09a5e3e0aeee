package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

type SSHServer struct {
	name           string
	address        string
	user           User
	knownHostsPath string
	opts           SSHOptions
}

type SSHOptions struct {
	UseAgent         *bool
	HandshakeTimeout time.Duration
	// IgnoreHostKeys skips known_hosts verification entirely.
	IgnoreHostKeys bool
	RequestPTY     bool
	// Stdin feeds the remote command. Nil means the command reads EOF.
	Stdin *StdinRelay
	// OnLine, when set, receives remote output line by line as it arrives.
	OnLine func(stream, line string)
}

const (
	defaultSSHHandshakeTimeout = 15 * time.Second
	defaultSSHPort             = "22"
)

// lookupSSHConfig resolves a setting for a host alias from ~/.ssh/config.
var lookupSSHConfig = ssh_config.Get

func NewSSHServer(name, address string, user User, knownHostsPath string, opts SSHOptions) *SSHServer {
	return &SSHServer{
		name:           name,
		address:        address,
		user:           user,
		knownHostsPath: knownHostsPath,
		opts:           opts,
	}
}

func (s *SSHServer) ID() string      { return s.name }
func (s *SSHServer) Address() string { return s.address }

func (s *SSHServer) Options() SSHOptions { return s.opts }

func (s *SSHServer) Execute(ctx context.Context, command string) (Output, error) {
	addr := ResolveAddress(s.address)

	config, closeAuth, err := s.clientConfig()
	if err != nil {
		return Output{ExitCode: -1}, err
	}
	defer closeAuth()

	dialer := net.Dialer{Timeout: s.handshakeTimeout()}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Output{ExitCode: -1}, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	if err := applyHandshakeDeadline(ctx, conn, s.handshakeTimeout()); err != nil {
		conn.Close()
		return Output{ExitCode: -1}, err
	}
	handshakeDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-handshakeDone:
		}
	}()

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		close(handshakeDone)
		conn.Close()
		return Output{ExitCode: -1}, fmt.Errorf("failed to establish ssh connection to %s: %w", addr, err)
	}
	close(handshakeDone)
	if err := clearDeadline(conn); err != nil {
		sshConn.Close()
		return Output{ExitCode: -1}, err
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	// Handle context cancellation
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()
	defer close(done)

	session, err := client.NewSession()
	if err != nil {
		return Output{ExitCode: -1}, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	if s.opts.RequestPTY {
		modes := ssh.TerminalModes{
			ssh.ECHO:          0,
			ssh.TTY_OP_ISPEED: 14400,
			ssh.TTY_OP_OSPEED: 14400,
		}
		if err := session.RequestPty("xterm", 80, 40, modes); err != nil {
			return Output{ExitCode: -1}, fmt.Errorf("failed to allocate pty: %w", err)
		}
	}

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if s.opts.OnLine != nil {
		outRelay := newLineRelay(func(line string) { s.opts.OnLine("stdout", line) })
		errRelay := newLineRelay(func(line string) { s.opts.OnLine("stderr", line) })
		defer outRelay.flush()
		defer errRelay.flush()
		session.Stdout = io.MultiWriter(&stdout, outRelay)
		session.Stderr = io.MultiWriter(&stderr, errRelay)
	}
	if s.opts.Stdin != nil {
		stdinDone := make(chan struct{})
		defer close(stdinDone)
		session.Stdin = s.opts.Stdin.Reader(stdinDone)
	}

	runErr := session.Run(command)
	output := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr == nil {
		return output, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(runErr, &exitErr) {
		output.ExitCode = exitErr.ExitStatus()
		return output, &CommandError{Command: command, ExitCode: output.ExitCode, Err: runErr}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		runErr = fmt.Errorf("%w: %v", ctxErr, runErr)
	}
	output.ExitCode = -1
	return output, &CommandError{Command: command, ExitCode: -1, Err: runErr}
}

// clientConfig builds the ssh client configuration. The returned func
// releases the agent connection, if one was opened.
func (s *SSHServer) clientConfig() (*ssh.ClientConfig, func(), error) {
	closeAuth := func() {}
	authMethods := []ssh.AuthMethod{}

	// Prefer explicit key material before falling back to the agent.
	if s.user.SSHKey != "" {
		expandedPath, err := expandPath(s.user.SSHKey)
		if err != nil {
			return nil, closeAuth, fmt.Errorf("failed to expand ssh key path %q: %w", s.user.SSHKey, err)
		}
		key, err := os.ReadFile(expandedPath)
		if err != nil {
			return nil, closeAuth, fmt.Errorf("failed to read ssh key %q: %w", expandedPath, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, closeAuth, fmt.Errorf("failed to parse ssh key %q: %w", expandedPath, err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	if s.useAgent() {
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			if agentConn, err := net.Dial("unix", sock); err == nil {
				authMethods = append(authMethods, ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers))
				closeAuth = func() { agentConn.Close() }
			}
		}
	}

	if len(authMethods) == 0 {
		return nil, closeAuth, fmt.Errorf("no ssh authentication methods available")
	}

	hostKeyCallback, err := s.hostKeyCallback()
	if err != nil {
		closeAuth()
		return nil, func() {}, err
	}

	return &ssh.ClientConfig{
		User:            s.user.Name,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.handshakeTimeout(),
	}, closeAuth, nil
}

func (s *SSHServer) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if s.opts.IgnoreHostKeys {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	knownHostsPath, err := resolveKnownHostsPath(s.knownHostsPath)
	if err != nil {
		return nil, err
	}
	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts file %q: %w", knownHostsPath, err)
	}
	return callback, nil
}

func (s *SSHServer) useAgent() bool {
	if s.opts.UseAgent == nil {
		return true
	}
	return *s.opts.UseAgent
}

func (s *SSHServer) handshakeTimeout() time.Duration {
	if s.opts.HandshakeTimeout > 0 {
		return s.opts.HandshakeTimeout
	}
	return defaultSSHHandshakeTimeout
}

// ResolveAddress turns a host or ssh_config alias into host:port using the
// HostName and Port settings of ~/.ssh/config. Addresses that already carry
// a port are returned as is.
func ResolveAddress(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	host := address
	if hostname := lookupSSHConfig(address, "HostName"); hostname != "" {
		host = hostname
	}
	port := lookupSSHConfig(address, "Port")
	if port == "" {
		port = defaultSSHPort
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), port)
}

func applyHandshakeDeadline(ctx context.Context, conn net.Conn, timeout time.Duration) error {
	deadline, ok := handshakeDeadline(ctx, timeout)
	if !ok {
		return nil
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set ssh handshake deadline: %w", err)
	}
	return nil
}

func clearDeadline(conn net.Conn) error {
	if err := conn.SetDeadline(time.Time{}); err != nil {
		return fmt.Errorf("clear ssh handshake deadline: %w", err)
	}
	return nil
}

func handshakeDeadline(ctx context.Context, timeout time.Duration) (time.Time, bool) {
	var deadline time.Time
	now := time.Now()
	if timeout > 0 {
		deadline = now.Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok {
		if deadline.IsZero() || ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
	}
	if deadline.IsZero() {
		return time.Time{}, false
	}
	return deadline, true
}

func resolveKnownHostsPath(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory for known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
