package server

import (
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/tpodg/nfsprov/internal/testutils"
)

func TestSSHServer_Integration(t *testing.T) {
	ctx := context.Background()
	sshC := testutils.SetupSSHContainer(t, ctx)
	defer sshC.Container.Terminate(ctx)

	s := NewSSHServer("test-container", sshC.Address, User{Name: sshC.User, SSHKey: sshC.KeyPath}, sshC.KnownHostsPath, SSHOptions{})

	t.Run("captures stdout and stderr separately", func(t *testing.T) {
		output, err := s.Execute(ctx, "echo 'hello world'; echo oops >&2")
		if err != nil {
			t.Fatalf("Execute failed: %v\nOutput: %+v", err, output)
		}
		if output.Stdout != "hello world\n" {
			t.Errorf("expected stdout %q, got %q", "hello world\n", output.Stdout)
		}
		if output.Stderr != "oops\n" {
			t.Errorf("expected stderr %q, got %q", "oops\n", output.Stderr)
		}
	})

	t.Run("reports exit status", func(t *testing.T) {
		output, err := s.Execute(ctx, "grep ewrqwerasdfqewr /etc/passwd")
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("expected CommandError, got %v", err)
		}
		if cmdErr.ExitCode != 1 || output.ExitCode != 1 {
			t.Fatalf("expected exit status 1, got %d / %d", cmdErr.ExitCode, output.ExitCode)
		}
	})

	t.Run("feeds stdin per command", func(t *testing.T) {
		src, w := io.Pipe()
		defer w.Close()
		stdinSrv := NewSSHServer("stdin", sshC.Address, User{Name: sshC.User, SSHKey: sshC.KeyPath}, sshC.KnownHostsPath, SSHOptions{
			Stdin: NewStdinRelay(src),
		})

		go w.Write([]byte("yes\n"))
		output, err := stdinSrv.Execute(ctx, "head -n 1")
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if output.Stdout != "yes\n" {
			t.Fatalf("expected stdin to reach the command, got %q", output.Stdout)
		}

		before := runtime.NumGoroutine()
		for i := 0; i < 5; i++ {
			if _, err := stdinSrv.Execute(ctx, "true"); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
		}
		deadline := time.Now().Add(2 * time.Second)
		for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}
		if after := runtime.NumGoroutine(); after > before {
			t.Fatalf("expected no goroutines left reading stdin, before=%d after=%d", before, after)
		}
	})

	t.Run("relays lines", func(t *testing.T) {
		var lines []string
		lineSrv := NewSSHServer("lines", sshC.Address, User{Name: sshC.User, SSHKey: sshC.KeyPath}, sshC.KnownHostsPath, SSHOptions{
			OnLine: func(stream, line string) { lines = append(lines, stream+":"+line) },
		})
		if _, err := lineSrv.Execute(ctx, "printf 'a\\nb\\n'"); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if strings.Join(lines, ",") != "stdout:a,stdout:b" {
			t.Fatalf("unexpected relayed lines: %v", lines)
		}
	})
}
