package taskutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/tpodg/nfsprov/internal/remote"
	"github.com/tpodg/nfsprov/internal/strutil"
	"github.com/tpodg/nfsprov/internal/task"
)

const sudoPrefix = "sudo -n "

// SudoPrefix returns the prefix needed to run privileged commands as the
// login user: empty for root, non-interactive sudo otherwise.
func SudoPrefix(ctx context.Context, exec task.Executor) (string, error) {
	res := exec(ctx, "id -u")
	if !res.Succeeded {
		return "", fmt.Errorf("check for root user: %s", strings.TrimSpace(res.Stderr))
	}
	if strings.TrimSpace(res.Stdout) == "0" {
		return "", nil
	}
	return sudoPrefix, nil
}

// Elevate wraps command so it runs through prefix. Compound shell commands
// are passed to sh -c so the whole command is elevated.
func Elevate(prefix, command string) string {
	if prefix == "" {
		return command
	}
	return prefix + "sh -c " + strutil.ShellEscape(command)
}

// Elevated returns an Executor that runs every command through prefix.
func Elevated(prefix string, exec task.Executor) task.Executor {
	if prefix == "" {
		return exec
	}
	return func(ctx context.Context, command string) remote.CommandResult {
		return exec(ctx, Elevate(prefix, command))
	}
}
