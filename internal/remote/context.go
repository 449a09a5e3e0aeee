package remote

import (
	"errors"
	"fmt"
	"time"

	"github.com/tpodg/nfsprov/internal/config"
)

// ErrContextUnavailable is matched by every error BuildContext returns.
var ErrContextUnavailable = errors.New("execution context unavailable")

// ContextError keeps the reason an ExecutionContext could not be assembled.
// Callers normally only check errors.Is(err, ErrContextUnavailable).
type ContextError struct {
	Host string
	Err  error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("%v for %s: %v", ErrContextUnavailable, e.Host, e.Err)
}

func (e *ContextError) Unwrap() []error { return []error{ErrContextUnavailable, e.Err} }

// AuthOverride replaces the configured login credentials for one run.
// Both fields are required.
type AuthOverride struct {
	User    string
	KeyFile string
}

// ExecutionContext is everything needed to run one command on one host.
type ExecutionContext struct {
	Host            string
	User            string
	KeyFile         string
	TimeoutSeconds  int
	AllowPrompts    bool
	UsePTY          bool
	WarnOnly        bool
	LineBuffered    bool
	TrustKnownHosts bool
}

func (c ExecutionContext) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BuildContext assembles the execution context for host. Credentials come
// from override when it is non-nil and from the fabric section otherwise;
// behavioural options always come from the fabric section.
func BuildContext(store *config.Store, host string, override *AuthOverride) (ExecutionContext, error) {
	ec, err := buildContext(store, host, override)
	if err != nil {
		return ExecutionContext{}, &ContextError{Host: host, Err: err}
	}
	return ec, nil
}

func buildContext(store *config.Store, host string, override *AuthOverride) (ExecutionContext, error) {
	if store == nil {
		return ExecutionContext{}, errors.New("no configuration loaded")
	}
	if host == "" {
		return ExecutionContext{}, errors.New("host is empty")
	}

	ec := ExecutionContext{Host: host}
	if override != nil {
		if override.User == "" || override.KeyFile == "" {
			return ExecutionContext{}, errors.New("auth override needs both user and key file")
		}
		ec.User = override.User
		ec.KeyFile = override.KeyFile
	} else {
		var err error
		if ec.User, err = store.Get(config.SectionFabric, "user"); err != nil {
			return ExecutionContext{}, err
		}
		if ec.KeyFile, err = store.Get(config.SectionFabric, "key_filename"); err != nil {
			return ExecutionContext{}, err
		}
	}

	disableKnownHosts, err := store.Bool(config.SectionFabric, "disable_known_hosts")
	if err != nil {
		return ExecutionContext{}, err
	}
	if ec.LineBuffered, err = store.Bool(config.SectionFabric, "linewise"); err != nil {
		return ExecutionContext{}, err
	}
	if ec.WarnOnly, err = store.Bool(config.SectionFabric, "warn_only"); err != nil {
		return ExecutionContext{}, err
	}
	abortOnPrompts, err := store.Bool(config.SectionFabric, "abort_on_prompts")
	if err != nil {
		return ExecutionContext{}, err
	}
	if ec.UsePTY, err = store.Bool(config.SectionFabric, "always_use_pty"); err != nil {
		return ExecutionContext{}, err
	}
	if ec.TimeoutSeconds, err = store.Int(config.SectionFabric, "timeout"); err != nil {
		return ExecutionContext{}, err
	}
	if ec.TimeoutSeconds <= 0 {
		return ExecutionContext{}, fmt.Errorf("timeout must be positive, got %d", ec.TimeoutSeconds)
	}

	ec.TrustKnownHosts = !disableKnownHosts
	ec.AllowPrompts = !abortOnPrompts
	return ec, nil
}
