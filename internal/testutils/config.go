package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ConfigFixture holds the values written by WriteConfig. Zero values fall
// back to settings that work against the SSH test container.
type ConfigFixture struct {
	User              string
	KeyFile           string
	DisableKnownHosts bool
	AlwaysUsePTY      bool
	Linewise          bool
	Timeout           int
	NFS               map[string]string
}

// WriteConfig writes a deployment config file for fixture into a temp dir and
// returns its path.
func WriteConfig(t *testing.T, fixture ConfigFixture) string {
	t.Helper()

	timeout := fixture.Timeout
	if timeout == 0 {
		timeout = 10
	}

	var b strings.Builder
	b.WriteString("fabric:\n")
	fmt.Fprintf(&b, "  user: %q\n", fixture.User)
	fmt.Fprintf(&b, "  key_filename: %q\n", fixture.KeyFile)
	fmt.Fprintf(&b, "  disable_known_hosts: %q\n", fmt.Sprint(fixture.DisableKnownHosts))
	fmt.Fprintf(&b, "  linewise: %q\n", fmt.Sprint(fixture.Linewise))
	b.WriteString("  warn_only: \"false\"\n")
	b.WriteString("  abort_on_prompts: \"true\"\n")
	fmt.Fprintf(&b, "  always_use_pty: %q\n", fmt.Sprint(fixture.AlwaysUsePTY))
	fmt.Fprintf(&b, "  timeout: %q\n", fmt.Sprint(timeout))
	if len(fixture.NFS) > 0 {
		b.WriteString("nfs:\n")
		for key, value := range fixture.NFS {
			fmt.Fprintf(&b, "  %s: %q\n", key, value)
		}
	}

	path := filepath.Join(t.TempDir(), "deployment.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
