package cli

import (
	"github.com/spf13/cobra"
	"github.com/tpodg/nfsprov/internal/remote"
)

// authFlags holds the --user/--key pair that replaces the configured
// credentials for one invocation.
type authFlags struct {
	user string
	key  string
}

func (f *authFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "login user, overrides fabric.user (requires --key)")
	cmd.Flags().StringVar(&f.key, "key", "", "private key file, overrides fabric.key_filename (requires --user)")
	cmd.MarkFlagsRequiredTogether("user", "key")
}

// override returns nil when no credentials were given on the command line.
func (f *authFlags) override() *remote.AuthOverride {
	if f.user == "" && f.key == "" {
		return nil
	}
	return &remote.AuthOverride{User: f.user, KeyFile: f.key}
}
