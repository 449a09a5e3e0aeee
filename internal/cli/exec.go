package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tpodg/nfsprov/internal/remote"
)

var execAuth authFlags

var execCmd = &cobra.Command{
	Use:   "exec HOST -- COMMAND...",
	Short: "Run a single command on a host",
	Long: `Run COMMAND on HOST with the connection settings from the config file.
Remote stdout and stderr are copied to the local streams.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provApp := getApp(cmd)
		host := args[0]
		command := strings.Join(args[1:], " ")

		ok, stdout, stderr := remote.RunRemoteCommand(cmd.Context(), host, command, provApp.ConfigPath, execAuth.override(), provApp.RunnerOptions())
		fmt.Fprint(cmd.OutOrStdout(), stdout)
		fmt.Fprint(cmd.ErrOrStderr(), stderr)
		if !ok {
			return fmt.Errorf("command failed on %s", host)
		}
		return nil
	},
}

func init() {
	execAuth.register(execCmd)
	rootCmd.AddCommand(execCmd)
}
