package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tpodg/nfsprov/internal/probe"
)

var (
	checkPortNumber  int
	checkPortTimeout time.Duration
)

var checkPortCmd = &cobra.Command{
	Use:   "check-port ADDRESS",
	Short: "Check that a TCP port accepts connections",
	Long:  `Open a TCP connection to ADDRESS on the given port and close it again. Exits non-zero when the port cannot be reached within the timeout.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provApp := getApp(cmd)
		address := args[0]

		provApp.Logger.Info("Checking port", "address", address, "port", checkPortNumber, "timeout", checkPortTimeout)
		if err := probe.Dial(cmd.Context(), address, checkPortNumber, checkPortTimeout); err != nil {
			var connErr *probe.ConnectivityError
			if errors.As(err, &connErr) {
				provApp.Logger.Error("Port unreachable", "address", address, "port", checkPortNumber, "reason", connErr.Reason.String())
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s:%d reachable\n", address, checkPortNumber)
		return nil
	},
}

func init() {
	checkPortCmd.Flags().IntVar(&checkPortNumber, "port", probe.DefaultPort, "TCP port to check")
	checkPortCmd.Flags().DurationVar(&checkPortTimeout, "timeout", probe.DefaultTimeout, "connection timeout")
	rootCmd.AddCommand(checkPortCmd)
}
