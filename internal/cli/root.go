package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tpodg/nfsprov/internal/app"
	"github.com/tpodg/nfsprov/internal/config"
)

type contextKey string

const appKey contextKey = "app"

var rootCmd = &cobra.Command{
	Use:   "nfsprov",
	Short: "nfsprov provisions NFS servers and clients over SSH",
	Long: `nfsprov installs and configures an NFS server or client on a remote
host over SSH: it checks reachability, refreshes the package index, installs
the configured packages, then exports or mounts the shared directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		levelName, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		knownHosts, err := cmd.Flags().GetString("known-hosts")
		if err != nil {
			return err
		}

		var level slog.Level
		if err := level.UnmarshalText([]byte(levelName)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", levelName, err)
		}

		provApp := app.New(cfgFile, level)
		provApp.KnownHostsPath = knownHosts
		ctx := context.WithValue(cmd.Context(), appKey, provApp)
		cmd.SetContext(ctx)

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", fmt.Sprintf("config file (default is $HOME/%s)", config.DefaultConfigFileName))
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("known-hosts", "", "known_hosts file (default is ~/.ssh/known_hosts)")
}

func getApp(cmd *cobra.Command) *app.App {
	if a, ok := cmd.Context().Value(appKey).(*app.App); ok {
		return a
	}
	return nil
}
