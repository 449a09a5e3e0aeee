package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tpodg/nfsprov/internal/app"
	"github.com/tpodg/nfsprov/internal/nfs"
)

var (
	serverAuth    authFlags
	serverOutput  string
	clientAuth    authFlags
	clientOutput  string
	clientNFSHost string
)

var serverCmd = &cobra.Command{
	Use:   "server HOST",
	Short: "Install and export an NFS share on a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provApp := getApp(cmd)
		store, err := provApp.Store()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		o := nfs.New(nfs.RoleServer, args[0], "", store, serverAuth.override(), orchestratorOptions(provApp)...)
		return deploy(cmd, o, serverOutput)
	},
}

var clientCmd = &cobra.Command{
	Use:   "client HOST",
	Short: "Install an NFS client on a host and mount the server export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if clientNFSHost == "" {
			return fmt.Errorf("nfs server address is required")
		}
		provApp := getApp(cmd)
		store, err := provApp.Store()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		o := nfs.New(nfs.RoleClient, args[0], clientNFSHost, store, clientAuth.override(), orchestratorOptions(provApp)...)
		return deploy(cmd, o, clientOutput)
	},
}

func orchestratorOptions(provApp *app.App) []nfs.Option {
	return []nfs.Option{
		nfs.WithLogger(provApp.Logger),
		nfs.WithRunnerOptions(provApp.RunnerOptions()),
	}
}

func deploy(cmd *cobra.Command, o *nfs.Orchestrator, output string) error {
	format, err := parseFormat(output)
	if err != nil {
		return err
	}

	ok, diag := o.Run(cmd.Context())
	if err := writeReport(cmd.OutOrStdout(), format, newReport(o, ok, diag)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s", diag.Message)
	}
	return nil
}

func init() {
	serverAuth.register(serverCmd)
	serverCmd.Flags().StringVarP(&serverOutput, "output", "o", string(formatText), "report format (text, yaml)")

	clientAuth.register(clientCmd)
	clientCmd.Flags().StringVarP(&clientOutput, "output", "o", string(formatText), "report format (text, yaml)")
	clientCmd.Flags().StringVar(&clientNFSHost, "server", "", "address of the NFS server to mount from")
	clientCmd.MarkFlagRequired("server")

	rootCmd.AddCommand(serverCmd, clientCmd)
}
