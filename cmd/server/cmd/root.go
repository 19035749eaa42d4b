// Package cmd holds the ingestq command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

const configFlag = "config"

// RootCmd returns the ingestq root command. Without a subcommand it serves.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ingestq",
		Short:         "Prioritized batch ingestion service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	cmd.PersistentFlags().String(configFlag, "", "Path to a config file (default: search ., ./config and /etc/ingestq)")

	cmd.AddCommand(
		serveCmd(),
		validateCmd(),
	)
	return cmd
}
