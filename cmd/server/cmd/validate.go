package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ingestq.io/ingestq/internal/config"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate configuration, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := cmd.Flags().GetString(configFlag)
			if err != nil {
				return err
			}
			cfg, err := config.LoadFile(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: port=%d batch_size=%d drain_interval=%s batches_per_tick=%d\n",
				cfg.Server.Port, cfg.Ingest.BatchSize, cfg.Drain.Interval, cfg.Drain.BatchesPerTick)
			return nil
		},
	}
}
