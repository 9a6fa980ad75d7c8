package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/cleanup"
	"loom/internal/jobs"
	"loom/internal/logging"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reclaim expired artifacts immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := jobs.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sweeper := cleanup.NewSweeper(cfg, store, logging.NewNop())
			result, err := sweeper.SweepOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Examined %d expired jobs: %d reclaimed, %d failures\n",
				result.Examined, result.Reclaimed, result.Failures)
			return nil
		},
	}
}
