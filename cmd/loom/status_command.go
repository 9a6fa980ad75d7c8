package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/api"
	"loom/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon health and job statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			status, err := client.Status(cmd.Context())
			if err != nil {
				// The daemon being down is itself status information; run
				// the readiness checks locally so the operator still sees
				// what is broken.
				fmt.Fprintln(out, "Daemon: not reachable")
				cfg, cfgErr := ctx.ensureConfig()
				if cfgErr != nil {
					return cfgErr
				}
				printChecks(cmd, api.FromChecks(preflight.RunAll(cmd.Context(), cfg)))
				return nil
			}

			fmt.Fprintf(out, "Daemon:  running=%s pid=%d\n", yesNo(status.Running), status.PID)
			fmt.Fprintf(out, "Jobs DB: %s\n", status.JobDBPath)
			fmt.Fprintf(out, "Lock:    %s\n", status.LockFilePath)
			fmt.Fprintf(out, "Jobs:    total=%d pending=%d in-progress=%d completed=%d failed=%d\n",
				status.Stats.Total, status.Stats.Pending, status.Stats.InProgress,
				status.Stats.Completed, status.Stats.Failed)
			printChecks(cmd, status.Checks)
			return nil
		},
	}
}

func printChecks(cmd *cobra.Command, checks []api.CheckResult) {
	if len(checks) == 0 {
		return
	}
	rows := make([][]string, 0, len(checks))
	for _, check := range checks {
		rows = append(rows, []string{check.Name, passFail(check.Passed), check.Detail})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Check", "OK", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
}

func passFail(ok bool) string {
	if ok {
		return "yes"
	}
	return "NO"
}
