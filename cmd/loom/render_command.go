package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/api"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <timeline.json>",
		Short: "Render a timeline of trimmed clips into one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read timeline file: %w", err)
			}
			var req api.TimelineRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parse timeline file %s: %w", args[0], err)
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.RenderTimeline(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s completed\n", resp.JobID)
			fmt.Fprintf(out, "Output: %s\n", resp.OutputPath)
			fmt.Fprintf(out, "Expires: %s\n", resp.ExpiresAt)
			return nil
		},
	}
	return cmd
}
