package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/api"
	"loom/internal/segment"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose <segments.json>",
		Short: "Assemble a video from an ordered segment file",
		Long: "Reads a JSON file containing an array of segments (video payloads and\n" +
			"narration audio) and submits it to the daemon for composition. The\n" +
			"command blocks until the artifact is ready.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raws, err := readSegments(args[0])
			if err != nil {
				return err
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Compose(cmd.Context(), api.ComposeRequest{Segments: raws})
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

// readSegments accepts either a bare segment array or a compose request
// envelope, so files captured from API traffic work unchanged.
func readSegments(path string) ([]segment.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segment file: %w", err)
	}

	var raws []segment.Raw
	if err := json.Unmarshal(data, &raws); err == nil {
		return raws, nil
	}

	var envelope api.ComposeRequest
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse segment file %s: %w", path, err)
	}
	return envelope.Segments, nil
}
