package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"loom/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect composition jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List composition jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Jobs(cmd.Context(), listStatuses...)
			if err != nil {
				return err
			}
			if len(resp.Jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
				return nil
			}

			rows := make([][]string, 0, len(resp.Jobs))
			for _, job := range resp.Jobs {
				rows = append(rows, []string{
					job.ID,
					displayStatus(job.Status),
					fmt.Sprintf("%d", len(job.Steps)),
					job.CreatedAt,
					job.ExpiresAt,
				})
			}
			table := renderTable(
				[]string{"ID", "Status", "Steps", "Created", "Expires"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, in_progress, completed, failed)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job with its step log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJob(cmd, resp.Job)
			return nil
		},
	}
}

func printJob(cmd *cobra.Command, job api.JobView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:     %s\n", job.ID)
	fmt.Fprintf(out, "Status:  %s\n", displayStatus(job.Status))
	if job.FolderPath != "" {
		fmt.Fprintf(out, "Scratch: %s\n", job.FolderPath)
	}
	if job.VideoPath != "" {
		fmt.Fprintf(out, "Output:  %s\n", job.VideoPath)
	}
	if job.ExpiresAt != "" {
		fmt.Fprintf(out, "Expires: %s\n", job.ExpiresAt)
	}
	if job.CreatedAt != "" {
		fmt.Fprintf(out, "Created: %s\n", job.CreatedAt)
	}
	if len(job.Steps) == 0 {
		return
	}
	fmt.Fprintln(out, "Steps:")
	for i, step := range job.Steps {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, step)
	}
}

// displayStatus renders a lifecycle value for humans: "in_progress"
// becomes "In Progress".
func displayStatus(status string) string {
	cleaned := strings.ReplaceAll(status, "_", " ")
	return cases.Title(language.Und).String(cleaned)
}
