package api

import (
	"time"

	"loom/internal/jobs"
	"loom/internal/preflight"
)

// FromJob converts a stored job into its transport view.
func FromJob(job *jobs.Job) JobView {
	if job == nil {
		return JobView{}
	}
	view := JobView{
		ID:         job.ID,
		Status:     string(job.Status),
		Steps:      append([]string(nil), job.Steps...),
		FolderPath: job.FolderPath,
		VideoPath:  job.VideoPath,
		CreatedAt:  formatTime(job.CreatedAt),
		UpdatedAt:  formatTime(job.UpdatedAt),
	}
	if job.ExpiresAt != nil {
		view.ExpiresAt = formatTime(*job.ExpiresAt)
	}
	return view
}

// FromJobs converts a job list, preserving order.
func FromJobs(list []*jobs.Job) []JobView {
	if len(list) == 0 {
		return nil
	}
	views := make([]JobView, 0, len(list))
	for _, job := range list {
		views = append(views, FromJob(job))
	}
	return views
}

// FromStats converts store statistics into the API payload shape.
func FromStats(stats jobs.StatsSummary) JobStats {
	return JobStats{
		Total:      stats.Total,
		Pending:    stats.Pending,
		InProgress: stats.InProgress,
		Completed:  stats.Completed,
		Failed:     stats.Failed,
	}
}

// FromChecks converts preflight results into the API payload shape.
func FromChecks(results []preflight.Result) []CheckResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]CheckResult, 0, len(results))
	for _, result := range results {
		out = append(out, CheckResult{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	return out
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(dateTimeFormat)
}
