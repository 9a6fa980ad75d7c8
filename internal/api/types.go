package api

import (
	"loom/internal/segment"
	"loom/internal/timeline"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobView describes a composition job in a transport-friendly format.
type JobView struct {
	ID         string   `json:"id"`
	Status     string   `json:"status"`
	Steps      []string `json:"steps"`
	FolderPath string   `json:"folderPath,omitempty"`
	VideoPath  string   `json:"videoPath,omitempty"`
	ExpiresAt  string   `json:"expiresAt,omitempty"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	UpdatedAt  string   `json:"updatedAt,omitempty"`
}

// ComposeRequest is the wire payload for a segment composition.
type ComposeRequest struct {
	Segments []segment.Raw `json:"segments"`
}

// TimelineRequest is the wire payload for a timeline render.
type TimelineRequest struct {
	Assets  []timeline.Asset `json:"assets"`
	Entries []timeline.Entry `json:"entries"`
}

// ComposeResponse reports a finished composition.
type ComposeResponse struct {
	JobID      string `json:"jobId"`
	OutputPath string `json:"outputPath"`
	ExpiresAt  string `json:"expiresAt"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job JobView `json:"job"`
}

// CheckResult mirrors a readiness check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// JobStats counts jobs per lifecycle state.
type JobStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	JobDBPath    string        `json:"jobDbPath"`
	LockFilePath string        `json:"lockFilePath"`
	Stats        JobStats      `json:"stats"`
	Checks       []CheckResult `json:"checks"`
}
