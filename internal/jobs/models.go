package jobs

import "time"

// Status represents the lifecycle of a composition job. Movement is forward
// only; callers use Rank to refuse backward transitions.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var statusRanks = map[Status]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
}

// Known reports whether the status is one of the defined lifecycle values.
func (s Status) Known() bool {
	_, ok := statusRanks[s]
	return ok
}

// Rank orders statuses along the forward-only lifecycle. Completed and
// failed share a rank; neither may follow the other.
func (s Status) Rank() int {
	return statusRanks[s]
}

// Terminal reports whether a job in this status can still change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one durable record tracking an end-to-end assembly request.
type Job struct {
	// ID is an opaque unique token.
	ID string
	// Status moves forward only: pending, in_progress, then completed or failed.
	Status Status
	// Steps is an ordered append-only log of step names. It is a log, not a
	// set: duplicates are allowed and meaningful.
	Steps []string
	// FolderPath is the scratch directory owned exclusively by this job.
	FolderPath string
	// VideoPath points at the produced artifact; set only on success, cleared
	// when the artifact is reclaimed.
	VideoPath string
	// ExpiresAt is set on success and cleared on reclamation. A completed job
	// whose expiration has elapsed is eligible for the cleanup sweep.
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the job's artifact is eligible for reclamation.
func (j *Job) Expired(now time.Time) bool {
	return j.ExpiresAt != nil && j.ExpiresAt.Before(now) && j.VideoPath != ""
}

// StatsSummary counts jobs per lifecycle state.
type StatsSummary struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Failed     int
}
