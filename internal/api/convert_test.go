package api

import (
	"testing"
	"time"

	"loom/internal/jobs"
)

func TestFromJob(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	expires := created.Add(time.Hour)
	job := &jobs.Job{
		ID:         "abc",
		Status:     jobs.StatusCompleted,
		Steps:      []string{"activated video 1", "composition completed"},
		FolderPath: "/scratch/job-abc",
		VideoPath:  "/out/abc.mp4",
		ExpiresAt:  &expires,
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	view := FromJob(job)
	if view.ID != "abc" || view.Status != "completed" {
		t.Fatalf("view = %+v", view)
	}
	if len(view.Steps) != 2 {
		t.Fatalf("steps = %v", view.Steps)
	}
	if view.CreatedAt != "2025-03-14T09:26:53.000Z" {
		t.Fatalf("created = %q", view.CreatedAt)
	}
	if view.ExpiresAt != "2025-03-14T10:26:53.000Z" {
		t.Fatalf("expires = %q", view.ExpiresAt)
	}

	// The view owns its step slice.
	view.Steps[0] = "mutated"
	if job.Steps[0] != "activated video 1" {
		t.Fatal("view mutation leaked into the model")
	}
}

func TestFromJobNilAndZero(t *testing.T) {
	if view := FromJob(nil); view.ID != "" {
		t.Fatalf("nil job view = %+v", view)
	}

	view := FromJob(&jobs.Job{ID: "x", Status: jobs.StatusPending})
	if view.ExpiresAt != "" || view.CreatedAt != "" {
		t.Fatalf("zero times should render empty: %+v", view)
	}
}

func TestFromStats(t *testing.T) {
	stats := FromStats(jobs.StatsSummary{Total: 5, Pending: 1, InProgress: 1, Completed: 2, Failed: 1})
	if stats.Total != 5 || stats.Completed != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}
