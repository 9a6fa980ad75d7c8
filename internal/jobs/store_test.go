package jobs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"loom/internal/jobs"
	"loom/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Create(ctx, "/scratch/job-a")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected generated id")
	}
	if job.Status != jobs.StatusPending {
		t.Fatalf("new job status = %s", job.Status)
	}
	if len(job.Steps) != 0 {
		t.Fatalf("new job steps = %v", job.Steps)
	}
	if job.FolderPath != "/scratch/job-a" {
		t.Fatalf("folder path = %q", job.FolderPath)
	}
	if job.ExpiresAt != nil {
		t.Fatal("new job must not expire")
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched == nil || fetched.ID != job.ID {
		t.Fatalf("Get returned %+v", fetched)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	job, err := store.Get(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for missing job, got %+v", job)
	}
}

func TestAppendStepsPreservesOrderAndDuplicates(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.AppendSteps(ctx, job.ID, "activated video 1"); err != nil {
		t.Fatalf("AppendSteps: %v", err)
	}
	if err := store.AppendSteps(ctx, job.ID, "overlaid narration 2", "overlaid narration 2"); err != nil {
		t.Fatalf("AppendSteps: %v", err)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{"activated video 1", "overlaid narration 2", "overlaid narration 2"}
	if len(fetched.Steps) != len(want) {
		t.Fatalf("steps = %v, want %v", fetched.Steps, want)
	}
	for i := range want {
		if fetched.Steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", fetched.Steps, want)
		}
	}
}

func TestAppendStepsConcurrentWritersLoseNothing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.AppendSteps(ctx, job.ID, "step"); err != nil {
				t.Errorf("AppendSteps: %v", err)
			}
		}()
	}
	wg.Wait()

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(fetched.Steps) != writers {
		t.Fatalf("expected %d steps, got %d", writers, len(fetched.Steps))
	}
}

func TestAppendStepsMissingJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.AppendSteps(context.Background(), "ghost", "step"); err == nil {
		t.Fatal("expected error for missing job")
	}
}

func TestSetStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.SetStatus(ctx, job.ID, jobs.StatusInProgress); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	fetched, _ := store.Get(ctx, job.ID)
	if fetched.Status != jobs.StatusInProgress {
		t.Fatalf("status = %s", fetched.Status)
	}

	if err := store.SetStatus(ctx, job.ID, "exploded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if err := store.SetStatus(ctx, "ghost", jobs.StatusFailed); err == nil {
		t.Fatal("expected error for missing job")
	}
}

func TestSetOutputAndFindExpired(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now()

	expired, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.SetOutput(ctx, expired.ID, "/out/expired.mp4", now.Add(-time.Hour)); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}

	fresh, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.SetOutput(ctx, fresh.ID, "/out/fresh.mp4", now.Add(time.Hour)); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}

	// Completed but already reclaimed: no artifact path, must not match.
	if _, err := store.Create(ctx, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := store.FindExpired(ctx, now)
	if err != nil {
		t.Fatalf("FindExpired: %v", err)
	}
	if len(found) != 1 || found[0].ID != expired.ID {
		t.Fatalf("FindExpired = %+v", found)
	}
	if found[0].VideoPath != "/out/expired.mp4" {
		t.Fatalf("video path = %q", found[0].VideoPath)
	}
}

func TestClearReclaimedRemovesFromExpirySet(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.SetOutput(ctx, job.ID, "/out/old.mp4", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}

	if err := store.ClearReclaimed(ctx, job.ID); err != nil {
		t.Fatalf("ClearReclaimed: %v", err)
	}

	found, err := store.FindExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("FindExpired: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("reclaimed job still matches expiry query: %+v", found)
	}

	fetched, _ := store.Get(ctx, job.ID)
	if fetched == nil {
		t.Fatal("reclaimed job record must be retained")
	}
	if fetched.VideoPath != "" || fetched.ExpiresAt != nil {
		t.Fatalf("artifact fields not cleared: %+v", fetched)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, _ := store.Create(ctx, "")
	time.Sleep(2 * time.Millisecond)
	second, _ := store.Create(ctx, "")
	if err := store.SetStatus(ctx, second.ID, jobs.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
	if all[0].ID != second.ID {
		t.Fatalf("expected newest first, got %s", all[0].ID)
	}

	completed, err := store.List(ctx, jobs.StatusCompleted)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != second.ID {
		t.Fatalf("filtered list = %+v", completed)
	}
	_ = first
}

func TestStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a, _ := store.Create(ctx, "")
	b, _ := store.Create(ctx, "")
	if _, err := store.Create(ctx, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = store.SetStatus(ctx, a.ID, jobs.StatusCompleted)
	_ = store.SetStatus(ctx, b.ID, jobs.StatusFailed)

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.Completed != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
