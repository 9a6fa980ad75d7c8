package compose

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"loom/internal/config"
	"loom/internal/engine"
	"loom/internal/fileutil"
	"loom/internal/jobs"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/segment"
	"loom/internal/services"
	"loom/internal/timeline"
	"loom/internal/workdir"
)

// Result describes one finished composition.
type Result struct {
	JobID      string
	OutputPath string
	ExpiresAt  time.Time
}

// Runner executes composition requests end to end: normalization, the
// active-media fold, final assembly, and job bookkeeping. Runners are
// stateless over jobs; every request gets its own scratch directory and job
// record, and requests may run concurrently.
type Runner struct {
	cfg      *config.Config
	store    *jobs.Store
	engine   engine.Client
	notifier notifications.Service
	logger   *slog.Logger
}

// NewRunner constructs a composition runner.
func NewRunner(cfg *config.Config, store *jobs.Store, client engine.Client, notifier notifications.Service, logger *slog.Logger) *Runner {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Runner{
		cfg:      cfg,
		store:    store,
		engine:   client,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "compose"),
	}
}

// ComposeSegments assembles one artifact from an ordered set of submitted
// segments. Validation failures abort before any scratch directory or job
// record exists; once engine work starts, any failure marks the job failed
// and propagates. The scratch directory is removed on every exit path.
func (r *Runner) ComposeSegments(ctx context.Context, raws []segment.Raw) (*Result, error) {
	segments, err := segment.Normalize(raws, r.cfg.Engine.DefaultExtension, r.logger)
	if err != nil {
		return nil, err
	}

	job, err := r.store.Create(ctx, "")
	if err != nil {
		return nil, services.Wrap(services.ErrJobStore, "compose", "create job", "", err)
	}
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, r.logger)

	wd, err := workdir.New(r.cfg.Paths.WorkDir)
	if err != nil {
		r.markFailed(ctx, job, "scratch directory creation failed")
		return nil, services.Wrap(services.ErrSegment, "compose", "scratch", "", err)
	}
	defer wd.Remove(logger)

	r.recordFolder(ctx, job, wd.Path)
	r.setStatus(ctx, job, jobs.StatusInProgress)
	r.appendSteps(ctx, job, fmt.Sprintf("normalized %d segments", len(segments)))
	logger.Info("composition started", logging.Int("segments", len(segments)))

	chunks, err := r.foldSegments(ctx, logger, wd, job, segments)
	if err != nil {
		r.markFailed(ctx, job, describeFailure(err))
		return nil, err
	}

	if len(chunks) == 0 {
		err := services.Wrap(services.ErrValidation, "compose", "assemble", "sequence contains no narration to overlay", nil)
		r.markFailed(ctx, job, describeFailure(err))
		return nil, err
	}

	finalPath := wd.Join("final" + r.cfg.Engine.DefaultExtension)
	if err := r.engine.Concat(ctx, chunks, finalPath); err != nil {
		r.markFailed(ctx, job, describeFailure(err))
		return nil, err
	}
	r.appendSteps(ctx, job, fmt.Sprintf("concatenated %d chunks", len(chunks)))

	outputPath := filepath.Join(r.cfg.Paths.OutputDir, job.ID+r.cfg.Engine.DefaultExtension)
	if err := fileutil.MoveFile(finalPath, outputPath); err != nil {
		r.markFailed(ctx, job, "artifact placement failed")
		return nil, services.Wrap(services.ErrSegment, "compose", "place artifact", "", err)
	}

	return r.complete(ctx, logger, job, outputPath)
}

// RenderTimeline flattens a timeline description against an asset table and
// renders the resulting clips through one trim+concat invocation.
func (r *Runner) RenderTimeline(ctx context.Context, assets []timeline.Asset, entries []timeline.Entry) (*Result, error) {
	clips, err := timeline.Flatten(assets, entries, r.logger)
	if err != nil {
		return nil, err
	}

	job, err := r.store.Create(ctx, "")
	if err != nil {
		return nil, services.Wrap(services.ErrJobStore, "compose", "create job", "", err)
	}
	ctx = services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(ctx, r.logger)

	wd, err := workdir.New(r.cfg.Paths.WorkDir)
	if err != nil {
		r.markFailed(ctx, job, "scratch directory creation failed")
		return nil, services.Wrap(services.ErrSegment, "compose", "scratch", "", err)
	}
	defer wd.Remove(logger)

	r.recordFolder(ctx, job, wd.Path)
	r.setStatus(ctx, job, jobs.StatusInProgress)
	r.appendSteps(ctx, job, fmt.Sprintf("resolved %d clips", len(clips)))
	logger.Info("timeline render started", logging.Int("clips", len(clips)))

	finalPath := wd.Join("final" + r.cfg.Engine.DefaultExtension)
	if err := r.engine.TrimConcat(ctx, clips, finalPath); err != nil {
		r.markFailed(ctx, job, describeFailure(err))
		return nil, err
	}
	r.appendSteps(ctx, job, fmt.Sprintf("trimmed and concatenated %d clips", len(clips)))

	outputPath := filepath.Join(r.cfg.Paths.OutputDir, job.ID+r.cfg.Engine.DefaultExtension)
	if err := fileutil.MoveFile(finalPath, outputPath); err != nil {
		r.markFailed(ctx, job, "artifact placement failed")
		return nil, services.Wrap(services.ErrSegment, "compose", "place artifact", "", err)
	}

	return r.complete(ctx, logger, job, outputPath)
}

// complete records the artifact and terminal status. Store failures at this
// point degrade only the audit record: the artifact already exists, so the
// success result stands and the failure is logged.
func (r *Runner) complete(ctx context.Context, logger *slog.Logger, job *jobs.Job, outputPath string) (*Result, error) {
	expiresAt := time.Now().Add(time.Duration(r.cfg.Cleanup.RetentionSeconds) * time.Second)
	if err := r.store.SetOutput(ctx, job.ID, outputPath, expiresAt); err != nil {
		logger.Warn("failed to record artifact on job", logging.Error(err))
	}
	r.setStatus(ctx, job, jobs.StatusCompleted)
	r.appendSteps(ctx, job, "composition completed")
	logger.Info("composition completed",
		logging.String("output", outputPath),
		logging.Time("expires_at", expiresAt),
	)
	if err := r.notifier.NotifyCompositionCompleted(ctx, job.ID, outputPath); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
	return &Result{JobID: job.ID, OutputPath: outputPath, ExpiresAt: expiresAt}, nil
}

// setStatus enforces the forward-only lifecycle at the call site: a backward
// move is dropped with a warning rather than persisted.
func (r *Runner) setStatus(ctx context.Context, job *jobs.Job, status jobs.Status) {
	if status.Rank() < job.Status.Rank() || (job.Status.Terminal() && status != job.Status) {
		r.logger.Warn("refusing backward status transition",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("from", string(job.Status)),
			logging.String("to", string(status)),
		)
		return
	}
	if err := r.store.SetStatus(ctx, job.ID, status); err != nil {
		r.logger.Warn("failed to persist job status",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
		return
	}
	job.Status = status
}

func (r *Runner) appendSteps(ctx context.Context, job *jobs.Job, steps ...string) {
	if err := r.store.AppendSteps(ctx, job.ID, steps...); err != nil {
		r.logger.Warn("failed to append job steps",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
	}
}

func (r *Runner) recordFolder(ctx context.Context, job *jobs.Job, path string) {
	if err := r.store.SetFolder(ctx, job.ID, path); err != nil {
		r.logger.Warn("failed to record scratch directory on job",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
	}
}

func (r *Runner) markFailed(ctx context.Context, job *jobs.Job, step string) {
	r.appendSteps(ctx, job, "failed: "+step)
	r.setStatus(ctx, job, jobs.StatusFailed)
	if err := r.notifier.NotifyCompositionFailed(ctx, job.ID, step); err != nil {
		r.logger.Warn("failure notification failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
	}
}

// describeFailure produces the step-log entry for an error without losing
// the engine diagnostic carried inside it.
func describeFailure(err error) string {
	if err == nil {
		return "unknown failure"
	}
	return err.Error()
}
