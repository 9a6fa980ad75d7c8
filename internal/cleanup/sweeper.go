package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"loom/internal/config"
	"loom/internal/jobs"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/services"
)

// SweepResult summarizes one reclamation pass.
type SweepResult struct {
	Examined  int
	Reclaimed int
	Failures  int
}

// Sweeper periodically reclaims expired composition artifacts. It runs
// independently of request handling, sharing only the job store, and a
// failed sweep is retried on the next tick rather than stopping the process.
type Sweeper struct {
	store    *jobs.Store
	notifier notifications.Service
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSweeper constructs a sweeper from application configuration.
func NewSweeper(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		notifier: notifications.NewService(cfg),
		logger:   logging.NewComponentLogger(logger, "cleanup"),
		interval: time.Duration(cfg.Cleanup.SweepInterval) * time.Second,
	}
}

// Start launches the sweep loop: one sweep immediately, then one per
// interval until the context is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("sweeper already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Stop terminates the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	result, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.Warn("sweep failed; retrying next tick", logging.Error(err))
		return
	}
	if result.Examined > 0 {
		s.logger.Info("sweep finished",
			logging.Int("examined", result.Examined),
			logging.Int("reclaimed", result.Reclaimed),
			logging.Int("failures", result.Failures),
		)
	}
	if result.Reclaimed > 0 || result.Failures > 0 {
		if err := s.notifier.NotifyArtifactsReclaimed(ctx, result.Reclaimed, result.Failures); err != nil {
			s.logger.Warn("reclamation notification failed", logging.Error(err))
		}
	}
}

// SweepOnce reclaims every job whose expiration has elapsed and whose
// artifact path is still set. Deletion failures are logged and do not abort
// the pass; the job's artifact fields are cleared regardless so a file that
// no longer needs reclaiming is not retried forever.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	expired, err := s.store.FindExpired(ctx, time.Now())
	if err != nil {
		return result, services.Wrap(services.ErrCleanup, "cleanup", "query expired jobs", "", err)
	}
	result.Examined = len(expired)

	for _, job := range expired {
		if err := os.Remove(job.VideoPath); err != nil && !os.IsNotExist(err) {
			result.Failures++
			s.logger.Warn("failed to delete expired artifact",
				logging.String(logging.FieldJobID, job.ID),
				logging.String("path", job.VideoPath),
				logging.Error(err),
			)
		}
		if err := s.store.ClearReclaimed(ctx, job.ID); err != nil {
			result.Failures++
			s.logger.Warn("failed to clear reclaimed job",
				logging.String(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
			continue
		}
		result.Reclaimed++
		s.logger.Info("reclaimed expired artifact",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("path", job.VideoPath),
		)
	}

	return result, nil
}
