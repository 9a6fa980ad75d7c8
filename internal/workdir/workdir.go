// Package workdir owns the per-request scratch directory lifecycle: scoped
// acquisition before any segment processing, guaranteed best-effort release
// on every exit path.
package workdir

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"loom/internal/logging"
)

// Dir is one request-scoped scratch directory. It is owned exclusively by
// the request that created it and never shared across jobs.
type Dir struct {
	Path    string
	removed bool
}

// New creates a uniquely named scratch directory under base.
func New(base string) (*Dir, error) {
	if base == "" {
		return nil, fmt.Errorf("work directory base required")
	}
	path := filepath.Join(base, "job-"+uuid.NewString())
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	return &Dir{Path: path}, nil
}

// Join resolves a filename inside the scratch directory.
func (d *Dir) Join(name string) string {
	return filepath.Join(d.Path, name)
}

// Remove recursively deletes the scratch directory and everything in it.
// Intended for defer: failures are logged, never returned, so cleanup cannot
// mask the request's real outcome. Safe to call more than once.
func (d *Dir) Remove(logger *slog.Logger) {
	if d == nil || d.removed {
		return
	}
	d.removed = true
	if err := os.RemoveAll(d.Path); err != nil {
		if logger == nil {
			logger = logging.NewNop()
		}
		logger.Warn("failed to remove scratch directory",
			logging.String("path", d.Path),
			logging.Error(err),
		)
		return
	}
}
