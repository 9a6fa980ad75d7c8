package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"loom/internal/config"
)

// FileName is the daemon log file name inside the configured log directory.
const FileName = "loom.log"

// FilePath returns the daemon log file location for the given config.
func FilePath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, FileName)
}

// Reader reads a log file incrementally. It tolerates the file not existing
// yet: reads against a missing file return no lines and leave the reader at
// offset zero so the file is picked up once it appears.
type Reader struct {
	path   string
	offset int64
}

// NewReader constructs a reader positioned at the start of the file.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Last returns up to limit trailing lines and positions the reader at the
// end of the file, so a subsequent Next picks up only new lines.
func (r *Reader) Last(limit int) ([]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.offset = 0
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, fmt.Errorf("seek log file: %w", err)
		}
		r.offset = end
		return nil, nil
	}

	scanner := newLineScanner(file)
	ring := make([]string, limit)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}
	r.offset = end

	lines := make([]string, count)
	if count == limit {
		for i := range lines {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Next returns the lines appended since the previous read. A truncated or
// rotated file resets the reader to the new beginning.
func (r *Reader) Next() ([]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.offset = 0
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if r.offset > info.Size() {
		r.offset = 0
	}

	if _, err := file.Seek(r.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log file: %w", err)
	}

	scanner := newLineScanner(file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("determine log offset: %w", err)
	}
	r.offset = offset
	return lines, nil
}

// Follow polls for appended lines and hands each one to fn until the context
// is cancelled. It returns the context error on cancellation.
func (r *Reader) Follow(ctx context.Context, interval time.Duration, fn func(line string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		lines, err := r.Next()
		if err != nil {
			return err
		}
		for _, line := range lines {
			fn(line)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(file *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
