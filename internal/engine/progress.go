package engine

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Progress captures one engine progress report. Reports are observational
// only; composition correctness never depends on them.
type Progress struct {
	// Frame is the number of frames processed so far.
	Frame int64
	// OutTimeUS is the produced output duration in microseconds.
	OutTimeUS int64
	// Speed is the engine's realtime multiplier, e.g. "2.5x".
	Speed string
	// Done reports whether the engine signalled end of processing.
	Done bool
}

// scanProgress consumes ffmpeg's -progress key=value stream, forwarding one
// Progress per report block to the callback. The stream is always drained so
// the engine never blocks on a full pipe, even with a nil callback.
func scanProgress(r io.Reader, fn func(Progress)) {
	scanner := bufio.NewScanner(r)
	var current Progress
	for scanner.Scan() {
		key, value, found := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !found {
			continue
		}
		switch key {
		case "frame":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				current.Frame = n
			}
		case "out_time_us":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				current.OutTimeUS = n
			}
		case "speed":
			current.Speed = strings.TrimSpace(value)
		case "progress":
			current.Done = value == "end"
			if fn != nil {
				fn(current)
			}
			current = Progress{}
		}
	}
}
