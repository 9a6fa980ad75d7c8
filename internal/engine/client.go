package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"loom/internal/config"
	"loom/internal/services"
	"loom/internal/timeline"
)

var commandContext = exec.CommandContext

// Client defines the transcoding engine contract. Every operation either
// leaves a complete output file at the requested path or no file at all.
type Client interface {
	// Overlay combines an audio track onto a video track. The output duration
	// is truncated to the shorter of the two inputs.
	Overlay(ctx context.Context, videoPath, audioPath, outPath string) error
	// Concat joins fully-encoded inputs in order via a concatenation manifest
	// written next to the output.
	Concat(ctx context.Context, inputPaths []string, outPath string) error
	// TrimConcat trims each clip to [start, start+duration), resets its
	// timestamps, and concatenates all trimmed streams into one output.
	TrimConcat(ctx context.Context, clips []timeline.Clip, outPath string) error
	// SynthesizeBlank generates a solid-color filler clip used as the initial
	// active video when a sequence starts with narration.
	SynthesizeBlank(ctx context.Context, seconds float64, resolution, outPath string) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default ffmpeg binary.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithTimeouts overrides the per-operation wall-clock budgets.
func WithTimeouts(overlay, concat, synthesize time.Duration) Option {
	return func(c *CLI) {
		if overlay > 0 {
			c.overlayTimeout = overlay
		}
		if concat > 0 {
			c.concatTimeout = concat
		}
		if synthesize > 0 {
			c.synthesizeTimeout = synthesize
		}
	}
}

// WithProgress installs an observational progress callback. Progress never
// affects control flow.
func WithProgress(fn func(Progress)) Option {
	return func(c *CLI) {
		c.progress = fn
	}
}

// CLI invokes the ffmpeg binary as the external transcoding engine.
type CLI struct {
	binary            string
	overlayTimeout    time.Duration
	concatTimeout     time.Duration
	synthesizeTimeout time.Duration
	progress          func(Progress)
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{
		binary:            "ffmpeg",
		overlayTimeout:    60 * time.Second,
		concatTimeout:     120 * time.Second,
		synthesizeTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// NewFromConfig constructs a CLI client from application configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) *CLI {
	base := []Option{
		WithBinary(cfg.Engine.Binary),
		WithTimeouts(
			time.Duration(cfg.Engine.OverlayTimeout)*time.Second,
			time.Duration(cfg.Engine.ConcatTimeout)*time.Second,
			time.Duration(cfg.Engine.SynthesizeTimeout)*time.Second,
		),
	}
	return NewCLI(append(base, opts...)...)
}

// Overlay maps the video stream of videoPath and the audio stream of
// audioPath into outPath, with -shortest so the shorter input wins.
func (c *CLI) Overlay(ctx context.Context, videoPath, audioPath, outPath string) error {
	if videoPath == "" || audioPath == "" {
		return services.Wrap(services.ErrValidation, "engine", "overlay", "video and audio paths required", nil)
	}
	args := []string{
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
	}
	return c.run(ctx, "overlay", c.overlayTimeout, args, outPath)
}

// Concat writes a concatenation manifest next to outPath and joins the
// inputs with stream copy.
func (c *CLI) Concat(ctx context.Context, inputPaths []string, outPath string) error {
	if len(inputPaths) == 0 {
		return services.Wrap(services.ErrValidation, "engine", "concat", "no inputs to concatenate", nil)
	}
	manifestPath := filepath.Join(filepath.Dir(outPath), "concat.txt")
	if err := writeConcatManifest(manifestPath, inputPaths); err != nil {
		return services.Wrap(services.ErrTranscode, "engine", "concat", "write manifest", err)
	}
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
	}
	return c.run(ctx, "concat", c.concatTimeout, args, outPath)
}

// TrimConcat builds one filter graph that trims every clip and concatenates
// the trimmed streams into a single synchronized output pair.
func (c *CLI) TrimConcat(ctx context.Context, clips []timeline.Clip, outPath string) error {
	if len(clips) == 0 {
		return services.Wrap(services.ErrValidation, "engine", "trim-concat", "at least one clip required", nil)
	}
	args := make([]string, 0, len(clips)*2+8)
	for _, clip := range clips {
		args = append(args, "-i", clip.Source)
	}
	args = append(args,
		"-filter_complex", BuildTrimConcatGraph(clips),
		"-map", "[outv]",
		"-map", "[outa]",
	)
	return c.run(ctx, "trim-concat", c.concatTimeout, args, outPath)
}

// SynthesizeBlank generates a black filler clip of the given duration and
// resolution via the lavfi color source.
func (c *CLI) SynthesizeBlank(ctx context.Context, seconds float64, resolution, outPath string) error {
	if seconds <= 0 {
		return services.Wrap(services.ErrValidation, "engine", "synthesize", "duration must be positive", nil)
	}
	if resolution == "" {
		resolution = "1280x720"
	}
	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%s:d=%s", resolution, formatSeconds(seconds)),
		"-pix_fmt", "yuv420p",
	}
	return c.run(ctx, "synthesize", c.synthesizeTimeout, args, outPath)
}

// run executes one engine invocation bounded by a hard wall-clock timeout.
// The output file is removed on any failure so callers never observe a
// partial artifact; a deadline hit kills the process rather than leaving it
// running behind the caller's back.
func (c *CLI) run(parent context.Context, operation string, timeout time.Duration, args []string, outPath string) error {
	runCtx := parent
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	full := make([]string, 0, len(args)+8)
	full = append(full, "-hide_banner", "-nostats", "-y", "-progress", "pipe:1")
	full = append(full, args...)
	full = append(full, outPath)

	cmd := commandContext(runCtx, c.binary, full...) //nolint:gosec
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrTranscode, "engine", operation, "stdout pipe", err)
	}
	stderr := newTailBuffer(4096)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrTranscode, "engine", operation, "start engine", err)
	}

	scanProgress(stdout, c.progress)

	waitErr := cmd.Wait()
	if waitErr == nil {
		return nil
	}

	_ = os.Remove(outPath)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "engine", operation,
			fmt.Sprintf("exceeded %s budget", timeout), waitErr)
	}
	if errors.Is(parent.Err(), context.Canceled) {
		return parent.Err()
	}
	diagnostic := strings.TrimSpace(stderr.String())
	if diagnostic == "" {
		return services.Wrap(services.ErrTranscode, "engine", operation, "engine failed", waitErr)
	}
	return services.Wrap(services.ErrTranscode, "engine", operation, diagnostic, waitErr)
}

func formatSeconds(seconds float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", seconds), "0"), ".")
}

var _ Client = (*CLI)(nil)
