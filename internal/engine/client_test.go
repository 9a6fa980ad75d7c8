package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"loom/internal/services"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/ffmpeg"))
	if cli.binary != "/opt/ffmpeg" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestValidationErrors(t *testing.T) {
	cli := NewCLI()
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"overlay missing video", func() error { return cli.Overlay(ctx, "", "/a.mp3", "/out.mp4") }},
		{"overlay missing audio", func() error { return cli.Overlay(ctx, "/v.mp4", "", "/out.mp4") }},
		{"concat no inputs", func() error { return cli.Concat(ctx, nil, "/out.mp4") }},
		{"trim-concat no clips", func() error { return cli.TrimConcat(ctx, nil, "/out.mp4") }},
		{"synthesize zero duration", func() error { return cli.SynthesizeBlank(ctx, 0, "1280x720", "/out.mp4") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func stubEngine(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string(nil), args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "LOOM_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestOverlayArgs(t *testing.T) {
	var captured []string
	stubEngine(t, "success", &captured)

	cli := NewCLI()
	outPath := filepath.Join(t.TempDir(), "out.mp4")
	if err := cli.Overlay(context.Background(), "/v.mp4", "/a.mp3", outPath); err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	joined := strings.Join(captured, " ")
	for _, want := range []string{
		"-hide_banner -nostats -y -progress pipe:1",
		"-i /v.mp4 -i /a.mp3",
		"-map 0:v:0 -map 1:a:0",
		"-c:v copy -c:a aac -shortest",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %v", want, captured)
		}
	}
	if captured[len(captured)-1] != outPath {
		t.Fatalf("expected output path last, got %v", captured)
	}
}

func TestConcatWritesManifest(t *testing.T) {
	var captured []string
	stubEngine(t, "success", &captured)

	dir := t.TempDir()
	outPath := filepath.Join(dir, "final.mp4")
	inputs := []string{
		filepath.Join(dir, "chunk-000.mp4"),
		filepath.Join(dir, "it's-here.mp4"),
	}

	cli := NewCLI()
	if err := cli.Concat(context.Background(), inputs, outPath); err != nil {
		t.Fatalf("Concat: %v", err)
	}

	manifestPath := filepath.Join(dir, "concat.txt")
	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	text := string(manifest)
	if !strings.HasPrefix(text, "ffconcat version 1.0\n") {
		t.Fatalf("manifest missing header: %q", text)
	}
	if !strings.Contains(text, "file '"+inputs[0]+"'\n") {
		t.Fatalf("manifest missing first input: %q", text)
	}
	if !strings.Contains(text, `it'\''s-here.mp4`) {
		t.Fatalf("single quote not escaped: %q", text)
	}

	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "-f concat -safe 0 -i "+manifestPath) {
		t.Fatalf("concat args missing manifest: %v", captured)
	}
	if !strings.Contains(joined, "-c copy") {
		t.Fatalf("concat should stream copy: %v", captured)
	}
}

func TestSynthesizeBlankArgs(t *testing.T) {
	var captured []string
	stubEngine(t, "success", &captured)

	cli := NewCLI()
	outPath := filepath.Join(t.TempDir(), "blank.mp4")
	if err := cli.SynthesizeBlank(context.Background(), 600, "", outPath); err != nil {
		t.Fatalf("SynthesizeBlank: %v", err)
	}

	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "-f lavfi -i color=c=black:s=1280x720:d=600") {
		t.Fatalf("lavfi source wrong: %v", captured)
	}
	if !strings.Contains(joined, "-pix_fmt yuv420p") {
		t.Fatalf("pixel format missing: %v", captured)
	}
}

func TestRunReportsProgress(t *testing.T) {
	stubEngine(t, "progress", nil)

	var reports []Progress
	cli := NewCLI(WithProgress(func(p Progress) {
		reports = append(reports, p)
	}))
	outPath := filepath.Join(t.TempDir(), "out.mp4")
	if err := cli.SynthesizeBlank(context.Background(), 1, "1280x720", outPath); err != nil {
		t.Fatalf("SynthesizeBlank: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("expected 2 progress reports, got %d", len(reports))
	}
	if reports[0].Frame != 25 || reports[0].Done {
		t.Fatalf("unexpected first report %+v", reports[0])
	}
	last := reports[len(reports)-1]
	if !last.Done || last.OutTimeUS != 1000000 || last.Speed != "2.5x" {
		t.Fatalf("unexpected final report %+v", last)
	}
}

func TestRunFailureRemovesOutput(t *testing.T) {
	stubEngine(t, "failure", nil)

	outPath := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(outPath, []byte("partial"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	cli := NewCLI()
	err := cli.Overlay(context.Background(), "/v.mp4", "/a.mp3", outPath)
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected transcode error, got %v", err)
	}
	if !strings.Contains(err.Error(), "stream mismatch") {
		t.Fatalf("stderr tail not surfaced: %v", err)
	}
	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial output removed, stat err = %v", statErr)
	}
}

func TestRunTimeoutKillsEngine(t *testing.T) {
	stubEngine(t, "hang", nil)

	cli := NewCLI(WithTimeouts(100*time.Millisecond, 0, 0))
	outPath := filepath.Join(t.TempDir(), "out.mp4")

	start := time.Now()
	err := cli.Overlay(context.Background(), "/v.mp4", "/a.mp3", outPath)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("engine not killed promptly, took %s", elapsed)
	}
}

func TestRunCancellation(t *testing.T) {
	stubEngine(t, "hang", nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	cli := NewCLI()
	err := cli.Overlay(ctx, "/v.mp4", "/a.mp3", filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("LOOM_HELPER_MODE") {
	case "success":
		os.Exit(0)
	case "progress":
		fmt.Println("frame=25")
		fmt.Println("out_time_us=500000")
		fmt.Println("speed=1.0x")
		fmt.Println("progress=continue")
		fmt.Println("frame=50")
		fmt.Println("out_time_us=1000000")
		fmt.Println("speed=2.5x")
		fmt.Println("progress=end")
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "Error: stream mismatch in input 1")
		os.Exit(1)
	case "hang":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}
