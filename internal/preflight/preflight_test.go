package preflight_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"loom/internal/preflight"
	"loom/internal/services"
	"loom/internal/testsupport"
)

func TestRunAllPassesWithStubbedEnvironment(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg"))

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	for _, result := range results {
		if !result.Passed {
			t.Fatalf("check %s failed: %s", result.Name, result.Detail)
		}
	}
}

func TestRequireAggregatesFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Engine.Binary = "/nonexistent/ffmpeg"
	cfg.Paths.OutputDir = filepath.Join(cfg.Paths.OutputDir, "never-created")

	err := preflight.Require(context.Background(), cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCheckEngineBinary(t *testing.T) {
	if result := preflight.CheckEngineBinary(""); result.Passed {
		t.Fatal("empty binary must fail")
	}
	if result := preflight.CheckEngineBinary("/no/such/binary"); result.Passed {
		t.Fatal("missing binary must fail")
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	if result := preflight.CheckDirectoryAccess("tmp", dir); !result.Passed {
		t.Fatalf("writable dir failed: %s", result.Detail)
	}
	if result := preflight.CheckDirectoryAccess("gone", filepath.Join(dir, "missing")); result.Passed {
		t.Fatal("missing dir must fail")
	}

	file := filepath.Join(dir, "file")
	testsupport.WriteFile(t, file, 1)
	if result := preflight.CheckDirectoryAccess("file", file); result.Passed {
		t.Fatal("regular file must fail")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckFreeSpace(dir, 1<<20); result.Passed {
		t.Fatal("absurd floor must fail")
	}
}
