package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("exit status 1")
	err := Wrap(ErrTranscode, "engine", "overlay", "stream mismatch", inner)

	if !errors.Is(err, ErrTranscode) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("inner error lost: %v", err)
	}
	want := "transcode error: engine: overlay: stream mismatch: exit status 1"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapWithoutInnerError(t *testing.T) {
	err := Wrap(ErrValidation, "segment", "normalize", "no segments submitted", nil)
	want := "validation error: segment: normalize: no segments submitted"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrCleanup, "", "", "", nil)
	if err.Error() != "cleanup error: service failure" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestWrapNilMarkerDefaultsToTranscode(t *testing.T) {
	if err := Wrap(nil, "engine", "concat", "", nil); !errors.Is(err, ErrTranscode) {
		t.Fatalf("expected transcode marker, got %v", err)
	}
}

func TestIsClientError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrValidation, "a", "b", "c", nil), true},
		{Wrap(ErrNotFound, "a", "b", "c", nil), true},
		{Wrap(ErrTranscode, "a", "b", "c", nil), false},
		{Wrap(ErrTimeout, "a", "b", "c", nil), false},
		{fmt.Errorf("plain"), false},
	}
	for _, tc := range cases {
		if got := IsClientError(tc.err); got != tc.want {
			t.Errorf("IsClientError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestTimeoutDistinctFromTranscode(t *testing.T) {
	err := Wrap(ErrTimeout, "engine", "overlay", "exceeded 60s budget", nil)
	if errors.Is(err, ErrTranscode) {
		t.Fatal("timeout must not satisfy transcode marker")
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := context.Background()

	if _, ok := JobIDFromContext(ctx); ok {
		t.Fatal("empty context should carry no job id")
	}

	ctx = WithJobID(ctx, "job-1")
	ctx = WithPhase(ctx, "overlay")
	ctx = WithRequestID(ctx, "req-9")

	if id, ok := JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("job id = %q, %v", id, ok)
	}
	if phase, ok := PhaseFromContext(ctx); !ok || phase != "overlay" {
		t.Fatalf("phase = %q, %v", phase, ok)
	}
	if rid, ok := RequestIDFromContext(ctx); !ok || rid != "req-9" {
		t.Fatalf("request id = %q, %v", rid, ok)
	}

	// Empty values do not overwrite.
	if id, _ := JobIDFromContext(WithJobID(ctx, "")); id != "job-1" {
		t.Fatalf("empty job id overwrote: %q", id)
	}
}
