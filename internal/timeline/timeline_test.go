package timeline

import (
	"errors"
	"testing"

	"loom/internal/logging"
	"loom/internal/services"
)

func TestFlattenResolvesClipsInOrder(t *testing.T) {
	assets := []Asset{
		{ID: "intro", Source: "/media/intro.mp4"},
		{ID: "body", Source: "/media/body.mp4"},
	}
	entries := []Entry{
		{AssetID: "body", Start: 10, Duration: 5},
		{AssetID: "intro", Start: 0, Duration: 2.5},
	}

	clips, err := Flatten(assets, entries, logging.NewNop())
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	if clips[0].Source != "/media/body.mp4" || clips[1].Source != "/media/intro.mp4" {
		t.Fatalf("entry order not preserved: %+v", clips)
	}
	if clips[1].Duration != 2.5 {
		t.Fatalf("duration lost: %+v", clips[1])
	}
}

func TestFlattenSkipsUnresolvableEntries(t *testing.T) {
	assets := []Asset{
		{ID: "real", Source: "/media/real.mp4"},
		{ID: "empty", Source: "   "},
	}
	entries := []Entry{
		{AssetID: "missing", Start: 0, Duration: 1},
		{AssetID: "empty", Start: 0, Duration: 1},
		{AssetID: "real", Start: 0, Duration: 1},
	}

	clips, err := Flatten(assets, entries, logging.NewNop())
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if len(clips) != 1 || clips[0].Source != "/media/real.mp4" {
		t.Fatalf("expected only the resolvable clip, got %+v", clips)
	}
}

func TestFlattenValidation(t *testing.T) {
	assets := []Asset{{ID: "a", Source: "/m.mp4"}}
	cases := []struct {
		name    string
		entries []Entry
	}{
		{"no entries", nil},
		{"negative start", []Entry{{AssetID: "a", Start: -1, Duration: 1}}},
		{"zero duration", []Entry{{AssetID: "a", Start: 0, Duration: 0}}},
		{"all entries unresolvable", []Entry{{AssetID: "nope", Start: 0, Duration: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Flatten(assets, tc.entries, logging.NewNop())
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
