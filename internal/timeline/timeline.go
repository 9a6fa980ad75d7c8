package timeline

import (
	"fmt"
	"log/slog"
	"strings"

	"loom/internal/logging"
	"loom/internal/services"
)

// Asset is one entry in the asset table a timeline is resolved against.
type Asset struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// Entry references an asset for a span of the timeline.
type Entry struct {
	AssetID  string  `json:"assetId"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Clip is the flattened, ephemeral trim unit handed to the engine. Clips are
// never persisted beyond the composition request.
type Clip struct {
	Source   string
	Start    float64
	Duration float64
}

// Flatten resolves timeline entries against the asset table, producing the
// ordered clip list for a trim+concat invocation.
//
// Entries referencing a missing asset or an asset without a source locator
// are skipped with a warning. Zero resolved clips is a validation error, as
// is a negative start or non-positive duration on an otherwise valid entry.
func Flatten(assets []Asset, entries []Entry, logger *slog.Logger) ([]Clip, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrValidation, "timeline", "flatten", "no timeline entries submitted", nil)
	}

	table := make(map[string]string, len(assets))
	for _, asset := range assets {
		table[asset.ID] = strings.TrimSpace(asset.Source)
	}

	clips := make([]Clip, 0, len(entries))
	for i, entry := range entries {
		source, ok := table[entry.AssetID]
		if !ok || source == "" {
			logger.Warn("skipping timeline entry without a resolvable source",
				logging.Int("entry", i),
				logging.String("asset_id", entry.AssetID),
			)
			continue
		}
		if entry.Start < 0 {
			return nil, services.Wrap(services.ErrValidation, "timeline", "flatten",
				fmt.Sprintf("entry %d has negative start %v", i, entry.Start), nil)
		}
		if entry.Duration <= 0 {
			return nil, services.Wrap(services.ErrValidation, "timeline", "flatten",
				fmt.Sprintf("entry %d has non-positive duration %v", i, entry.Duration), nil)
		}
		clips = append(clips, Clip{Source: source, Start: entry.Start, Duration: entry.Duration})
	}

	if len(clips) == 0 {
		return nil, services.Wrap(services.ErrValidation, "timeline", "flatten", "no clips resolved from timeline", nil)
	}
	return clips, nil
}
