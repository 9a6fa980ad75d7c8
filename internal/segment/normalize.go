package segment

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"loom/internal/logging"
	"loom/internal/services"
)

// videoExtensions maps data: marker subtypes onto container extensions.
var videoExtensions = map[string]string{
	"mp4":        ".mp4",
	"webm":       ".webm",
	"quicktime":  ".mov",
	"x-matroska": ".mkv",
}

// audioExtension is the canonical extension for narration payloads.
const audioExtension = ".mp3"

// Normalize decodes and orders a batch of submitted segments.
//
// The returned sequence is sorted by order key ascending with a stable sort,
// so equal keys keep their submission order. Segments with an unknown type
// are skipped with a warning rather than failing the batch. An empty batch or
// an entry without content is a validation error; a payload that fails to
// decode aborts the batch as a segment processing error.
func Normalize(raws []Raw, defaultExt string, logger *slog.Logger) ([]Segment, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(raws) == 0 {
		return nil, services.Wrap(services.ErrValidation, "segment", "normalize", "no segments submitted", nil)
	}

	ordered := make([]Raw, len(raws))
	copy(ordered, raws)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderKey < ordered[j].OrderKey
	})

	segments := make([]Segment, 0, len(ordered))
	for _, raw := range ordered {
		if strings.TrimSpace(raw.Type) == "" {
			return nil, services.Wrap(services.ErrValidation, "segment", "normalize",
				fmt.Sprintf("segment %d has no type", raw.OrderKey), nil)
		}
		if strings.TrimSpace(raw.Content) == "" {
			return nil, services.Wrap(services.ErrValidation, "segment", "normalize",
				fmt.Sprintf("segment %d has no content", raw.OrderKey), nil)
		}

		kind := ParseKind(raw.Type)
		if kind == KindUnknown {
			logger.Warn("skipping segment with unknown type",
				logging.Int("order_key", raw.OrderKey),
				logging.String("type", raw.Type),
			)
			continue
		}

		payload, ext, err := decodePayload(raw.Content, kind, defaultExt)
		if err != nil {
			return nil, services.Wrap(services.ErrSegment, "segment", "decode",
				fmt.Sprintf("segment %d", raw.OrderKey), err)
		}

		segments = append(segments, Segment{
			OrderKey:   raw.OrderKey,
			Kind:       kind,
			Payload:    payload,
			Ext:        ext,
			Transcript: raw.Transcript,
		})
	}

	return segments, nil
}

// decodePayload strips an optional data:<mime>;base64, marker, decodes the
// remainder, and picks a file extension from the marker's subtype.
func decodePayload(content string, kind Kind, defaultExt string) ([]byte, string, error) {
	ext := defaultExt
	if kind == KindNarration {
		ext = audioExtension
	}

	encoded := content
	if rest, ok := strings.CutPrefix(content, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data marker")
		}
		encoded = data
		if mimeExt := extensionForMime(meta); mimeExt != "" {
			ext = mimeExt
		}
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	if len(payload) == 0 {
		return nil, "", fmt.Errorf("empty payload")
	}
	return payload, ext, nil
}

// extensionForMime resolves "video/mp4;base64"-style markers to an extension.
// Unknown subtypes return "" so the caller default applies.
func extensionForMime(meta string) string {
	mimeType, _, _ := strings.Cut(meta, ";")
	major, subtype, found := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), "/")
	if !found {
		return ""
	}
	switch major {
	case "video":
		return videoExtensions[subtype]
	case "audio":
		return audioExtension
	default:
		return ""
	}
}
