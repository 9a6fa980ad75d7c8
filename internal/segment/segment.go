package segment

import "strings"

// Kind classifies a submitted segment.
type Kind string

const (
	// KindVideo is a raw video payload that becomes the active base track.
	KindVideo Kind = "video"
	// KindNarration is synthesized speech audio overlaid onto the active video.
	KindNarration Kind = "narration"
	// KindUnknown is anything else on the wire; unknown segments are skipped.
	KindUnknown Kind = "unknown"
)

// ParseKind maps a wire-level segment type onto a Kind. Narration arrives as
// "tts" from submitters.
func ParseKind(value string) Kind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video":
		return KindVideo
	case "tts", "narration":
		return KindNarration
	default:
		return KindUnknown
	}
}

// Raw is one submitted segment description before normalization.
type Raw struct {
	OrderKey   int    `json:"id"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	Transcript string `json:"text,omitempty"`
}

// Segment is one normalized unit of media ready for composition.
type Segment struct {
	// OrderKey is used only for sorting, not as an identity. Duplicates are
	// allowed; ties keep submission order.
	OrderKey int
	Kind     Kind
	// Payload holds the decoded media bytes.
	Payload []byte
	// Ext is the container extension inferred from the payload's data: marker,
	// or the caller-supplied default.
	Ext string
	// Transcript is informational only and never affects composition.
	Transcript string
}
