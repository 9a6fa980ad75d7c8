package engine

import (
	"fmt"
	"os"
	"strings"

	"loom/internal/timeline"
)

// BuildTrimConcatGraph produces the filter graph for a trim+concat
// invocation. For each clip the video and audio streams are independently
// trimmed to [start, start+duration) and rebased to timestamp zero, then all
// trimmed pairs are concatenated into the [outv]/[outa] stream pair.
func BuildTrimConcatGraph(clips []timeline.Clip) string {
	var graph strings.Builder
	for i, clip := range clips {
		start := formatSeconds(clip.Start)
		duration := formatSeconds(clip.Duration)
		fmt.Fprintf(&graph, "[%d:v]trim=start=%s:duration=%s,setpts=PTS-STARTPTS[v%d];", i, start, duration, i)
		fmt.Fprintf(&graph, "[%d:a]atrim=start=%s:duration=%s,asetpts=PTS-STARTPTS[a%d];", i, start, duration, i)
	}
	for i := range clips {
		fmt.Fprintf(&graph, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=1[outv][outa]", len(clips))
	return graph.String()
}

// writeConcatManifest emits an ffconcat listing for the concat demuxer.
// Single quotes in paths are escaped per the demuxer's quoting rules.
func writeConcatManifest(path string, inputs []string) error {
	var manifest strings.Builder
	manifest.WriteString("ffconcat version 1.0\n")
	for _, input := range inputs {
		escaped := strings.ReplaceAll(input, "'", `'\''`)
		fmt.Fprintf(&manifest, "file '%s'\n", escaped)
	}
	return os.WriteFile(path, []byte(manifest.String()), 0o644)
}
