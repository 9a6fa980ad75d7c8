package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"loom/internal/jobs"
	"loom/internal/logging"
	"loom/internal/segment"
	"loom/internal/services"
	"loom/internal/workdir"
)

// foldState is the accumulator threaded through the segment fold. The active
// video is the base every subsequent narration overlay uses; it only ever
// moves forward to a newer video, never back.
type foldState struct {
	activeVideo string
	chunks      []string
}

// foldSegments runs the active-media state machine over the ordered
// sequence. Each video segment unconditionally becomes the active video;
// each narration segment overlays onto the current active video (synthesized
// lazily if narration arrives first) and appends one chunk to the ordered
// output list. The first segment-level or engine-level error aborts the fold.
func (r *Runner) foldSegments(ctx context.Context, logger *slog.Logger, wd *workdir.Dir, job *jobs.Job, segments []segment.Segment) ([]string, error) {
	state := foldState{}
	for i, seg := range segments {
		next, err := r.processSegment(ctx, logger, wd, job, state, i, seg)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state.chunks, nil
}

func (r *Runner) processSegment(ctx context.Context, logger *slog.Logger, wd *workdir.Dir, job *jobs.Job, state foldState, index int, seg segment.Segment) (foldState, error) {
	segPath := wd.Join(fmt.Sprintf("segment-%03d-%d%s", index, seg.OrderKey, seg.Ext))
	if err := os.WriteFile(segPath, seg.Payload, 0o644); err != nil {
		return state, services.Wrap(services.ErrSegment, "compose", "write segment",
			fmt.Sprintf("segment %d", seg.OrderKey), err)
	}

	switch seg.Kind {
	case segment.KindVideo:
		state.activeVideo = segPath
		r.appendSteps(ctx, job, fmt.Sprintf("activated video %d", seg.OrderKey))
		logger.Debug("active video replaced",
			logging.Int("order_key", seg.OrderKey),
			logging.String("path", segPath),
		)
		return state, nil

	case segment.KindNarration:
		if state.activeVideo == "" {
			blank, err := r.synthesizeDefault(ctx, wd)
			if err != nil {
				return state, err
			}
			state.activeVideo = blank
			r.appendSteps(ctx, job, "synthesized default video")
			logger.Info("narration before any video; synthesized default base",
				logging.Int("order_key", seg.OrderKey),
			)
		}
		chunkPath := wd.Join(fmt.Sprintf("chunk-%03d%s", index, r.cfg.Engine.DefaultExtension))
		if err := r.engine.Overlay(ctx, state.activeVideo, segPath, chunkPath); err != nil {
			return state, err
		}
		state.chunks = append(state.chunks, chunkPath)
		r.appendSteps(ctx, job, fmt.Sprintf("overlaid narration %d", seg.OrderKey))
		return state, nil

	default:
		// Normalization drops unknown kinds before the fold runs.
		return state, nil
	}
}

func (r *Runner) synthesizeDefault(ctx context.Context, wd *workdir.Dir) (string, error) {
	blankPath := wd.Join("blank" + r.cfg.Engine.DefaultExtension)
	if err := r.engine.SynthesizeBlank(ctx, r.cfg.Engine.BlankSeconds, r.cfg.Engine.BlankResolution, blankPath); err != nil {
		return "", err
	}
	return blankPath, nil
}
