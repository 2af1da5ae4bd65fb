package compose

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/keagan/slopforge/internal/ffmpeg"
	"github.com/keagan/slopforge/internal/logging"
	"github.com/keagan/slopforge/internal/planner"
	"github.com/keagan/slopforge/internal/progress"
)

const (
	canvasWidth  = 1080
	canvasHeight = 1920

	// how far past the target duration the assembled video may run
	// before it gets trimmed back
	overrunTolerance = 1.0
)

// Source describes a probed input clip the pipeline can cut from.
type Source struct {
	ID       string
	Path     string
	Width    int
	Height   int
	Duration float64
}

// Options controls how a single output is rendered.
type Options struct {
	OutputPath string
	Target     float64
	UseEffects bool
	UseText    bool
	CustomText string
	CaptionPos string
	FontSize   int
	AudioFiles []string
	OutputNum  int
}

// Pipeline turns an output plan into a finished vertical video.
type Pipeline struct {
	logger zerolog.Logger
	exec   *ffmpeg.Executor
	rng    *rand.Rand
	tmpDir string
}

// New creates a pipeline that stages intermediate files under tmpDir.
func New(logger zerolog.Logger, exec *ffmpeg.Executor, rng *rand.Rand, tmpDir string) *Pipeline {
	return &Pipeline{
		logger: logging.Component(logger, "compose"),
		exec:   exec,
		rng:    rng,
		tmpDir: tmpDir,
	}
}

// Render builds the output described by plan from the given sources. It
// returns the final output path, or an error when no watchable video could
// be produced. Overlay and audio failures degrade the output rather than
// abandoning it; encode failures on both profiles abandon it.
func (p *Pipeline) Render(ctx context.Context, plan *planner.OutputPlan, sources map[string]Source, opts Options, tracker *progress.Tracker, sched progress.Schedule) (string, error) {
	stage, err := os.MkdirTemp(p.tmpDir, "compose-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	segments, err := p.cutSegments(ctx, plan, sources, opts, stage)
	if err != nil {
		return "", err
	}
	total := 0.0
	for _, seg := range segments {
		total += seg.duration
	}
	tracker.Report(sched.Effects(), "segments cut")

	// Extension and fades key off the surviving segments, not the plan:
	// a dropped segment must not donate its duration to another file.
	last := len(segments) - 1
	if plan.ExtendBy > 0 {
		extended := filepath.Join(stage, "extended.mp4")
		extendedDur := segments[last].duration + plan.ExtendBy
		if err := p.exec.LoopToDuration(ctx, segments[last].path, extended, extendedDur); err != nil {
			p.logger.Warn().Err(err).Msg("loop extension failed, output will run short")
		} else {
			segments[last] = cutSegment{path: extended, duration: extendedDur}
			total += plan.ExtendBy
		}
	}

	if opts.UseEffects {
		p.applyEdgeFades(ctx, segments, stage)
	}

	inputs := make([]string, len(segments))
	for i, seg := range segments {
		inputs[i] = seg.path
	}
	assembled := filepath.Join(stage, "assembled.mp4")
	err = p.exec.Concat(ctx, ffmpeg.ConcatOptions{
		Inputs:   inputs,
		Output:   assembled,
		ReEncode: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to assemble segments: %w", err)
	}

	current := assembled
	if opts.Target > 0 && total > opts.Target+overrunTolerance {
		trimmed := filepath.Join(stage, "trimmed.mp4")
		if err := p.exec.Trim(ctx, current, trimmed, opts.Target); err != nil {
			p.logger.Warn().Err(err).Msg("trim failed, keeping overlong cut")
		} else {
			current = trimmed
			total = opts.Target
		}
	}

	if opts.UseText {
		if out, ok := p.applyCaption(ctx, current, opts, stage); ok {
			current = out
		} else {
			tracker.Report(sched.Overlay(), "caption overlay skipped")
		}
	}
	tracker.Report(sched.Overlay(), "overlay done")

	if len(opts.AudioFiles) > 0 {
		audio := opts.AudioFiles[p.rng.Intn(len(opts.AudioFiles))]
		withAudio := filepath.Join(stage, "with-audio.mp4")
		if err := p.exec.MuxAudio(ctx, current, audio, withAudio, total, nil); err != nil {
			p.logger.Warn().Err(err).Str("audio", audio).Msg("audio mux failed, output will be silent")
			tracker.Report(sched.Audio(), "audio skipped")
		} else {
			current = withAudio
			tracker.Report(sched.Audio(), "audio added")
		}
	}

	tracker.Report(sched.Render(), "encoding")
	if err := p.encodeFinal(ctx, current, opts.OutputPath); err != nil {
		return "", err
	}
	tracker.Report(sched.Done(), "output ready")

	return opts.OutputPath, nil
}

// cutSegment is one extracted segment file and its duration. Durations
// travel with the files so dropped segments cannot desync the two.
type cutSegment struct {
	path     string
	duration float64
}

// cutSegments extracts every planned segment, normalizing each to the
// 1080x1920 canvas and rolling per-segment effects. A segment whose
// effect pass fails is retried without the effect; one that fails
// outright is dropped from the cut.
func (p *Pipeline) cutSegments(ctx context.Context, plan *planner.OutputPlan, sources map[string]Source, opts Options, stage string) ([]cutSegment, error) {
	var cut []cutSegment

	for i, seg := range plan.Segments {
		src, ok := sources[seg.ClipID]
		if !ok {
			p.logger.Warn().Str("clip", seg.ClipID).Msg("planned clip missing from source set")
			continue
		}

		base := normalizeFilters(src.Width, src.Height)
		effect := EffectNone
		if opts.UseEffects {
			effect = pickEffect(p.rng)
		}

		out := filepath.Join(stage, fmt.Sprintf("seg_%03d.mp4", i))
		filters := append(append([]string{}, base...), effectFilters(effect)...)

		err := p.extractSegment(ctx, src.Path, out, seg, filters)
		if err != nil && effect != EffectNone {
			p.logger.Warn().
				Err(err).
				Str("effect", effect.String()).
				Str("clip", seg.ClipID).
				Msg("effect pass failed, retrying plain")
			err = p.extractSegment(ctx, src.Path, out, seg, base)
		}
		if err != nil {
			p.logger.Warn().Err(err).Str("clip", seg.ClipID).Msg("segment extraction failed, dropping segment")
			continue
		}

		cut = append(cut, cutSegment{path: out, duration: seg.Duration})
	}

	if len(cut) == 0 {
		return nil, fmt.Errorf("no segments could be extracted")
	}
	return cut, nil
}

func (p *Pipeline) extractSegment(ctx context.Context, input, output string, seg planner.SegmentChoice, filters []string) error {
	return p.exec.ExtractClip(ctx, input, ffmpeg.ClipOptions{
		Start:    seg.Start,
		Duration: seg.Duration,
		Output:   output,
		Filters:  filters,
	})
}

// applyEdgeFades fades the first segment in and the last segment out.
// Failures keep the unfaded segment in place.
func (p *Pipeline) applyEdgeFades(ctx context.Context, segments []cutSegment, stage string) {
	faded := filepath.Join(stage, "fade-in.mp4")
	fadeIn := ffmpeg.NewFilterBuilder().FadeIn(edgeFadeDuration).BuildAll()
	if err := p.exec.ApplyFilters(ctx, segments[0].path, faded, fadeIn, nil); err != nil {
		p.logger.Warn().Err(err).Msg("fade-in pass failed")
	} else {
		segments[0].path = faded
	}

	last := len(segments) - 1
	lastDur := segments[last].duration
	if lastDur <= edgeFadeDuration {
		return
	}

	fadedOut := filepath.Join(stage, "fade-out.mp4")
	fadeOut := ffmpeg.NewFilterBuilder().FadeOut(lastDur-edgeFadeDuration, edgeFadeDuration).BuildAll()
	if err := p.exec.ApplyFilters(ctx, segments[last].path, fadedOut, fadeOut, nil); err != nil {
		p.logger.Warn().Err(err).Msg("fade-out pass failed")
	} else {
		segments[last].path = fadedOut
	}
}

// applyCaption burns a caption into the video, falling back through
// progressively plainer drawtext styles. Returns false when every tier
// fails.
func (p *Pipeline) applyCaption(ctx context.Context, input string, opts Options, stage string) (string, bool) {
	text := pickCaption(p.rng, opts.CustomText, opts.OutputNum)
	out := filepath.Join(stage, "captioned.mp4")

	for i, body := range captionTiers(text, opts.FontSize, opts.CaptionPos) {
		if err := p.exec.Drawtext(ctx, input, out, body, nil); err != nil {
			p.logger.Warn().Err(err).Int("tier", i).Msg("drawtext tier failed")
			continue
		}
		return out, true
	}

	p.logger.Warn().Str("text", text).Msg("all caption tiers failed, skipping overlay")
	return input, false
}

// encodeFinal writes the deliverable with the primary profile, retrying
// once with the fallback profile before giving up on the output.
func (p *Pipeline) encodeFinal(ctx context.Context, input, output string) error {
	primary := ffmpeg.PrimaryProfile()
	primary.Preset = p.exec.Preset()
	if err := p.exec.Encode(ctx, input, output, primary, nil); err == nil {
		return nil
	} else {
		p.logger.Warn().Err(err).Msg("primary encode failed, trying fallback profile")
	}

	if err := p.exec.Encode(ctx, input, output, ffmpeg.FallbackProfile(), nil); err != nil {
		return fmt.Errorf("both encode profiles failed: %w", err)
	}
	return nil
}

// normalizeFilters maps an arbitrary source geometry onto the vertical
// canvas. Portrait sources fill the frame and crop the excess; landscape
// sources fill the width and letterbox the rest.
func normalizeFilters(width, height int) []string {
	fb := ffmpeg.NewFilterBuilder()

	if height > width {
		scaledWidth := float64(width) * canvasHeight / float64(height)
		if scaledWidth < canvasWidth {
			fb.Scale(canvasWidth, -2)
		} else {
			fb.Scale(-2, canvasHeight)
		}
		fb.CropCenter(canvasWidth, canvasHeight)
		return fb.BuildAll()
	}

	fb.Scale(canvasWidth, -2)
	fb.PadCenter(canvasWidth, canvasHeight)
	return fb.BuildAll()
}
