package generator

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/keagan/slopforge/internal/compose"
	"github.com/keagan/slopforge/internal/ffmpeg"
	"github.com/keagan/slopforge/internal/ledger"
	"github.com/keagan/slopforge/internal/logging"
	"github.com/keagan/slopforge/internal/planner"
	"github.com/keagan/slopforge/internal/progress"
	"github.com/keagan/slopforge/internal/selector"
	"github.com/keagan/slopforge/internal/signature"
	"github.com/keagan/slopforge/pkg/util"
)

// Generator produces a batch of short vertical videos from a pool of
// source clips.
type Generator struct {
	logger  zerolog.Logger
	exec    *ffmpeg.Executor
	sampler signature.FrameSampler
	workDir string
}

// New builds a Generator that stages intermediate files under workDir.
func New(logger zerolog.Logger, exec *ffmpeg.Executor, workDir string) *Generator {
	log := logging.Component(logger, "generator")
	return &Generator{
		logger:  log,
		exec:    exec,
		sampler: signature.NewExecutorSampler(logger, exec),
		workDir: workDir,
	}
}

// Generate runs a full batch and returns the paths of the outputs it
// managed to render. Individual output failures are reported through the
// sink and skipped; the batch only errors when nothing could be produced.
func (g *Generator) Generate(ctx context.Context, inputs []string, opts Options, sink progress.Sink) ([]string, error) {
	tracker := progress.NewTracker(g.logger, sink)
	tracker.Report(0, "probing input clips")

	sources, err := g.probeInputs(ctx, inputs, tracker)
	if err != nil {
		return nil, err
	}

	if err := util.EnsureDir(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	opts = withDefaults(opts)
	rng := rand.New(rand.NewSource(opts.Seed))

	var sigs *signature.Index
	if len(sources) > 1 {
		tracker.Report(5, "building visual signatures")
		sigSources := lo.Map(sources, func(s compose.Source, _ int) signature.Source {
			return signature.Source{ID: s.ID, Path: s.Path, Duration: s.Duration}
		})
		sigs = signature.Build(ctx, sigSources, g.sampler, signature.DefaultSamples, g.logger)
	}

	clips := lo.Map(sources, func(s compose.Source, _ int) planner.Clip {
		return planner.Clip{ID: s.ID, Duration: s.Duration}
	})
	srcByID := lo.KeyBy(sources, func(s compose.Source) string { return s.ID })

	bounds := planner.Bounds{
		Target:      opts.Target,
		MinSegments: opts.MinClips,
		MaxSegments: opts.MaxClips,
		MinDuration: opts.MinClipDur,
		MaxDuration: opts.MaxClipDur,
	}
	plnr := planner.New(g.logger, rng, selector.New(rng, selector.DefaultTopN), bounds)
	pipeline := compose.New(g.logger, g.exec, rng, g.workDir)
	global := ledger.NewHistory()

	var outputs []string
	for i := 0; i < opts.NumVideos; i++ {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		sched := progress.NewSchedule(i, opts.NumVideos)
		tracker.Report(sched.Start(), fmt.Sprintf("planning video %d of %d", i+1, opts.NumVideos))

		plan, err := plnr.PlanOutput(clips, sigs, global, func(acquired, planned int) {
			tracker.Report(sched.Segment(acquired, planned), fmt.Sprintf("video %d: %d/%d segments", i+1, acquired, planned))
		})
		if err != nil {
			g.logger.Error().Err(err).Int("video", i+1).Msg("planning failed, skipping output")
			tracker.Report(sched.Done(), fmt.Sprintf("video %d skipped: %v", i+1, err))
			continue
		}

		outPath := filepath.Join(opts.OutputDir, fmt.Sprintf("output_%02d.mp4", i+1))
		rendered, err := pipeline.Render(ctx, plan, srcByID, compose.Options{
			OutputPath: outPath,
			Target:     opts.Target,
			UseEffects: opts.UseEffects,
			UseText:    opts.UseText,
			CustomText: opts.CustomText,
			AudioFiles: opts.AudioFiles,
			OutputNum:  i + 1,
		}, tracker, sched)
		if err != nil {
			g.logger.Error().Err(err).Int("video", i+1).Msg("render failed, skipping output")
			tracker.Report(sched.Done(), fmt.Sprintf("video %d failed: %v", i+1, err))
			continue
		}

		g.logger.Info().Str("output", rendered).Float64("duration", plan.Total).Msg("video complete")
		outputs = append(outputs, rendered)
	}

	if len(outputs) == 0 {
		return nil, ErrNoOutputs
	}

	tracker.Report(100, fmt.Sprintf("batch complete: %d of %d videos", len(outputs), opts.NumVideos))
	return outputs, nil
}

// probeInputs inspects every input file and keeps the ones ffprobe can
// read. Unreadable files are logged and skipped.
func (g *Generator) probeInputs(ctx context.Context, inputs []string, tracker *progress.Tracker) ([]compose.Source, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	var sources []compose.Source
	for i, path := range inputs {
		info, err := g.exec.ProbeVideo(ctx, path)
		if err != nil {
			g.logger.Warn().Err(err).Str("path", path).Msg("could not probe input, skipping")
			tracker.Report(tracker.Last(), fmt.Sprintf("skipping unreadable input %s", filepath.Base(path)))
			continue
		}
		sources = append(sources, compose.Source{
			ID:       fmt.Sprintf("clip_%03d", i),
			Path:     path,
			Width:    info.Width,
			Height:   info.Height,
			Duration: info.Duration,
		})
	}

	if len(sources) == 0 {
		return nil, ErrNoInput
	}

	g.logger.Info().Int("usable", len(sources)).Int("total", len(inputs)).Msg("inputs probed")
	return sources, nil
}

func withDefaults(opts Options) Options {
	if opts.NumVideos <= 0 {
		opts.NumVideos = 1
	}
	if opts.Target <= 0 {
		opts.Target = planner.DefaultBounds().Target
	}
	if opts.MinClips <= 0 {
		opts.MinClips = planner.DefaultBounds().MinSegments
	}
	if opts.MaxClips < opts.MinClips {
		opts.MaxClips = planner.DefaultBounds().MaxSegments
	}
	if opts.MinClipDur <= 0 {
		opts.MinClipDur = planner.DefaultBounds().MinDuration
	}
	if opts.MaxClipDur <= 0 {
		opts.MaxClipDur = planner.DefaultBounds().MaxDuration
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return opts
}
