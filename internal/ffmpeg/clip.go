package ffmpeg

import (
	"context"
	"fmt"

	"github.com/keagan/slopforge/pkg/util"
)

// ClipOptions defines clip extraction parameters. Times are in seconds.
type ClipOptions struct {
	Start        float64
	Duration     float64
	Output       string
	Filters      []string
	VideoCodec   string
	AudioCodec   string
	CRF          int
	Preset       string
	ProgressFunc ProgressFunc
}

// ExtractClip cuts a segment from a video, re-encoding so that filter
// chains and exact cut points apply.
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	if opts.Duration <= 0 {
		return fmt.Errorf("invalid clip duration: %f", opts.Duration)
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Float64("start", opts.Start).
		Float64("duration", opts.Duration).
		Msg("extracting clip")

	args := []string{
		"-ss", util.FormatSeconds(opts.Start),
		"-i", input,
		"-t", util.FormatSeconds(opts.Duration),
	}

	if len(opts.Filters) > 0 {
		fb := NewFilterBuilder()
		for _, f := range opts.Filters {
			fb.Custom(f)
		}
		args = append(args, "-vf", fb.Build())
	}

	codec := opts.VideoCodec
	if codec == "" {
		codec = DefaultVideoCodec
	}
	audioCodec := opts.AudioCodec
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = e.Preset()
	}

	args = append(args,
		"-c:v", codec,
		"-crf", fmt.Sprintf("%d", crf),
		"-preset", preset,
		"-c:a", audioCodec,
		opts.Output,
	)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	return nil
}

// LoopToDuration repeats the input until it covers exactly the requested
// duration in seconds. Used for rendering-time extension of a plan's final
// segment.
func (e *Executor) LoopToDuration(ctx context.Context, input, output string, duration float64) error {
	if duration <= 0 {
		return fmt.Errorf("invalid loop duration: %f", duration)
	}

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Float64("duration", duration).
		Msg("looping clip to duration")

	args := []string{
		"-stream_loop", "-1",
		"-i", input,
		"-t", util.FormatSeconds(duration),
		"-c:v", DefaultVideoCodec,
		"-crf", fmt.Sprintf("%d", DefaultCRF),
		"-preset", e.Preset(),
		"-c:a", DefaultAudioCodec,
		output,
	}

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("loop extension")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("loop extension failed: %w", err)
	}

	return nil
}

// Trim re-encodes the leading portion of the input up to duration seconds
func (e *Executor) Trim(ctx context.Context, input, output string, duration float64) error {
	return e.ExtractClip(ctx, input, ClipOptions{
		Start:    0,
		Duration: duration,
		Output:   output,
	})
}
