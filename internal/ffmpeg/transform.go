package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// ApplyFilters re-encodes the input with a video filter chain applied
func (e *Executor) ApplyFilters(ctx context.Context, input, output string, filters []string, progressFunc ProgressFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}
	if len(filters) == 0 {
		return fmt.Errorf("filter chain cannot be empty")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Int("filters", len(filters)).
		Msg("applying filters")

	args := []string{
		"-i", input,
		"-vf", strings.Join(filters, ","),
		"-c:v", DefaultVideoCodec,
		"-crf", fmt.Sprintf("%d", DefaultCRF),
		"-preset", e.Preset(),
		"-c:a", "copy",
		output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("filter pass")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("filter pass failed: %w", err)
	}

	return nil
}
