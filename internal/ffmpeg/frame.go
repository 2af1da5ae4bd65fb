package ffmpeg

import (
	"context"
	"fmt"

	"github.com/keagan/slopforge/pkg/util"
)

// ExtractFrame writes a single frame sampled at the given time in seconds
func (e *Executor) ExtractFrame(ctx context.Context, input string, at float64, output string) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Debug().
		Str("input", input).
		Float64("at", at).
		Str("output", output).
		Msg("extracting frame")

	args := []string{
		"-ss", util.FormatSeconds(at),
		"-i", input,
		"-vframes", "1",
		"-q:v", "2",
		output,
	}

	opts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("frame extraction")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("frame extraction failed: %w", err)
	}

	return nil
}
