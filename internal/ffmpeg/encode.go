package ffmpeg

import (
	"context"
	"fmt"
)

// Encode performs the final render of input into output using the given
// profile. A zero-valued profile leaves codec selection to ffmpeg defaults.
func (e *Executor) Encode(ctx context.Context, input, output string, profile EncodeProfile, progressFunc ProgressFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Str("profile", profile.Name).
		Msg("encoding output")

	args := []string{"-i", input}

	if profile.VideoCodec != "" {
		args = append(args, "-c:v", profile.VideoCodec)
	}
	if profile.CRF > 0 {
		args = append(args, "-crf", fmt.Sprintf("%d", profile.CRF))
	}
	if profile.Preset != "" {
		args = append(args, "-preset", profile.Preset)
	}
	if profile.AudioCodec != "" {
		args = append(args, "-c:a", profile.AudioCodec)
	}

	args = append(args, "-movflags", "+faststart", output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("encode output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	e.logger.Info().Str("output", output).Msg("encode completed")
	return nil
}
