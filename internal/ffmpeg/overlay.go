package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// Drawtext burns a text overlay into the video using the given drawtext
// filter body. The caller supplies everything after "drawtext=".
func (e *Executor) Drawtext(ctx context.Context, input, output, filterBody string, progressFunc ProgressFunc) error {
	if input == "" {
		return fmt.Errorf("input path is required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}
	if filterBody == "" {
		return fmt.Errorf("drawtext filter is required")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Msg("applying text overlay")

	args := []string{
		"-i", input,
		"-vf", "drawtext=" + filterBody,
		"-c:v", DefaultVideoCodec,
		"-crf", fmt.Sprintf("%d", DefaultCRF),
		"-preset", DefaultPreset,
		"-c:a", "copy",
		output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("text overlay")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("text overlay failed: %w", err)
	}

	return nil
}

// EscapeText escapes a string for use inside a drawtext filter value
func EscapeText(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(text)
}
