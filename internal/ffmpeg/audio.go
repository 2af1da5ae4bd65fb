package ffmpeg

import (
	"context"
	"fmt"

	"github.com/keagan/slopforge/pkg/util"
)

// MuxAudio attaches an audio track to a video, looping the audio when it is
// shorter than the video and trimming when longer, so the track always
// matches the video duration exactly. The video stream is copied untouched.
func (e *Executor) MuxAudio(ctx context.Context, video, audio, output string, videoDuration float64, progressFunc ProgressFunc) error {
	if video == "" || audio == "" {
		return fmt.Errorf("video and audio paths are required")
	}
	if output == "" {
		return fmt.Errorf("output path is required")
	}
	if videoDuration <= 0 {
		return fmt.Errorf("invalid video duration: %f", videoDuration)
	}

	e.logger.Info().
		Str("video", video).
		Str("audio", audio).
		Str("output", output).
		Float64("duration", videoDuration).
		Msg("attaching audio track")

	// Looping the audio input unconditionally and cutting at the video
	// duration covers both the too-short and too-long cases in one pass.
	args := []string{
		"-i", video,
		"-stream_loop", "-1",
		"-i", audio,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", DefaultAudioCodec,
		"-t", util.FormatSeconds(videoDuration),
		output,
	}

	opts := RunOptions{
		Args:            args,
		ProgressHandler: progressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("audio mux")
		},
	}

	if err := e.Run(ctx, opts); err != nil {
		return fmt.Errorf("audio mux failed: %w", err)
	}

	return nil
}
