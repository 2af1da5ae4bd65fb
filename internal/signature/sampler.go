package signature

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"

	"github.com/keagan/slopforge/internal/ffmpeg"
	"github.com/keagan/slopforge/internal/logging"
	"github.com/keagan/slopforge/pkg/util"
)

// FrameSampler produces mean color channel values for a frame sampled at a
// point in time. ok is false when the frame could not be read.
type FrameSampler interface {
	ChannelMeans(ctx context.Context, path string, at float64) (r, g, b float64, ok bool)
}

// thumbSize is the edge length frames are downscaled to before averaging.
// Channel means are scale-invariant, so a small thumbnail is enough.
const thumbSize = 64

// ExecutorSampler samples frames through the ffmpeg executor
type ExecutorSampler struct {
	logger zerolog.Logger
	exec   *ffmpeg.Executor
}

// NewExecutorSampler creates a frame sampler backed by ffmpeg
func NewExecutorSampler(logger zerolog.Logger, exec *ffmpeg.Executor) *ExecutorSampler {
	return &ExecutorSampler{
		logger: logging.Component(logger, "sampler"),
		exec:   exec,
	}
}

// ChannelMeans extracts one frame to a temp file, decodes it, and averages
// each color channel over a downscaled thumbnail.
func (s *ExecutorSampler) ChannelMeans(ctx context.Context, path string, at float64) (float64, float64, float64, bool) {
	framePath := filepath.Join(os.TempDir(), fmt.Sprintf("slopforge-frame-%d.jpg", time.Now().UnixNano()))
	defer util.CleanupFiles(framePath)

	if err := s.exec.ExtractFrame(ctx, path, at, framePath); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Float64("at", at).Msg("frame sample failed")
		return 0, 0, 0, false
	}

	file, err := os.Open(framePath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("frame open failed")
		return 0, 0, 0, false
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		s.logger.Warn().Err(err).Msg("frame decode failed")
		return 0, 0, 0, false
	}

	thumb := resize.Thumbnail(thumbSize, thumbSize, img, resize.Bilinear)

	bounds := thumb.Bounds()
	pixels := float64(bounds.Dx() * bounds.Dy())
	if pixels == 0 {
		return 0, 0, 0, false
	}

	var rSum, gSum, bSum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := thumb.At(x, y).RGBA()
			rSum += float64(r >> 8)
			gSum += float64(g >> 8)
			bSum += float64(b >> 8)
		}
	}

	return rSum / pixels, gSum / pixels, bSum / pixels, true
}
