package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

// makeTestVideo renders a short synthetic clip for integration tests
func makeTestVideo(t *testing.T, dir string, seconds int) string {
	t.Helper()
	path := filepath.Join(dir, "test.mp4")
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", fmt.Sprintf("testsrc=duration=%d:size=320x240:rate=30", seconds),
		"-pix_fmt", "yuv420p", "-y", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}
	return path
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec, err := New(testLogger(), "ffmpeg", "ffprobe", 4, "")
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	if exec.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if exec.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}
}

func TestExecutorMissingBinary(t *testing.T) {
	if _, err := New(testLogger(), "ffmpeg-does-not-exist", "ffprobe-does-not-exist", 1, ""); err == nil {
		t.Error("expected error for missing binaries")
	}
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	video := makeTestVideo(t, dir, 2)

	exec, err := New(testLogger(), "ffmpeg", "ffprobe", 2, "")
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	info, err := exec.ProbeVideo(context.Background(), video)
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}

	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if info.Duration < 1.5 || info.Duration > 2.5 {
		t.Errorf("expected ~2s duration, got %v", info.Duration)
	}
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	exec, err := New(testLogger(), "ffmpeg", "ffprobe", 2, "")
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	if _, err := exec.ProbeVideo(context.Background(), "nonexistent.mp4"); err == nil {
		t.Error("ProbeVideo should fail for non-existent file")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.txt")
	os.WriteFile(invalid, []byte("not a video"), 0644)
	if _, err := exec.ProbeVideo(context.Background(), invalid); err == nil {
		t.Error("ProbeVideo should fail for non-video file")
	}
}

func TestExtractClip(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	video := makeTestVideo(t, dir, 2)

	exec, err := New(testLogger(), "ffmpeg", "ffprobe", 2, "")
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	out := filepath.Join(dir, "clip.mp4")
	err = exec.ExtractClip(context.Background(), video, ClipOptions{
		Start:    0.5,
		Duration: 1.0,
		Output:   out,
	})
	if err != nil {
		t.Fatalf("ExtractClip failed: %v", err)
	}

	info, err := exec.ProbeVideo(context.Background(), out)
	if err != nil {
		t.Fatalf("probing extracted clip: %v", err)
	}
	if info.Duration < 0.8 || info.Duration > 1.3 {
		t.Errorf("expected ~1s clip, got %v", info.Duration)
	}
}

func TestFilterBuilderChaining(t *testing.T) {
	fb := NewFilterBuilder()
	filter := fb.Scale(-2, 1920).CropCenter(1080, 1920).Build()

	expected := "scale=-2:1920,crop=1080:1920:(in_w-1080)/2:(in_h-1920)/2"
	if filter != expected {
		t.Errorf("expected %q, got %q", expected, filter)
	}
}

func TestFilterBuilderEmpty(t *testing.T) {
	if got := NewFilterBuilder().Build(); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestFilterBuilderPad(t *testing.T) {
	got := NewFilterBuilder().PadCenter(1080, 1920).Build()
	expected := "pad=1080:1920:(ow-iw)/2:(oh-ih)/2:black"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestFilterBuilderFades(t *testing.T) {
	got := NewFilterBuilder().FadeIn(0.3).FadeOut(15.7, 0.3).Build()
	expected := "fade=t=in:st=0:d=0.30,fade=t=out:st=15.70:d=0.30"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestFilterBuilderIgnoresInvalid(t *testing.T) {
	got := NewFilterBuilder().Scale(0, 1080).CropCenter(-1, 100).FadeIn(0).Build()
	if got != "" {
		t.Errorf("invalid filter args should be dropped, got %q", got)
	}
}

func TestEscapeText(t *testing.T) {
	got := EscapeText(`it's 100%: fine`)
	expected := `it\'s 100\%\: fine`
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestFieldAfter(t *testing.T) {
	line := "frame=  123 fps= 30 time=00:00:04.10 bitrate=900kbits/s speed=1.2x"

	if got := fieldAfter(line, "time="); got != "00:00:04.10" {
		t.Errorf("expected time token, got %q", got)
	}
	if got := fieldAfter(line, "speed="); got != "1.2x" {
		t.Errorf("expected speed token, got %q", got)
	}
	if got := fieldAfter(line, "missing="); got != "" {
		t.Errorf("expected empty for missing key, got %q", got)
	}
	if got := fieldAfter("time=", "time="); got != "" {
		t.Errorf("expected empty for trailing key, got %q", got)
	}
}

func TestEncodeProfiles(t *testing.T) {
	primary := PrimaryProfile()
	if primary.VideoCodec != "libx264" || primary.CRF != DefaultCRF {
		t.Errorf("unexpected primary profile: %+v", primary)
	}

	fallback := FallbackProfile()
	if fallback.VideoCodec != "" || fallback.Preset != "" {
		t.Errorf("fallback profile should leave codec choices to ffmpeg: %+v", fallback)
	}
}

func TestPresetFallsBackToDefault(t *testing.T) {
	e := &Executor{preset: "slow"}
	if got := e.Preset(); got != "slow" {
		t.Errorf("Preset() = %q, want configured slow", got)
	}

	e = &Executor{}
	if got := e.Preset(); got != DefaultPreset {
		t.Errorf("Preset() = %q, want default %q", got, DefaultPreset)
	}
}
