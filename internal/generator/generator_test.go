package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/keagan/slopforge/internal/ffmpeg"
	"github.com/keagan/slopforge/internal/progress"
)

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	executor, err := ffmpeg.New(logger, "ffmpeg", "ffprobe", 2, "")
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return New(logger, executor, t.TempDir())
}

func TestGenerateNoInputs(t *testing.T) {
	skipIfNoFFmpeg(t)
	gen := newTestGenerator(t)

	_, err := gen.Generate(context.Background(), nil, Options{}, progress.Discard)
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func TestGenerateAllInputsUnreadable(t *testing.T) {
	skipIfNoFFmpeg(t)
	gen := newTestGenerator(t)

	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.mp4")
	os.WriteFile(bogus, []byte("not a video"), 0644)

	inputs := []string{filepath.Join(dir, "missing.mp4"), bogus}
	_, err := gen.Generate(context.Background(), inputs, Options{OutputDir: dir}, progress.Discard)
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func makeTestVideo(t *testing.T, path string, seconds int) {
	t.Helper()
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", fmt.Sprintf("testsrc=duration=%d:size=320x240:rate=30", seconds),
		"-pix_fmt", "yuv420p", "-y", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}
}

func TestGenerateSkipsCorruptInput(t *testing.T) {
	skipIfNoFFmpeg(t)
	gen := newTestGenerator(t)

	dir := t.TempDir()
	good1 := filepath.Join(dir, "good1.mp4")
	good2 := filepath.Join(dir, "good2.mp4")
	makeTestVideo(t, good1, 20)
	makeTestVideo(t, good2, 20)

	corrupt := filepath.Join(dir, "corrupt.mp4")
	if err := os.WriteFile(corrupt, []byte("definitely not mpeg data"), 0644); err != nil {
		t.Fatal(err)
	}

	outputs, err := gen.Generate(context.Background(), []string{good1, corrupt, good2}, Options{
		OutputDir: filepath.Join(dir, "out"),
		NumVideos: 1,
		Seed:      17,
	}, progress.Discard)
	if err != nil {
		t.Fatalf("batch should survive one corrupt input: %v", err)
	}

	if len(outputs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(outputs))
	}
	if _, err := os.Stat(outputs[0]); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestWithDefaults(t *testing.T) {
	opts := withDefaults(Options{})

	if opts.NumVideos != 1 {
		t.Errorf("expected default 1 video, got %d", opts.NumVideos)
	}
	if opts.Target != 16.0 {
		t.Errorf("expected default target 16, got %v", opts.Target)
	}
	if opts.MinClips != 8 || opts.MaxClips != 12 {
		t.Errorf("expected default segment counts 8/12, got %d/%d", opts.MinClips, opts.MaxClips)
	}
	if opts.MinClipDur != 1.5 || opts.MaxClipDur != 3.0 {
		t.Errorf("expected default durations 1.5/3.0, got %v/%v", opts.MinClipDur, opts.MaxClipDur)
	}
	if opts.Seed == 0 {
		t.Error("expected a time-based seed")
	}
}

func TestWithDefaultsKeepsExplicit(t *testing.T) {
	opts := withDefaults(Options{NumVideos: 2, Target: 30.0, Seed: 1234})

	if opts.NumVideos != 2 || opts.Target != 30.0 || opts.Seed != 1234 {
		t.Errorf("explicit options must survive: %+v", opts)
	}
}
