package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}

	if cfg.Generator.NumVideos != 5 {
		t.Errorf("expected default num_videos 5, got %d", cfg.Generator.NumVideos)
	}
	if cfg.Generator.MinClips != 8 || cfg.Generator.MaxClips != 12 {
		t.Errorf("expected default clip counts 8/12, got %d/%d", cfg.Generator.MinClips, cfg.Generator.MaxClips)
	}
	if cfg.Generator.MinClipDuration != 1.5 || cfg.Generator.MaxClipDuration != 3.0 {
		t.Errorf("expected default clip durations 1.5/3.0, got %v/%v",
			cfg.Generator.MinClipDuration, cfg.Generator.MaxClipDuration)
	}
	if cfg.FFmpeg.BinaryPath != "ffmpeg" {
		t.Errorf("expected default ffmpeg binary, got %q", cfg.FFmpeg.BinaryPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
output_dir: /tmp/renders
generator:
  num_videos: 3
  use_effects: true
worker:
  poll_interval: 30
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OutputDir != "/tmp/renders" {
		t.Errorf("expected output_dir override, got %q", cfg.OutputDir)
	}
	if cfg.Generator.NumVideos != 3 {
		t.Errorf("expected num_videos 3, got %d", cfg.Generator.NumVideos)
	}
	if !cfg.Generator.UseEffects {
		t.Error("expected use_effects true")
	}
	if cfg.Worker.PollInterval != 30 {
		t.Errorf("expected poll_interval 30, got %d", cfg.Worker.PollInterval)
	}

	// untouched keys keep their defaults
	if cfg.Generator.MinClips != 8 {
		t.Errorf("expected untouched min_clips default, got %d", cfg.Generator.MinClips)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := defaultConfig()
	cfg.Generator.CustomText = "follow for more"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Generator.CustomText != "follow for more" {
		t.Errorf("expected round-tripped custom text, got %q", loaded.Generator.CustomText)
	}
}

func TestConfigContext(t *testing.T) {
	cfg := defaultConfig()
	cfg.WorkDir = "/custom/work"

	ctx := WithConfig(context.Background(), cfg)
	got := FromContext(ctx)
	if got.WorkDir != "/custom/work" {
		t.Errorf("expected config from context, got %q", got.WorkDir)
	}

	// a bare context yields defaults, never nil
	fallback := FromContext(context.Background())
	if fallback == nil || fallback.WorkDir != "./work" {
		t.Errorf("expected default config fallback, got %+v", fallback)
	}
}
