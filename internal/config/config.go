package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir   string `yaml:"work_dir"`
	OutputDir string `yaml:"output_dir"`

	// Batch generation settings
	Generator GeneratorConfig `yaml:"generator"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Job worker settings
	Worker WorkerConfig `yaml:"worker"`
}

type GeneratorConfig struct {
	NumVideos       int     `yaml:"num_videos"`
	MinClips        int     `yaml:"min_clips"`
	MaxClips        int     `yaml:"max_clips"`
	MinClipDuration float64 `yaml:"min_clip_duration"`
	MaxClipDuration float64 `yaml:"max_clip_duration"`
	UseEffects      bool    `yaml:"use_effects"`
	UseText         bool    `yaml:"use_text"`
	CustomText      string  `yaml:"custom_text"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
}

type WorkerConfig struct {
	DBPath       string `yaml:"db_path"`
	StoreDir     string `yaml:"store_dir"`
	PollInterval int    `yaml:"poll_interval"` // seconds
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:   "./work",
		OutputDir: "./outputs",
		Generator: GeneratorConfig{
			NumVideos:       5,
			MinClips:        8,
			MaxClips:        12,
			MinClipDuration: 1.5,
			MaxClipDuration: 3.0,
			UseEffects:      false,
			UseText:         false,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    4,
			Preset:     "fast",
		},
		Worker: WorkerConfig{
			DBPath:       "./work/jobs.db",
			StoreDir:     "./store",
			PollInterval: 10,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".slopforge", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
