package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/slopforge/internal/config"
	"github.com/keagan/slopforge/internal/generator"
	"github.com/keagan/slopforge/internal/logging"
	"github.com/keagan/slopforge/internal/progress"
	"github.com/keagan/slopforge/pkg/util"
)

// Worker polls the store for queued jobs and runs them through the
// generator one at a time.
type Worker struct {
	logger   zerolog.Logger
	store    *Store
	gen      *generator.Generator
	cfg      *config.Config
	interval time.Duration
}

// NewWorker wires a worker to a store and generator.
func NewWorker(logger zerolog.Logger, store *Store, gen *generator.Generator, cfg *config.Config) *Worker {
	interval := time.Duration(cfg.Worker.PollInterval) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Worker{
		logger:   logging.Component(logger, "worker"),
		store:    store,
		gen:      gen,
		cfg:      cfg,
		interval: interval,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.runNext(ctx); err != nil && !errors.Is(err, ErrNoJob) {
			w.logger.Error().Err(err).Msg("job processing failed")
		}

		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runNext claims and processes a single job, if one is queued.
func (w *Worker) runNext(ctx context.Context) error {
	job, err := w.store.ClaimNext()
	if err != nil {
		return err
	}

	w.logger.Info().Str("job", job.ID).Int("inputs", len(job.Params.InputPaths)).Msg("processing job")

	started := time.Now()
	outputs, err := w.process(ctx, job)
	if err != nil {
		w.logger.Error().Err(err).Str("job", job.ID).Msg("job failed")
		if failErr := w.store.Fail(job.ID, err.Error()); failErr != nil {
			w.logger.Error().Err(failErr).Str("job", job.ID).Msg("could not record failure")
		}
		return err
	}

	if err := w.store.Finish(job.ID, outputs); err != nil {
		return fmt.Errorf("could not record completion of job %s: %w", job.ID, err)
	}
	w.logger.Info().
		Str("job", job.ID).
		Int("outputs", len(outputs)).
		Str("elapsed", util.FormatDuration(time.Since(started))).
		Msg("job finished")
	return nil
}

func (w *Worker) process(ctx context.Context, job *Job) ([]string, error) {
	workDir, err := os.MkdirTemp(w.cfg.WorkDir, "job-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create job workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	sink := progress.SinkFunc(func(percent int, message string) {
		if err := w.store.SetProgress(job.ID, percent, message); err != nil {
			w.logger.Warn().Err(err).Str("job", job.ID).Msg("progress update failed")
		}
	})

	opts := generator.Options{
		OutputDir:  filepath.Join(workDir, "outputs"),
		NumVideos:  job.Params.NumVideos,
		MinClips:   w.cfg.Generator.MinClips,
		MaxClips:   w.cfg.Generator.MaxClips,
		MinClipDur: w.cfg.Generator.MinClipDuration,
		MaxClipDur: w.cfg.Generator.MaxClipDuration,
		UseEffects: job.Params.UseEffects,
		UseText:    job.Params.UseText,
		CustomText: job.Params.CustomText,
		AudioFiles: job.Params.AudioPaths,
	}

	outputs, err := w.gen.Generate(ctx, job.Params.InputPaths, opts, sink)
	if err != nil {
		return nil, err
	}

	return w.publish(job.ID, outputs)
}

// publish moves rendered outputs into the job's slot under the store
// directory and returns their final paths.
func (w *Worker) publish(jobID string, outputs []string) ([]string, error) {
	destDir := filepath.Join(w.cfg.Worker.StoreDir, jobID)
	if err := util.EnsureDir(destDir); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	var published []string
	for _, src := range outputs {
		dest := filepath.Join(destDir, filepath.Base(src))
		if err := util.CopyFile(src, dest); err != nil {
			return nil, fmt.Errorf("failed to publish %s: %w", filepath.Base(src), err)
		}
		published = append(published, dest)
	}
	return published, nil
}
