package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/slopforge/internal/config"
	"github.com/keagan/slopforge/internal/ffmpeg"
	"github.com/keagan/slopforge/internal/generator"
	"github.com/keagan/slopforge/internal/jobqueue"
	"github.com/keagan/slopforge/internal/logging"
	"github.com/keagan/slopforge/internal/progress"
	"github.com/keagan/slopforge/pkg/util"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "slopforge",
	Short: "slopforge - short-form video batch generator",
	Long:  "Generates batches of vertical short-form videos by cutting, scoring, and recombining segments from a pool of source clips.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

var (
	numVideos  int
	useEffects bool
	useText    bool
	customText string
	audioFiles []string
	seed       int64
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	for _, cmd := range []*cobra.Command{generateCmd, enqueueCmd} {
		cmd.Flags().IntVarP(&numVideos, "num", "n", 0, "number of videos to generate (default from config)")
		cmd.Flags().BoolVar(&useEffects, "effects", false, "apply random visual effects")
		cmd.Flags().BoolVar(&useText, "text", false, "burn a caption into each video")
		cmd.Flags().StringVar(&customText, "caption", "", "custom caption text (default: random stock caption)")
		cmd.Flags().StringSliceVar(&audioFiles, "audio", nil, "background audio files to pick from")
	}
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time-based)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(statusCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [input clips...]",
	Short: "Generate a batch of videos from source clips",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		gen, err := buildGenerator(cfg)
		if err != nil {
			return err
		}

		n := numVideos
		if n <= 0 {
			n = cfg.Generator.NumVideos
		}

		opts := generator.Options{
			OutputDir:  cfg.OutputDir,
			NumVideos:  n,
			MinClips:   cfg.Generator.MinClips,
			MaxClips:   cfg.Generator.MaxClips,
			MinClipDur: cfg.Generator.MinClipDuration,
			MaxClipDur: cfg.Generator.MaxClipDuration,
			UseEffects: useEffects || cfg.Generator.UseEffects,
			UseText:    useText || cfg.Generator.UseText,
			CustomText: customText,
			AudioFiles: audioFiles,
			Seed:       seed,
		}
		if opts.CustomText == "" {
			opts.CustomText = cfg.Generator.CustomText
		}

		sink := progress.SinkFunc(func(percent int, message string) {
			log.Info().Int("percent", percent).Msg(message)
		})

		outputs, err := gen.Generate(cmd.Context(), args, opts, sink)
		if err != nil {
			return err
		}

		for _, out := range outputs {
			fmt.Println(out)
		}
		return nil
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the job queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		gen, err := buildGenerator(cfg)
		if err != nil {
			return err
		}

		store, err := jobqueue.Open(cfg.Worker.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		worker := jobqueue.NewWorker(log.Logger, store, gen, cfg)
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [input clips...]",
	Short: "Queue a batch generation job for the worker",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		// The worker runs later, possibly elsewhere; catch bad paths now.
		for _, input := range args {
			if !util.FileExists(input) {
				return fmt.Errorf("input not found: %s", input)
			}
		}

		store, err := jobqueue.Open(cfg.Worker.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		n := numVideos
		if n <= 0 {
			n = cfg.Generator.NumVideos
		}

		id, err := store.Enqueue(jobqueue.Params{
			InputPaths: args,
			NumVideos:  n,
			UseEffects: useEffects || cfg.Generator.UseEffects,
			UseText:    useText || cfg.Generator.UseText,
			CustomText: customText,
			AudioPaths: audioFiles,
		})
		if err != nil {
			return err
		}

		fmt.Println(id)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [job id]",
	Short: "Show the status of a queued job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		store, err := jobqueue.Open(cfg.Worker.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		job, err := store.Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("job:      %s\n", job.ID)
		fmt.Printf("status:   %s\n", job.Status)
		fmt.Printf("progress: %d%%\n", job.Progress)
		fmt.Printf("message:  %s\n", job.Message)
		for _, out := range job.OutputPaths {
			fmt.Printf("output:   %s\n", out)
		}
		return nil
	},
}

func buildGenerator(cfg *config.Config) (*generator.Generator, error) {
	exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath, cfg.FFmpeg.Threads, cfg.FFmpeg.Preset)
	if err != nil {
		return nil, err
	}

	if err := util.EnsureDir(cfg.WorkDir); err != nil {
		return nil, err
	}

	return generator.New(log.Logger, exec, cfg.WorkDir), nil
}

