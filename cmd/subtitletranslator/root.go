package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"subtitletranslator/internal/app"
	"subtitletranslator/internal/config"
	"subtitletranslator/internal/logger"
)

// rootFlags holds flag values shared by every subcommand
type rootFlags struct {
	configFile string
	model      string
	skipBurn   bool
	verbose    bool
}

// newRootCommand builds the command tree: one subcommand per pipeline
// stage plus a default full-pipeline run
func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "subtitletranslator",
		Short:         "Transcribe, translate and burn subtitles for Russian-language videos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to YAML configuration file")
	cmd.PersistentFlags().StringVar(&flags.model, "model", "", "Override the chat model used for translation")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Enable debug-level logging")

	runCmd := newStageCommand(flags, "run", app.StepAll,
		"Run the full pipeline: transcribe, translate and burn")
	runCmd.Flags().BoolVar(&flags.skipBurn, "skip-burn", false, "Skip rendering subtitles into the video")

	cmd.AddCommand(
		runCmd,
		newStageCommand(flags, "transcribe", app.StepTranscribe,
			"Extract audio and produce the source-language SRT"),
		newStageCommand(flags, "translate", app.StepTranslate,
			"Translate an existing source SRT into English"),
		newStageCommand(flags, "burn", app.StepBurn,
			"Render the translated subtitles into the video"),
	)

	return cmd
}

// newStageCommand builds one subcommand that runs the named pipeline step
// against a single video path argument
func newStageCommand(flags *rootFlags, use, step, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <video>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd.Context(), flags, app.Options{
				VideoPath: args[0],
				Step:      step,
				SkipBurn:  flags.skipBurn,
			})
		},
	}
}

// runStage loads configuration, builds the application and runs it under
// a signal-aware context
func runStage(parent context.Context, flags *rootFlags, opts app.Options) error {
	cfg, err := loadConfiguration(flags)
	if err != nil {
		return err
	}

	zapLogger, err := buildLogger(flags.verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer zapLogger.Sync()

	application, err := app.NewApplication(cfg, opts, zapLogger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

// loadConfiguration reads the config file when given, otherwise falls back
// to environment variables, then applies command-line overrides
func loadConfiguration(flags *rootFlags) (*config.Configuration, error) {
	var cfg *config.Configuration
	var err error

	if flags.configFile != "" {
		cfg, err = config.NewConfigurationFromFile(flags.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	} else {
		cfg, err = config.NewConfigurationFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
		}
	}

	if flags.model != "" {
		cfg.SetChatModel(flags.model)
	}

	return cfg, nil
}

// buildLogger selects the log profile from the verbose flag
func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return logger.NewDevelopmentLogger()
	}
	return logger.NewProductionLogger()
}
