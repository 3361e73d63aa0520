package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"subtitletranslator/internal/config"
	"subtitletranslator/internal/logger"
	"subtitletranslator/internal/planner"
	"subtitletranslator/internal/splitter"
	"subtitletranslator/internal/subtitle"
	"subtitletranslator/internal/transcoder"
	"subtitletranslator/internal/transcriber"
	"subtitletranslator/internal/translator"
)

// Pipeline steps
const (
	StepAll        = "all"
	StepTranscribe = "transcribe"
	StepTranslate  = "translate"
	StepBurn       = "burn"
)

// Options selects the input video and which pipeline stages to run
type Options struct {
	VideoPath string
	Step      string
	SkipBurn  bool
}

// layout is the on-disk structure for one video's outputs. The source
// transcript is shared across runs; each run gets its own directory.
type layout struct {
	outputsDir string // outputs/<video-stem>
	sourceSRT  string // outputs/<video-stem>/source.srt
	cacheDir   string // outputs/<video-stem>/chunks
	runDir     string // outputs/<video-stem>/run_<timestamp>
	outputSRT  string // <runDir>/improved.srt
	outputMP4  string // <runDir>/subtitled.mp4
	reportPath string // <runDir>/report.json
}

// Application wires the pipeline components and runs the requested stages
type Application struct {
	config     *config.Configuration
	opts       Options
	zapLogger  *zap.Logger
	transcoder *transcoder.Transcoder
	layout     layout

	// degradation carried into the run report
	droppedChunks   int
	sourceEntries   int
	finalEntries    int
	retryRounds     int
	residualIndexes []string
}

// NewApplication creates an application instance, validating the
// configuration the requested step depends on. Missing binaries or
// credentials are configuration errors, reported once, before any work.
func NewApplication(cfg *config.Configuration, opts Options, zapLogger *zap.Logger) (*Application, error) {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	if _, err := os.Stat(opts.VideoPath); err != nil {
		return nil, fmt.Errorf("video file not found: %s", opts.VideoPath)
	}

	switch opts.Step {
	case StepAll, StepTranscribe, StepTranslate, StepBurn:
	default:
		return nil, fmt.Errorf("unknown step %q (expected all, transcribe, translate or burn)", opts.Step)
	}

	app := &Application{
		config:    cfg,
		opts:      opts,
		zapLogger: zapLogger,
	}

	if stepNeedsTranscoder(opts.Step) {
		tc, err := transcoder.NewTranscoderWithLogger(cfg.GetFFmpegPath(), cfg.GetFFprobePath(), zapLogger)
		if err != nil {
			return nil, fmt.Errorf("transcoder unavailable: %w", err)
		}
		app.transcoder = tc
	}

	if stepNeedsAPIKey(opts.Step) && cfg.GetAPIKey() == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set; export it or add openai.api_key to the config file")
	}

	app.layout = resolveLayout(opts.VideoPath, time.Now())
	return app, nil
}

// stepNeedsTranscoder reports whether the step invokes ffmpeg/ffprobe
func stepNeedsTranscoder(step string) bool {
	return step == StepAll || step == StepTranscribe || step == StepBurn
}

// stepNeedsAPIKey reports whether the step calls the OpenAI API
func stepNeedsAPIKey(step string) bool {
	return step == StepAll || step == StepTranscribe || step == StepTranslate
}

// resolveLayout computes the output paths for a video and run timestamp
func resolveLayout(videoPath string, now time.Time) layout {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outputsDir := filepath.Join(filepath.Dir(videoPath), "outputs", stem)
	runDir := filepath.Join(outputsDir, "run_"+now.Format("20060102_150405"))

	return layout{
		outputsDir: outputsDir,
		sourceSRT:  filepath.Join(outputsDir, "source.srt"),
		cacheDir:   filepath.Join(outputsDir, "chunks"),
		runDir:     runDir,
		outputSRT:  filepath.Join(runDir, "improved.srt"),
		outputMP4:  filepath.Join(runDir, "subtitled.mp4"),
		reportPath: filepath.Join(runDir, "report.json"),
	}
}

// Run executes the requested pipeline stages in order
func (app *Application) Run(ctx context.Context) error {
	app.zapLogger.Info("starting subtitle pipeline",
		zap.String("video", app.opts.VideoPath),
		zap.String("step", app.opts.Step),
		zap.String("run_dir", app.layout.runDir))

	if err := os.MkdirAll(app.layout.outputsDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	step := app.opts.Step

	if step == StepAll || step == StepTranscribe {
		if err := app.runTranscribeStage(ctx); err != nil {
			return fmt.Errorf("transcription stage failed: %w", err)
		}
	}
	if step == StepTranscribe {
		app.zapLogger.Info("transcription complete",
			zap.String("source_srt", app.layout.sourceSRT))
		return nil
	}

	if step == StepAll || step == StepTranslate {
		if err := app.runTranslateStage(ctx); err != nil {
			return fmt.Errorf("translation stage failed: %w", err)
		}
	}

	if step == StepAll || step == StepBurn {
		if err := app.runBurnStage(ctx); err != nil {
			return fmt.Errorf("burn stage failed: %w", err)
		}
	}

	if step != StepBurn {
		app.writeReport()
	}

	app.zapLogger.Info("pipeline complete", zap.String("run_dir", app.layout.runDir))
	return nil
}

// runTranscribeStage extracts audio, plans chunks, transcribes them and
// writes the merged source-language SRT. An existing source transcript is
// reused; delete it to retranscribe.
func (app *Application) runTranscribeStage(ctx context.Context) error {
	if _, err := os.Stat(app.layout.sourceSRT); err == nil {
		app.zapLogger.Info("source subtitles already exist, skipping transcription",
			zap.String("path", app.layout.sourceSRT))
		return nil
	}

	tmpAudio, err := os.CreateTemp("", "subtitletranslator-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create temp audio file: %w", err)
	}
	audioPath := tmpAudio.Name()
	tmpAudio.Close()
	defer os.Remove(audioPath)

	if err := app.transcoder.ExtractAudio(ctx, app.opts.VideoPath, audioPath); err != nil {
		return err
	}

	chunkPlanner := planner.NewPlannerWithLogger(app.transcoder, app.config, app.zapLogger)
	chunks, err := chunkPlanner.Plan(ctx, audioPath)
	if err != nil {
		return err
	}
	defer removeChunkFiles(chunks, audioPath)

	speechClient := transcriber.NewWhisperClientWithLogger(
		app.config.GetAPIKey(),
		app.config.GetBaseURL(),
		app.config.GetWhisperModel(),
		time.Duration(app.config.GetTranscriptionTimeoutSec())*time.Second,
		app.zapLogger)
	cache := transcriber.NewCacheWithLogger(app.layout.cacheDir, app.zapLogger)
	reconciler := transcriber.NewReconcilerWithLogger(speechClient, cache, app.config, app.zapLogger)

	result, err := reconciler.Transcribe(ctx, chunks)
	if err != nil {
		return err
	}
	app.droppedChunks = result.DroppedChunks
	app.sourceEntries = len(result.Entries)

	if err := os.WriteFile(app.layout.sourceSRT, []byte(subtitle.Format(result.Entries)), 0644); err != nil {
		return fmt.Errorf("failed to write source subtitles: %w", err)
	}

	app.zapLogger.Info("source subtitles written",
		zap.String("path", app.layout.sourceSRT),
		zap.Int("entries", len(result.Entries)),
		zap.Int("dropped_chunks", result.DroppedChunks))
	return nil
}

// removeChunkFiles cleans up materialized chunk files, leaving the shared
// source audio for its own deferred removal
func removeChunkFiles(chunks []planner.Chunk, audioPath string) {
	for _, chunk := range chunks {
		if chunk.Path != audioPath {
			os.Remove(chunk.Path)
		}
	}
}

// runTranslateStage loads the source SRT, translates it with the
// retranslation loop, re-segments over-long captions and writes the
// translated SRT into the run directory
func (app *Application) runTranslateStage(ctx context.Context) error {
	content, err := os.ReadFile(app.layout.sourceSRT)
	if err != nil {
		return fmt.Errorf("source subtitles not found at %s; run the transcribe step first: %w",
			app.layout.sourceSRT, err)
	}

	entries, err := subtitle.Parse(string(content))
	if err != nil {
		return fmt.Errorf("failed to parse source subtitles: %w", err)
	}
	app.sourceEntries = len(entries)

	app.zapLogger.Info("loaded source subtitles",
		zap.Int("entries", len(entries)),
		zap.String("model", app.config.GetChatModel()))

	chatClient := translator.NewOpenAIClientWithLogger(
		app.config.GetAPIKey(),
		app.config.GetBaseURL(),
		app.config.GetChatModel(),
		time.Duration(app.config.GetTranslationTimeoutSec())*time.Second,
		app.zapLogger)
	tr := translator.NewTranslatorWithLogger(chatClient, app.config, app.zapLogger)

	result, err := tr.Translate(ctx, entries)
	if err != nil {
		return err
	}
	app.retryRounds = result.RetryRounds
	app.residualIndexes = result.ResidualIndexes

	// Re-segmentation happens only after translation is final, so retry
	// bookkeeping never sees split-derived indexes.
	final := splitter.SplitAll(result.Entries,
		app.config.GetMaxLineChars(), app.config.GetMaxLines())
	app.finalEntries = len(final)

	if err := os.MkdirAll(app.layout.runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := os.WriteFile(app.layout.outputSRT, []byte(subtitle.Format(final)), 0644); err != nil {
		return fmt.Errorf("failed to write translated subtitles: %w", err)
	}

	app.zapLogger.Info("translated subtitles written",
		zap.String("path", app.layout.outputSRT),
		zap.Int("entries", len(final)),
		zap.Int("residual", len(result.ResidualIndexes)))
	return nil
}

// runBurnStage renders the translated subtitles into the video. A
// burn-only invocation reuses the most recent run's subtitles.
func (app *Application) runBurnStage(ctx context.Context) error {
	srtPath := app.layout.outputSRT
	outputMP4 := app.layout.outputMP4

	if _, err := os.Stat(srtPath); err != nil {
		latest, err := latestRunSRT(app.layout.outputsDir)
		if err != nil {
			return fmt.Errorf("no translated subtitles found; run the translate step first: %w", err)
		}
		srtPath = latest
		outputMP4 = filepath.Join(filepath.Dir(latest), "subtitled.mp4")
		app.zapLogger.Info("using subtitles from previous run",
			zap.String("path", srtPath))
	}

	if app.opts.SkipBurn {
		app.zapLogger.Info("skipping subtitle burn-in")
		return nil
	}

	return app.transcoder.BurnSubtitles(ctx, app.opts.VideoPath, srtPath, outputMP4)
}

// latestRunSRT finds the newest run directory containing translated subtitles
func latestRunSRT(outputsDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(outputsDir, "run_*", "improved.srt"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("no run directories with improved.srt under %s", outputsDir)
	}
	sort.Strings(matches) // run_<timestamp> names sort chronologically
	return matches[len(matches)-1], nil
}

// writeReport persists the run summary next to the run outputs
func (app *Application) writeReport() {
	report := logger.RunReport{
		Video:             app.opts.VideoPath,
		SourceEntries:     app.sourceEntries,
		TranslatedEntries: app.finalEntries,
		DroppedChunks:     app.droppedChunks,
		RetryRounds:       app.retryRounds,
		ResidualIndexes:   app.residualIndexes,
	}

	if err := os.MkdirAll(app.layout.runDir, 0755); err != nil {
		app.zapLogger.Warn("failed to create run directory for report", zap.Error(err))
		return
	}
	if err := logger.WriteRunReport(app.layout.reportPath, report); err != nil {
		app.zapLogger.Warn("failed to write run report", zap.Error(err))
	}
}
