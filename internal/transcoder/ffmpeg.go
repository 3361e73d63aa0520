package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// burnStyle is the subtitle rendering style applied when burning captions
// into the video track.
const burnStyle = "FontName=Arial,FontSize=20,PrimaryColour=&H00FFFFFF," +
	"OutlineColour=&H00000000,BorderStyle=3,MarginV=30"

// Transcoder wraps the external ffmpeg/ffprobe binaries for audio
// extraction, duration probing, chunk cutting and subtitle burn-in.
type Transcoder struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

// NewTranscoder creates a Transcoder, locating ffmpeg and ffprobe. An empty
// path means PATH lookup. Missing binaries are a configuration error.
func NewTranscoder(ffmpegPath, ffprobePath string) (*Transcoder, error) {
	return NewTranscoderWithLogger(ffmpegPath, ffprobePath, zap.NewNop())
}

// NewTranscoderWithLogger creates a Transcoder with a custom logger
func NewTranscoderWithLogger(ffmpegPath, ffprobePath string, logger *zap.Logger) (*Transcoder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ffmpeg, err := resolveBinary(ffmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobe, err := resolveBinary(ffprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	logger.Info("located transcoding binaries",
		zap.String("ffmpeg", ffmpeg),
		zap.String("ffprobe", ffprobe))

	return &Transcoder{
		ffmpegPath:  ffmpeg,
		ffprobePath: ffprobe,
		logger:      logger,
	}, nil
}

// resolveBinary validates an explicit binary path or falls back to PATH lookup
func resolveBinary(explicit, name string) (string, error) {
	if explicit != "" {
		if _, err := exec.LookPath(explicit); err != nil {
			return "", fmt.Errorf("configured %s path %q not usable: %w", name, explicit, err)
		}
		return explicit, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return path, nil
}

// ExtractAudio extracts the audio track of a video into an MP3 file
func (t *Transcoder) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	t.logger.Info("extracting audio from video",
		zap.String("video", videoPath),
		zap.String("audio", audioPath))

	args := []string{
		"-i", videoPath,
		"-vn", // drop the video stream
		"-acodec", "libmp3lame",
		"-ab", "128k",
		"-ar", "44100",
		"-y",
		audioPath,
	}

	if err := t.runFFmpeg(ctx, args); err != nil {
		return fmt.Errorf("failed to extract audio from %s: %w", videoPath, err)
	}

	t.logger.Info("audio extracted successfully", zap.String("audio", audioPath))
	return nil
}

// ProbeDuration returns the media duration in seconds
func (t *Transcoder) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-i", path,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0",
	}

	cmd := exec.CommandContext(ctx, t.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.logger.Warn("ffprobe failed",
			zap.String("path", path),
			zap.String("stderr", tail(stderr.String())),
			zap.Error(err))
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q for %s: %w",
			strings.TrimSpace(stdout.String()), path, err)
	}

	return duration, nil
}

// CutSegment copies a time-bounded sub-clip of an audio file without re-encoding
func (t *Transcoder) CutSegment(ctx context.Context, src, dst string, offsetSec, durationSec float64) error {
	t.logger.Debug("cutting audio segment",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Float64("offset_sec", offsetSec),
		zap.Float64("duration_sec", durationSec))

	args := []string{
		"-i", src,
		"-ss", formatSeconds(offsetSec),
		"-t", formatSeconds(durationSec),
		"-acodec", "copy",
		"-y",
		dst,
	}

	if err := t.runFFmpeg(ctx, args); err != nil {
		return fmt.Errorf("failed to cut segment at %.1fs from %s: %w", offsetSec, src, err)
	}

	return nil
}

// BurnSubtitles renders an SRT file into the video stream (hardcoded subtitles)
func (t *Transcoder) BurnSubtitles(ctx context.Context, videoPath, srtPath, outputPath string) error {
	t.logger.Info("burning subtitles into video",
		zap.String("video", videoPath),
		zap.String("subtitles", srtPath),
		zap.String("output", outputPath))

	args := []string{
		"-i", videoPath,
		"-vf", SubtitleFilter(srtPath),
		"-c:a", "copy", // keep the audio track untouched
		"-y",
		outputPath,
	}

	if err := t.runFFmpeg(ctx, args); err != nil {
		return fmt.Errorf("failed to burn subtitles into %s: %w", videoPath, err)
	}

	t.logger.Info("subtitled video written", zap.String("output", outputPath))
	return nil
}

// SubtitleFilter builds the ffmpeg -vf argument for subtitle burn-in,
// escaping the SRT path for the filter syntax
func SubtitleFilter(srtPath string) string {
	escaped := strings.ReplaceAll(srtPath, `\`, `/`)
	escaped = strings.ReplaceAll(escaped, `:`, `\:`)
	return fmt.Sprintf("subtitles='%s':force_style='%s'", escaped, burnStyle)
}

// runFFmpeg runs ffmpeg with the given arguments, capturing stderr so
// failures carry the tool's own diagnostics
func (t *Transcoder) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		output := tail(stderr.String())
		t.logger.Warn("ffmpeg failed",
			zap.Strings("args", args),
			zap.String("stderr", output),
			zap.Error(err))
		return fmt.Errorf("ffmpeg error: %w (%s)", err, output)
	}

	t.logger.Debug("ffmpeg completed", zap.Strings("args", args))
	return nil
}

// formatSeconds renders a duration argument with millisecond precision
func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

// tail returns the last few lines of ffmpeg stderr, where the actual error lives
func tail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, "\n")
}
