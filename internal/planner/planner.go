package planner

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"subtitletranslator/internal/config"
)

// Chunk describes one audio sub-stream scheduled for transcription.
// Offset is the sum of the measured durations of all prior chunks and is
// fixed before any transcription call is made.
type Chunk struct {
	Ordinal  int
	Path     string
	Offset   float64
	Duration float64
}

// Transcoder is the subset of transcoding operations the planner needs
type Transcoder interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	CutSegment(ctx context.Context, src, dst string, offsetSec, durationSec float64) error
}

// Planner decides how to split an oversized audio file into sub-streams
// that each fit the transcription service's upload ceiling
type Planner struct {
	transcoder       Transcoder
	logger           *zap.Logger
	maxUploadBytes   int64
	targetChunkBytes int64
	minChunkSec      float64
	maxChunkSec      float64
}

// NewPlanner creates a Planner with limits taken from configuration
func NewPlanner(tc Transcoder, cfg *config.Configuration) *Planner {
	return NewPlannerWithLogger(tc, cfg, zap.NewNop())
}

// NewPlannerWithLogger creates a Planner with a custom logger
func NewPlannerWithLogger(tc Transcoder, cfg *config.Configuration, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		transcoder:       tc,
		logger:           logger,
		maxUploadBytes:   cfg.GetMaxUploadBytes(),
		targetChunkBytes: cfg.GetTargetChunkBytes(),
		minChunkSec:      cfg.GetMinChunkSec(),
		maxChunkSec:      cfg.GetMaxChunkSec(),
	}
}

// ChunkDuration derives the chunk duration from measured bitrate and
// clamps it to the configured floor and ceiling
func (p *Planner) ChunkDuration(durationSec float64, sizeBytes int64) float64 {
	bitrate := float64(sizeBytes) / durationSec // bytes per second
	chunkDur := float64(p.targetChunkBytes) / bitrate

	if chunkDur < p.minChunkSec {
		chunkDur = p.minChunkSec
	}
	if chunkDur > p.maxChunkSec {
		chunkDur = p.maxChunkSec
	}
	return chunkDur
}

// Plan splits the audio file into contiguous chunks covering its whole
// duration. Files within the upload ceiling yield a single whole-file
// chunk. Each materialized chunk is probed afterward so offsets come from
// measured durations, never from the nominal cut points.
func (p *Planner) Plan(ctx context.Context, audioPath string) ([]Chunk, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio file: %w", err)
	}
	sizeBytes := info.Size()

	duration, err := p.transcoder.ProbeDuration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to measure audio duration: %w", err)
	}

	p.logger.Info("planning audio chunks",
		zap.String("audio", audioPath),
		zap.Int64("size_bytes", sizeBytes),
		zap.Float64("duration_sec", duration))

	if sizeBytes <= p.maxUploadBytes {
		p.logger.Info("audio fits the upload ceiling, no split needed")
		return []Chunk{{Ordinal: 1, Path: audioPath, Offset: 0, Duration: duration}}, nil
	}

	chunkDur := p.ChunkDuration(duration, sizeBytes)
	numChunks := int(math.Ceil(duration / chunkDur))

	p.logger.Info("splitting audio",
		zap.Float64("chunk_duration_sec", chunkDur),
		zap.Int("num_chunks", numChunks))

	chunks := make([]Chunk, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := float64(i) * chunkDur
		length := chunkDur
		if start+length > duration {
			length = duration - start
		}

		chunkPath := chunkFilePath(audioPath, i+1)
		if err := p.transcoder.CutSegment(ctx, audioPath, chunkPath, start, length); err != nil {
			// Fatal for the whole planning step: a missing chunk would
			// leave a hole in the timeline.
			return nil, fmt.Errorf("failed to materialize chunk %d/%d: %w", i+1, numChunks, err)
		}

		chunks = append(chunks, Chunk{Ordinal: i + 1, Path: chunkPath})
		p.logger.Debug("chunk materialized",
			zap.Int("ordinal", i+1),
			zap.String("path", chunkPath))
	}

	// Fix offsets from measured durations before anything is transcribed,
	// so later transcription failures never perturb earlier offsets.
	var offset float64
	for i := range chunks {
		measured, err := p.transcoder.ProbeDuration(ctx, chunks[i].Path)
		if err != nil {
			return nil, fmt.Errorf("failed to measure chunk %d duration: %w", chunks[i].Ordinal, err)
		}
		chunks[i].Offset = offset
		chunks[i].Duration = measured
		offset += measured
	}

	return chunks, nil
}

// chunkFilePath names a chunk file next to its source, e.g. audio_part3.mp3
func chunkFilePath(audioPath string, ordinal int) string {
	ext := filepath.Ext(audioPath)
	base := strings.TrimSuffix(audioPath, ext)
	return fmt.Sprintf("%s_part%d%s", base, ordinal, ext)
}
