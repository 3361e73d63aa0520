package transcriber

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"subtitletranslator/internal/config"
	"subtitletranslator/internal/planner"
	"subtitletranslator/internal/subtitle"
)

// chunkResult is the outcome of one chunk's transcription attempt
type chunkResult struct {
	ordinal    int
	transcript string
	err        error
}

// Result carries the merged caption stream plus degradation information
type Result struct {
	Entries       []subtitle.Entry
	DroppedChunks int
}

// Reconciler turns a set of audio chunks into one globally-ordered,
// globally-indexed, time-shifted caption stream. Chunk offsets are fixed
// by the planner before any network call; the reconciler only applies
// them.
type Reconciler struct {
	client       SpeechClient
	cache        *Cache
	logger       *zap.Logger
	language     string
	concurrent   bool
	chunkDelay   time.Duration
	retryBackoff time.Duration
}

// NewReconciler creates a Reconciler with settings taken from configuration
func NewReconciler(client SpeechClient, cache *Cache, cfg *config.Configuration) *Reconciler {
	return NewReconcilerWithLogger(client, cache, cfg, zap.NewNop())
}

// NewReconcilerWithLogger creates a Reconciler with a custom logger
func NewReconcilerWithLogger(client SpeechClient, cache *Cache, cfg *config.Configuration, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewCache("")
	}
	return &Reconciler{
		client:       client,
		cache:        cache,
		logger:       logger,
		language:     cfg.GetSourceLanguage(),
		concurrent:   cfg.GetConcurrentTranscription(),
		chunkDelay:   time.Duration(cfg.GetChunkDelaySec()) * time.Second,
		retryBackoff: time.Duration(cfg.GetRetryBackoffSec()) * time.Second,
	}
}

// Transcribe processes all chunks in the configured dispatch mode and
// merges the per-chunk transcripts. Some chunks failing is non-fatal
// (degraded output, surfaced via DroppedChunks); all chunks failing is.
func (r *Reconciler) Transcribe(ctx context.Context, chunks []planner.Chunk) (*Result, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to transcribe")
	}

	r.logger.Info("starting chunk transcription",
		zap.Int("chunks", len(chunks)),
		zap.Bool("concurrent", r.concurrent))

	var results []chunkResult
	if r.concurrent {
		results = r.transcribeConcurrent(ctx, chunks)
	} else {
		results = r.transcribeSequential(ctx, chunks)
	}

	return r.merge(chunks, results)
}

// transcribeSequential processes one chunk at a time with a deliberate
// inter-chunk delay and a single retry-with-backoff per failed chunk
func (r *Reconciler) transcribeSequential(ctx context.Context, chunks []planner.Chunk) []chunkResult {
	results := make([]chunkResult, len(chunks))

	for i, chunk := range chunks {
		if i > 0 {
			select {
			case <-ctx.Done():
				results[i] = chunkResult{ordinal: chunk.Ordinal, err: ctx.Err()}
				continue
			case <-time.After(r.chunkDelay):
			}
		}

		r.logger.Info("processing chunk",
			zap.Int("ordinal", chunk.Ordinal),
			zap.Int("total", len(chunks)))

		transcript, err := r.transcribeChunk(ctx, chunk)
		if err != nil && ctx.Err() == nil {
			r.logger.Warn("chunk failed, retrying after backoff",
				zap.Int("ordinal", chunk.Ordinal),
				zap.Duration("backoff", r.retryBackoff),
				zap.Error(err))

			select {
			case <-ctx.Done():
				results[i] = chunkResult{ordinal: chunk.Ordinal, err: ctx.Err()}
				continue
			case <-time.After(r.retryBackoff):
			}
			transcript, err = r.transcribeChunk(ctx, chunk)
		}

		results[i] = chunkResult{ordinal: chunk.Ordinal, transcript: transcript, err: err}
	}

	return results
}

// transcribeConcurrent puts every chunk request in flight at once and
// collects each outcome, success or error, without aborting siblings
func (r *Reconciler) transcribeConcurrent(ctx context.Context, chunks []planner.Chunk) []chunkResult {
	results := make([]chunkResult, len(chunks))
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk planner.Chunk) {
			defer wg.Done()
			transcript, err := r.transcribeChunk(ctx, chunk)
			results[i] = chunkResult{ordinal: chunk.Ordinal, transcript: transcript, err: err}
		}(i, chunk)
	}

	wg.Wait()
	return results
}

// transcribeChunk fetches one chunk's raw transcript, serving from the
// cache when possible and caching fresh service responses
func (r *Reconciler) transcribeChunk(ctx context.Context, chunk planner.Chunk) (string, error) {
	if transcript, ok := r.cache.Get(chunk.Ordinal); ok {
		return transcript, nil
	}

	transcript, err := r.client.Transcribe(ctx, chunk.Path, r.language)
	if err != nil {
		return "", err
	}

	if err := r.cache.Put(chunk.Ordinal, transcript); err != nil {
		r.logger.Warn("failed to cache chunk transcript",
			zap.Int("ordinal", chunk.Ordinal),
			zap.Error(err))
	}

	return transcript, nil
}

// merge concatenates per-chunk transcripts strictly by chunk ordinal,
// shifting each chunk's timestamps by its precomputed offset and each
// caption index by the number of captions already placed by earlier
// successful chunks, yielding one contiguous increasing index sequence.
func (r *Reconciler) merge(chunks []planner.Chunk, results []chunkResult) (*Result, error) {
	var merged []subtitle.Entry
	placed := 0
	dropped := 0

	for i, res := range results {
		if res.err != nil {
			dropped++
			r.logger.Warn("dropping failed chunk",
				zap.Int("ordinal", res.ordinal),
				zap.Error(res.err))
			continue
		}

		entries, err := subtitle.Parse(res.transcript)
		if err != nil {
			dropped++
			r.logger.Warn("dropping chunk with unparseable transcript",
				zap.Int("ordinal", res.ordinal),
				zap.Error(err))
			continue
		}

		offset := chunks[i].Offset
		added := 0
		for _, entry := range entries {
			idx, err := strconv.Atoi(entry.Index)
			if err != nil {
				// Chunk transcripts carry plain integer indexes; anything
				// else did not come from the transcription service.
				continue
			}
			entry.Index = strconv.Itoa(placed + idx)
			entry.Start += offset
			entry.End += offset
			merged = append(merged, entry)
			added++
		}
		placed += added

		r.logger.Info("merged chunk transcript",
			zap.Int("ordinal", res.ordinal),
			zap.Int("entries", added),
			zap.Float64("offset_sec", offset))
	}

	if dropped == len(results) {
		return nil, fmt.Errorf("all %d chunks failed transcription", len(results))
	}
	if len(merged) == 0 {
		return nil, fmt.Errorf("transcription produced no caption entries")
	}

	if dropped > 0 {
		r.logger.Warn("transcription completed with dropped chunks",
			zap.Int("dropped", dropped),
			zap.Int("total", len(results)))
	}

	return &Result{Entries: merged, DroppedChunks: dropped}, nil
}
