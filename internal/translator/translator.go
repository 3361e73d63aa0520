package translator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"subtitletranslator/internal/config"
	"subtitletranslator/internal/subtitle"
)

// Result carries the translated caption stream plus what the retry budget
// could not fix
type Result struct {
	Entries         []subtitle.Entry
	RetryRounds     int
	ResidualIndexes []string
}

// Translator partitions a caption stream into batches, dispatches one
// concurrent translation request per batch, and retries residue-bearing
// captions in progressively smaller batches up to a retry ceiling.
type Translator struct {
	client    ChatClient
	logger    *zap.Logger
	batchSize int
	maxRounds int
	residue   ResidueFunc
}

// NewTranslator creates a Translator with settings taken from configuration
// and the Cyrillic residue predicate
func NewTranslator(client ChatClient, cfg *config.Configuration) *Translator {
	return NewTranslatorWithLogger(client, cfg, zap.NewNop())
}

// NewTranslatorWithLogger creates a Translator with a custom logger
func NewTranslatorWithLogger(client ChatClient, cfg *config.Configuration, logger *zap.Logger) *Translator {
	return NewTranslatorWithResidue(client, cfg, CyrillicResidue, logger)
}

// NewTranslatorWithResidue creates a Translator with a custom residue
// predicate, letting tests substitute a deterministic oracle
func NewTranslatorWithResidue(client ChatClient, cfg *config.Configuration, residue ResidueFunc, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{
		client:    client,
		logger:    logger,
		batchSize: cfg.GetBatchSize(),
		maxRounds: cfg.GetMaxRetryRounds(),
		residue:   residue,
	}
}

// Translate runs the full dispatch-then-retry state machine over the
// caption stream. Captions that never translate cleanly are returned with
// their source-language text, never dropped; their indexes are surfaced in
// ResidualIndexes.
func (t *Translator) Translate(ctx context.Context, entries []subtitle.Entry) (*Result, error) {
	t.logger.Info("starting translation",
		zap.Int("entries", len(entries)),
		zap.Int("batch_size", t.batchSize))

	working := Upsert(entries, t.dispatchBatches(ctx, entries, t.batchSize))

	rounds := 0
	for rounds < t.maxRounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		residual := t.residualEntries(working)
		if len(residual) == 0 {
			break
		}

		rounds++
		// Shrink batches each round (40 -> 20 -> 10) to increase
		// per-caption attention. Even a zero-progress round consumes
		// budget, bounding worst-case cost at maxRounds.
		size := t.batchSize / (1 << rounds)
		if size < 1 {
			size = 1
		}

		t.logger.Warn("untranslated captions remain, retrying",
			zap.Int("round", rounds),
			zap.Int("remaining", len(residual)),
			zap.Int("retry_batch_size", size))

		working = Upsert(working, t.dispatchBatches(ctx, residual, size))
	}

	residual := t.residualEntries(working)
	indexes := make([]string, 0, len(residual))
	for _, entry := range residual {
		indexes = append(indexes, entry.Index)
	}

	if len(indexes) > 0 {
		t.logger.Warn("translation finished with residual captions",
			zap.Int("count", len(indexes)),
			zap.Strings("indexes", indexes))
	} else {
		t.logger.Info("translation finished, all captions clean",
			zap.Int("retry_rounds", rounds))
	}

	return &Result{
		Entries:         working,
		RetryRounds:     rounds,
		ResidualIndexes: indexes,
	}, nil
}

// dispatchBatches partitions entries into fixed-size contiguous batches,
// issues one concurrent request per batch and gathers every outcome.
// Returned translations contain only confirmed-clean texts.
func (t *Translator) dispatchBatches(ctx context.Context, entries []subtitle.Entry, batchSize int) map[string]string {
	batches := partition(entries, batchSize)
	perBatch := make([]map[string]string, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []subtitle.Entry) {
			defer wg.Done()
			perBatch[i] = t.translateBatch(ctx, batch, i+1, len(batches))
		}(i, batch)
	}
	wg.Wait()

	// Recombine strictly by batch order, not completion order
	translations := make(map[string]string)
	for _, m := range perBatch {
		for index, text := range m {
			translations[index] = text
		}
	}
	return translations
}

// translateBatch issues one translation request and returns the clean
// (index, text) pairs it yielded. A failed request or a reply with missing
// or residue-bearing entries simply yields fewer pairs; originals stay in
// place as placeholders.
func (t *Translator) translateBatch(ctx context.Context, batch []subtitle.Entry, batchNum, totalBatches int) map[string]string {
	t.logger.Info("dispatching translation batch",
		zap.Int("batch", batchNum),
		zap.Int("total_batches", totalBatches),
		zap.Int("entries", len(batch)))

	reply, err := t.client.Complete(ctx, systemPrompt, buildUserPrompt(batch))
	if err != nil {
		t.logger.Warn("translation batch failed",
			zap.Int("batch", batchNum),
			zap.Error(err))
		return map[string]string{}
	}

	pairs := parseReply(reply)

	clean := make(map[string]string)
	var untranslated []string
	for _, entry := range batch {
		text, ok := pairs[entry.Index]
		if ok && !t.residue(text) {
			clean[entry.Index] = text
		} else {
			untranslated = append(untranslated, entry.Index)
		}
	}

	if len(untranslated) > 0 {
		t.logger.Warn("batch returned untranslated captions",
			zap.Int("batch", batchNum),
			zap.Int("count", len(untranslated)),
			zap.Strings("sample", sample(untranslated, 5)))
	} else {
		t.logger.Info("translation batch completed",
			zap.Int("batch", batchNum),
			zap.Int("total_batches", totalBatches))
	}

	return clean
}

// residualEntries collects the captions still carrying source-language text
func (t *Translator) residualEntries(entries []subtitle.Entry) []subtitle.Entry {
	var residual []subtitle.Entry
	for _, entry := range entries {
		if t.residue(entry.Text) {
			residual = append(residual, entry)
		}
	}
	return residual
}

// Upsert merges a translation map into a caption stream by index: matching
// entries get the translated text, everything else (text, timing, index)
// is left untouched. This is the no-regression guarantee across retries.
func Upsert(entries []subtitle.Entry, translations map[string]string) []subtitle.Entry {
	result := make([]subtitle.Entry, len(entries))
	copy(result, entries)
	for i := range result {
		if text, ok := translations[result[i].Index]; ok {
			result[i].Text = text
		}
	}
	return result
}

// partition slices entries into contiguous batches of at most batchSize
func partition(entries []subtitle.Entry, batchSize int) [][]subtitle.Entry {
	if batchSize < 1 {
		batchSize = 1
	}
	var batches [][]subtitle.Entry
	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batches = append(batches, entries[start:end])
	}
	return batches
}

// sample bounds index lists included in log output
func sample(indexes []string, n int) []string {
	if len(indexes) > n {
		return indexes[:n]
	}
	return indexes
}
