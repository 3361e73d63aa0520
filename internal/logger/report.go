package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RunReport summarizes one pipeline run: what was produced and what
// degraded along the way (dropped chunks, captions still in the source
// language after the retry budget).
type RunReport struct {
	Video             string   `json:"video"`
	CompletedAt       string   `json:"completed_at"`
	SourceEntries     int      `json:"source_entries"`
	TranslatedEntries int      `json:"translated_entries"`
	DroppedChunks     int      `json:"dropped_chunks"`
	RetryRounds       int      `json:"retry_rounds"`
	ResidualIndexes   []string `json:"residual_indexes"`
}

// WriteRunReport writes the report as indented JSON, atomically via a
// temp file rename so a crashed run never leaves a truncated report.
func WriteRunReport(path string, report RunReport) error {
	if report.CompletedAt == "" {
		report.CompletedAt = time.Now().Format(time.RFC3339)
	}
	if report.ResidualIndexes == nil {
		report.ResidualIndexes = []string{}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		return fmt.Errorf("failed to rename run report: %w", err)
	}

	return nil
}
