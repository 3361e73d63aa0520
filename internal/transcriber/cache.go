package transcriber

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Cache persists raw, pre-offset chunk transcripts on disk keyed by chunk
// ordinal. A cached chunk is never resent to the transcription service;
// offset and index shifting are applied fresh each run, so the cached
// payload is always the service's untouched output.
type Cache struct {
	dir    string
	logger *zap.Logger
}

// NewCache creates a Cache rooted at dir. An empty dir disables caching.
func NewCache(dir string) *Cache {
	return NewCacheWithLogger(dir, zap.NewNop())
}

// NewCacheWithLogger creates a Cache with a custom logger
func NewCacheWithLogger(dir string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{dir: dir, logger: logger}
}

// Get returns the cached transcript for a chunk ordinal, if present
func (c *Cache) Get(ordinal int) (string, bool) {
	if c.dir == "" {
		return "", false
	}

	data, err := os.ReadFile(c.path(ordinal))
	if err != nil {
		return "", false
	}

	c.logger.Info("using cached chunk transcript",
		zap.Int("ordinal", ordinal),
		zap.Int("bytes", len(data)))
	return string(data), true
}

// Put stores a chunk's raw transcript. Writes are keyed by ordinal, so
// concurrent chunk processing never has two writers for the same file.
func (c *Cache) Put(ordinal int, payload string) error {
	if c.dir == "" {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := c.path(ordinal)
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, []byte(payload), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	c.logger.Debug("cached chunk transcript",
		zap.Int("ordinal", ordinal),
		zap.String("path", path))
	return nil
}

// path names the cache file for a chunk ordinal
func (c *Cache) path(ordinal int) string {
	return filepath.Join(c.dir, fmt.Sprintf("chunk_%04d.srt", ordinal))
}
