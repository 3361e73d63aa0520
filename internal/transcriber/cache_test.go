package transcriber

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	t.Run("should round-trip a transcript by ordinal", func(t *testing.T) {
		// Arrange
		cache := NewCache(t.TempDir())

		// Act
		err := cache.Put(3, "transcript payload")
		got, ok := cache.Get(3)

		// Assert
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "transcript payload", got)
	})

	t.Run("should miss for an unknown ordinal", func(t *testing.T) {
		cache := NewCache(t.TempDir())

		_, ok := cache.Get(42)

		assert.False(t, ok)
	})

	t.Run("should create the cache directory on first write", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "chunks")
		cache := NewCache(dir)

		err := cache.Put(1, "payload")

		assert.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("should write files without leftover temp artifacts", func(t *testing.T) {
		// Arrange
		dir := t.TempDir()
		cache := NewCache(dir)

		// Act
		err := cache.Put(7, "payload")
		assert.NoError(t, err)

		// Assert
		names, err := os.ReadDir(dir)
		assert.NoError(t, err)
		assert.Len(t, names, 1)
		assert.Equal(t, "chunk_0007.srt", names[0].Name())
	})

	t.Run("should be disabled with an empty directory", func(t *testing.T) {
		cache := NewCache("")

		err := cache.Put(1, "payload")
		_, ok := cache.Get(1)

		assert.NoError(t, err, "disabled cache accepts writes silently")
		assert.False(t, ok)
	})

	t.Run("should overwrite an existing entry", func(t *testing.T) {
		cache := NewCache(t.TempDir())

		assert.NoError(t, cache.Put(1, "first"))
		assert.NoError(t, cache.Put(1, "second"))

		got, ok := cache.Get(1)
		assert.True(t, ok)
		assert.Equal(t, "second", got)
	})
}
