package translator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"subtitletranslator/internal/subtitle"
)

func TestBuildUserPrompt(t *testing.T) {
	t.Run("should tag every caption with its index", func(t *testing.T) {
		// Arrange
		batch := []subtitle.Entry{
			{Index: "1", Text: "Добрый день"},
			{Index: "2", Text: "Начнем"},
		}

		// Act
		prompt := buildUserPrompt(batch)

		// Assert
		assert.Contains(t, prompt, "[1] Добрый день")
		assert.Contains(t, prompt, "[2] Начнем")
		assert.Contains(t, prompt, "<subtitles_to_translate>")
		assert.Contains(t, prompt, "</subtitles_to_translate>")
	})

	t.Run("should preserve batch order", func(t *testing.T) {
		batch := []subtitle.Entry{
			{Index: "40", Text: "last of one batch"},
			{Index: "41", Text: "first of the next"},
		}

		prompt := buildUserPrompt(batch)

		assert.Less(t, strings.Index(prompt, "[40]"), strings.Index(prompt, "[41]"))
	})
}

func TestParseReply(t *testing.T) {
	t.Run("should extract all tagged pairs", func(t *testing.T) {
		// Arrange
		reply := "[1] Good afternoon\n[2] Let's start"

		// Act
		pairs := parseReply(reply)

		// Assert
		assert.Len(t, pairs, 2)
		assert.Equal(t, "Good afternoon", pairs["1"])
		assert.Equal(t, "Let's start", pairs["2"])
	})

	t.Run("should match replies by tag regardless of line order", func(t *testing.T) {
		reply := "[3] third\n[1] first\n[2] second"

		pairs := parseReply(reply)

		assert.Equal(t, "first", pairs["1"])
		assert.Equal(t, "third", pairs["3"])
	})

	t.Run("should skip untagged prose lines", func(t *testing.T) {
		reply := "Here are your translations:\n[1] the actual content\nHope that helps!"

		pairs := parseReply(reply)

		assert.Len(t, pairs, 1)
		assert.Equal(t, "the actual content", pairs["1"])
	})

	t.Run("should tolerate partial coverage", func(t *testing.T) {
		reply := "[1] only this one came back"

		pairs := parseReply(reply)

		assert.Len(t, pairs, 1)
		_, ok := pairs["2"]
		assert.False(t, ok)
	})

	t.Run("should trim whitespace around lines and text", func(t *testing.T) {
		reply := "  [5]   spaced out   "

		pairs := parseReply(reply)

		assert.Equal(t, "spaced out", pairs["5"])
	})

	t.Run("should return empty map for empty reply", func(t *testing.T) {
		assert.Empty(t, parseReply(""))
	})
}
