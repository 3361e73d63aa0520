package splitter

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"subtitletranslator/internal/subtitle"
)

func TestWrap(t *testing.T) {
	t.Run("should leave short text unchanged", func(t *testing.T) {
		assert.Equal(t, "short text", Wrap("short text", 45))
	})

	t.Run("should wrap at word boundaries", func(t *testing.T) {
		// Act
		wrapped := Wrap("one two three four five", 10)

		// Assert - no line exceeds the width, no word is cut
		for _, line := range strings.Split(wrapped, "\n") {
			assert.LessOrEqual(t, len(line), 10, "line %q exceeds width", line)
		}
		assert.Equal(t, "one two three four five", strings.ReplaceAll(wrapped, "\n", " "))
	})

	t.Run("should give an oversized word its own line", func(t *testing.T) {
		wrapped := Wrap("a extraordinarily b", 8)

		lines := strings.Split(wrapped, "\n")
		assert.Contains(t, lines, "extraordinarily")
	})

	t.Run("should count runes not bytes", func(t *testing.T) {
		// Ten Cyrillic letters fit a width of ten despite the UTF-8 byte count
		assert.Equal(t, "привет мир", Wrap("привет мир", 10))
	})
}

func TestSplit(t *testing.T) {
	t.Run("should keep caption that wraps within the line limit", func(t *testing.T) {
		// Arrange
		entry := subtitle.Entry{Index: "5", Start: 10, End: 13, Text: "a perfectly reasonable caption"}

		// Act
		result := Split(entry, 45, 2)

		// Assert
		assert.Len(t, result, 1)
		assert.Equal(t, "5", result[0].Index)
		assert.Equal(t, entry.Start, result[0].Start)
		assert.Equal(t, entry.End, result[0].End)
	})

	t.Run("should split 90 characters of even words into two halves", func(t *testing.T) {
		// Arrange - 18 five-letter words, 107 runes, wraps to 3 lines at 45
		words := make([]string, 18)
		for i := range words {
			words[i] = "abcde"
		}
		entry := subtitle.Entry{Index: "3", Start: 0, End: 10, Text: strings.Join(words, " ")}

		// Act
		result := Split(entry, 45, 2)

		// Assert
		assert.Len(t, result, 2)
		assert.Equal(t, "3", result[0].Index)
		assert.Equal(t, "3_1", result[1].Index)
		// Even halves split the time span down the middle
		assert.InDelta(t, 5.0, result[0].End, 0.1)
		assert.Equal(t, result[0].End, result[1].Start)
		assert.Equal(t, 0.0, result[0].Start)
		assert.Equal(t, 10.0, result[1].End)
	})

	t.Run("should divide time proportionally to character length", func(t *testing.T) {
		// Arrange - first half much longer than the second
		entry := subtitle.Entry{
			Index: "1",
			Start: 0,
			End:   10,
			Text:  "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa bbbbbbbbbbbbbbbbbbbbbbbbbbbbbb cc dd",
		}

		// Act
		result := Split(entry, 30, 1)

		// Assert - the long first words get the larger share of the span
		assert.GreaterOrEqual(t, len(result), 2)
		firstSpan := result[0].End - result[0].Start
		lastSpan := result[len(result)-1].End - result[len(result)-1].Start
		assert.Greater(t, firstSpan, lastSpan)
	})

	t.Run("should recurse until every leaf fits", func(t *testing.T) {
		// Arrange - six lines worth of text at width 15
		words := make([]string, 24)
		for i := range words {
			words[i] = "wwwww"
		}
		entry := subtitle.Entry{Index: "9", Start: 0, End: 12, Text: strings.Join(words, " ")}

		// Act
		result := Split(entry, 15, 2)

		// Assert
		assert.GreaterOrEqual(t, len(result), 3)
		for _, leaf := range result {
			lines := strings.Count(Wrap(leaf.Text, 15), "\n") + 1
			assert.LessOrEqual(t, lines, 2, "leaf %q still exceeds the line limit", leaf.Text)
		}
	})

	t.Run("should number leaves gaplessly in time order", func(t *testing.T) {
		words := make([]string, 24)
		for i := range words {
			words[i] = "wwwww"
		}
		entry := subtitle.Entry{Index: "9", Start: 0, End: 12, Text: strings.Join(words, " ")}

		result := Split(entry, 15, 2)

		assert.Equal(t, "9", result[0].Index)
		for i := 1; i < len(result); i++ {
			assert.Equal(t, "9_"+strconv.Itoa(i), result[i].Index)
			assert.GreaterOrEqual(t, result[i].Start, result[i-1].Start)
		}
	})

	t.Run("should cover the input span exactly with no gaps", func(t *testing.T) {
		words := make([]string, 30)
		for i := range words {
			words[i] = "qqqqqq"
		}
		entry := subtitle.Entry{Index: "2", Start: 100, End: 118, Text: strings.Join(words, " ")}

		result := Split(entry, 20, 2)

		assert.Equal(t, 100.0, result[0].Start)
		assert.Equal(t, 118.0, result[len(result)-1].End)
		for i := 1; i < len(result); i++ {
			assert.Equal(t, result[i-1].End, result[i].Start, "leaves must be contiguous")
		}
	})

	t.Run("should accept an unsplittable single word", func(t *testing.T) {
		// Arrange - one word that can never fit
		entry := subtitle.Entry{Index: "4", Start: 0, End: 2, Text: strings.Repeat("x", 60)}

		// Act
		result := Split(entry, 10, 1)

		// Assert - no infinite recursion, the oversized caption survives
		assert.Len(t, result, 1)
		assert.Equal(t, "4", result[0].Index)
	})

	t.Run("should preserve all words across leaves", func(t *testing.T) {
		text := "the quick brown fox jumps over the lazy dog and keeps on running far away"
		entry := subtitle.Entry{Index: "1", Start: 0, End: 8, Text: text}

		result := Split(entry, 15, 2)

		var rejoined []string
		for _, leaf := range result {
			rejoined = append(rejoined, strings.ReplaceAll(leaf.Text, "\n", " "))
		}
		assert.Equal(t, text, strings.Join(rejoined, " "))
	})
}

func TestSplitAll(t *testing.T) {
	t.Run("should preserve stream order across mixed captions", func(t *testing.T) {
		// Arrange
		long := make([]string, 20)
		for i := range long {
			long[i] = "words"
		}
		entries := []subtitle.Entry{
			{Index: "1", Start: 0, End: 2, Text: "short"},
			{Index: "2", Start: 2, End: 10, Text: strings.Join(long, " ")},
			{Index: "3", Start: 10, End: 12, Text: "also short"},
		}

		// Act
		result := SplitAll(entries, 15, 2)

		// Assert - untouched captions keep their place around the split one
		assert.Greater(t, len(result), 3)
		assert.Equal(t, "1", result[0].Index)
		assert.Equal(t, "2", result[1].Index)
		assert.Equal(t, "3", result[len(result)-1].Index)
		for i := 1; i < len(result); i++ {
			assert.GreaterOrEqual(t, result[i].Start, result[i-1].Start)
		}
	})

	t.Run("should handle empty input", func(t *testing.T) {
		assert.Empty(t, SplitAll(nil, 45, 2))
	})
}
