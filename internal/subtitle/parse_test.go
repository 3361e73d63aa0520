package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
Добрый день, коллеги!

2
00:00:04,000 --> 00:00:07,250
Начнем с планировочного решения.
`

func TestParse(t *testing.T) {
	t.Run("should parse well-formed SRT content", func(t *testing.T) {
		// Act
		entries, err := Parse(sampleSRT)

		// Assert
		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, "1", entries[0].Index)
		assert.InDelta(t, 1.0, entries[0].Start, 0.0001)
		assert.InDelta(t, 3.5, entries[0].End, 0.0001)
		assert.Equal(t, "Добрый день, коллеги!", entries[0].Text)
		assert.Equal(t, "2", entries[1].Index)
	})

	t.Run("should normalize CRLF line endings", func(t *testing.T) {
		content := "1\r\n00:00:01,000 --> 00:00:02,000\r\nline one\r\n\r\n2\r\n00:00:02,000 --> 00:00:03,000\r\nline two\r\n"

		entries, err := Parse(content)

		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, "line one", entries[0].Text)
	})

	t.Run("should join multi-line caption text", func(t *testing.T) {
		content := "1\n00:00:01,000 --> 00:00:02,000\nfirst line\nsecond line\n"

		entries, err := Parse(content)

		assert.NoError(t, err)
		assert.Equal(t, "first line\nsecond line", entries[0].Text)
	})

	t.Run("should accept derived split indexes", func(t *testing.T) {
		content := "12_1\n00:00:01,000 --> 00:00:02,000\nsplit caption\n"

		entries, err := Parse(content)

		assert.NoError(t, err)
		assert.Equal(t, "12_1", entries[0].Index)
	})

	t.Run("should skip malformed blocks and keep the rest", func(t *testing.T) {
		// Arrange - middle block has no timing line
		content := "1\n00:00:01,000 --> 00:00:02,000\ngood one\n\nnot-an-index\njust text\nmore text\n\n3\n00:00:05,000 --> 00:00:06,000\ngood two\n"

		// Act
		entries, err := Parse(content)

		// Assert
		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, "1", entries[0].Index)
		assert.Equal(t, "3", entries[1].Index)
	})

	t.Run("should skip blocks with fewer than three lines", func(t *testing.T) {
		content := "1\n00:00:01,000 --> 00:00:02,000\n\n2\n00:00:03,000 --> 00:00:04,000\nsurvivor\n"

		entries, err := Parse(content)

		assert.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, "2", entries[0].Index)
	})

	t.Run("should return error when nothing parses", func(t *testing.T) {
		_, err := Parse("complete garbage\nwith no structure")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no subtitle entries")
	})

	t.Run("should return error for empty input", func(t *testing.T) {
		_, err := Parse("")

		assert.Error(t, err)
	})
}

func TestFormat(t *testing.T) {
	t.Run("should round-trip entries through Format and Parse", func(t *testing.T) {
		// Arrange
		original := []Entry{
			{Index: "1", Start: 1.0, End: 3.5, Text: "Добрый день, коллеги!"},
			{Index: "2", Start: 4.0, End: 7.25, Text: "first line\nsecond line"},
			{Index: "2_1", Start: 7.25, End: 9.0, Text: "derived caption"},
		}

		// Act
		parsed, err := Parse(Format(original))

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, original, parsed)
	})
}
