package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"subtitletranslator/internal/subtitle"
)

// Wrap breaks text into lines of at most width characters, splitting only
// at word boundaries. A single word longer than width gets its own line.
func Wrap(text string, width int) string {
	if utf8.RuneCountInString(text) <= width {
		return text
	}

	words := strings.Fields(text)
	var lines []string
	var current []string
	currentLen := 0

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		addLen := wordLen
		if len(current) > 0 {
			addLen++ // joining space
		}

		if currentLen+addLen <= width {
			current = append(current, word)
			currentLen += addLen
		} else {
			if len(current) > 0 {
				lines = append(lines, strings.Join(current, " "))
			}
			current = []string{word}
			currentLen = wordLen
		}
	}

	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	return strings.Join(lines, "\n")
}

// Split turns one caption into an ordered list of display-safe captions,
// each wrapping to at most maxLines lines of width characters. The result
// covers exactly the input's time span; indexes come out as K, K_1, K_2, …
// in left-to-right time order.
func Split(entry subtitle.Entry, width, maxLines int) []subtitle.Entry {
	leaves := bisect(entry, width, maxLines)

	// Final indexes are derived only after the whole tree is resolved, so
	// the numbering stays gapless no matter how unevenly each half recursed.
	for i := range leaves {
		if i == 0 {
			leaves[i].Index = entry.Index
		} else {
			leaves[i].Index = fmt.Sprintf("%s_%d", entry.Index, i)
		}
	}

	return leaves
}

// bisect recursively halves an over-long caption by word count, dividing
// its time span proportionally to each half's character length
func bisect(entry subtitle.Entry, width, maxLines int) []subtitle.Entry {
	wrapped := Wrap(entry.Text, width)
	if strings.Count(wrapped, "\n")+1 <= maxLines {
		entry.Text = wrapped
		return []subtitle.Entry{entry}
	}

	words := strings.Fields(entry.Text)
	if len(words) < 2 {
		// Nothing left to halve; accept the oversized caption rather
		// than recurse forever.
		entry.Text = wrapped
		return []subtitle.Entry{entry}
	}

	mid := (len(words) + 1) / 2
	first := strings.Join(words[:mid], " ")
	second := strings.Join(words[mid:], " ")

	firstLen := utf8.RuneCountInString(first)
	secondLen := utf8.RuneCountInString(second)
	duration := entry.End - entry.Start
	splitPoint := entry.Start + duration*float64(firstLen)/float64(firstLen+secondLen)

	left := bisect(subtitle.Entry{
		Index: entry.Index,
		Start: entry.Start,
		End:   splitPoint,
		Text:  first,
	}, width, maxLines)

	right := bisect(subtitle.Entry{
		Index: entry.Index,
		Start: splitPoint,
		End:   entry.End,
		Text:  second,
	}, width, maxLines)

	return append(left, right...)
}

// SplitAll applies Split to every caption of a stream, preserving order
func SplitAll(entries []subtitle.Entry, width, maxLines int) []subtitle.Entry {
	result := make([]subtitle.Entry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, Split(entry, width, maxLines)...)
	}
	return result
}
