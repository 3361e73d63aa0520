package subtitle

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	timingLineRegex = regexp.MustCompile(`(\d{2,}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2},\d{3})`)
	indexLineRegex  = regexp.MustCompile(`^\d+(?:_\d+)*$`)
)

// Parse converts SRT content into a list of entries. Blocks are separated by
// a blank line; each block is an index line, a timing line and one or more
// text lines. Malformed blocks are skipped. Input that yields zero entries
// is an error: downstream stages cannot operate on an empty stream.
func Parse(content string) ([]Entry, error) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(normalized), "\n\n")

	var entries []Entry
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}

		index := strings.TrimSpace(lines[0])
		if !indexLineRegex.MatchString(index) {
			continue
		}

		matches := timingLineRegex.FindStringSubmatch(lines[1])
		if matches == nil {
			continue
		}

		start, err := ParseTimestamp(matches[1])
		if err != nil {
			continue
		}
		end, err := ParseTimestamp(matches[2])
		if err != nil {
			continue
		}

		entries = append(entries, Entry{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no subtitle entries parsed from %d bytes of input", len(content))
	}

	return entries, nil
}

// Format renders entries back into SRT content. Parsing the result yields
// the same (index, start, end, text) tuples.
func Format(entries []Entry) string {
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(entry.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
