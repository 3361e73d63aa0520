package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Entry represents one timed subtitle record, the core unit of the pipeline.
// Start and End are seconds from the beginning of the original, unchunked
// media. Index is the entry's stable identity: a positive integer in
// transcript order, or a derived form like "12_1" after display splitting.
type Entry struct {
	Index string
	Start float64
	End   float64
	Text  string
}

// String renders the entry as one SRT block (index, timing, text).
func (e Entry) String() string {
	return fmt.Sprintf("%s\n%s --> %s\n%s\n",
		e.Index, FormatTimestamp(e.Start), FormatTimestamp(e.End), e.Text)
}

var timestampRegex = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)

// ParseTimestamp converts an SRT timestamp (HH:MM:SS,mmm) into total seconds.
func ParseTimestamp(ts string) (float64, error) {
	matches := timestampRegex.FindStringSubmatch(strings.TrimSpace(ts))
	if matches == nil {
		return 0, fmt.Errorf("invalid timestamp %q: expected HH:MM:SS,mmm", ts)
	}

	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])
	millis, _ := strconv.Atoi(matches[4])

	return float64(hours)*3600 + float64(minutes)*60 + float64(seconds) + float64(millis)/1000, nil
}

// FormatTimestamp converts total seconds into an SRT timestamp (HH:MM:SS,mmm).
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))

	hours := totalMillis / 3600000
	minutes := (totalMillis % 3600000) / 60000
	secs := (totalMillis % 60000) / 1000
	millis := totalMillis % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
