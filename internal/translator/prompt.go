package translator

import (
	"fmt"
	"regexp"
	"strings"

	"subtitletranslator/internal/subtitle"
)

// systemPrompt is the translation contract: every caption must come back,
// tagged with its bracketed index, complete and in English.
const systemPrompt = `You are a professional subtitle translator. Translate Russian subtitles into natural, conversational English.

CRITICAL RULES:
1. Translate ALL subtitles in the batch - NEVER skip any
2. Keep [number] format for each line
3. TRANSLATE COMPLETE TEXT - do NOT shorten or cut off translations
4. Each translation must contain ALL information from the original Russian text
5. Make translations natural and conversational but COMPLETE
6. Use context from surrounding subtitles for accurate meaning
7. If original is long, translation should be long too - preserve ALL content
8. Output ONLY translations in [number] text format - one line per subtitle

Example:
Input:
[1] Добрый день, коллеги! Сегодня мы представляем вашему вниманию дизайн фитобара, расположенный на втором этаже.
[2] Начнем с планировочного решения.

Output:
[1] Good afternoon, colleagues! Today we're presenting the design for the phytobar located on the second floor.
[2] Let's start with the layout solution.`

// taggedLineRegex extracts one "[index] translation" pair from a reply line
var taggedLineRegex = regexp.MustCompile(`^\[(\d+)\]\s*(.+)$`)

// buildUserPrompt tags each caption with its index so replies can be
// matched back regardless of line order
func buildUserPrompt(batch []subtitle.Entry) string {
	lines := make([]string, 0, len(batch))
	for _, entry := range batch {
		lines = append(lines, fmt.Sprintf("[%s] %s", entry.Index, entry.Text))
	}

	return fmt.Sprintf(`<subtitles_to_translate>
%s
</subtitles_to_translate>

Translate all subtitles above into English. Output format: [number] translated_text`,
		strings.Join(lines, "\n"))
}

// parseReply extracts every (index, text) pair the reply actually contains.
// The service gives no guarantee of complete or correctly-tagged coverage.
func parseReply(reply string) map[string]string {
	pairs := make(map[string]string)
	for _, line := range strings.Split(reply, "\n") {
		matches := taggedLineRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}
		pairs[matches[1]] = strings.TrimSpace(matches[2])
	}
	return pairs
}
