package translator

import "regexp"

// ResidueFunc reports whether text still contains source-language script.
// It is the translation-failure signal: a pluggable predicate so tests can
// inject a deterministic oracle instead of a live translation service.
type ResidueFunc func(text string) bool

var cyrillicRegex = regexp.MustCompile(`[А-Яа-яЁё]`)

// CyrillicResidue reports whether text contains Cyrillic characters,
// meaning a Russian caption was not (fully) translated
func CyrillicResidue(text string) bool {
	return cyrillicRegex.MatchString(text)
}
