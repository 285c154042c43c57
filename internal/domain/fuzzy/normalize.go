// Package fuzzy implements typo-tolerant substring search over a catalog:
// direct substring matching first, then per-word spelling correction against
// a corpus built from the catalog, then a re-search with the corrected query.
package fuzzy

import (
	"strings"
	"unicode"
)

// stripped are removed before comparison so "Alzheimer's" matches "alzheimers"
// and "Anti-Aging" matches "antiaging".
var stripped = strings.NewReplacer(
	"'", "",
	"’", "",
	"‘", "",
	"`", "",
	"-", "",
)

// Normalize returns the canonical comparison form of s: lower-cased, with
// apostrophes, backticks and hyphens removed, and surrounding whitespace
// trimmed. Normalize is idempotent.
func Normalize(s string) string {
	return strings.TrimSpace(stripped.Replace(strings.ToLower(s)))
}

// tokens splits normalized text on whitespace and dashes, trims surrounding
// punctuation and keeps tokens longer than minLen characters.
func tokens(normalized string, minLen int) []string {
	fields := strings.FieldsFunc(normalized, isTokenSeparator)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, unicode.IsPunct)
		if runeLen(f) > minLen {
			out = append(out, f)
		}
	}
	return out
}

func isTokenSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Pd, r)
}

func runeLen(s string) int {
	return len([]rune(s))
}
