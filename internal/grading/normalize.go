package grading

import "strings"

// terminalPunctuation lists characters stripped from the end of an
// attempt before comparison. Internal punctuation is preserved since it
// can be meaningful ("it's" vs "its").
const terminalPunctuation = ".,!?;:¡¿。！？"

// Normalize canonicalizes an attempt for exact comparison: casefold,
// trim, collapse runs of whitespace, and strip trailing punctuation.
// "  Der  Hund! " and "der hund" normalize to the same string.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, terminalPunctuation)
	return strings.TrimSpace(s)
}

// matchesAny reports whether the normalized attempt equals any of the
// normalized expected answers.
func matchesAny(attempt string, expected []string) bool {
	normalized := Normalize(attempt)
	for _, want := range expected {
		if normalized == Normalize(want) {
			return true
		}
	}
	return false
}
