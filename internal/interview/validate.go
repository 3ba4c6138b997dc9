package interview

import (
	"strings"
	"unicode"
)

const (
	maxAnswerLen    = 20000
	maxNameLen      = 200
	maxTopicLen     = 200
	questionRetries = 3
)

// normalizeQuestion lowercases, strips punctuation, and collapses whitespace
// so near-duplicate questions compare equal.
func normalizeQuestion(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	lastSpace := true
	for _, r := range strings.ToLower(q) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// isDuplicate reports whether candidate matches any previously asked
// question after normalization.
func isDuplicate(candidate string, asked []string) bool {
	norm := normalizeQuestion(candidate)
	if norm == "" {
		return true
	}
	for _, q := range asked {
		if normalizeQuestion(q) == norm {
			return true
		}
	}
	return false
}
