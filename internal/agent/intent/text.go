package intent

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and turns punctuation into single spaces so
// keyword phrases can be matched on word boundaries. Hyphens survive because
// product names use them ("omega-3").
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '-' || r == '\'' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// HasPhrase reports whether the normalized text contains phrase as whole
// words. normalized must come from Normalize.
func HasPhrase(normalized, phrase string) bool {
	return strings.Contains(normalized, " "+phrase+" ")
}

// HasAny reports the first phrase found, or "".
func HasAny(normalized string, phrases []string) string {
	for _, p := range phrases {
		if HasPhrase(normalized, p) {
			return p
		}
	}
	return ""
}
