package coursepath

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a free-text topic label into the key space used by
// every topic-indexed map. It lowercases, turns '-', '_' and '/' into spaces,
// drops anything that is not an ASCII letter, digit or space, collapses
// whitespace, and strips one trailing 's' from tokens longer than four
// characters. Tokens ending in "ss" keep their suffix so that the function
// stays idempotent ("address" would otherwise lose a letter on every pass).
func Normalize(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '/':
			b.WriteByte(' ')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for i, t := range tokens {
		if len(t) > 4 && strings.HasSuffix(t, "s") && !strings.HasSuffix(t, "ss") {
			tokens[i] = t[:len(t)-1]
		}
	}
	return strings.Join(tokens, " ")
}

// normalizeAll applies Normalize to every label, preserving order.
func normalizeAll(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = Normalize(l)
	}
	return out
}
