package sentiment

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it into word tokens.
//
// Apostrophes are dropped so "don't" and "dont" match the same entry.
// Letters, digits and inner hyphens are kept; every other rune separates
// tokens. Hyphens at either end of a token are trimmed.
func Tokenize(text string) []string {
	var (
		tokens []string
		b      strings.Builder
	)

	flush := func() {
		tok := strings.Trim(b.String(), "-")
		if tok != "" {
			tokens = append(tokens, tok)
		}
		b.Reset()
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'' || r == '’':
			// skip
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}
