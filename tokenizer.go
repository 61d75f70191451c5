package sentgo

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it into word-level tokens.
// Punctuation is split off into its own tokens so that "great!" becomes
// ["great", "!"], while internal apostrophes are kept ("don't" stays one token).
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			// every other rune becomes its own token
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}
