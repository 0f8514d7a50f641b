package lexical

import (
	"strings"
	"unicode"
)

func isCJK(r rune) bool { return r >= 0x4E00 && r <= 0x9FFF }

// Tokenize splits text into query/index tokens. CJK runes become one
// token each; runs of other letters and runs of digits become one token
// each, lowercased. Everything else separates tokens.
func Tokenize(text string) []string {
	var tokens []string
	var run []rune
	var runDigits bool

	flush := func() {
		if len(run) > 0 {
			tokens = append(tokens, strings.ToLower(string(run)))
			run = run[:0]
		}
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r):
			if runDigits {
				flush()
			}
			runDigits = false
			run = append(run, r)
		case unicode.IsDigit(r):
			if !runDigits {
				flush()
			}
			runDigits = true
			run = append(run, r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
