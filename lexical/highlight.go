package lexical

import (
	"strings"
	"unicode"
)

// Default highlight window parameters.
const (
	DefaultMaxHighlights = 3
	DefaultContextChars  = 50
)

// Highlights returns up to maxHighlights context windows around
// case-insensitive occurrences of the query's tokens in content. Each
// window extends contextChars runes on each side of the match and is
// marked with an ellipsis where it truncates the text. Boundary details
// are cosmetic; callers should rely only on the match being contained.
func Highlights(content, query string, maxHighlights, contextChars int) []string {
	if maxHighlights <= 0 || content == "" {
		return nil
	}
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	runes := []rune(content)
	// Fold rune by rune so positions line up with the original text.
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	var out []string
	for _, token := range tokens {
		needle := []rune(token)
		from := 0
		for len(out) < maxHighlights {
			at := indexRunes(lower, needle, from)
			if at < 0 {
				break
			}
			out = append(out, window(runes, at, at+len(needle), contextChars))
			from = at + len(needle)
		}
		if len(out) >= maxHighlights {
			break
		}
	}
	return out
}

// indexRunes finds needle in haystack at or after from, by rune position.
func indexRunes(haystack, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// window cuts a context window of contextChars runes around [start,end).
func window(runes []rune, start, end, contextChars int) string {
	lo := start - contextChars
	if lo < 0 {
		lo = 0
	}
	hi := end + contextChars
	if hi > len(runes) {
		hi = len(runes)
	}

	var sb strings.Builder
	if lo > 0 {
		sb.WriteString("...")
	}
	sb.WriteString(string(runes[lo:hi]))
	if hi < len(runes) {
		sb.WriteString("...")
	}
	return sb.String()
}
