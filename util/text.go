package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC and drops control characters.
func Normalize(text string) string {
	normed := norm.NFKC.String(text)
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
}

// Tokenize splits text on whitespace and returns the lookup key of every
// token. Phrase-table sources and decoder input both go through it.
func Tokenize(text string) []string {
	_, keys := SplitTokens(text)
	return keys
}

// SplitTokens splits text on whitespace and returns each token as written
// (control characters removed) together with its NFKC lookup key.
func SplitTokens(text string) (surface, keys []string) {
	return NormalizeTokens(strings.Fields(text))
}

// NormalizeTokens keys already split tokens. A token normalizes to exactly
// one key: whitespace that NFKC introduces inside it is removed. Tokens
// that normalize to nothing are dropped from both slices.
func NormalizeTokens(words []string) (surface, keys []string) {
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if unicode.IsControl(r) {
				return -1
			}
			return r
		}, w)
		key := strings.Join(strings.Fields(Normalize(w)), "")
		if key == "" {
			continue
		}
		surface = append(surface, w)
		keys = append(keys, key)
	}
	return surface, keys
}
