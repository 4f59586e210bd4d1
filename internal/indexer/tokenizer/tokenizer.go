// Package tokenizer turns free text into normalized search terms. It
// lower-cases input, splits on anything that is not a letter or digit, drops
// one-character tokens, and removes duplicates while keeping first-seen
// order. There is no stemming or stop-word removal.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize returns the distinct terms of text. Empty input yields an empty
// (non-nil) slice.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	terms := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) <= 1 {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, word)
	}
	return terms
}

// Words splits text the same way as Tokenize but keeps case, short words and
// duplicates. The ranker uses it for per-word fuzzy credit.
func Words(text string) []string {
	return strings.FieldsFunc(text, isSeparator)
}

// Prefixes returns every proper non-empty prefix of term, shortest first,
// split on rune boundaries. A term of n runes yields n-1 prefixes.
func Prefixes(term string) []string {
	n := utf8.RuneCountInString(term)
	if n <= 1 {
		return nil
	}
	out := make([]string, 0, n-1)
	for i := range term {
		if i == 0 {
			continue
		}
		out = append(out, term[:i])
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
