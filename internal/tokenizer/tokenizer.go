// Package tokenizer lowercases document text and splits it into
// Unicode word tokens, the external collaborator spec.md §1 specifies
// only by contract: "lowercases input and emits Unicode word tokens."
package tokenizer

import (
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowercaser = cases.Lower(language.Und)

// Tokenize lowercases text and splits it into words, walking grapheme
// clusters with uniseg so multi-rune clusters (accents, emoji,
// combining marks) are never split mid-cluster the way naive
// byte/rune scanning would.
func Tokenize(text string) []string {
	lowered := lowercaser.String(text)

	var tokens []string
	var current []byte

	gr := uniseg.NewGraphemes(lowered)
	for gr.Next() {
		cluster := gr.Runes()
		if isWordCluster(cluster) {
			current = append(current, []byte(string(cluster))...)
			continue
		}
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		tokens = append(tokens, string(current))
	}

	return tokens
}

// isWordCluster reports whether a grapheme cluster belongs inside a
// word token: it starts with a letter, digit, or combining mark.
func isWordCluster(cluster []rune) bool {
	if len(cluster) == 0 {
		return false
	}
	r := cluster[0]
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
