// Package tokenizer provides the text tokenisation shared by the build and
// query paths. It lower-cases input, maps every rune outside a small kept
// character set to a space, splits on whitespace runs, and drops tokens
// below a minimum length. The kept set preserves medical dosage notations
// such as "mg/ml", "2.5%", "q12h", and "10-20".
//
// The exact same function and configuration must be applied to documents at
// build time and to queries at search time; any divergence breaks matching.
package tokenizer

import "strings"

// DefaultMinTokenLen is the default cutoff below which tokens are discarded.
const DefaultMinTokenLen = 2

// Tokenize splits text into normalised tokens of at least minTokenLen runes.
// It is pure and deterministic: no stemming, no stop-words, no locale
// dependence.
func Tokenize(text string, minTokenLen int) []string {
	if minTokenLen < 1 {
		minTokenLen = DefaultMinTokenLen
	}
	lowered := strings.ToLower(text)
	normalized := strings.Map(func(r rune) rune {
		if keepRune(r) {
			return r
		}
		return ' '
	}, lowered)

	words := strings.Fields(normalized)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < minTokenLen {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// keepRune reports whether r survives normalisation. Everything else becomes
// a token boundary.
func keepRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	switch r {
	case '%', '.', '/', '-', '+':
		return true
	}
	return false
}
