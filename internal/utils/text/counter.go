// Package text holds small text measurement and shaping helpers shared by
// the generation providers and the publishing pipeline.
package text

import (
	"strings"
	"unicode/utf8"
)

// CountRunes reports the length of text in Unicode code points. Compliance
// checks measure prose this way so multi-byte scripts and emoji count once
// per character, not once per byte.
func CountRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// CountWords counts whitespace-separated words. Markup tags count like any
// other token, so the result is an approximation when applied to HTML. That
// is acceptable for the word-target compliance metrics this feeds.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
