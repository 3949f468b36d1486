package text

import (
	"strings"
	"unicode"
)

// Truncate shortens s to at most max runes, appending "…" when anything
// was cut. Truncation happens on rune boundaries so multi-byte characters
// are never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max]) + "…"
}

// Excerpt shortens s to at most max runes like Truncate, but backs up to
// the previous word boundary so no word is cut in half. Text without
// spaces, such as Japanese prose, still gets the hard rune cut.
func Excerpt(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}

	end := max
	if !unicode.IsSpace(rs[end]) {
		for end > 0 && !unicode.IsSpace(rs[end-1]) {
			end--
		}
	}
	if end == 0 {
		end = max
	}
	head := strings.TrimRightFunc(string(rs[:end]), unicode.IsSpace)
	return head + "…"
}

// CollapseWhitespace replaces runs of whitespace (including newlines) with a
// single space and trims the ends. Used to normalize extracted page text
// before feeding it to prompts or excerpts.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
