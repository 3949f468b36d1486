package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Slugify converts a title into a URL slug: lowercase ASCII alphanumeric
// segments joined by single hyphens. Characters outside that set become
// segment boundaries.
//
// Titles with no ASCII alphanumeric characters at all (for example a purely
// Japanese title) produce an empty slug; callers should treat that as
// "let the CMS pick one".
//
// Examples:
//
//	Slugify("Getting Started With Go")   // "getting-started-with-go"
//	Slugify("Top 10 Tips (2026)")        // "top-10-tips-2026"
//	Slugify("日本語のタイトル")             // ""
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// Humanize converts a URL slug back into a display title: hyphens and
// underscores become spaces and each word gets an uppercase first letter.
//
// Examples:
//
//	Humanize("getting-started-with-go") // "Getting Started With Go"
//	Humanize("top_10_tips")             // "Top 10 Tips"
func Humanize(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})

	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}

	return strings.Join(words, " ")
}
