package text_test

import (
	"testing"

	"contentforge/internal/utils/text"
)

// TestTruncate tests rune-safe truncation
func TestTruncate(t *testing.T) {
	tests := map[string]struct {
		raw string
		max int
		out string
	}{
		"shorter than limit":      {raw: "hello", max: 10, out: "hello"},
		"exactly at limit":        {raw: "hello", max: 5, out: "hello"},
		"truncated with ellipsis": {raw: "hello world", max: 5, out: "hello…"},
		"rune boundary":           {raw: "こんにちは世界", max: 5, out: "こんにちは…"},
		"zero limit":              {raw: "hello", max: 0, out: ""},
		"negative limit":          {raw: "hello", max: -1, out: ""},
		"empty input":             {raw: "", max: 5, out: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := text.Truncate(tc.raw, tc.max); got != tc.out {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tc.raw, tc.max, got, tc.out)
			}
		})
	}
}

// TestExcerpt tests word-boundary truncation
func TestExcerpt(t *testing.T) {
	tests := map[string]struct {
		raw string
		max int
		out string
	}{
		"shorter than limit":      {raw: "hello world", max: 20, out: "hello world"},
		"cut lands on a space":    {raw: "hello world foo", max: 11, out: "hello world…"},
		"backs up to boundary":    {raw: "hello world foo", max: 8, out: "hello…"},
		"one unbroken word":       {raw: "supercalifragilistic", max: 5, out: "super…"},
		"japanese prose":          {raw: "こんにちは世界です", max: 5, out: "こんにちは…"},
		"trailing spaces trimmed": {raw: "hi   there you", max: 5, out: "hi…"},
		"zero limit":              {raw: "hello", max: 0, out: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := text.Excerpt(tc.raw, tc.max); got != tc.out {
				t.Errorf("Excerpt(%q, %d) = %q, want %q", tc.raw, tc.max, got, tc.out)
			}
		})
	}
}

// TestCollapseWhitespace tests whitespace normalization
func TestCollapseWhitespace(t *testing.T) {
	tests := map[string]struct {
		raw string
		out string
	}{
		"no extra whitespace":  {raw: "hello world", out: "hello world"},
		"multiple spaces":      {raw: "hello    world", out: "hello world"},
		"newlines and tabs":    {raw: "hello\n\tworld\n", out: "hello world"},
		"leading and trailing": {raw: "  hello world  ", out: "hello world"},
		"only whitespace":      {raw: " \n\t ", out: ""},
		"empty string":         {raw: "", out: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := text.CollapseWhitespace(tc.raw); got != tc.out {
				t.Errorf("CollapseWhitespace(%q) = %q, want %q", tc.raw, got, tc.out)
			}
		})
	}
}
