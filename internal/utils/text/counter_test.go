package text_test

import (
	"strings"
	"testing"

	"contentforge/internal/utils/text"
)

func TestCountRunes(t *testing.T) {
	cases := map[string]struct {
		in   string
		want int
	}{
		"empty":         {"", 0},
		"plain ASCII":   {"hello world", 11},
		"Japanese":      {"こんにちは世界", 7},
		"mixed scripts": {"Machine LearningとDeep Learningの違い", 33},
		"emoji":         {"Hello👋", 6},

		// 国旗は地域指示子2つの組なので2と数える。
		"flag emoji pair":      {"🇯🇵", 2},
		"decomposed diacritic": {"café", 5},
		"zero-width space":     {"a​b", 3},
		"whitespace runs":      {" \t\n ", 4},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			if got := text.CountRunes(tt.in); got != tt.want {
				t.Errorf("CountRunes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	cases := map[string]struct {
		in   string
		want int
	}{
		"empty":                     {"", 0},
		"single word":               {"hello", 1},
		"simple sentence":           {"the quick brown fox", 4},
		"irregular whitespace":      {"  spaced \t out\nwords  ", 3},
		"tags merge into neighbors": {"<p>one two</p>", 2},
		"spaced tags split tokens":  {"<p> one two three </p>", 5},
		"whitespace only":           {" \t\n ", 0},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			if got := text.CountWords(tt.in); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func BenchmarkCountRunes(b *testing.B) {
	// 生成本文に近いサイズの混在テキスト。
	sample := strings.Repeat("AIの発展により、新しい可能性が広がっています。Machine Learning is transforming technology. ", 40)
	b.ReportAllocs()
	for b.Loop() {
		text.CountRunes(sample)
	}
}
