package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", " \n\t\n", ""},
		{"crlf and bom", "\ufeffOne.\r\n\r\nTwo.", "One.\n\nTwo."},
		{"hyphenation across lines", "an exam-\nple of it", "an example of it"},
		{"page headers", "Text.\n--- Page 12 ---\nMore.\nPage: 13\nEnd.", "Text.\n\nMore.\n\nEnd."},
		{"underscores and dash runs", "fill ____ here -- and — there", "fill here and — there"},
		{"control characters", "bell\x07 here", "bell here"},
		{"three or more newlines", "a\n\n\n\nb", "a\n\nb"},
		{"lines trimmed", "  indented  \n\tline", "indented\nline"},
		{"punctuation runs", "Wait!!! Really?! Yes...", "Wait! Really! Yes."},
		{"space before punctuation", "Hello , world !", "Hello, world!"},
		{"missing space after sentence", "End.Start", "End. Start"},
		{"decimals kept", "Pi is 3.14 exactly.", "Pi is 3.14 exactly."},
		{"citation markers", "As shown [12] and (3) here.", "As shown and here."},
		{"symbol-only lines", "Part one.\n* * *\nPart two.", "Part one.\n\nPart two."},
		{"invalid utf8 dropped", "caf\xffe", "cafe"},
		{"nfc", "cafe\u0301", "caf\u00e9"},
		{"non-latin kept", "日本語の文章。\n\n第二段落。", "日本語の文章。\n\n第二段落。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	in := "Chapter  1\r\n\r\n\r\nIt was a dark-\nand stormy night [3]...\n\n-- page 2 --\n\nThe end !"
	once := Clean(in)

	assert.Equal(t, once, Clean(once))
}
