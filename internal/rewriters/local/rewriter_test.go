package local

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriter_Empty(t *testing.T) {
	r := New()

	assert.Equal(t, "", r.Rewrite(""))
	assert.Equal(t, "", r.Rewrite("   \n\n\t  \n\n"))
}

func TestRewriter_ShortParagraphUnchanged(t *testing.T) {
	r := New()

	assert.Equal(t, "Hello there. How are you?", r.Rewrite("Hello there. How are you?"))
}

func TestRewriter_CollapsesWhitespace(t *testing.T) {
	r := New()

	got := r.Rewrite("  Hello   there.\nHow\tare you?  ")

	assert.Equal(t, "Hello there. How are you?", got)
}

func TestRewriter_ParagraphsProcessedIndependently(t *testing.T) {
	r := New()

	got := r.Rewrite("First  one.\n\n\n\n  \n\nSecond   one.")

	assert.Equal(t, "First one.\n\nSecond one.", got)
}

func TestRewriter_TransitionForLongParagraph(t *testing.T) {
	r := New()
	long := strings.TrimSpace(strings.Repeat("Word. ", 40))
	assert.Greater(t, len(long), TransitionThreshold)

	got := r.Rewrite(long + "\n\nShort.")

	paras := strings.Split(got, "\n\n")
	assert.Len(t, paras, 2)
	assert.True(t, strings.HasPrefix(paras[0], TransitionPrefix))
	assert.Equal(t, "Short.", paras[1])
}

func TestRewriter_NoTransitionAtThreshold(t *testing.T) {
	r := New()
	p := strings.Repeat("a", TransitionThreshold)

	assert.Equal(t, p, r.Rewrite(p))
}

func TestRewriter_LongSentenceCommasBecomeStops(t *testing.T) {
	r := New()
	clause := "this clause keeps going for a while"
	sentence := strings.Join([]string{clause, clause, clause, clause, clause}, ", ") + "."
	assert.Greater(t, len(sentence), LongSentenceThreshold)
	assert.LessOrEqual(t, len(sentence), TransitionThreshold)

	got := r.Rewrite(sentence)

	assert.NotContains(t, got, ",")
	assert.Equal(t, strings.Join([]string{clause, clause, clause, clause, clause}, ". ")+".", got)
}

func TestRewriter_ShortSentenceKeepsCommas(t *testing.T) {
	r := New()

	got := r.Rewrite("One, two, three. Four, five!")

	assert.Equal(t, "One, two, three. Four, five!", got)
}

func TestRewriter_OnlyLongSentenceSoftened(t *testing.T) {
	r := New()
	long := strings.Repeat("alpha beta gamma, ", 10) + "end."
	short := "Keep, this."

	got := r.Rewrite(short + " " + long)

	assert.True(t, strings.HasPrefix(got, "Keep, this. "))
	assert.NotContains(t, strings.TrimPrefix(got, "Keep, this. "), ",")
}

func TestRewriter_Deterministic(t *testing.T) {
	r := New()
	text := strings.Repeat("A fairly long sentence, with commas, and more words. ", 12) +
		"\n\nAnother paragraph?  Yes!"

	assert.Equal(t, r.Rewrite(text), r.Rewrite(text))
}

func TestRewriter_NeverPanics(t *testing.T) {
	r := New()
	inputs := []string{
		"",
		"\n\n",
		".",
		"!!!???...",
		", , , ,",
		"\x00\x00",
		string([]byte{0xff, 0xfe, 0xfd}),
		strings.Repeat("é, ", 200),
		strings.Repeat("\n", 50),
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() { r.Rewrite(in) }, "input %q", in)
	}
}

func TestNormaliseParagraphs(t *testing.T) {
	assert.Equal(t, "a b\n\nc", normaliseParagraphs("  a \n b \n\n\n\n c "))
}
