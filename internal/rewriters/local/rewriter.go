package local

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/logger"
)

// Ensure Rewriter implements the interface.
var _ driven.FallbackRewriter = (*Rewriter)(nil)

const (
	// TransitionPrefix opens paragraphs longer than TransitionThreshold.
	TransitionPrefix = "Imagine this: "

	// TransitionThreshold is the paragraph length, in characters, above
	// which the transition prefix is added.
	TransitionThreshold = 200

	// LongSentenceThreshold is the sentence length, in characters, above
	// which commas become full stops.
	LongSentenceThreshold = 160
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	sentenceBreak  = regexp.MustCompile(`([.?!])\s+`)
	commaSeparator = regexp.MustCompile(`,\s+`)
)

// Rewriter is the deterministic local narration rewriter.
type Rewriter struct{}

// New creates a local rewriter.
func New() *Rewriter {
	return &Rewriter{}
}

// Rewrite returns text reshaped for narration. It never fails; if rewriting
// panics the whitespace-normalised input is returned instead.
func (r *Rewriter) Rewrite(text string) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("local rewrite recovered from panic: %v", rec)
			out = normaliseParagraphs(text)
		}
	}()

	paragraphs := splitParagraphs(text)
	rewritten := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		rewritten = append(rewritten, rewriteParagraph(p))
	}
	return strings.Join(rewritten, "\n\n")
}

func rewriteParagraph(p string) string {
	if utf8.RuneCountInString(p) > TransitionThreshold {
		p = TransitionPrefix + p
	}
	p = collapseWhitespace(p)

	sentences := splitSentences(p)
	for i, s := range sentences {
		if utf8.RuneCountInString(s) > LongSentenceThreshold {
			s = commaSeparator.ReplaceAllString(s, ". ")
		}
		sentences[i] = strings.TrimSpace(s)
	}
	return strings.Join(sentences, " ")
}

// splitSentences breaks a whitespace-collapsed paragraph after each
// terminal punctuation mark.
func splitSentences(p string) []string {
	marked := sentenceBreak.ReplaceAllString(p, "$1\x00")
	parts := strings.Split(marked, "\x00")
	out := parts[:0]
	for _, s := range parts {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func normaliseParagraphs(text string) string {
	paragraphs := splitParagraphs(text)
	for i, p := range paragraphs {
		paragraphs[i] = collapseWhitespace(p)
	}
	return strings.Join(paragraphs, "\n\n")
}
