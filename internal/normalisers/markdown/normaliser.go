// Package markdown extracts narration text from Markdown uploads.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
)

var _ driven.Normaliser = (*Normaliser)(nil)

var (
	reFence       = regexp.MustCompile("(?ms)^[ \t]*(```|~~~).*?^[ \t]*(```|~~~)[ \t]*$")
	reImage       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reLink        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	reInlineCode  = regexp.MustCompile("`([^`]+)`")
	reHeading     = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+(.*?)[ \t#]*$`)
	reTableRule   = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t]*:?-{3,}:?[ \t]*(\|[ \t]*:?-{3,}:?[ \t]*)*\|?[ \t]*$`)
	reTableRow    = regexp.MustCompile(`(?m)^[ \t]*\|(.*)\|[ \t]*$`)
	reRule        = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	reBlockquote  = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	reBullet      = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	reNumbered    = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	reStrong      = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	reEmphasis    = regexp.MustCompile(`\*([^*\n]+)\*`)
	reStrike      = regexp.MustCompile(`~~(.+?)~~`)
	reManyNewline = regexp.MustCompile(`\n{3,}`)
)

// Normaliser strips Markdown syntax so only the prose is narrated.
// Headings become their own paragraphs, table rows read as comma-separated
// cells and code blocks are dropped.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{normalisers.MIMEMarkdown, "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips Markdown and takes the title from the first H1.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	src := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	doc := normalisers.NewDocument(raw, firstHeading(src), stripMarkdown(src), "markdown")
	return &driven.NormaliseResult{Document: doc}, nil
}

func firstHeading(src string) string {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.Trim(line, "# "))
		}
	}
	return ""
}

func stripMarkdown(src string) string {
	s := reFence.ReplaceAllString(src, "")
	s = reImage.ReplaceAllString(s, "")
	s = reLink.ReplaceAllString(s, "$1")
	s = reInlineCode.ReplaceAllString(s, "$1")
	s = reHeading.ReplaceAllString(s, "\n$1\n")
	s = reTableRule.ReplaceAllString(s, "")
	s = reTableRow.ReplaceAllStringFunc(s, tableRow)
	s = reRule.ReplaceAllString(s, "")
	s = reBlockquote.ReplaceAllString(s, "")
	s = reBullet.ReplaceAllString(s, "")
	s = reNumbered.ReplaceAllString(s, "")
	s = reStrong.ReplaceAllString(s, "$2")
	s = reEmphasis.ReplaceAllString(s, "$1")
	s = reStrike.ReplaceAllString(s, "$1")
	s = reManyNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// tableRow renders "| a | b |" as "a, b".
func tableRow(row string) string {
	row = strings.Trim(strings.TrimSpace(row), "|")
	var cells []string
	for _, c := range strings.Split(row, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return strings.Join(cells, ", ")
}
