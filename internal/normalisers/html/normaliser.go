package html

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// skipped elements never contribute narration text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Head:     true,
	atom.Nav:      true,
	atom.Iframe:   true,
}

// blocks end the current paragraph.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Hr: true, atom.Header: true, atom.Footer: true, atom.Main: true, atom.Aside: true,
	atom.Figcaption: true, atom.Dd: true, atom.Dt: true,
}

// Normaliser converts HTML to paragraphs of plain text.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{normalisers.MIMEHTML, "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the page text. The title comes from <title>, then the
// first <h1>, then the file name.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	title, content, err := extract(raw.Content)
	if err != nil {
		return nil, err
	}
	return &driven.NormaliseResult{
		Document: normalisers.NewDocument(raw, title, content, "html"),
	}, nil
}

// extract walks the token stream once, collecting text outside skipped
// elements.
func extract(src []byte) (title, content string, err error) {
	var (
		z       = html.NewTokenizer(bytes.NewReader(src))
		out     strings.Builder
		para    strings.Builder
		heading strings.Builder
		skip    int
		inTitle bool
		inH1    bool
	)

	flush := func() {
		text := strings.Join(strings.Fields(para.String()), " ")
		para.Reset()
		if text == "" {
			return
		}
		if out.Len() > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(text)
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if zerr := z.Err(); !errors.Is(zerr, io.EOF) {
				return "", "", zerr
			}
			flush()
			if title == "" {
				title = strings.Join(strings.Fields(heading.String()), " ")
			}
			return title, out.String(), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = tt == html.StartTagToken
			case skipped[a]:
				if tt == html.StartTagToken {
					skip++
				}
			case a == atom.Br:
				para.WriteString(" ")
			case blocks[a]:
				flush()
				if a == atom.H1 && heading.Len() == 0 {
					inH1 = true
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Title:
				inTitle = false
			case skipped[a]:
				if skip > 0 {
					skip--
				}
			case blocks[a]:
				flush()
				if a == atom.H1 {
					inH1 = false
				}
			}

		case html.TextToken:
			text := string(z.Text())
			switch {
			case inTitle:
				if title == "" {
					title = strings.Join(strings.Fields(text), " ")
				}
			case skip > 0:
			default:
				para.WriteString(text)
				if inH1 {
					heading.WriteString(text)
				}
			}
		}
	}
}
