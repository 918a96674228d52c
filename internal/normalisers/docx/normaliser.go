// Package docx extracts narration text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/normalisers"
)

var _ driven.Normaliser = (*Normaliser)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Normaliser reads the paragraphs of a DOCX file. Every non-blank paragraph,
// including those inside tables and hyperlinks, becomes one narration
// paragraph.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{normalisers.MIMEDocx}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the document text and, when present, the core title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	zr, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}

	body, err := readPart(zr, documentPart)
	if err != nil {
		return nil, err
	}
	paras, err := paragraphs(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, documentPart, err)
	}

	var title string
	if core, err := readPart(zr, corePart); err == nil {
		title = coreTitle(core)
	}

	doc := normalisers.NewDocument(raw, title, strings.Join(paras, "\n\n"), "docx")
	return &driven.NormaliseResult{Document: doc}, nil
}

// readPart returns the bytes of a named archive member. A missing document
// part yields empty content rather than an error.
func readPart(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, name, err)
	}
	return data, nil
}

// paragraphs walks the WordprocessingML token stream. Text runs (t) are
// concatenated, tab becomes a space and br/cr a line break.
func paragraphs(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out    []string
		cur    strings.Builder
		inText bool
	)
	flush := func() {
		if p := strings.TrimSpace(cur.String()); p != "" {
			out = append(out, p)
		}
		cur.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				flush()
			case "t":
				inText = true
			case "tab":
				cur.WriteByte(' ')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				flush()
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				cur.Write(el)
			}
		}
	}
	flush()
	return out, nil
}

type coreProps struct {
	Title string `xml:"title"`
}

func coreTitle(data []byte) string {
	var core coreProps
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
