package normalisers

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reLineBreakHyphen = regexp.MustCompile(`([\p{L}\p{N}])-[ \t]*\n[ \t]*([\p{L}\p{N}])`)
	rePageDashed      = regexp.MustCompile(`(?im)^[ \t]*-{2,}[ \t]*page[ \t]*\d+[ \t]*-*[ \t]*$`)
	rePagePlain       = regexp.MustCompile(`(?im)^[ \t]*page:?[ \t]*\d+[ \t]*$`)
	reUnderscoreRun   = regexp.MustCompile(`_{2,}`)
	reDashRun         = regexp.MustCompile(`[ \t]*[-–—]{2,}[ \t]*`)
	reControl         = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	reManyNewlines    = regexp.MustCompile(`\n{3,}`)
	rePunctRun        = regexp.MustCompile(`[!?.,]{2,}`)
	reSpaceBeforeMark = regexp.MustCompile(`[ \t]+([,?.!;:])`)
	reMissingSpace    = regexp.MustCompile(`([.!?])(\p{L})`)
	reSpaceRun        = regexp.MustCompile(` {2,}`)
	reBracketMarker   = regexp.MustCompile(`\[[ \t]*\w{1,10}[ \t]*\]`)
	reNumberMarker    = regexp.MustCompile(`\([ \t]*\d{1,4}[ \t]*\)`)
	reSymbolLine      = regexp.MustCompile(`(?m)^[^\p{L}\p{N}\n]+$`)
)

// Clean prepares extracted text for reading aloud. It joins words hyphenated
// across line breaks, drops page headers, citation markers and lines made of
// symbols, tidies whitespace and punctuation, and leaves paragraphs
// separated by exactly one blank line.
func Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	t := norm.NFC.String(strings.ToValidUTF8(text, ""))
	t = strings.TrimPrefix(t, "\ufeff")
	t = strings.ReplaceAll(t, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")

	t = reLineBreakHyphen.ReplaceAllString(t, "$1$2")
	t = rePageDashed.ReplaceAllString(t, "")
	t = rePagePlain.ReplaceAllString(t, "")

	t = reUnderscoreRun.ReplaceAllString(t, " ")
	t = reDashRun.ReplaceAllString(t, " ")
	t = strings.ReplaceAll(t, "_", " ")
	t = reControl.ReplaceAllString(t, "")
	t = reBracketMarker.ReplaceAllString(t, " ")
	t = reNumberMarker.ReplaceAllString(t, " ")
	t = trimLines(t)
	t = reSymbolLine.ReplaceAllString(t, "")

	t = rePunctRun.ReplaceAllStringFunc(t, func(run string) string { return run[len(run)-1:] })
	t = reSpaceBeforeMark.ReplaceAllString(t, "$1")
	t = reMissingSpace.ReplaceAllString(t, "$1 $2")
	t = reSpaceRun.ReplaceAllString(t, " ")
	t = trimLines(t)
	t = reManyNewlines.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}

func trimLines(t string) string {
	lines := strings.Split(t, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}
