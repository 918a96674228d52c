// Package response locates generated text in provider responses and maps
// provider failures onto the rewrite error taxonomy.
//
// Providers disagree on where the generated text lives. Extract tries an
// ordered list of small, pure strategies against the decoded JSON body and
// returns the first non-empty result, so one adapter keeps working when a
// gateway or SDK version changes the envelope.
package response

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// Strategy looks for text in one response shape. It returns "" on no match.
type Strategy struct {
	Name string
	Find func(decoded any) string
}

// Strategies is the ordered list tried by Extract.
var Strategies = []Strategy{
	{Name: "text", Find: field("text")},
	{Name: "output_text", Find: field("output_text")},
	{Name: "candidates.content.parts", Find: candidateParts},
	{Name: "candidates.content[]", Find: candidateContentList},
	{Name: "candidates.text", Find: candidateText},
	{Name: "choices.message.content", Find: choiceMessage},
	{Name: "content[].text", Find: contentParts},
	{Name: "output.content.text", Find: outputContent},
	{Name: "response", Find: field("response")},
}

// Extract returns the generated text from a decoded JSON response.
// It returns domain.ErrExtraction when no strategy finds any text.
func Extract(decoded any) (string, error) {
	for _, s := range Strategies {
		if text := strings.TrimSpace(s.Find(decoded)); text != "" {
			return text, nil
		}
	}
	return "", domain.ErrExtraction
}

// ExtractBytes decodes body as JSON and extracts the generated text.
func ExtractBytes(body []byte) (string, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrExtraction, err)
	}
	return Extract(decoded)
}

func field(name string) func(any) string {
	return func(v any) string {
		return str(get(v, name))
	}
}

// candidateParts handles Gemini: candidates[0].content.parts[*].text.
func candidateParts(v any) string {
	content := get(index(get(v, "candidates"), 0), "content")
	return joinTexts(get(content, "parts"))
}

// candidateContentList handles gateways that flatten content into a list of parts.
func candidateContentList(v any) string {
	return joinTexts(get(index(get(v, "candidates"), 0), "content"))
}

func candidateText(v any) string {
	return str(get(index(get(v, "candidates"), 0), "text"))
}

// choiceMessage handles OpenAI chat completions.
func choiceMessage(v any) string {
	return str(get(get(index(get(v, "choices"), 0), "message"), "content"))
}

// contentParts handles Anthropic messages: content[*].text.
func contentParts(v any) string {
	return joinTexts(get(v, "content"))
}

// outputContent handles the OpenAI responses API: output[0].content[0].text.
func outputContent(v any) string {
	return str(get(index(get(index(get(v, "output"), 0), "content"), 0), "text"))
}

func get(v any, key string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func index(v any, i int) any {
	list, ok := v.([]any)
	if !ok || i >= len(list) {
		return nil
	}
	return list[i]
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// joinTexts concatenates the text of every part in a list of parts.
func joinTexts(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, part := range list {
		b.WriteString(str(get(part, "text")))
	}
	return b.String()
}
