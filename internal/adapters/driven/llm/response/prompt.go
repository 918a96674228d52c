package response

import (
	"strings"

	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

// Prompt builds the request text for one chunk: the narration template,
// a blank line, then the chunk. A missing or blank stored template falls
// back to driven.DefaultNarrationPrompt.
func Prompt(store driven.PromptStore, chunk string) string {
	template := driven.DefaultNarrationPrompt
	if store != nil {
		if p, err := store.Load(driven.PromptNarrationRewrite); err == nil && strings.TrimSpace(p) != "" {
			template = strings.TrimSpace(p)
		}
	}
	return template + "\n\n" + chunk
}
