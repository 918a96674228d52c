package driven

// PromptStore loads the instruction text sent to providers. Users can
// override the built-in prompt by editing files in ~/.narrator/prompts.
type PromptStore interface {
	// Load returns the template called name, or the built-in default when
	// no override exists.
	Load(name string) (string, error)

	// Reload drops cached templates so edits on disk are picked up.
	Reload()
}

// PromptNarrationRewrite is the instruction sent ahead of every chunk. The
// chunk text is appended after a blank line; the template has no format
// placeholders.
const PromptNarrationRewrite = "narration_rewrite"

// PromptStoreAware is implemented by rewriters whose prompt can be replaced
// after construction. Without a store they use DefaultNarrationPrompt.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}

// DefaultNarrationPrompt is the built-in narration_rewrite template.
const DefaultNarrationPrompt = "Rewrite the following text so it reads naturally and engagingly " +
	"when narrated as an audiobook. Preserve meaning. Improve pacing, add short transitions " +
	"and natural phrasing. Return only the rewritten text."
