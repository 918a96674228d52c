package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads narration prompts from user-editable files on disk.
// Missing or unreadable files fall back to the built-in templates.
//
// Initialisation is lazy: the directory and default files are written on the
// first Load, never by the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts seeds new prompt files and backs every lookup.
var defaultPrompts = map[string]string{
	driven.PromptNarrationRewrite: driven.DefaultNarrationPrompt,
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to ~/.narrator/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".narrator", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template stored under name.
// An empty file counts as missing so a blank edit cannot silence the prompt.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err == nil && prompt == "" {
		err = fmt.Errorf("prompt %q is empty", name)
	}
	if err != nil {
		if def, ok := defaultPrompts[name]; ok {
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Path returns the file backing the named prompt.
func (s *PromptStore) Path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := s.Path(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Narrator Prompts

This directory holds the instruction sent to the remote model ahead of
every chunk of text.

## Files

- ` + "`narration_rewrite.txt`" + ` - Rewrites a chunk so it reads well aloud

## Customisation

Edit the file to change the tone of the narration. The chunk is appended
after a blank line, so the template needs no placeholders. Changes take
effect on the next command. An empty file restores the built-in prompt.

Cached rewrites are keyed by model and chunk only. Run
` + "`narrator cache clear`" + ` after changing the prompt to discard rewrites
made with the old one.
`
	return os.WriteFile(path, []byte(content), 0600)
}
