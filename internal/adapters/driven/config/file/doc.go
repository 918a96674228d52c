// Package file provides file-backed implementations of driven ports.
//
// Adapters:
//   - ConfigStore: settings in ~/.narrator/config.toml
//   - PromptStore: editable prompt templates in ~/.narrator/prompts
package file
