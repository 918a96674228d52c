// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FallbackRewriter: Offline narration rewrite, always succeeds
//   - Normaliser / NormaliserRegistry: Extract text from uploaded files
//   - PostProcessor: Split documents into chunks
//   - ConfigStore: Application configuration
//   - PromptStore: User-editable prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RemoteRewriter: LLM rewrite. Without it every chunk uses the fallback.
//   - RewriteCache: Reuse of earlier remote rewrites. Without it nothing is cached.
//   - RunStore: Rewrite history. Without it runs are not recorded.
//   - RewriteObserver: Metrics hooks.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, rewriter, or normaliser package
package driven
