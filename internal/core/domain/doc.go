// Package domain defines the core business entities for Narrator.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Text extracted from an uploaded file
//   - Chunk: A bounded, paragraph-aligned slice of a document
//   - RewriteConfig / RewriteResult: One quota-safe rewrite run
//   - QuotaError / TransientError / RewriteError: The rewrite error taxonomy
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
