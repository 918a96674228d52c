// Package normalisers turns uploaded files into narration text.
//
// Format-specific normalisers live in subpackages (plaintext, markdown,
// docx). The Registry picks one by MIME type and runs Clean over the result
// so every document reaches the chunker with the same paragraph layout.
package normalisers
