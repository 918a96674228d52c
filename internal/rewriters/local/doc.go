// Package local provides the offline narration rewriter.
//
// The rewriter improves pacing for text-to-speech without any network call:
// long paragraphs get a short spoken transition, whitespace is normalised and
// overly long sentences are broken at their commas. It is used directly for
// local-only runs and as the degraded path when the remote service is
// unavailable or out of quota.
package local
