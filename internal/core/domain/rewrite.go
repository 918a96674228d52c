package domain

import (
	"fmt"
	"time"
)

// Default rewrite configuration values.
const (
	DefaultRewriteModel            = "gemini-2.5-flash"
	DefaultMaxRetriesPerChunk      = 3
	DefaultMinIntervalBetweenCalls = 1200 * time.Millisecond
	DefaultMaxRequestsPerMinute    = 30
	DefaultChunkMaxChars           = 1500
)

// RewriteConfig controls one quota-safe rewrite of a document.
type RewriteConfig struct {
	// Model is the provider model identifier passed to the remote rewriter.
	Model string

	// MaxRetriesPerChunk bounds the attempts made for a single chunk.
	MaxRetriesPerChunk int

	// MinIntervalBetweenCalls spaces successive remote calls. Zero disables it.
	MinIntervalBetweenCalls time.Duration

	// MaxRequestsPerMinute caps remote calls inside a one-minute window.
	// Zero disables the rate gate.
	MaxRequestsPerMinute int

	// ChunkMaxChars bounds the size of each chunk.
	ChunkMaxChars int

	// FallbackOnExhaustion rewrites the rest of the document locally when
	// the provider is exhausted instead of failing the whole run.
	FallbackOnExhaustion bool
}

// DefaultRewriteConfig returns the configuration used when nothing is set.
func DefaultRewriteConfig() RewriteConfig {
	return RewriteConfig{
		Model:                   DefaultRewriteModel,
		MaxRetriesPerChunk:      DefaultMaxRetriesPerChunk,
		MinIntervalBetweenCalls: DefaultMinIntervalBetweenCalls,
		MaxRequestsPerMinute:    DefaultMaxRequestsPerMinute,
		ChunkMaxChars:           DefaultChunkMaxChars,
		FallbackOnExhaustion:    true,
	}
}

// Validate reports configuration values that cannot be used.
func (c RewriteConfig) Validate() error {
	if c.MaxRetriesPerChunk < 0 {
		return fmt.Errorf("%w: max retries per chunk must not be negative", ErrInvalidInput)
	}
	if c.MinIntervalBetweenCalls < 0 {
		return fmt.Errorf("%w: min interval between calls must not be negative", ErrInvalidInput)
	}
	if c.MaxRequestsPerMinute < 0 {
		return fmt.Errorf("%w: max requests per minute must not be negative", ErrInvalidInput)
	}
	if c.ChunkMaxChars < 0 {
		return fmt.Errorf("%w: chunk max chars must not be negative", ErrInvalidInput)
	}
	return nil
}

// ChunkSource records where the text of a rewritten chunk came from.
type ChunkSource int

const (
	// SourceRemote means the remote rewriter produced the text.
	SourceRemote ChunkSource = iota

	// SourceCache means a previous remote rewrite was reused.
	SourceCache

	// SourceFallback means the local fallback rewriter produced the text.
	SourceFallback
)

// String returns the string representation.
func (s ChunkSource) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceCache:
		return "cache"
	case SourceFallback:
		return "fallback"
	default:
		return unknownDescription
	}
}

// ErrorKind classifies why a rewrite degraded or failed.
type ErrorKind string

// Rewrite error kinds.
const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindExtraction    ErrorKind = "extraction"
	ErrorKindTransient     ErrorKind = "transient"
	ErrorKindQuota         ErrorKind = "quota"
	ErrorKindConfiguration ErrorKind = "configuration"
)

// String returns the string representation.
func (k ErrorKind) String() string {
	if k == ErrorKindNone {
		return "none"
	}
	return string(k)
}

// ChunkOutcome is the rewritten form of one chunk.
type ChunkOutcome struct {
	// Index is the position of the chunk in the document.
	Index int

	// Input is the chunk text before rewriting.
	Input string

	// Output is the rewritten text. It is never omitted.
	Output string

	// Source records which rewriter produced Output.
	Source ChunkSource

	// Attempts is the number of remote calls made for this chunk.
	Attempts int
}

// RewriteResult is the outcome of rewriting a whole document.
type RewriteResult struct {
	// ID identifies the run in the history store.
	ID string

	// Text is the final narration text, chunks joined by a blank line.
	// When the run failed without fallback it is the original document.
	Text string

	// Chunks holds one outcome per input chunk, in order.
	Chunks []ChunkOutcome

	// Degraded is true when part of the document used the local fallback
	// because the remote service was unavailable or exhausted.
	Degraded bool

	// DegradedReason explains a degraded or failed run.
	DegradedReason ErrorKind

	// RemoteCalls counts every remote attempt, failed ones included.
	RemoteCalls int

	// RateWaits counts how often the rate gate blocked.
	RateWaits int

	// StartedAt and FinishedAt bracket the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// CountBySource returns how many chunks were produced by the given source.
func (r *RewriteResult) CountBySource(src ChunkSource) int {
	n := 0
	for i := range r.Chunks {
		if r.Chunks[i].Source == src {
			n++
		}
	}
	return n
}

// RunRecord is the persisted summary of one rewrite run.
type RunRecord struct {
	ID             string
	Source         string
	Model          string
	Chunks         int
	RemoteChunks   int
	CachedChunks   int
	FallbackChunks int
	RemoteCalls    int
	Degraded       bool
	Reason         ErrorKind
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewRunRecord summarises a result for the history store.
func NewRunRecord(source, model string, r *RewriteResult) RunRecord {
	return RunRecord{
		ID:             r.ID,
		Source:         source,
		Model:          model,
		Chunks:         len(r.Chunks),
		RemoteChunks:   r.CountBySource(SourceRemote),
		CachedChunks:   r.CountBySource(SourceCache),
		FallbackChunks: r.CountBySource(SourceFallback),
		RemoteCalls:    r.RemoteCalls,
		Degraded:       r.Degraded,
		Reason:         r.DegradedReason,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
}
