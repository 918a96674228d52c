package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRewriteConfig(t *testing.T) {
	cfg := DefaultRewriteConfig()

	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 3, cfg.MaxRetriesPerChunk)
	assert.Equal(t, 1200*time.Millisecond, cfg.MinIntervalBetweenCalls)
	assert.Equal(t, 30, cfg.MaxRequestsPerMinute)
	assert.Equal(t, 1500, cfg.ChunkMaxChars)
	assert.True(t, cfg.FallbackOnExhaustion)
	assert.NoError(t, cfg.Validate())
}

func TestRewriteConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RewriteConfig)
	}{
		{"negative retries", func(c *RewriteConfig) { c.MaxRetriesPerChunk = -1 }},
		{"negative interval", func(c *RewriteConfig) { c.MinIntervalBetweenCalls = -time.Second }},
		{"negative rpm", func(c *RewriteConfig) { c.MaxRequestsPerMinute = -5 }},
		{"negative chunk size", func(c *RewriteConfig) { c.ChunkMaxChars = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRewriteConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
		})
	}
}

func TestRewriteConfig_ZeroValuesAreValid(t *testing.T) {
	assert.NoError(t, RewriteConfig{}.Validate())
}

func TestChunkSource_String(t *testing.T) {
	assert.Equal(t, "remote", SourceRemote.String())
	assert.Equal(t, "cache", SourceCache.String())
	assert.Equal(t, "fallback", SourceFallback.String())
	assert.Equal(t, "Unknown", ChunkSource(99).String())
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "none", ErrorKindNone.String())
	assert.Equal(t, "quota", ErrorKindQuota.String())
}

func TestNewRunRecord(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	result := &RewriteResult{
		ID: "run-1",
		Chunks: []ChunkOutcome{
			{Index: 0, Source: SourceRemote},
			{Index: 1, Source: SourceCache},
			{Index: 2, Source: SourceFallback},
			{Index: 3, Source: SourceFallback},
		},
		Degraded:       true,
		DegradedReason: ErrorKindQuota,
		RemoteCalls:    2,
		StartedAt:      start,
		FinishedAt:     start.Add(time.Minute),
	}

	rec := NewRunRecord("book.docx", "gemini-2.5-flash", result)

	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, "book.docx", rec.Source)
	assert.Equal(t, "gemini-2.5-flash", rec.Model)
	assert.Equal(t, 4, rec.Chunks)
	assert.Equal(t, 1, rec.RemoteChunks)
	assert.Equal(t, 1, rec.CachedChunks)
	assert.Equal(t, 2, rec.FallbackChunks)
	assert.Equal(t, 2, rec.RemoteCalls)
	assert.True(t, rec.Degraded)
	assert.Equal(t, ErrorKindQuota, rec.Reason)
	assert.Equal(t, start.Add(time.Minute), rec.FinishedAt)
}
