package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRewrite(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/chat/completions", req.URL.Path)
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
		_ = json.NewDecoder(req.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":" Rewritten. "}}]}`)
	}))
	defer srv.Close()

	r, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := r.Rewrite(context.Background(), "chunk", "")

	require.NoError(t, err)
	assert.Equal(t, "Rewritten.", text)
	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestRewrite_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests"}}`)
	}))
	defer srv.Close()

	r, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = r.Rewrite(context.Background(), "chunk", "gpt-4o")

	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/models", req.URL.Path)
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	r, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	assert.NoError(t, r.Ping(context.Background()))
	assert.Equal(t, DefaultModel, r.ModelName())
}
