package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.AIConfigValidator = NewConfigValidator()
}

func TestConfigValidator_ValidateLLM_NilConfig(t *testing.T) {
	assert.NoError(t, NewConfigValidator().ValidateLLM(nil))
}

func TestConfigValidator_ValidateLLM_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewConfigValidator().ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})

	assert.Error(t, err)
}
