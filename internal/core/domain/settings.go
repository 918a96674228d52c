package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a remote text-generation provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Generative Language API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderAnthropic, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// APIKeyEnv returns the environment variables consulted for this provider's key,
// in priority order.
func (p AIProvider) APIKeyEnv() []string {
	switch p {
	case AIProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case AIProviderOpenAI:
		return []string{"OPENAI_API_KEY"}
	case AIProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	default:
		return nil
	}
}

// DefaultModel returns the model used when none is configured.
func (p AIProvider) DefaultModel() string {
	switch p {
	case AIProviderGemini:
		return DefaultRewriteModel
	case AIProviderOpenAI:
		return "gpt-4o-mini"
	case AIProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case AIProviderOllama:
		return "llama3.2"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// AllAIProviders lists the providers in the order offered to users.
func AllAIProviders() []AIProvider {
	return []AIProvider{AIProviderGemini, AIProviderOpenAI, AIProviderAnthropic, AIProviderOllama}
}

// NormaliseModelName turns user-typed model names such as "Gemini 2.5 Flash"
// or "models/gemini-2.5-flash" into the identifier the API expects.
func NormaliseModelName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimPrefix(name, "models/")
	name = strings.Join(strings.Fields(name), "-")
	return strings.ToLower(name)
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RewriteSettings holds the persisted defaults for quota-safe rewriting.
type RewriteSettings struct {
	MaxRetriesPerChunk   int
	MinInterval          time.Duration
	MaxRequestsPerMinute int
	ChunkMaxChars        int
	FallbackOnExhaustion bool
}

// Config builds a RewriteConfig for the given model.
func (r RewriteSettings) Config(model string) RewriteConfig {
	return RewriteConfig{
		Model:                   model,
		MaxRetriesPerChunk:      r.MaxRetriesPerChunk,
		MinIntervalBetweenCalls: r.MinInterval,
		MaxRequestsPerMinute:    r.MaxRequestsPerMinute,
		ChunkMaxChars:           r.ChunkMaxChars,
		FallbackOnExhaustion:    r.FallbackOnExhaustion,
	}
}

// CacheBackend selects where rewritten chunks are cached.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendNone   CacheBackend = "none"
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendSQLite CacheBackend = "sqlite"
	CacheBackendRedis  CacheBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendNone, CacheBackendMemory, CacheBackendSQLite, CacheBackendRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// CacheSettings holds rewrite cache configuration.
type CacheSettings struct {
	Backend   CacheBackend
	RedisAddr string
	TTL       time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Rewrite holds rewrite pacing and fallback settings.
	Rewrite RewriteSettings

	// Cache holds rewrite cache settings.
	Cache CacheSettings
}

// RewriteConfig returns the rewrite configuration for the configured model.
func (s AppSettings) RewriteConfig() RewriteConfig {
	model := s.LLM.Model
	if model == "" {
		model = s.LLM.Provider.DefaultModel()
	}
	if s.LLM.Provider == AIProviderGemini {
		model = NormaliseModelName(model)
	}
	return s.Rewrite.Config(model)
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured; rewrites use the local fallback until a
// provider is set up.
func DefaultAppSettings() AppSettings {
	def := DefaultRewriteConfig()
	return AppSettings{
		LLM: LLMSettings{},
		Rewrite: RewriteSettings{
			MaxRetriesPerChunk:   def.MaxRetriesPerChunk,
			MinInterval:          def.MinIntervalBetweenCalls,
			MaxRequestsPerMinute: def.MaxRequestsPerMinute,
			ChunkMaxChars:        def.ChunkMaxChars,
			FallbackOnExhaustion: def.FallbackOnExhaustion,
		},
		Cache: CacheSettings{
			Backend: CacheBackendSQLite,
			TTL:     7 * 24 * time.Hour,
		},
	}
}
