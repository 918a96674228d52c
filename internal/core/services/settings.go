package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
)

var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyMaxRetries      = "rewrite.max_retries"
	keyMinIntervalMS   = "rewrite.min_interval_ms"
	keyMaxRPM          = "rewrite.max_requests_per_minute"
	keyChunkMaxChars   = "rewrite.chunk_max_chars"
	keyFallbackOnExh   = "rewrite.fallback_on_exhaustion"
	keyCacheBackend    = "cache.backend"
	keyCacheRedisAddr  = "cache.redis_addr"
	keyCacheTTLHours   = "cache.ttl_hours"
	defaultOllamaURL   = "http://localhost:11434"
	defaultCacheTTLHrs = 7 * 24
)

// SettingsService reads and writes narrator settings through a ConfigStore.
// API keys found in the provider's environment variables take precedence
// over the stored key and are never written back to the config file.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service. aiValidator may be nil.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings. Unset or invalid values
// resolve to the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider()
	llm := domain.LLMSettings{
		Provider: provider,
		Model:    s.configStore.GetString(keyLLMModel),
		BaseURL:  s.configStore.GetString(keyLLMBaseURL),
		APIKey:   s.configStore.GetString(keyLLMAPIKey),
	}
	if key, ok := s.envAPIKey(provider); ok {
		llm.APIKey = key
	}
	if llm.Model == "" {
		llm.Model = provider.DefaultModel()
	}

	ttl := defaults.Cache.TTL
	if hrs := s.getInt(keyCacheTTLHours, defaultCacheTTLHrs); hrs >= 0 {
		ttl = time.Duration(hrs) * time.Hour
	}

	return &domain.AppSettings{
		LLM: llm,
		Rewrite: domain.RewriteSettings{
			MaxRetriesPerChunk:   s.getInt(keyMaxRetries, defaults.Rewrite.MaxRetriesPerChunk),
			MinInterval:          time.Duration(s.getInt(keyMinIntervalMS, int(defaults.Rewrite.MinInterval/time.Millisecond))) * time.Millisecond,
			MaxRequestsPerMinute: s.getInt(keyMaxRPM, defaults.Rewrite.MaxRequestsPerMinute),
			ChunkMaxChars:        s.getInt(keyChunkMaxChars, defaults.Rewrite.ChunkMaxChars),
			FallbackOnExhaustion: s.getBool(keyFallbackOnExh, defaults.Rewrite.FallbackOnExhaustion),
		},
		Cache: domain.CacheSettings{
			Backend:   s.getCacheBackend(defaults.Cache.Backend),
			RedisAddr: s.configStore.GetString(keyCacheRedisAddr),
			TTL:       ttl,
		},
	}, nil
}

// Save persists application settings. Empty strings remove their key.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	cfg := settings.RewriteConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	apiKey := settings.LLM.APIKey
	if env, ok := s.envAPIKey(settings.LLM.Provider); ok && env == apiKey {
		apiKey = s.configStore.GetString(keyLLMAPIKey)
	}

	writes := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMAPIKey, apiKey},
		{keyMaxRetries, settings.Rewrite.MaxRetriesPerChunk},
		{keyMinIntervalMS, int(settings.Rewrite.MinInterval / time.Millisecond)},
		{keyMaxRPM, settings.Rewrite.MaxRequestsPerMinute},
		{keyChunkMaxChars, settings.Rewrite.ChunkMaxChars},
		{keyFallbackOnExh, settings.Rewrite.FallbackOnExhaustion},
		{keyCacheBackend, settings.Cache.Backend.String()},
		{keyCacheRedisAddr, settings.Cache.RedisAddr},
		{keyCacheTTLHours, int(settings.Cache.TTL / time.Hour)},
	}
	for _, w := range writes {
		if str, ok := w.value.(string); ok && str == "" {
			if err := s.configStore.Delete(w.key); err != nil {
				return fmt.Errorf("clear %s: %w", w.key, err)
			}
			continue
		}
		if err := s.configStore.Set(w.key, w.value); err != nil {
			return fmt.Errorf("save %s: %w", w.key, err)
		}
	}
	return nil
}

// SetLLMProvider configures the remote rewrite provider. An empty model
// selects the provider default. The API key may be omitted when the
// provider's environment variable is set.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, provider)
	}
	if _, fromEnv := s.envAPIKey(provider); provider.RequiresAPIKey() && apiKey == "" && !fromEnv {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if model == "" {
		model = provider.DefaultModel()
	}
	if provider == domain.AIProviderGemini {
		model = domain.NormaliseModelName(model)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	settings.LLM.APIKey = apiKey
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	return s.Save(settings)
}

// SetCacheBackend selects the rewrite cache backend. Redis needs an address.
func (s *SettingsService) SetCacheBackend(backend domain.CacheBackend, redisAddr string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: cache backend %q", domain.ErrUnsupportedType, backend)
	}
	if backend == domain.CacheBackendRedis && redisAddr == "" {
		return fmt.Errorf("%w: redis cache needs an address", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Cache.Backend = backend
	if backend == domain.CacheBackendRedis {
		settings.Cache.RedisAddr = redisAddr
	}
	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig pings the configured provider. An unconfigured provider
// is reported as domain.ErrConfiguration.
func (s *SettingsService) ValidateLLMConfig() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: no LLM provider configured", domain.ErrConfiguration)
	}
	if s.aiValidator == nil {
		return nil
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// getProvider returns the stored provider, or the first provider whose
// API key is present in the environment.
func (s *SettingsService) getProvider() domain.AIProvider {
	if p := domain.AIProvider(s.configStore.GetString(keyLLMProvider)); p.IsValid() {
		return p
	}
	for _, p := range domain.AllAIProviders() {
		if _, ok := s.envAPIKey(p); ok {
			return p
		}
	}
	return ""
}

func (s *SettingsService) envAPIKey(p domain.AIProvider) (string, bool) {
	for _, name := range p.APIKeyEnv() {
		if v, ok := s.lookupEnv(name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// getInt distinguishes an explicit zero from an unset key.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	b := domain.CacheBackend(s.configStore.GetString(keyCacheBackend))
	if !b.IsValid() {
		return defaultVal
	}
	return b
}

