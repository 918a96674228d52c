package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/narrator-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

type mockAIValidator struct {
	err    error
	called *domain.LLMSettings
}

func (m *mockAIValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.called = cfg
	return m.err
}

func newSettingsWithEnv(store *memory.ConfigStore, env map[string]string) *SettingsService {
	svc := NewSettingsService(store, nil)
	svc.lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return svc
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc := newSettingsWithEnv(memory.NewConfigStore(), nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Rewrite, settings.Rewrite)
	assert.Equal(t, defaults.Cache, settings.Cache)
	assert.False(t, settings.LLM.IsConfigured())
	assert.Equal(t, domain.AIProvider(""), settings.LLM.Provider)
}

func TestSettingsService_Get_StoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider":                    "openai",
		"llm.model":                       "gpt-4o",
		"llm.api_key":                     "stored-key",
		"rewrite.max_retries":             int64(5),
		"rewrite.min_interval_ms":         int64(250),
		"rewrite.max_requests_per_minute": int64(12),
		"rewrite.chunk_max_chars":         int64(800),
		"rewrite.fallback_on_exhaustion":  false,
		"cache.backend":                   "redis",
		"cache.redis_addr":                "localhost:6379",
		"cache.ttl_hours":                 int64(2),
	})
	svc := newSettingsWithEnv(store, nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o",
		APIKey:   "stored-key",
	}, settings.LLM)
	assert.Equal(t, domain.RewriteSettings{
		MaxRetriesPerChunk:   5,
		MinInterval:          250 * time.Millisecond,
		MaxRequestsPerMinute: 12,
		ChunkMaxChars:        800,
		FallbackOnExhaustion: false,
	}, settings.Rewrite)
	assert.Equal(t, domain.CacheSettings{
		Backend:   domain.CacheBackendRedis,
		RedisAddr: "localhost:6379",
		TTL:       2 * time.Hour,
	}, settings.Cache)
}

func TestSettingsService_Get_ExplicitZeroKept(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"rewrite.min_interval_ms":         0,
		"rewrite.max_requests_per_minute": 0,
	})
	svc := newSettingsWithEnv(store, nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Zero(t, settings.Rewrite.MinInterval)
	assert.Zero(t, settings.Rewrite.MaxRequestsPerMinute)
}

func TestSettingsService_Get_InvalidValuesUseDefaults(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider":  "watson",
		"cache.backend": "floppy",
	})
	svc := newSettingsWithEnv(store, nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProvider(""), settings.LLM.Provider)
	assert.Equal(t, domain.CacheBackendSQLite, settings.Cache.Backend)
}

func TestSettingsService_Get_EnvKeyOverridesStored(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider": "gemini",
		"llm.api_key":  "stored",
	})
	svc := newSettingsWithEnv(store, map[string]string{"GOOGLE_API_KEY": "from-env"})

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, "from-env", settings.LLM.APIKey)
	assert.Equal(t, domain.DefaultRewriteModel, settings.LLM.Model)
}

func TestSettingsService_Get_EnvKeyPriority(t *testing.T) {
	svc := newSettingsWithEnv(memory.NewConfigStore(map[string]any{"llm.provider": "gemini"}),
		map[string]string{"GEMINI_API_KEY": "first", "GOOGLE_API_KEY": "second"})

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, "first", settings.LLM.APIKey)
}

func TestSettingsService_Get_ProviderDetectedFromEnv(t *testing.T) {
	svc := newSettingsWithEnv(memory.NewConfigStore(), map[string]string{"ANTHROPIC_API_KEY": "k"})

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.True(t, settings.LLM.IsConfigured())
}

func TestSettingsService_Get_EmptyEnvIgnored(t *testing.T) {
	svc := newSettingsWithEnv(memory.NewConfigStore(), map[string]string{"OPENAI_API_KEY": ""})

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProvider(""), settings.LLM.Provider)
}

func TestSettingsService_SaveAndReload(t *testing.T) {
	store := memory.NewConfigStore()
	svc := newSettingsWithEnv(store, nil)

	want := domain.DefaultAppSettings()
	want.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: "http://gpu:11434"}
	want.Rewrite.MaxRetriesPerChunk = 1
	want.Rewrite.MinInterval = 0
	want.Cache.Backend = domain.CacheBackendMemory

	require.NoError(t, svc.Save(&want))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	_, hasKey := store.Get("llm.api_key")
	assert.False(t, hasKey)
}

func TestSettingsService_Save_RejectsInvalidRewrite(t *testing.T) {
	svc := newSettingsWithEnv(memory.NewConfigStore(), nil)
	settings := domain.DefaultAppSettings()
	settings.Rewrite.MaxRequestsPerMinute = -1

	err := svc.Save(&settings)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Save_DoesNotPersistEnvKey(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"llm.provider": "openai"})
	svc := newSettingsWithEnv(store, map[string]string{"OPENAI_API_KEY": "env-secret"})

	settings, err := svc.Get()
	require.NoError(t, err)
	require.NoError(t, svc.Save(settings))

	assert.Empty(t, store.GetString("llm.api_key"))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	tests := []struct {
		name      string
		provider  domain.AIProvider
		model     string
		apiKey    string
		env       map[string]string
		wantErr   error
		wantModel string
		wantURL   string
	}{
		{name: "invalid provider", provider: "watson", wantErr: domain.ErrUnsupportedType},
		{name: "missing key", provider: domain.AIProviderOpenAI, wantErr: domain.ErrInvalidInput},
		{
			name: "gemini display name normalised", provider: domain.AIProviderGemini,
			model: "Gemini 2.5 Pro", apiKey: "k", wantModel: "gemini-2.5-pro",
		},
		{
			name: "default model", provider: domain.AIProviderAnthropic,
			apiKey: "k", wantModel: "claude-3-5-haiku-latest",
		},
		{
			name: "key from env", provider: domain.AIProviderOpenAI,
			env: map[string]string{"OPENAI_API_KEY": "e"}, wantModel: "gpt-4o-mini",
		},
		{
			name: "ollama gets local url", provider: domain.AIProviderOllama,
			wantModel: "llama3.2", wantURL: "http://localhost:11434",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			svc := newSettingsWithEnv(store, tt.env)

			err := svc.SetLLMProvider(tt.provider, tt.model, tt.apiKey)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			settings, err := svc.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.LLM.Provider)
			assert.Equal(t, tt.wantModel, settings.LLM.Model)
			assert.Equal(t, tt.wantURL, settings.LLM.BaseURL)
			assert.Equal(t, tt.apiKey, store.GetString("llm.api_key"))
		})
	}
}

func TestSettingsService_SetLLMProvider_CloudClearsBaseURL(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"llm.provider": "ollama",
		"llm.base_url": "http://localhost:11434",
	})
	svc := newSettingsWithEnv(store, nil)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderGemini, "", "k"))

	_, ok := store.Get("llm.base_url")
	assert.False(t, ok)
}

func TestSettingsService_SetCacheBackend(t *testing.T) {
	store := memory.NewConfigStore()
	svc := newSettingsWithEnv(store, nil)

	assert.ErrorIs(t, svc.SetCacheBackend("floppy", ""), domain.ErrUnsupportedType)
	assert.ErrorIs(t, svc.SetCacheBackend(domain.CacheBackendRedis, ""), domain.ErrInvalidInput)

	require.NoError(t, svc.SetCacheBackend(domain.CacheBackendRedis, "127.0.0.1:6379"))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.CacheBackendRedis, settings.Cache.Backend)
	assert.Equal(t, "127.0.0.1:6379", settings.Cache.RedisAddr)

	require.NoError(t, svc.SetCacheBackend(domain.CacheBackendNone, ""))
	settings, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.CacheBackendNone, settings.Cache.Backend)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}

func TestSettingsService_ValidateLLMConfig(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		svc := newSettingsWithEnv(memory.NewConfigStore(), nil)
		assert.ErrorIs(t, svc.ValidateLLMConfig(), domain.ErrConfiguration)
	})

	t.Run("no validator", func(t *testing.T) {
		svc := newSettingsWithEnv(memory.NewConfigStore(map[string]any{"llm.provider": "ollama"}), nil)
		assert.NoError(t, svc.ValidateLLMConfig())
	})

	t.Run("validator error", func(t *testing.T) {
		store := memory.NewConfigStore(map[string]any{"llm.provider": "ollama"})
		validator := &mockAIValidator{err: errors.New("connection refused")}
		svc := NewSettingsService(store, validator)

		err := svc.ValidateLLMConfig()

		assert.EqualError(t, err, "connection refused")
		require.NotNil(t, validator.called)
		assert.Equal(t, domain.AIProviderOllama, validator.called.Provider)
	})
}
