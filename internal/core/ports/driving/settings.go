package driving

import "github.com/custodia-labs/narrator-cli/internal/core/domain"

// SettingsService reads and updates the persisted provider, rewrite and
// cache settings.
type SettingsService interface {
	// Get returns the stored settings merged over the defaults, with any
	// provider API key from the environment applied.
	Get() (*domain.AppSettings, error)

	Save(settings *domain.AppSettings) error

	// SetLLMProvider stores the provider, model and API key. The key may be
	// empty when the provider's environment variable supplies it.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetCacheBackend selects where rewrites are cached. redis needs an address.
	SetCacheBackend(backend domain.CacheBackend, redisAddr string) error

	GetDefaults() domain.AppSettings

	// ValidateLLMConfig pings the configured provider.
	ValidateLLMConfig() error
}
