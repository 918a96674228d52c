package mcp

import (
	"context"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
)

// mockNarrationService is a mock implementation of driving.NarrationService.
type mockNarrationService struct {
	result  *domain.RewriteResult
	history []domain.RunRecord
	err     error

	lastRaw  *domain.RawDocument
	lastOpts driving.NarrateOptions
	limit    int
}

func (m *mockNarrationService) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{URI: raw.URI, Content: string(raw.Content)}, nil
}

func (m *mockNarrationService) Narrate(
	_ context.Context,
	raw *domain.RawDocument,
	opts driving.NarrateOptions,
) (*driving.Narration, error) {
	m.lastRaw = raw
	m.lastOpts = opts
	result := m.result
	if result == nil {
		result = &domain.RewriteResult{ID: "run-1", Text: string(raw.Content)}
	}
	return &driving.Narration{Result: result}, m.err
}

func (m *mockNarrationService) Plan(_ context.Context, _ *domain.RawDocument, _ int) (*driving.Plan, error) {
	return &driving.Plan{}, m.err
}

func (m *mockNarrationService) History(_ context.Context, limit int) ([]domain.RunRecord, error) {
	m.limit = limit
	return m.history, m.err
}

func (m *mockNarrationService) Run(_ context.Context, id string) (*domain.RunRecord, error) {
	for i := range m.history {
		if m.history[i].ID == id {
			return &m.history[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error {
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetCacheBackend(_ domain.CacheBackend, _ string) error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.err
}
