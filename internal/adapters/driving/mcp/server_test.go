package mcp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil narration service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingNarrationService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Narration: &mockNarrationService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil narration service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingNarrationService)
	})

	t.Run("narration only is valid", func(t *testing.T) {
		ports := &Ports{
			Narration: &mockNarrationService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Narration: &mockNarrationService{},
			Settings:  &mockSettingsService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}

func TestServer_Handler(t *testing.T) {
	t.Run("serves metrics when configured", func(t *testing.T) {
		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "narrator_remote_calls_total 3\n")
		})
		server, err := NewServer(&Ports{Narration: &mockNarrationService{}}, WithMetricsHandler(metrics))
		require.NoError(t, err)

		ts := httptest.NewServer(server.Handler())
		defer ts.Close()

		resp, err := http.Get(ts.URL + MetricsPath)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "narrator_remote_calls_total")
	})

	t.Run("no metrics route without handler", func(t *testing.T) {
		server, err := NewServer(&Ports{Narration: &mockNarrationService{}})
		require.NoError(t, err)

		_, isMux := server.Handler().(*http.ServeMux)
		assert.False(t, isMux)
	})
}
