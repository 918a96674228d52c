package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/narrator-cli/internal/core/ports/driven"
)

func TestConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"llm.provider": "gemini"}
	store := NewConfigStore(seed)

	seed["llm.provider"] = "openai"

	assert.Equal(t, "gemini", store.GetString("llm.provider"))
}

func TestConfigStore_SetGetDelete(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("rewrite.max_retries", 5))
	assert.Equal(t, 5, store.GetInt("rewrite.max_retries"))

	require.NoError(t, store.Delete("rewrite.max_retries"))
	_, ok := store.Get("rewrite.max_retries")
	assert.False(t, ok)

	assert.NoError(t, store.Delete("missing"))
}

func TestConfigStore_GetThroughPort(t *testing.T) {
	var store driven.ConfigStore = NewConfigStore(map[string]any{"rewrite.max_retries": 0})

	v, ok := store.Get("rewrite.max_retries")
	require.True(t, ok)
	assert.Equal(t, 0, v)

	_, ok = store.Get("rewrite.chunk_chars")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"int":    7,
		"int64":  int64(8),
		"float":  float64(9),
		"bool":   true,
		"string": "x",
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"int", store.GetInt("int"), 7},
		{"int64", store.GetInt("int64"), 8},
		{"float64", store.GetInt("float"), 9},
		{"wrong type int", store.GetInt("string"), 0},
		{"bool", store.GetBool("bool"), true},
		{"wrong type bool", store.GetBool("int"), false},
		{"string", store.GetString("string"), "x"},
		{"wrong type string", store.GetString("bool"), ""},
		{"missing", store.GetString("nope"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key.%d", n)
			_ = store.Set(key, n)
			assert.Equal(t, n, store.GetInt(key))
		}(i)
	}
	wg.Wait()
}
