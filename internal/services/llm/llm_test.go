package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty", "", 0},
		{"short ascii", "Hi", 1},
		{"four ascii", "abcd", 1},
		{"five ascii", "abcde", 2},
		{"accented", "é", 1},
		{"cjk", "你好", 2},
		{"mixed", "Bonjour é", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateTokens(tt.text))
		})
	}
}

func TestNewProvider(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewProvider(nil)
		assert.EqualError(t, err, "config is required")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewProvider(&ProviderConfig{Type: "bard"})
		assert.EqualError(t, err, "unsupported llm provider: bard")
	})

	t.Run("missing api key", func(t *testing.T) {
		_, err := NewProvider(&ProviderConfig{Type: TypeOpenAI, Model: "gpt-4"})
		assert.Error(t, err)
	})

	t.Run("openai", func(t *testing.T) {
		provider, err := NewProvider(&ProviderConfig{Type: TypeOpenAI, Model: "gpt-4", APIKey: "k"})

		require.NoError(t, err)
		assert.Equal(t, "gpt-4", provider.Model())
		assert.Equal(t, 2, provider.CountTokens("hello"))
	})
}
