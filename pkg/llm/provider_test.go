package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider is a registry test double.
type mockProvider struct {
	name string
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{0.1, 0.2, 0.3}
	}
	return result, nil
}

func (m *mockProvider) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockProvider) Chat(_ context.Context, _ []Message, _ ...ChatOption) (string, error) {
	return "mock response", nil
}

func (m *mockProvider) ChatStream(_ context.Context, _ []Message, _ ...ChatOption) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk, 2)
	out <- StreamChunk{Content: "mock"}
	out <- StreamChunk{Done: true}
	close(out)
	return out, nil
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ string, _ ...ChatOption) (string, error) {
	return "mock generated text", nil
}

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("test-provider", func(config map[string]any) (Provider, error) {
		name := "test-provider"
		if n, ok := config["name"].(string); ok {
			name = n
		}
		return &mockProvider{name: name}, nil
	})

	provider, err := NewProvider("test-provider", map[string]any{"name": "custom-name"})
	require.NoError(t, err)
	assert.Equal(t, "custom-name", provider.Name())
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("unknown-provider", nil)
	assert.Error(t, err)
}

func TestEmbeddingProviderFallback(t *testing.T) {
	RegisterProvider("fallback-provider", func(config map[string]any) (Provider, error) {
		return &mockProvider{name: "fallback-provider"}, nil
	})

	provider, err := NewEmbeddingProvider("fallback-provider", nil)
	require.NoError(t, err)

	embedding, err := provider.EmbedSingle(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, embedding, 3)
}

func TestChatProviderDedicatedFactoryWins(t *testing.T) {
	RegisterProvider("dual", func(config map[string]any) (Provider, error) {
		return &mockProvider{name: "full"}, nil
	})
	RegisterChatProvider("dual", func(config map[string]any) (ChatProvider, error) {
		return &mockProvider{name: "chat-only"}, nil
	})

	provider, err := NewChatProvider("dual", nil)
	require.NoError(t, err)
	assert.Equal(t, "chat-only", provider.Name())
}

func TestApplyChatOptions(t *testing.T) {
	o := ApplyChatOptions(nil)
	assert.Empty(t, o.Model)
	assert.False(t, o.HasTemperature)

	o = ApplyChatOptions([]ChatOption{WithModel("llama3:70b-instruct"), WithTemperature(0)})
	assert.Equal(t, "llama3:70b-instruct", o.Model)
	assert.True(t, o.HasTemperature)
	assert.Zero(t, o.Temperature)
}

func TestListProvidersContainsRegistered(t *testing.T) {
	RegisterProvider("listed-provider", func(config map[string]any) (Provider, error) {
		return &mockProvider{name: "listed-provider"}, nil
	})

	assert.Contains(t, ListProviders(), "listed-provider")
}
