package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
	"github.com/timooo-thy/rag-atron-mllm/pkg/utils/json"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewProviderWithConfig(&Config{
		BaseURL:    srv.URL,
		EmbedModel: "nomic-embed-text",
		ChatModel:  "llama3:instruct",
		Timeout:    5 * time.Second,
		MaxRetries: 0,
	})
}

func TestEmbed(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, []string{"alpha", "beta"}, req.Input)

		resp := embedResponse{
			Model:      req.Model,
			Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	embeddings, err := provider.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
}

func TestEmbedEmptyInput(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	})

	embeddings, err := provider.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestChatAppliesCallOptions(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llava:13b", req.Model)
		assert.Equal(t, 0.0, req.Options["temperature"])
		assert.False(t, req.Stream)

		resp := chatResponse{
			Model:   req.Model,
			Message: chatMessage{Role: "assistant", Content: "a silver sedan parked at a loading dock"},
			Done:    true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	reply, err := provider.Chat(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "describe the image", Images: []string{"aGVsbG8="}}},
		llm.WithModel("llava:13b"), llm.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, "a silver sedan parked at a loading dock", reply)
}

func TestChatStream(t *testing.T) {
	tokens := []string{"The", " suspect", " vehicle"}

	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		for _, tok := range tokens {
			chunk := chatResponse{Message: chatMessage{Role: "assistant", Content: tok}}
			data, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "%s\n", data)
		}
		data, _ := json.Marshal(chatResponse{Done: true})
		fmt.Fprintf(w, "%s\n", data)
	})

	stream, err := provider.ChatStream(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "summarize"}})
	require.NoError(t, err)

	var got []string
	var done bool
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		if chunk.Done {
			done = true
			continue
		}
		got = append(got, chunk.Content)
	}

	assert.True(t, done)
	assert.Equal(t, tokens, got)
}

func TestChatStreamServerError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := provider.ChatStream(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "hello"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGenerate(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "classify", req.Prompt)
		assert.Equal(t, "you are a classifier", req.System)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "Case Analysis", Done: true})
	})

	out, err := provider.Generate(context.Background(), "classify", "you are a classifier")
	require.NoError(t, err)
	assert.Equal(t, "Case Analysis", out)
}
