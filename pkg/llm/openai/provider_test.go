package openai

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

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key"
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = 0
	return NewProviderWithConfig(cfg)
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	_, err := NewProvider(map[string]any{})
	assert.Error(t, err)
}

func TestEmbedRestoresOrder(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// Return results out of order; the provider must re-sort by index.
		fmt.Fprint(w, `{"data":[{"index":1,"embedding":[0.3,0.4]},{"index":0,"embedding":[0.1,0.2]}]}`)
	})

	embeddings, err := provider.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
	assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
}

func TestChatStreamSSE(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := provider.ChatStream(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.NoError(t, err)

	var got string
	var done bool
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		if chunk.Done {
			done = true
			continue
		}
		got += chunk.Content
	}

	assert.True(t, done)
	assert.Equal(t, "Hello world", got)
}

func TestChatTemperatureOverride(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Temperature)
		assert.Zero(t, *req.Temperature)

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Image Lookup"}}]}`)
	})

	reply, err := provider.Chat(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "classify"}},
		llm.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, "Image Lookup", reply)
}

func TestTranscribe(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "clip-0.mp3", header.Filename)

		fmt.Fprint(w, `{"text":"meet me at the warehouse at midnight"}`)
	})

	text, err := provider.Transcribe(context.Background(), []byte("fake-audio"), "clip-0.mp3")
	require.NoError(t, err)
	assert.Equal(t, "meet me at the warehouse at midnight", text)
}
