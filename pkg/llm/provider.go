// Package llm provides a unified abstraction over model backends.
// Embedding, chat, streaming chat, and audio transcription may each be
// served by a different provider.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// EmbeddingProvider generates vector embeddings.
type EmbeddingProvider interface {
	// Embed generates embeddings for multiple texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider name.
	Name() string
}

// ChatProvider performs chat completions.
type ChatProvider interface {
	// Chat runs a multi-turn conversation and returns the full reply.
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, error)

	// ChatStream runs a conversation and delivers the reply token by
	// token. The returned channel is closed after the final chunk; the
	// final chunk carries Done=true or a non-nil Err. Cancelling ctx
	// terminates the stream.
	ChatStream(ctx context.Context, messages []Message, opts ...ChatOption) (<-chan StreamChunk, error)

	// Generate produces text for a single prompt.
	Generate(ctx context.Context, prompt string, systemPrompt string, opts ...ChatOption) (string, error)

	// Name returns the provider name.
	Name() string
}

// Transcriber converts audio recordings to text.
type Transcriber interface {
	// Transcribe returns the transcript of a single audio clip.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Message is one turn in a conversation. Images carries base64-encoded
// payloads for vision-capable models and is omitted otherwise.
type Message struct {
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StreamChunk is a single increment of a streamed completion.
type StreamChunk struct {
	// Content is the token text for this increment.
	Content string
	// Done marks the final chunk of a successful stream.
	Done bool
	// Err, when non-nil, terminates the stream with a failure.
	Err error
}

// ChatOptions carries per-call overrides. The zero value means
// "use the provider's configured defaults".
type ChatOptions struct {
	// Model overrides the provider's default model when non-empty.
	Model string
	// Temperature overrides sampling temperature when set.
	Temperature    float64
	HasTemperature bool
}

// ChatOption mutates ChatOptions.
type ChatOption func(*ChatOptions)

// WithModel selects a model for this call only.
func WithModel(model string) ChatOption {
	return func(o *ChatOptions) {
		o.Model = model
	}
}

// WithTemperature sets sampling temperature for this call only.
// Zero is a meaningful value (deterministic classification calls), so
// the override is tracked explicitly.
func WithTemperature(t float64) ChatOption {
	return func(o *ChatOptions) {
		o.Temperature = t
		o.HasTemperature = true
	}
}

// ApplyChatOptions folds opts into a ChatOptions value.
func ApplyChatOptions(opts []ChatOption) ChatOptions {
	var o ChatOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Provider serves both embeddings and chat.
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// ProviderFactory builds a full provider from its config map.
type ProviderFactory func(config map[string]any) (Provider, error)

// EmbeddingProviderFactory builds an embedding-only provider.
type EmbeddingProviderFactory func(config map[string]any) (EmbeddingProvider, error)

// ChatProviderFactory builds a chat-only provider.
type ChatProviderFactory func(config map[string]any) (ChatProvider, error)

var registry = &providerRegistry{
	providers:          make(map[string]ProviderFactory),
	embeddingProviders: make(map[string]EmbeddingProviderFactory),
	chatProviders:      make(map[string]ChatProviderFactory),
}

type providerRegistry struct {
	mu                 sync.RWMutex
	providers          map[string]ProviderFactory
	embeddingProviders map[string]EmbeddingProviderFactory
	chatProviders      map[string]ChatProviderFactory
}

// RegisterProvider registers a full provider factory. Providers call
// this from init().
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// RegisterEmbeddingProvider registers an embedding-only factory.
func RegisterEmbeddingProvider(name string, factory EmbeddingProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.embeddingProviders[name] = factory
}

// RegisterChatProvider registers a chat-only factory.
func RegisterChatProvider(name string, factory ChatProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.chatProviders[name] = factory
}

// NewProvider creates a full provider by name.
func NewProvider(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	return factory(config)
}

// NewEmbeddingProvider creates an embedding provider by name, falling
// back to a full-provider factory if no dedicated one is registered.
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if factory, ok := registry.embeddingProviders[name]; ok {
		return factory(config)
	}

	if factory, ok := registry.providers[name]; ok {
		return factory(config)
	}

	return nil, fmt.Errorf("unknown embedding provider: %s", name)
}

// NewChatProvider creates a chat provider by name, falling back to a
// full-provider factory if no dedicated one is registered.
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if factory, ok := registry.chatProviders[name]; ok {
		return factory(config)
	}

	if factory, ok := registry.providers[name]; ok {
		return factory(config)
	}

	return nil, fmt.Errorf("unknown chat provider: %s", name)
}

// ListProviders returns the names of all registered providers.
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string

	for name := range registry.providers {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range registry.embeddingProviders {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range registry.chatProviders {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	return names
}
