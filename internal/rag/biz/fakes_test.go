package biz

import (
	"context"
	"fmt"
	"sync"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
	"github.com/timooo-thy/rag-atron-mllm/pkg/component/gcs"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
)

// fakeChat scripts chat completions. Generate answers come from
// generateAnswers in call order; Chat from chatAnswers; ChatStream
// emits streamTokens once per call.
type fakeChat struct {
	mu sync.Mutex

	generateAnswers []string
	generateCalls   []string

	chatAnswers []string
	chatCalls   [][]llm.Message

	streamTokens [][]string
	streamCalls  [][]llm.Message
	streamOpts   []llm.ChatOptions

	// streamErr fails the ChatStream call whose index equals
	// streamErrCall.
	streamErr     error
	streamErrCall int
}

func (f *fakeChat) Name() string { return "fake" }

func (f *fakeChat) Generate(_ context.Context, prompt, _ string, _ ...llm.ChatOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls = append(f.generateCalls, prompt)
	if len(f.generateAnswers) == 0 {
		return "", fmt.Errorf("no scripted generate answer")
	}
	answer := f.generateAnswers[0]
	f.generateAnswers = f.generateAnswers[1:]
	return answer, nil
}

func (f *fakeChat) Chat(_ context.Context, messages []llm.Message, _ ...llm.ChatOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls = append(f.chatCalls, messages)
	if len(f.chatAnswers) == 0 {
		return "", fmt.Errorf("no scripted chat answer")
	}
	answer := f.chatAnswers[0]
	f.chatAnswers = f.chatAnswers[1:]
	return answer, nil
}

func (f *fakeChat) ChatStream(_ context.Context, messages []llm.Message, opts ...llm.ChatOption) (<-chan llm.StreamChunk, error) {
	f.mu.Lock()
	f.streamCalls = append(f.streamCalls, messages)
	f.streamOpts = append(f.streamOpts, llm.ApplyChatOptions(opts))
	if f.streamErr != nil && len(f.streamCalls)-1 == f.streamErrCall {
		err := f.streamErr
		f.mu.Unlock()
		return nil, err
	}
	var tokens []string
	if len(f.streamTokens) > 0 {
		tokens = f.streamTokens[0]
		f.streamTokens = f.streamTokens[1:]
	}
	f.mu.Unlock()

	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for _, tok := range tokens {
			out <- llm.StreamChunk{Content: tok}
		}
		out <- llm.StreamChunk{Done: true}
	}()
	return out, nil
}

// fakeEmbedder returns a fixed vector for every text.
type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeEmbedder) Name() string { return "fake-embed" }

func (f *fakeEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := f.EmbedSingle(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// fakeStore records inserts and serves scripted search results.
type fakeStore struct {
	mu       sync.Mutex
	inserted map[string][]*store.Chunk
	results  []*store.SearchResult

	lastCollection string
	lastCaseID     int
	lastTopK       int
	searchErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{inserted: make(map[string][]*store.Chunk)}
}

func (f *fakeStore) EnsureCollections(context.Context) error { return nil }

func (f *fakeStore) Insert(_ context.Context, collection string, chunks []*store.Chunk) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted[collection] = append(f.inserted[collection], chunks...)
	ids := make([]string, len(chunks))
	return ids, nil
}

func (f *fakeStore) Search(_ context.Context, collection string, _ []float32, caseID, topK int) ([]*store.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCollection = collection
	f.lastCaseID = caseID
	f.lastTopK = topK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeStore) Stats(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeStore) Close(context.Context) error                  { return nil }

// fakeObjects serves uploads from memory.
type fakeObjects struct {
	mu      sync.Mutex
	n       int
	failIdx map[int]bool
	uploads [][]byte
}

func (f *fakeObjects) Upload(_ context.Context, data []byte, _, ext string) (*gcs.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.n
	f.n++
	if f.failIdx[idx] {
		return nil, fmt.Errorf("upload failed")
	}
	f.uploads = append(f.uploads, data)
	key := fmt.Sprintf("obj-%d%s", idx, ext)
	return &gcs.Object{Key: key, URL: "https://store.example.com/" + key}, nil
}

// fakeTranscriber returns one scripted transcript per clip.
type fakeTranscriber struct {
	transcripts []string
	calls       int
	err         error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	text := f.transcripts[f.calls%len(f.transcripts)]
	f.calls++
	return text, nil
}

// fakeVideo relays a scripted answer.
type fakeVideo struct {
	answer   string
	lastURL  string
	lastText string
}

func (f *fakeVideo) Query(_ context.Context, query, videoURL string) (<-chan llm.StreamChunk, error) {
	f.lastText = query
	f.lastURL = videoURL
	out := make(chan llm.StreamChunk, 2)
	out <- llm.StreamChunk{Content: f.answer}
	out <- llm.StreamChunk{Done: true}
	close(out)
	return out, nil
}

// collect drains a stream into its concatenated content, the observed
// terminal state, and any error chunk.
func collect(stream <-chan llm.StreamChunk) (string, bool, error) {
	var sb []byte
	done := false
	var err error
	for chunk := range stream {
		sb = append(sb, chunk.Content...)
		if chunk.Done {
			done = true
		}
		if chunk.Err != nil {
			err = chunk.Err
		}
	}
	return string(sb), done, err
}
