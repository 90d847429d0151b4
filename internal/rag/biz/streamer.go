package biz

import (
	"context"
	"errors"
	"time"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/metrics"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
)

// Streamer runs chat completions as explicit background tasks and
// relays their token stream. Every stream it returns terminates with a
// Done or Err chunk; failures are never dropped on the floor.
type Streamer struct {
	chat    llm.ChatProvider
	metrics *metrics.ChatMetrics
}

// NewStreamer creates a streamer over chat.
func NewStreamer(chat llm.ChatProvider) *Streamer {
	return &Streamer{chat: chat, metrics: metrics.Get()}
}

// Stream starts one completion and relays its chunks with call
// instrumentation. Cancelling ctx ends the relay.
func (s *Streamer) Stream(ctx context.Context, messages []llm.Message, opts ...llm.ChatOption) (<-chan llm.StreamChunk, error) {
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		done := s.relay(ctx, out, messages, opts)
		if !done {
			return
		}
		emit(ctx, out, llm.StreamChunk{Done: true})
	}()
	return out, nil
}

// StreamBatch runs one completion per message list sequentially,
// relaying all chunks onto a single stream. Answers are separated by a
// blank line. The first failed completion terminates the batch.
func (s *Streamer) StreamBatch(ctx context.Context, batches [][]llm.Message, opts ...llm.ChatOption) (<-chan llm.StreamChunk, error) {
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for i, messages := range batches {
			if i > 0 {
				if !emit(ctx, out, llm.StreamChunk{Content: "\n\n"}) {
					return
				}
			}
			if !s.relay(ctx, out, messages, opts) {
				return
			}
		}
		emit(ctx, out, llm.StreamChunk{Done: true})
	}()
	return out, nil
}

// relay runs one completion and forwards its content chunks. It
// reports true when the completion finished cleanly and the batch may
// continue. Terminal Done chunks are swallowed so callers control
// stream termination.
func (s *Streamer) relay(ctx context.Context, out chan<- llm.StreamChunk, messages []llm.Message, opts []llm.ChatOption) bool {
	start := time.Now()

	stream, err := s.chat.ChatStream(ctx, messages, opts...)
	if err != nil {
		s.metrics.RecordLLMCall(time.Since(start), err)
		s.metrics.RecordStreamError()
		emit(ctx, out, llm.StreamChunk{Err: err})
		return false
	}

	for chunk := range stream {
		if chunk.Err != nil {
			s.metrics.RecordLLMCall(time.Since(start), chunk.Err)
			if errors.Is(chunk.Err, context.Canceled) {
				s.metrics.RecordStreamCancel()
			} else {
				s.metrics.RecordStreamError()
			}
			emit(ctx, out, chunk)
			return false
		}
		if chunk.Done {
			break
		}
		if !emit(ctx, out, chunk) {
			s.metrics.RecordLLMCall(time.Since(start), ctx.Err())
			s.metrics.RecordStreamCancel()
			return false
		}
	}

	s.metrics.RecordLLMCall(time.Since(start), nil)
	return true
}

// emit sends a chunk unless the consumer is gone.
func emit(ctx context.Context, out chan<- llm.StreamChunk, chunk llm.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// relayChunks forwards an externally produced stream, used for the
// video-query passthrough. The source channel closing without a
// terminal chunk is treated as completion.
func relayChunks(ctx context.Context, src <-chan llm.StreamChunk) <-chan llm.StreamChunk {
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for chunk := range src {
			if !emit(ctx, out, chunk) {
				return
			}
			if chunk.Done || chunk.Err != nil {
				return
			}
		}
		emit(ctx, out, llm.StreamChunk{Done: true})
	}()
	return out
}
