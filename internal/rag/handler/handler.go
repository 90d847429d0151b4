// Package handler provides the HTTP handlers for the chat and
// ingestion endpoints.
package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/biz"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
)

// upstreamTimeout bounds non-streaming upstream work per request
// (classification, transcription, uploads). Streamed generation is
// bounded by the client connection instead.
const upstreamTimeout = 60 * time.Second

// Handler handles chat and ingestion HTTP requests.
type Handler struct {
	svc *biz.Service
}

// New creates a Handler over the service.
func New(svc *biz.Service) *Handler {
	return &Handler{svc: svc}
}

// streamSSE relays a token stream as server-sent events. Content
// chunks become message events; a failure surfaces as one error event
// and a completed stream as a done event, so clients always observe an
// explicit terminal event.
func streamSSE(c *gin.Context, stream <-chan llm.StreamChunk) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(io.Writer) bool {
		chunk, ok := <-stream
		if !ok {
			return false
		}
		switch {
		case chunk.Err != nil:
			c.SSEvent("error", chunk.Err.Error())
			return false
		case chunk.Done:
			c.SSEvent("done", "[DONE]")
			return false
		default:
			c.SSEvent("message", chunk.Content)
			return true
		}
	})
}
