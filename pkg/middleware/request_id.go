package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/timooo-thy/rag-atron-mllm/pkg/id"
)

// RequestIDHeader is the header used to propagate request IDs.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key holding the request ID.
const requestIDKey = "request_id"

// RequestID returns a middleware that assigns each request a ULID.
// An incoming X-Request-ID header is trusted and reused so IDs survive
// proxy hops; otherwise a fresh one is minted. The ID is echoed on the
// response and stored in the gin context for handlers and the access
// logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.NewULID()
		}

		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(RequestIDHeader, rid)

		c.Next()
	}
}

// GetRequestID returns the request ID from the gin context, or "" when
// the RequestID middleware did not run.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
