// Package router registers the HTTP routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/handler"
	"github.com/timooo-thy/rag-atron-mllm/pkg/errors"
	"github.com/timooo-thy/rag-atron-mllm/pkg/middleware"
	"github.com/timooo-thy/rag-atron-mllm/pkg/response"
)

// New builds the gin engine with the service middleware stack and all
// routes registered.
func New(h *handler.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(),
	)

	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, errors.ErrRouteNotFound)
	})

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	Register(engine, h)
	return engine
}

// Register mounts the API routes on the engine.
func Register(engine *gin.Engine, h *handler.Handler) {
	api := engine.Group("/api")
	{
		api.POST("/chat-rag", h.ChatRAG)
		api.POST("/chat", h.Chat)
		api.POST("/stream-data-basic", h.StreamBasic)

		api.POST("/ingest", h.Ingest)
		api.POST("/ingest/text", h.IngestText)
		api.POST("/ingest/image", h.IngestImage)

		api.GET("/stats", h.Stats)
	}
}
