// Package ragsvc assembles the NarcoNet RAG service from its
// components and runs the HTTP server.
package ragsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/timooo-thy/rag-atron-mllm/internal/rag/biz"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/handler"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/router"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
	"github.com/timooo-thy/rag-atron-mllm/pkg/component/gcs"
	"github.com/timooo-thy/rag-atron-mllm/pkg/component/milvus"
	"github.com/timooo-thy/rag-atron-mllm/pkg/component/mysql"
	"github.com/timooo-thy/rag-atron-mllm/pkg/component/videoquery"
	"github.com/timooo-thy/rag-atron-mllm/pkg/infra/app"
	"github.com/timooo-thy/rag-atron-mllm/pkg/infra/server"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"

	// Register LLM providers.
	_ "github.com/timooo-thy/rag-atron-mllm/pkg/llm/ollama"
	_ "github.com/timooo-thy/rag-atron-mllm/pkg/llm/openai"

	cacheopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/cache"
	gcsopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/gcs"
	llmopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/llm"
	logopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/logger"
	milvusopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/milvus"
	mysqlopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/mysql"
	ragopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/rag"
	httpopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/server/http"
	videoqueryopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/videoquery"
)

// Name is the name of the service.
const Name = "narconet-rag"

// Config carries everything needed to assemble the service.
type Config struct {
	HTTPOptions          *httpopts.Options
	LogOptions           *logopts.Options
	MilvusOptions        *milvusopts.Options
	MySQLOptions         *mysqlopts.Options
	GCSOptions           *gcsopts.Options
	VideoOptions         *videoqueryopts.Options
	EmbeddingOptions     *llmopts.ProviderOptions
	ChatOptions          *llmopts.ProviderOptions
	TranscriptionOptions *llmopts.ProviderOptions
	RAGOptions           *ragopts.Options
	CacheOptions         *cacheopts.Options

	// LedgerEnabled turns on the MySQL evidence ledger. The service
	// runs without it; ingestion is simply not recorded.
	LedgerEnabled bool

	ShutdownTimeout time.Duration
}

// Server is the assembled service with its open resources.
type Server struct {
	srv     *server.Server
	closers []func()
}

// NewServer initializes every component and returns a runnable Server.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	var closers []func()

	// 1. Logger.
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("starting service", "name", Name, "version", app.GetVersion())

	// 2. Vector store.
	milvusClient, err := milvus.New(cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	closers = append(closers, func() { _ = milvusClient.Close(context.Background()) })

	vectorStore := store.NewMilvusStore(milvusClient, cfg.RAGOptions)
	if err := vectorStore.EnsureCollections(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure collections: %w", err)
	}
	logger.Infow("vector store ready",
		"text_collection", cfg.RAGOptions.TextCollection,
		"image_collection", cfg.RAGOptions.ImageCollection,
	)

	// 3. Evidence ledger. Optional: a down database must not take the
	// chat path with it.
	var ledger *store.Ledger
	if cfg.LedgerEnabled {
		dbClient, err := mysql.New(ctx, cfg.MySQLOptions)
		if err != nil {
			logger.Warnw("evidence ledger disabled, mysql unavailable", "error", err.Error())
		} else {
			ledger, err = store.NewLedger(dbClient.DB())
			if err != nil {
				logger.Warnw("evidence ledger disabled, migration failed", "error", err.Error())
				_ = dbClient.Close()
			} else {
				closers = append(closers, func() { _ = dbClient.Close() })
				logger.Info("evidence ledger ready")
			}
		}
	}

	// 4. Redis, shared by the label cache and the embedding cache.
	var redisClient *goredis.Client
	if cfg.CacheOptions.Enabled && cfg.CacheOptions.Redis != nil {
		redisClient = cfg.CacheOptions.Redis.NewClient()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnw("cache disabled, redis unavailable", "error", err.Error())
			_ = redisClient.Close()
			redisClient = nil
		} else {
			closers = append(closers, func() { _ = redisClient.Close() })
			logger.Infow("cache ready", "ttl", cfg.CacheOptions.TTL)
		}
	}

	// 5. Model providers.
	embedder, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	if redisClient != nil {
		embedder = llm.NewCachedEmbeddingProvider(embedder, redisClient, nil)
	}
	logger.Infow("embedding provider ready",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
	)

	chatProvider, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("chat provider ready",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	// Transcription needs a hosted speech model. Without a key the
	// audio branch reports transcription as unavailable.
	var transcriber llm.Transcriber
	if cfg.TranscriptionOptions != nil && cfg.TranscriptionOptions.APIKey != "" {
		provider, err := llm.NewProvider(cfg.TranscriptionOptions.Provider, cfg.TranscriptionOptions.ToConfigMap())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize transcription provider: %w", err)
		}
		t, ok := provider.(llm.Transcriber)
		if !ok {
			return nil, fmt.Errorf("provider %q does not support transcription", cfg.TranscriptionOptions.Provider)
		}
		transcriber = t
		logger.Infow("transcription provider ready",
			"provider", cfg.TranscriptionOptions.Provider,
			"model", cfg.TranscriptionOptions.Model,
		)
	} else {
		logger.Info("transcription disabled, no api key configured")
	}

	// 6. Object storage and the video analysis client.
	objects, err := gcs.New(ctx, cfg.GCSOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}
	closers = append(closers, func() { _ = objects.Close() })
	logger.Infow("object store ready", "bucket", cfg.GCSOptions.Bucket)

	videoClient := videoquery.New(cfg.VideoOptions)

	// 7. Service, handler, router.
	svc, err := biz.New(&biz.Config{
		RAG:         cfg.RAGOptions,
		Cache:       cfg.CacheOptions,
		Store:       vectorStore,
		Ledger:      ledger,
		Embedder:    embedder,
		Chat:        chatProvider,
		Transcriber: transcriber,
		Objects:     objects,
		Video:       videoClient,
		Redis:       redisClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize service: %w", err)
	}
	closers = append(closers, svc.Close)

	engine := router.New(handler.New(svc))

	srv := server.New(engine, server.Config{
		HTTP:            cfg.HTTPOptions,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	logger.Info("service ready")
	return &Server{srv: srv, closers: closers}, nil
}

// Run starts the server and blocks until shutdown. Resources are
// released in reverse initialization order.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		for i := len(s.closers) - 1; i >= 0; i-- {
			s.closers[i]()
		}
	}()
	return s.srv.Run(ctx)
}
