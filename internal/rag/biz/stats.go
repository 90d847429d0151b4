package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
)

// Stats reports collection sizes, provider identities, cache state and
// in-process counters. Failing sub-reports are logged and omitted, the
// snapshot itself never fails.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"providers": map[string]string{
			"embedding": s.embedder.Name(),
			"chat":      s.chat.Name(),
		},
		"chat":    s.metrics.Stats(),
		"uploads": s.uploads.Stats(),
	}

	collections := map[string]interface{}{}
	for _, name := range []string{s.opts.TextCollection, s.opts.ImageCollection} {
		count, err := s.store.Stats(ctx, name)
		if err != nil {
			logger.Warnw("Collection stats failed", "collection", name, "error", err)
			continue
		}
		collections[name] = count
	}
	stats["collections"] = collections

	if cached, ok := s.embedder.(*llm.CachedEmbeddingProvider); ok {
		if cacheStats, err := cached.GetCacheStats(ctx); err == nil {
			stats["embedding_cache"] = cacheStats
		} else {
			logger.Warnw("Embedding cache stats failed", "error", err)
		}
	}

	if s.ledger != nil {
		if n, err := s.ledger.Count(ctx); err == nil {
			stats["evidence_records"] = n
		} else {
			logger.Warnw("Evidence ledger stats failed", "error", err)
		}
	}

	return stats
}
