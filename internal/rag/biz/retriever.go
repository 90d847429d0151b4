package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/timooo-thy/rag-atron-mllm/internal/model"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/metrics"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
)

// Retriever performs history-aware retrieval: it rephrases the query
// against the conversation window, embeds it, and searches the
// case-scoped vector store.
type Retriever struct {
	store    store.VectorStore
	embedder llm.EmbeddingProvider
	chat     llm.ChatProvider
	metrics  *metrics.ChatMetrics
}

// NewRetriever creates a retriever.
func NewRetriever(vs store.VectorStore, embedder llm.EmbeddingProvider, chat llm.ChatProvider) *Retriever {
	return &Retriever{
		store:    vs,
		embedder: embedder,
		chat:     chat,
		metrics:  metrics.Get(),
	}
}

// Rephrase folds the conversation window into a standalone search
// query. With no history the query already stands alone and is
// returned unchanged. The rephrasing call runs at temperature zero.
func (r *Retriever) Rephrase(ctx context.Context, history []model.ChatMessage, query string, caseID int, modelName string) (string, error) {
	if len(history) == 0 {
		return query, nil
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: toLLMRole(m.Role), Content: m.Content})
	}
	msgs = append(msgs,
		llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("%s\nCase ID:%d", query, caseID)},
		llm.Message{Role: llm.RoleUser, Content: rephraseInstruction},
	)

	rephrased, err := r.chat.Chat(ctx, msgs, llm.WithModel(modelName), llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("failed to rephrase query: %w", err)
	}
	if rephrased == "" {
		return query, nil
	}

	logger.Debugw("Rephrased retrieval query", "case_id", caseID, "query", rephrased)
	return rephrased, nil
}

// Retrieve embeds query and returns the topK nearest chunks in
// collection whose case_id equals caseID.
func (r *Retriever) Retrieve(ctx context.Context, collection, query string, caseID, topK int) ([]*store.SearchResult, error) {
	start := time.Now()

	embedding, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		r.metrics.RecordRetrieval(time.Since(start), err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.store.Search(ctx, collection, embedding, caseID, topK)
	r.metrics.RecordRetrieval(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", collection, err)
	}

	logger.Infow("Retrieved documents",
		"collection", collection,
		"case_id", caseID,
		"top_k", topK,
		"hits", len(results),
	)
	return results, nil
}

// toLLMRole maps a request role onto the provider role set.
func toLLMRole(role model.Role) llm.Role {
	if role == model.RoleAssistant {
		return llm.RoleAssistant
	}
	return llm.RoleUser
}
