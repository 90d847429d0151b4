package store

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/timooo-thy/rag-atron-mllm/pkg/component/milvus"
	ragopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/rag"
)

// MilvusStore implements VectorStore on Milvus. Both collections share
// one schema: an embedding plus case_id, content and url metadata.
type MilvusStore struct {
	client *milvus.Client
	opts   *ragopts.Options
}

// NewMilvusStore creates a Milvus-backed vector store.
func NewMilvusStore(client *milvus.Client, opts *ragopts.Options) *MilvusStore {
	return &MilvusStore{client: client, opts: opts}
}

var _ VectorStore = (*MilvusStore)(nil)

// EnsureCollections creates the text and images collections if absent.
func (s *MilvusStore) EnsureCollections(ctx context.Context) error {
	for name, desc := range map[string]string{
		s.opts.TextCollection:  "case evidence text chunks",
		s.opts.ImageCollection: "case evidence image captions",
	} {
		schema := &milvus.CollectionSchema{
			Name:        name,
			Description: desc,
			Dimension:   s.opts.EmbeddingDim,
			MetaFields: []milvus.MetaField{
				{Name: "case_id", DataType: entity.FieldTypeInt64},
				{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
				{Name: "url", DataType: entity.FieldTypeVarChar, MaxLen: 2048},
			},
		}
		if err := s.client.CreateCollection(ctx, schema); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
	}
	return nil
}

// Insert writes chunks into a collection.
func (s *MilvusStore) Insert(ctx context.Context, collection string, chunks []*Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(chunks))
	metadata := map[string][]any{
		"case_id": make([]any, len(chunks)),
		"content": make([]any, len(chunks)),
		"url":     make([]any, len(chunks)),
	}

	for i, chunk := range chunks {
		embeddings[i] = chunk.Embedding
		metadata["case_id"][i] = int64(chunk.CaseID)
		metadata["content"][i] = chunk.Content
		metadata["url"][i] = chunk.URL
	}

	ids, err := s.client.Insert(ctx, collection, &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert into milvus: %w", err)
	}

	stringIDs := make([]string, len(ids))
	for i, id := range ids {
		stringIDs[i] = fmt.Sprintf("%d", id)
	}
	return stringIDs, nil
}

// Search returns the topK nearest chunks scoped to one case.
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, caseID, topK int) ([]*SearchResult, error) {
	filter := fmt.Sprintf("case_id == %d", caseID)
	outputFields := []string{"case_id", "content", "url"}

	results, err := s.client.Search(ctx, collection, embedding, topK, filter, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	searchResults := make([]*SearchResult, 0, len(results))
	for _, r := range results {
		sr := &SearchResult{Score: r.Score}
		if v, ok := r.Metadata["case_id"].(int64); ok {
			sr.CaseID = int(v)
		}
		if v, ok := r.Metadata["content"].(string); ok {
			sr.Content = v
		}
		if v, ok := r.Metadata["url"].(string); ok {
			sr.URL = v
		}
		searchResults = append(searchResults, sr)
	}

	return searchResults, nil
}

// Stats returns the number of stored chunks in a collection.
func (s *MilvusStore) Stats(ctx context.Context, collection string) (int64, error) {
	return s.client.GetCollectionStats(ctx, collection)
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
