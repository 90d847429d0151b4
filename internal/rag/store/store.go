package store

import (
	"context"
)

// Chunk is one embedded evidence chunk bound for the vector store.
type Chunk struct {
	// Content is the indexed text (or image caption).
	Content string
	// CaseID scopes the chunk to an investigation.
	CaseID int
	// URL points at the original payload in object storage. Text chunks
	// carry the source document URL, image chunks the image URL.
	URL string
	// Embedding is the vector representation of Content.
	Embedding []float32
}

// SearchResult is one retrieval hit, ranked by similarity.
type SearchResult struct {
	Content string
	CaseID  int
	URL     string
	Score   float32
}

// VectorStore is the case-scoped vector storage interface.
type VectorStore interface {
	// EnsureCollections creates the text and images collections if absent.
	EnsureCollections(ctx context.Context) error

	// Insert writes chunks into a collection.
	Insert(ctx context.Context, collection string, chunks []*Chunk) ([]string, error)

	// Search returns the topK nearest chunks in a collection whose
	// case_id equals caseID. Cross-case hits are a correctness bug.
	Search(ctx context.Context, collection string, embedding []float32, caseID, topK int) ([]*SearchResult, error)

	// Stats returns the number of stored chunks in a collection.
	Stats(ctx context.Context, collection string) (int64, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
