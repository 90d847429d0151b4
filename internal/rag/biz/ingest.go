package biz

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/timooo-thy/rag-atron-mllm/internal/model"
	"github.com/timooo-thy/rag-atron-mllm/internal/pkg/rag/textutil"
	"github.com/timooo-thy/rag-atron-mllm/internal/rag/store"
	"github.com/timooo-thy/rag-atron-mllm/pkg/errors"
	"github.com/timooo-thy/rag-atron-mllm/pkg/llm"
)

// Ingest chunks and indexes raw text into the text collection. With no
// case assignment the chunks are tagged with the configured default
// case.
func (s *Service) Ingest(ctx context.Context, req *model.IngestRequest) (*model.IngestResponse, error) {
	caseID := req.CaseID
	if caseID == 0 {
		caseID = int(s.opts.DefaultCaseID)
	}

	n, err := s.indexText(ctx, req.Text, caseID, "")
	if err != nil {
		return nil, err
	}

	logger.Infow("Indexed documents", "case_id", caseID, "chunks", n)
	return &model.IngestResponse{OK: true, Chunks: n}, nil
}

// IngestText uploads the raw text to object storage, then chunks and
// indexes it with the source URL in metadata. The evidence ledger row
// is best effort.
func (s *Service) IngestText(ctx context.Context, req *model.EmbedTextRequest) (*model.IngestResponse, error) {
	if s.objects == nil {
		return nil, errors.ErrObjectStore.WithMessage("object store is not configured")
	}

	obj, err := s.objects.Upload(ctx, []byte(req.Text), "text/plain; charset=utf-8", ".txt")
	if err != nil {
		return nil, errors.ErrObjectStore.WithCause(err)
	}

	n, err := s.indexText(ctx, req.Text, req.CaseEmbedID, obj.URL)
	if err != nil {
		return nil, err
	}

	s.recordEvidence(ctx, &model.EvidenceRecord{
		CaseID:     req.CaseEmbedID,
		Kind:       model.EvidenceKindText,
		ObjectKey:  obj.Key,
		SourceURL:  obj.URL,
		ChunkCount: n,
	})

	logger.Infow("Indexed documents", "case_id", req.CaseEmbedID, "chunks", n, "url", obj.URL)
	return &model.IngestResponse{OK: true, Chunks: n, URL: obj.URL}, nil
}

// IngestImage uploads the image, captions it with the vision model, and
// indexes the caption in the images collection with the image URL in
// metadata.
func (s *Service) IngestImage(ctx context.Context, req *model.EmbedImageRequest) (*model.IngestResponse, error) {
	if s.objects == nil {
		return nil, errors.ErrObjectStore.WithMessage("object store is not configured")
	}

	obj, err := s.objects.Upload(ctx, req.Data, req.ContentType, extForContentType(req.ContentType))
	if err != nil {
		return nil, errors.ErrObjectStore.WithCause(err)
	}

	caption, err := s.chat.Chat(ctx, []llm.Message{{
		Role:    llm.RoleUser,
		Content: ingestCaptionPrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(req.Data)},
	}}, llm.WithModel(s.opts.VisionModel), llm.WithTemperature(0.6))
	if err != nil {
		s.metrics.RecordIngestion(1, 0, err)
		return nil, errors.ErrGeneration.WithCause(err)
	}

	embedding, err := s.embedder.EmbedSingle(ctx, caption)
	if err != nil {
		s.metrics.RecordIngestion(1, 0, err)
		return nil, errors.ErrIngestion.WithCause(err)
	}

	_, err = s.store.Insert(ctx, s.opts.ImageCollection, []*store.Chunk{{
		Content:   caption,
		CaseID:    req.CaseID,
		URL:       obj.URL,
		Embedding: embedding,
	}})
	s.metrics.RecordIngestion(1, 1, err)
	if err != nil {
		return nil, errors.ErrVectorStore.WithCause(err)
	}

	s.recordEvidence(ctx, &model.EvidenceRecord{
		CaseID:     req.CaseID,
		Kind:       model.EvidenceKindImage,
		ObjectKey:  obj.Key,
		SourceURL:  obj.URL,
		ChunkCount: 1,
	})

	logger.Infow("Indexed image caption", "case_id", req.CaseID, "url", obj.URL)
	return &model.IngestResponse{OK: true, Chunks: 1, URL: obj.URL}, nil
}

// indexText chunks, embeds and inserts text into the text collection.
func (s *Service) indexText(ctx context.Context, text string, caseID int, sourceURL string) (int, error) {
	parts := textutil.SplitIntoChunks(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if len(parts) == 0 {
		return 0, errors.ErrEmptyDocument
	}

	embeddings, err := s.embedder.Embed(ctx, parts)
	if err != nil {
		s.metrics.RecordIngestion(1, 0, err)
		return 0, errors.ErrIngestion.WithCause(err)
	}
	if len(embeddings) != len(parts) {
		err := fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(parts), len(embeddings))
		s.metrics.RecordIngestion(1, 0, err)
		return 0, errors.ErrIngestion.WithCause(err)
	}

	chunks := make([]*store.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, &store.Chunk{
			Content:   part,
			CaseID:    caseID,
			URL:       sourceURL,
			Embedding: embeddings[i],
		})
	}

	_, err = s.store.Insert(ctx, s.opts.TextCollection, chunks)
	s.metrics.RecordIngestion(1, len(chunks), err)
	if err != nil {
		return 0, errors.ErrVectorStore.WithCause(err)
	}
	return len(chunks), nil
}

// recordEvidence appends a ledger row, logging failures instead of
// failing the ingestion.
func (s *Service) recordEvidence(ctx context.Context, rec *model.EvidenceRecord) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(ctx, rec); err != nil {
		logger.Warnw("Evidence ledger write failed",
			"case_id", rec.CaseID,
			"kind", rec.Kind,
			"error", err,
		)
	}
}
