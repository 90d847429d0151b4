package model

import (
	"github.com/timooo-thy/rag-atron-mllm/pkg/validator"
)

// IngestRequest is the body of POST /api/ingest. CaseID is optional;
// the basic ingest flow tags chunks with the configured default case.
type IngestRequest struct {
	Text   string `json:"text" validate:"required"`
	CaseID int    `json:"caseId" validate:"omitempty,gt=0"`
}

// EmbedTextRequest is the body of POST /api/ingest/text.
type EmbedTextRequest struct {
	Text        string `json:"text" validate:"required"`
	CaseEmbedID int    `json:"caseEmbedId" validate:"required,gt=0"`
}

// EmbedImageRequest carries the multipart fields of POST /api/ingest/image.
type EmbedImageRequest struct {
	CaseID      int
	ContentType string
	Data        []byte
}

// IngestResponse reports an ingestion outcome.
type IngestResponse struct {
	OK     bool   `json:"ok"`
	Chunks int    `json:"chunks,omitempty"`
	Failed int    `json:"failed,omitempty"`
	URL    string `json:"url,omitempty"`
}

var ingestMessages = map[string]map[string]string{
	"text": {
		"required": "Text is empty",
	},
	"caseId": {
		"gt": "Case ID is empty",
	},
	"caseEmbedId": {
		"required": "Case ID is empty",
		"gt":       "Case ID is empty",
	},
}

// Validate checks the basic ingest request.
func (r *IngestRequest) Validate() *validator.ValidationErrors {
	verr := validator.Struct(r)
	if verr == nil {
		return nil
	}
	return overrideMessages(verr, ingestMessages)
}

// Validate checks the text embedding request.
func (r *EmbedTextRequest) Validate() *validator.ValidationErrors {
	verr := validator.Struct(r)
	if verr == nil {
		return nil
	}
	return overrideMessages(verr, ingestMessages)
}

// MaxImageSize bounds uploaded evidence images.
const MaxImageSize = 10 * 1024 * 1024

// acceptedImageTypes are the content types the image ingest accepts.
var acceptedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// Validate checks the image embedding request.
func (r *EmbedImageRequest) Validate() *validator.ValidationErrors {
	if r.CaseID <= 0 {
		return validator.NewValidationError("caseId", "required", "Case ID is empty")
	}
	if len(r.Data) == 0 {
		return validator.NewValidationError("file", "required", "No file provided")
	}
	if len(r.Data) >= MaxImageSize {
		return validator.NewValidationError("file", "max", "File size must be less than 10MB")
	}
	if !acceptedImageTypes[r.ContentType] {
		return validator.NewValidationError("file", "oneof", "File type must be PNG or JPEG")
	}
	return nil
}
