// Package rag provides retrieval and ingestion configuration options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/timooo-thy/rag-atron-mllm/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains retrieval and ingestion configuration.
type Options struct {
	// ChunkSize is the size of text chunks, in runes.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the overlap between consecutive chunks, in runes.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// TextCollection is the collection holding textual evidence.
	TextCollection string `json:"text-collection" mapstructure:"text-collection"`

	// ImageCollection is the collection holding image captions.
	ImageCollection string `json:"image-collection" mapstructure:"image-collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// DefaultCaseID tags evidence ingested through the basic ingest
	// endpoint, which carries no explicit case assignment.
	DefaultCaseID int64 `json:"default-case-id" mapstructure:"default-case-id"`

	// Models is the set of model names chat requests may select.
	Models []string `json:"models" mapstructure:"models"`

	// VisionModel captions and classifies image evidence.
	VisionModel string `json:"vision-model" mapstructure:"vision-model"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ChunkSize:       256,
		ChunkOverlap:    20,
		TextCollection:  "text",
		ImageCollection: "images",
		EmbeddingDim:    768, // nomic-embed-text dimension
		DefaultCaseID:   10932,
		Models:          []string{"llama3:instruct", "llama3:70b-instruct", "llava:13b"},
		VisionModel:     "llava:13b",
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.ChunkSize, options.Join(prefixes...)+"rag.chunk-size", o.ChunkSize, "Size of text chunks in runes.")
	fs.IntVar(&o.ChunkOverlap, options.Join(prefixes...)+"rag.chunk-overlap", o.ChunkOverlap, "Overlap between consecutive chunks in runes.")
	fs.StringVar(&o.TextCollection, options.Join(prefixes...)+"rag.text-collection", o.TextCollection, "Collection for textual evidence.")
	fs.StringVar(&o.ImageCollection, options.Join(prefixes...)+"rag.image-collection", o.ImageCollection, "Collection for image captions.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"rag.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.Int64Var(&o.DefaultCaseID, options.Join(prefixes...)+"rag.default-case-id", o.DefaultCaseID, "Case ID for evidence ingested without an explicit case.")
	fs.StringSliceVar(&o.Models, options.Join(prefixes...)+"rag.models", o.Models, "Model names chat requests may select.")
	fs.StringVar(&o.VisionModel, options.Join(prefixes...)+"rag.vision-model", o.VisionModel, "Model used to caption and classify image evidence.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("chunk-overlap must not be negative"))
	}
	if o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk-overlap must be smaller than chunk-size"))
	}
	if o.TextCollection == "" || o.ImageCollection == "" {
		errs = append(errs, fmt.Errorf("text-collection and image-collection are required"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if len(o.Models) == 0 {
		errs = append(errs, fmt.Errorf("at least one model must be allowed"))
	}
	return errs
}

// Complete completes the RAG options with defaults.
func (o *Options) Complete() error {
	if o.VisionModel == "" {
		o.VisionModel = "llava:13b"
	}
	return nil
}
