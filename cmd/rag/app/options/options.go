// Package options contains flags and options for initializing the
// NarcoNet RAG server.
package options

import (
	"errors"
	"time"

	ragsvc "github.com/timooo-thy/rag-atron-mllm/internal/rag"
	appopts "github.com/timooo-thy/rag-atron-mllm/pkg/options/app"
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

var _ appopts.CliOptions = (*ServerOptions)(nil)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// MilvusOptions contains vector database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// MySQLOptions contains evidence ledger database configuration.
	MySQLOptions *mysqlopts.Options `json:"mysql" mapstructure:"mysql"`

	// GCSOptions contains evidence object storage configuration.
	GCSOptions *gcsopts.Options `json:"gcs" mapstructure:"gcs"`

	// VideoOptions contains the video analysis service configuration.
	VideoOptions *videoqueryopts.Options `json:"videoquery" mapstructure:"videoquery"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// TranscriptionOptions contains speech-to-text provider configuration.
	TranscriptionOptions *llmopts.ProviderOptions `json:"transcription" mapstructure:"transcription"`

	// RAGOptions contains retrieval configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// CacheOptions contains cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// EnableLedger turns on the MySQL evidence ledger.
	EnableLedger bool `json:"enable-ledger" mapstructure:"enable-ledger"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = ":8082"

	return &ServerOptions{
		HTTPOptions:          httpOpts,
		LogOptions:           logopts.NewOptions(),
		MilvusOptions:        milvusopts.NewOptions(),
		MySQLOptions:         mysqlopts.NewOptions(),
		GCSOptions:           gcsopts.NewOptions(),
		VideoOptions:         videoqueryopts.NewOptions(),
		EmbeddingOptions:     llmopts.NewEmbeddingOptions(),
		ChatOptions:          llmopts.NewChatOptions(),
		TranscriptionOptions: llmopts.NewTranscriptionOptions(),
		RAGOptions:           ragopts.NewOptions(),
		CacheOptions:         cacheopts.NewOptions(),
		ShutdownTimeout:      30 * time.Second,
	}
}

// Flags returns flags grouped by configuration section.
func (o *ServerOptions) Flags() (fss appopts.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.MySQLOptions.AddFlags(fss.FlagSet("mysql"))
	o.GCSOptions.AddFlags(fss.FlagSet("gcs"))
	o.VideoOptions.AddFlags(fss.FlagSet("videoquery"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.TranscriptionOptions.AddFlags(fss.FlagSet("transcription"), "transcription")
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))

	misc := fss.FlagSet("misc")
	misc.BoolVar(&o.EnableLedger, "enable-ledger", o.EnableLedger, "Record ingested evidence in the MySQL ledger.")
	misc.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	return errors.Join(
		o.HTTPOptions.Complete(),
		o.LogOptions.Complete(),
		o.MySQLOptions.Complete(),
		o.EmbeddingOptions.Complete(),
		o.ChatOptions.Complete(),
		o.TranscriptionOptions.Complete(),
		o.RAGOptions.Complete(),
		o.CacheOptions.Complete(),
	)
}

// Validate checks whether the options are valid.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate())
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.GCSOptions.Validate()...)
	errs = append(errs, o.VideoOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	if o.EnableLedger {
		errs = append(errs, o.MySQLOptions.Validate()...)
	}

	return errors.Join(errs...)
}

// Config builds a ragsvc.Config from the server options.
func (o *ServerOptions) Config() (*ragsvc.Config, error) {
	return &ragsvc.Config{
		HTTPOptions:          o.HTTPOptions,
		LogOptions:           o.LogOptions,
		MilvusOptions:        o.MilvusOptions,
		MySQLOptions:         o.MySQLOptions,
		GCSOptions:           o.GCSOptions,
		VideoOptions:         o.VideoOptions,
		EmbeddingOptions:     o.EmbeddingOptions,
		ChatOptions:          o.ChatOptions,
		TranscriptionOptions: o.TranscriptionOptions,
		RAGOptions:           o.RAGOptions,
		CacheOptions:         o.CacheOptions,
		LedgerEnabled:        o.EnableLedger,
		ShutdownTimeout:      o.ShutdownTimeout,
	}, nil
}
