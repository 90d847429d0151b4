// Package gcsopts provides options for the evidence object store.
package gcsopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/timooo-thy/rag-atron-mllm/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains object storage configuration.
type Options struct {
	// Bucket is the GCS bucket holding uploaded evidence.
	Bucket string `json:"bucket" mapstructure:"bucket"`

	// KeyPrefix namespaces object keys within the bucket.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// SignedURLTTL is the validity window of generated download links.
	// Links are consumed immediately by model calls and chat clients,
	// so the window stays short.
	SignedURLTTL time.Duration `json:"signed-url-ttl" mapstructure:"signed-url-ttl"`

	// UploadTimeout bounds a single object upload.
	UploadTimeout time.Duration `json:"upload-timeout" mapstructure:"upload-timeout"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Bucket:        "narconet-evidence",
		KeyPrefix:     "evidence/",
		SignedURLTTL:  60 * time.Second,
		UploadTimeout: 30 * time.Second,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Bucket, options.Join(prefixes...)+"gcs.bucket", o.Bucket, "GCS bucket for uploaded evidence.")
	fs.StringVar(&o.KeyPrefix, options.Join(prefixes...)+"gcs.key-prefix", o.KeyPrefix, "Object key prefix within the bucket.")
	fs.DurationVar(&o.SignedURLTTL, options.Join(prefixes...)+"gcs.signed-url-ttl", o.SignedURLTTL, "Validity window of signed download URLs.")
	fs.DurationVar(&o.UploadTimeout, options.Join(prefixes...)+"gcs.upload-timeout", o.UploadTimeout, "Timeout for a single object upload.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Bucket == "" {
		errs = append(errs, fmt.Errorf("gcs bucket is required"))
	}
	if o.SignedURLTTL <= 0 {
		errs = append(errs, fmt.Errorf("gcs signed-url-ttl must be positive"))
	}
	if o.UploadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("gcs upload-timeout must be positive"))
	}
	return errs
}
