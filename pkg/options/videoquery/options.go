// Package videoqueryopts provides options for the external video
// analysis service.
package videoqueryopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/timooo-thy/rag-atron-mllm/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains video query service configuration.
type Options struct {
	// Endpoint is the prediction service URL.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// ConnectTimeout bounds the initial request; the streamed response
	// itself is bounded by the request context.
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Endpoint:       "http://localhost:8502/predict",
		ConnectTimeout: 30 * time.Second,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, options.Join(prefixes...)+"videoquery.endpoint", o.Endpoint, "Video analysis prediction service URL.")
	fs.DurationVar(&o.ConnectTimeout, options.Join(prefixes...)+"videoquery.connect-timeout", o.ConnectTimeout, "Timeout for establishing the prediction request.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Endpoint == "" {
		errs = append(errs, fmt.Errorf("videoquery endpoint is required"))
	}
	if o.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("videoquery connect-timeout must be positive"))
	}
	return errs
}
