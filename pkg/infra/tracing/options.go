// Package tracing sets up the OpenTelemetry tracer provider of the service
// and small helpers for spans carried in a context.
package tracing

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/labelhub/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// SamplerType selects the head sampling strategy.
type SamplerType string

// Samplers.
const (
	SamplerAlwaysOn    SamplerType = "always_on"
	SamplerAlwaysOff   SamplerType = "always_off"
	SamplerRatio       SamplerType = "ratio"
	SamplerParentBased SamplerType = "parent_based"
)

// ExporterType selects where finished spans go.
type ExporterType string

// Exporters. Stdout is meant for local runs, noop keeps spans in process.
const (
	ExporterOTLPGRPC ExporterType = "otlp_grpc"
	ExporterOTLPHTTP ExporterType = "otlp_http"
	ExporterStdout   ExporterType = "stdout"
	ExporterNoop     ExporterType = "noop"
)

// Options configures tracing.
type Options struct {
	Enabled        bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName    string `json:"service-name" mapstructure:"service-name"`
	ServiceVersion string `json:"service-version" mapstructure:"service-version"`
	Environment    string `json:"environment" mapstructure:"environment"`

	ExporterType ExporterType `json:"exporter-type" mapstructure:"exporter-type"`
	// Endpoint of the collector: host:4317 for gRPC, host:4318 for HTTP.
	Endpoint string            `json:"endpoint" mapstructure:"endpoint"`
	Insecure bool              `json:"insecure" mapstructure:"insecure"`
	Headers  map[string]string `json:"headers" mapstructure:"headers"`

	SamplerType SamplerType `json:"sampler-type" mapstructure:"sampler-type"`
	// SamplerRatio is used by the ratio sampler and by parent_based for root spans.
	SamplerRatio float64 `json:"sampler-ratio" mapstructure:"sampler-ratio"`

	// Batch span processor settings.
	BatchTimeout  time.Duration `json:"batch-timeout" mapstructure:"batch-timeout"`
	BatchMaxSize  int           `json:"batch-max-size" mapstructure:"batch-max-size"`
	ExportTimeout time.Duration `json:"export-timeout" mapstructure:"export-timeout"`
	MaxQueueSize  int           `json:"max-queue-size" mapstructure:"max-queue-size"`

	// ResourceAttributes are attached to every span.
	ResourceAttributes map[string]string `json:"resource-attributes" mapstructure:"resource-attributes"`
}

// NewOptions creates default tracing options. Tracing is disabled by default.
func NewOptions() *Options {
	return &Options{
		ServiceName:        "labelhub",
		Environment:        "development",
		ExporterType:       ExporterOTLPGRPC,
		Endpoint:           "localhost:4317",
		Insecure:           true,
		Headers:            make(map[string]string),
		SamplerType:        SamplerParentBased,
		SamplerRatio:       1.0,
		BatchTimeout:       5 * time.Second,
		BatchMaxSize:       512,
		ExportTimeout:      30 * time.Second,
		MaxQueueSize:       2048,
		ResourceAttributes: make(map[string]string),
	}
}

// AddFlags adds flags for tracing options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "tracing."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable OpenTelemetry tracing.")
	fs.StringVar(&o.ServiceName, p+"service-name", o.ServiceName, "Service name for tracing.")
	fs.StringVar(&o.ServiceVersion, p+"service-version", o.ServiceVersion, "Service version, defaults to the build version.")
	fs.StringVar(&o.Environment, p+"environment", o.Environment, "Deployment environment.")
	fs.StringVar((*string)(&o.ExporterType), p+"exporter-type", string(o.ExporterType), "Exporter type (otlp_grpc, otlp_http, stdout, noop).")
	fs.StringVar(&o.Endpoint, p+"endpoint", o.Endpoint, "OTLP exporter endpoint.")
	fs.BoolVar(&o.Insecure, p+"insecure", o.Insecure, "Disable TLS for the OTLP connection.")
	fs.StringVar((*string)(&o.SamplerType), p+"sampler-type", string(o.SamplerType), "Sampler type (always_on, always_off, ratio, parent_based).")
	fs.Float64Var(&o.SamplerRatio, p+"sampler-ratio", o.SamplerRatio, "Sampling ratio (0.0 to 1.0).")
	fs.DurationVar(&o.BatchTimeout, p+"batch-timeout", o.BatchTimeout, "Maximum time to wait before exporting a batch.")
	fs.IntVar(&o.BatchMaxSize, p+"batch-max-size", o.BatchMaxSize, "Maximum number of spans to export in a batch.")
	fs.DurationVar(&o.ExportTimeout, p+"export-timeout", o.ExportTimeout, "Maximum time allowed for exporting spans.")
	fs.IntVar(&o.MaxQueueSize, p+"max-queue-size", o.MaxQueueSize, "Maximum queue size for spans awaiting export.")
}

// Validate validates the tracing options. Disabled options are not checked.
func (o *Options) Validate() []error {
	if !o.Enabled {
		return nil
	}

	var errs []error
	if o.ServiceName == "" {
		errs = append(errs, fmt.Errorf("tracing: service name is required when tracing is enabled"))
	}

	switch o.ExporterType {
	case ExporterOTLPGRPC, ExporterOTLPHTTP:
		if o.Endpoint == "" {
			errs = append(errs, fmt.Errorf("tracing: endpoint is required for exporter type %s", o.ExporterType))
		}
	case ExporterStdout, ExporterNoop:
	default:
		errs = append(errs, fmt.Errorf("tracing: invalid exporter type: %s", o.ExporterType))
	}

	switch o.SamplerType {
	case SamplerAlwaysOn, SamplerAlwaysOff, SamplerRatio, SamplerParentBased:
	default:
		errs = append(errs, fmt.Errorf("tracing: invalid sampler type: %s", o.SamplerType))
	}
	if o.SamplerRatio < 0.0 || o.SamplerRatio > 1.0 {
		errs = append(errs, fmt.Errorf("tracing: sampler ratio must be between 0.0 and 1.0, got %f", o.SamplerRatio))
	}

	if o.BatchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracing: batch timeout must be positive"))
	}
	if o.BatchMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("tracing: batch max size must be positive"))
	}
	if o.ExportTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracing: export timeout must be positive"))
	}
	if o.MaxQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("tracing: max queue size must be positive"))
	}
	return errs
}

// Complete fills in missing maps and the service version.
func (o *Options) Complete(version string) {
	if o.Headers == nil {
		o.Headers = make(map[string]string)
	}
	if o.ResourceAttributes == nil {
		o.ResourceAttributes = make(map[string]string)
	}
	if o.ServiceVersion == "" {
		o.ServiceVersion = version
	}
}
