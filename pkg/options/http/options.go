// Package http provides HTTP server configuration options.
package http

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/kart-io/labelhub/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains HTTP server configuration.
type Options struct {
	// Addr is the address to listen on.
	Addr string `json:"addr" mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode" mapstructure:"mode"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `json:"idle-timeout" mapstructure:"idle-timeout"`
	// ShutdownTimeout bounds the graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
	// MaxBodyBytes caps request bodies; bulk payloads carry up to a thousand records.
	MaxBodyBytes int64 `json:"max-body-bytes" mapstructure:"max-body-bytes"`
	// EnableMetrics exposes prometheus metrics on /metrics.
	EnableMetrics bool `json:"enable-metrics" mapstructure:"enable-metrics"`
	// RequestTimeout is the deadline of each API request, 0 disables it.
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`
	// CORSAllowOrigins lists the browser origins allowed to call the API.
	// CORS headers are not sent when empty.
	CORSAllowOrigins []string `json:"cors-allow-origins" mapstructure:"cors-allow-origins"`
}

// Option is a function that configures Options.
type Option func(*Options)

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Addr:            ":6900",
		Mode:            gin.ReleaseMode,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxBodyBytes:    64 << 20,
		EnableMetrics:   true,
		RequestTimeout:  50 * time.Second,
	}
}

// AddFlags adds flags for HTTP options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "http."
	fs.StringVar(&o.Addr, p+"addr", o.Addr, "HTTP server listen address.")
	fs.StringVar(&o.Mode, p+"mode", o.Mode, "Gin mode (debug|release|test).")
	fs.DurationVar(&o.ReadTimeout, p+"read-timeout", o.ReadTimeout, "HTTP server read timeout.")
	fs.DurationVar(&o.WriteTimeout, p+"write-timeout", o.WriteTimeout, "HTTP server write timeout.")
	fs.DurationVar(&o.IdleTimeout, p+"idle-timeout", o.IdleTimeout, "HTTP server idle timeout.")
	fs.DurationVar(&o.ShutdownTimeout, p+"shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")
	fs.Int64Var(&o.MaxBodyBytes, p+"max-body-bytes", o.MaxBodyBytes, "Maximum request body size in bytes.")
	fs.BoolVar(&o.EnableMetrics, p+"enable-metrics", o.EnableMetrics, "Expose prometheus metrics on /metrics.")
	fs.DurationVar(&o.RequestTimeout, p+"request-timeout", o.RequestTimeout, "Deadline of each API request, 0 disables it.")
	fs.StringSliceVar(&o.CORSAllowOrigins, p+"cors-allow-origins", o.CORSAllowOrigins, "Browser origins allowed to call the API, * allows any.")
}

// Validate validates the HTTP options.
func (o *Options) Validate() []error {
	var errs []error
	if o.Addr == "" {
		errs = append(errs, fmt.Errorf("http.addr cannot be empty"))
	}
	switch o.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		errs = append(errs, fmt.Errorf("http.mode must be one of debug, release or test"))
	}
	if o.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.read-timeout must be positive"))
	}
	if o.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http.write-timeout must be positive"))
	}
	if o.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("http.max-body-bytes must be positive"))
	}
	if o.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("http.request-timeout cannot be negative"))
	}
	return errs
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Options) {
		o.Addr = addr
	}
}

// WithMode sets the gin mode.
func WithMode(mode string) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

// ApplyOptions applies the given options to the Options.
func (o *Options) ApplyOptions(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}
