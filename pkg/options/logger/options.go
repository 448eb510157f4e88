// Package logger provides logger configuration options.
package logger

import (
	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"

	"github.com/kart-io/labelhub/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options wraps option.LogOption so it can be bound to flags and config.
type Options struct {
	*option.LogOption `mapstructure:",squash"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	o := &Options{LogOption: option.DefaultLogOption()}
	if o.OTLP == nil {
		o.OTLP = &option.OTLPOption{}
	}
	if o.Rotation == nil {
		o.Rotation = &option.RotationOption{}
	}
	return o
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "log."
	fs.StringVar(&o.Engine, p+"engine", o.Engine, "Logging engine (zap|slog).")
	fs.StringVar(&o.Level, p+"level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR|FATAL).")
	fs.StringVar(&o.Format, p+"format", o.Format, "Log format (json|console).")
	fs.StringSliceVar(&o.OutputPaths, p+"output-paths", o.OutputPaths, "Output paths for logs.")
	fs.BoolVar(&o.Development, p+"development", o.Development, "Enable development mode.")
	fs.BoolVar(&o.DisableCaller, p+"disable-caller", o.DisableCaller, "Disable caller detection.")
	fs.BoolVar(&o.DisableStacktrace, p+"disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture.")
	fs.StringVar(&o.OTLPEndpoint, p+"otlp-endpoint", o.OTLPEndpoint, "OTLP endpoint receiving log records.")
	fs.StringVar(&o.OTLP.Protocol, p+"otlp.protocol", "grpc", "OTLP protocol (grpc|http).")
	fs.IntVar(&o.Rotation.MaxSize, p+"rotation.max-size", 100, "Maximum size in MB of the log file before rotation.")
	fs.IntVar(&o.Rotation.MaxAge, p+"rotation.max-age", 15, "Maximum number of days to retain old log files.")
	fs.IntVar(&o.Rotation.MaxBackups, p+"rotation.max-backups", 30, "Maximum number of old log files to retain.")
	fs.BoolVar(&o.Rotation.Compress, p+"rotation.compress", true, "Compress rotated log files.")
}

// Validate validates the logger options.
func (o *Options) Validate() []error {
	if err := o.LogOption.Validate(); err != nil {
		return []error{err}
	}
	return nil
}

// CreateLogger creates a new logger instance based on the options.
func (o *Options) CreateLogger() (core.Logger, error) {
	return logger.New(o.LogOption)
}

// Init initializes the global logger with the options.
func (o *Options) Init() error {
	log, err := o.CreateLogger()
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}
