// Package options contains flags and options for initializing the labelhub server.
package options

import (
	"fmt"

	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/labelhub/internal/labelhub"
	"github.com/kart-io/labelhub/pkg/app/cliflag"
	"github.com/kart-io/labelhub/pkg/infra/tracing"
	genericoptions "github.com/kart-io/labelhub/pkg/options"
	dbopts "github.com/kart-io/labelhub/pkg/options/database"
	httpopts "github.com/kart-io/labelhub/pkg/options/http"
	logopts "github.com/kart-io/labelhub/pkg/options/logger"
	milvusopts "github.com/kart-io/labelhub/pkg/options/milvus"
	redisopts "github.com/kart-io/labelhub/pkg/options/redis"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// DatabaseOptions contains the relational store configuration.
	DatabaseOptions *dbopts.Options `json:"database" mapstructure:"database"`

	// RedisOptions contains Redis configuration, used by the redis event sink.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// MilvusOptions contains the vector index configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracing.Options `json:"tracing" mapstructure:"tracing"`

	// LabelHubOptions contains the bulk engine configuration.
	LabelHubOptions *labelhub.Options `json:"labelhub" mapstructure:"labelhub"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:     httpopts.NewOptions(),
		LogOptions:      logopts.NewOptions(),
		DatabaseOptions: dbopts.NewOptions(),
		RedisOptions:    redisopts.NewOptions(),
		MilvusOptions:   milvusopts.NewOptions(),
		TracingOptions:  tracing.NewOptions(),
		LabelHubOptions: labelhub.NewOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.DatabaseOptions.AddFlags(fss.FlagSet("database"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.LabelHubOptions.AddFlags(fss.FlagSet("labelhub"))
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	o.DatabaseOptions.Complete()
	o.RedisOptions.Complete()
	o.TracingOptions.Complete(labelhub.Version())
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := genericoptions.ValidateAll(
		o.HTTPOptions,
		o.LogOptions,
		o.DatabaseOptions,
		o.RedisOptions,
		o.MilvusOptions,
		o.TracingOptions,
		o.LabelHubOptions,
	)

	if o.LabelHubOptions.HasSink(labelhub.SinkRedis) && !o.RedisOptions.Enabled {
		errs = append(errs, fmt.Errorf("labelhub.event-sinks: the redis sink needs redis.enabled"))
	}

	return utilerrors.NewAggregate(errs)
}

// Reload re-initializes the global logger from the log section of a changed
// config file. Other sections need a restart.
func (o *ServerOptions) Reload(v *viper.Viper) error {
	logOpts := logopts.NewOptions()
	if sub := v.Sub("log"); sub != nil {
		if err := sub.Unmarshal(logOpts); err != nil {
			return fmt.Errorf("failed to decode log options: %w", err)
		}
	}
	if err := utilerrors.NewAggregate(logOpts.Validate()); err != nil {
		return err
	}
	return labelhub.InitLogger(logOpts)
}

// Config builds a labelhub.Config based on ServerOptions.
func (o *ServerOptions) Config() (*labelhub.Config, error) {
	return &labelhub.Config{
		HTTPOptions:     o.HTTPOptions,
		LogOptions:      o.LogOptions,
		DatabaseOptions: o.DatabaseOptions,
		RedisOptions:    o.RedisOptions,
		MilvusOptions:   o.MilvusOptions,
		TracingOptions:  o.TracingOptions,
		LabelHubOptions: o.LabelHubOptions,
	}, nil
}
