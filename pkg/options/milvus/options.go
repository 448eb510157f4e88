// Package milvusopts provides options for Milvus client configuration.
package milvusopts

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/labelhub/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

var collectionPrefix = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options contains Milvus client configuration.
type Options struct {
	// Enabled turns record vector indexing on.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Address is the Milvus server address (host:port).
	Address string `json:"address" mapstructure:"address"`

	// Database is the database name to use.
	Database string `json:"database" mapstructure:"database"`

	// Username for authentication.
	Username string `json:"username" mapstructure:"username"`

	// Password for authentication.
	Password string `json:"-" mapstructure:"password"`

	// Timeout for connection and operations.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// CollectionPrefix starts every record vector collection name.
	CollectionPrefix string `json:"collection-prefix" mapstructure:"collection-prefix"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Enabled:          false,
		Address:          "localhost:19530",
		Database:         "default",
		Timeout:          30 * time.Second,
		CollectionPrefix: "labelhub",
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"milvus.enabled", o.Enabled, "Index record vectors in Milvus.")
	fs.StringVar(&o.Address, options.Join(prefixes...)+"milvus.address", o.Address, "Milvus server address (host:port).")
	fs.StringVar(&o.Database, options.Join(prefixes...)+"milvus.database", o.Database, "Milvus database name.")
	fs.StringVar(&o.Username, options.Join(prefixes...)+"milvus.username", o.Username, "Milvus username for authentication.")
	fs.StringVar(&o.Password, options.Join(prefixes...)+"milvus.password", o.Password, "Milvus password for authentication.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"milvus.timeout", o.Timeout, "Connection and operation timeout.")
	fs.StringVar(&o.CollectionPrefix, options.Join(prefixes...)+"milvus.collection-prefix", o.CollectionPrefix,
		"Prefix of the collections holding record vectors.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.Address == "" {
		errs = append(errs, fmt.Errorf("milvus address is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("milvus timeout must be positive"))
	}
	if !collectionPrefix.MatchString(o.CollectionPrefix) {
		errs = append(errs, fmt.Errorf("milvus collection prefix %q must start with a letter or underscore and contain only letters, digits and underscores", o.CollectionPrefix))
	}
	return errs
}
