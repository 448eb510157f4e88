// Package redis provides options for the redis connection used by the event
// stream sink.
package redis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/labelhub/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// redactedPassword is the placeholder used when serializing passwords.
const redactedPassword = "[REDACTED]"

// PasswordEnv is read when no password is configured.
const PasswordEnv = "LABELHUB_REDIS_PASSWORD"

// Options defines configuration options for Redis.
type Options struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	Host         string        `json:"host" mapstructure:"host"`
	Port         int           `json:"port" mapstructure:"port"`
	Password     string        `json:"-" mapstructure:"password"`
	Database     int           `json:"database" mapstructure:"database"`
	MaxRetries   int           `json:"max-retries" mapstructure:"max-retries"`
	PoolSize     int           `json:"pool-size" mapstructure:"pool-size"`
	MinIdleConns int           `json:"min-idle-conns" mapstructure:"min-idle-conns"`
	DialTimeout  time.Duration `json:"dial-timeout" mapstructure:"dial-timeout"`
	ReadTimeout  time.Duration `json:"read-timeout" mapstructure:"read-timeout"`
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
	PoolTimeout  time.Duration `json:"pool-timeout" mapstructure:"pool-timeout"`
}

// MarshalJSON redacts the password.
func (o *Options) MarshalJSON() ([]byte, error) {
	type plain Options
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}
	return json.Marshal(struct {
		*plain
		Password string `json:"password"`
	}{plain: (*plain)(o), Password: password})
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}
	return fmt.Sprintf("Redis{host=%s, port=%d, password=%s, database=%d}",
		o.Host, o.Port, password, o.Database)
}

// Addr returns host:port.
func (o *Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:         "127.0.0.1",
		Port:         6379,
		MaxRetries:   3,
		PoolSize:     50,
		MinIdleConns: 10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

// Complete reads the password from the environment when unset.
func (o *Options) Complete() {
	if o.Password == "" {
		o.Password = os.Getenv(PasswordEnv)
	}
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if !o.Enabled {
		return nil
	}
	var errs []error
	if o.Host == "" {
		errs = append(errs, fmt.Errorf("redis host is required"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("redis port must be between 1 and 65535"))
	}
	if o.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("redis pool size must be positive"))
	}
	if o.MinIdleConns > o.PoolSize {
		errs = append(errs, fmt.Errorf("redis min idle connections cannot exceed the pool size"))
	}
	return errs
}

// AddFlags adds flags for Redis options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "redis."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Publish record events to a redis stream.")
	fs.StringVar(&o.Host, p+"host", o.Host, "Redis host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "Redis port.")
	fs.StringVar(&o.Password, p+"password", o.Password, "Redis password (prefer the "+PasswordEnv+" env var).")
	fs.IntVar(&o.Database, p+"database", o.Database, "Redis database.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Redis max retries.")
	fs.IntVar(&o.PoolSize, p+"pool-size", o.PoolSize, "Redis pool size.")
	fs.IntVar(&o.MinIdleConns, p+"min-idle-conns", o.MinIdleConns, "Redis min idle connections.")
	fs.DurationVar(&o.DialTimeout, p+"dial-timeout", o.DialTimeout, "Redis dial timeout.")
	fs.DurationVar(&o.ReadTimeout, p+"read-timeout", o.ReadTimeout, "Redis read timeout.")
	fs.DurationVar(&o.WriteTimeout, p+"write-timeout", o.WriteTimeout, "Redis write timeout.")
	fs.DurationVar(&o.PoolTimeout, p+"pool-timeout", o.PoolTimeout, "Redis pool timeout.")
}
