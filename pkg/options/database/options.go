// Package database provides options for the relational store.
package database

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/labelhub/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// PasswordEnv is read when no password is configured.
const PasswordEnv = "LABELHUB_DATABASE_PASSWORD"

// Options defines configuration options for the relational store.
type Options struct {
	Driver                string        `json:"driver" mapstructure:"driver"`
	Host                  string        `json:"host" mapstructure:"host"`
	Port                  int           `json:"port" mapstructure:"port"`
	Username              string        `json:"username" mapstructure:"username"`
	Password              string        `json:"-" mapstructure:"password"`
	Database              string        `json:"database" mapstructure:"database"`
	SSLMode               string        `json:"ssl-mode" mapstructure:"ssl-mode"`
	Path                  string        `json:"path" mapstructure:"path"`
	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time"`
	SlowThreshold         time.Duration `json:"slow-threshold" mapstructure:"slow-threshold"`
	LogLevel              int           `json:"log-level" mapstructure:"log-level"`
	AutoMigrate           bool          `json:"auto-migrate" mapstructure:"auto-migrate"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Driver:                DriverSQLite,
		Host:                  "127.0.0.1",
		Port:                  5432,
		Username:              "labelhub",
		Database:              "labelhub",
		SSLMode:               "disable",
		Path:                  "labelhub.db",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifeTime: time.Hour,
		SlowThreshold:         200 * time.Millisecond,
		LogLevel:              1, // Silent
		AutoMigrate:           true,
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
	var errs []error
	switch o.Driver {
	case DriverSQLite:
		if o.Path == "" {
			errs = append(errs, fmt.Errorf("database path is required for the sqlite driver"))
		}
	case DriverPostgres, DriverMySQL:
		if o.Host == "" {
			errs = append(errs, fmt.Errorf("database host is required"))
		}
		if o.Port <= 0 || o.Port > 65535 {
			errs = append(errs, fmt.Errorf("database port must be between 1 and 65535"))
		}
		if o.Database == "" {
			errs = append(errs, fmt.Errorf("database name is required"))
		}
		if o.Username == "" {
			errs = append(errs, fmt.Errorf("database username is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q, expected postgres, mysql or sqlite", o.Driver))
	}
	if o.LogLevel < 1 || o.LogLevel > 4 {
		errs = append(errs, fmt.Errorf("database log level must be between 1 (silent) and 4 (info)"))
	}
	return errs
}

// AddFlags adds flags for the database options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "database."
	fs.StringVar(&o.Driver, p+"driver", o.Driver, "Database driver: postgres, mysql or sqlite.")
	fs.StringVar(&o.Host, p+"host", o.Host, "Database host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "Database port.")
	fs.StringVar(&o.Username, p+"username", o.Username, "Database username.")
	fs.StringVar(&o.Password, p+"password", o.Password, "Database password (prefer the "+PasswordEnv+" env var).")
	fs.StringVar(&o.Database, p+"database", o.Database, "Database name.")
	fs.StringVar(&o.SSLMode, p+"ssl-mode", o.SSLMode, "PostgreSQL sslmode.")
	fs.StringVar(&o.Path, p+"path", o.Path, "SQLite database file, or :memory:.")
	fs.IntVar(&o.MaxIdleConnections, p+"max-idle-connections", o.MaxIdleConnections, "Max idle connections.")
	fs.IntVar(&o.MaxOpenConnections, p+"max-open-connections", o.MaxOpenConnections, "Max open connections.")
	fs.DurationVar(&o.MaxConnectionLifeTime, p+"max-connection-life-time", o.MaxConnectionLifeTime, "Max connection life time.")
	fs.DurationVar(&o.SlowThreshold, p+"slow-threshold", o.SlowThreshold, "Queries slower than this are logged as warnings.")
	fs.IntVar(&o.LogLevel, p+"log-level", o.LogLevel, "GORM log level: 1 silent, 2 error, 3 warn, 4 info.")
	fs.BoolVar(&o.AutoMigrate, p+"auto-migrate", o.AutoMigrate, "Migrate the schema on startup.")
}
