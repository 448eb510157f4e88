// Package database opens the gorm connection of the configured driver.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	dbopts "github.com/kart-io/labelhub/pkg/options/database"
)

// Open connects to the database described by opts and verifies the
// connection. Duplicate key errors are translated to gorm.ErrDuplicatedKey.
func Open(ctx context.Context, opts *dbopts.Options) (*gorm.DB, error) {
	if opts == nil {
		return nil, fmt.Errorf("database options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid database options: %v", errs[0])
	}

	dialector, err := dialect(opts)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: &GormLogger{
			LogLevel:      gormlogger.LogLevel(opts.LogLevel),
			SlowThreshold: opts.SlowThreshold,
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if opts.Driver == dbopts.DriverSQLite {
		// One writer at a time; an in-memory database lives in its only connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		if opts.MaxIdleConnections > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
		}
		if opts.MaxOpenConnections > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConnections)
		}
		if opts.MaxConnectionLifeTime > 0 {
			sqlDB.SetConnMaxLifetime(opts.MaxConnectionLifeTime)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", opts.Driver, err)
	}
	return db, nil
}

func dialect(opts *dbopts.Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case dbopts.DriverPostgres:
		return postgres.Open(PostgresDSN(opts)), nil
	case dbopts.DriverMySQL:
		return mysql.Open(MySQLDSN(opts)), nil
	case dbopts.DriverSQLite:
		return sqlite.Open(opts.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
