// Package store implements the relational persistence of datasets, records
// and users on top of gorm.
package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
)

// Factory defines the factory interface for creating stores.
type Factory interface {
	Datasets() DatasetStore
	Records() RecordStore
	Users() UserStore
	Workspaces() WorkspaceStore

	// TX runs fn inside one transaction. Stores obtained from the factory
	// handed to fn share that transaction; returning an error rolls back.
	TX(ctx context.Context, fn func(tx Factory) error) error
	AutoMigrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

// datastore implements the Factory interface.
type datastore struct {
	db *gorm.DB
}

var _ Factory = (*datastore)(nil)

// NewFactory returns the storage factory backed by db.
func NewFactory(db *gorm.DB) Factory {
	return &datastore{db: db}
}

// Datasets returns the dataset store.
func (ds *datastore) Datasets() DatasetStore {
	return newDatasets(ds.db)
}

// Records returns the record store.
func (ds *datastore) Records() RecordStore {
	return newRecords(ds.db)
}

// Users returns the user store.
func (ds *datastore) Users() UserStore {
	return newUsers(ds.db)
}

// Workspaces returns the workspace store.
func (ds *datastore) Workspaces() WorkspaceStore {
	return newWorkspaces(ds.db)
}

func (ds *datastore) TX(ctx context.Context, fn func(tx Factory) error) error {
	return ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&datastore{db: tx})
	})
}

// AutoMigrate migrates the database schema.
func (ds *datastore) AutoMigrate(ctx context.Context) error {
	if err := ds.db.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// Ping checks the underlying connection.
func (ds *datastore) Ping(ctx context.Context) error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
