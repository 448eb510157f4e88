// Package milvus wraps the Milvus SDK client with the collection layout used
// for record vectors: a varchar primary key and one float vector field.
package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/labelhub/pkg/options/milvus"
)

const (
	// PrimaryField holds the record id.
	PrimaryField = "record_id"
	// VectorField holds the embedding.
	VectorField = "embedding"

	primaryMaxLen = 64
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// CollectionSchema defines a record vector collection.
type CollectionSchema struct {
	Name        string
	Description string
	Dimension   int
}

// EnsureCollection creates, indexes and loads the collection unless it
// already exists.
func (c *Client) EnsureCollection(ctx context.Context, schema *CollectionSchema) error {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	collSchema := entity.NewSchema().
		WithName(schema.Name).
		WithDescription(schema.Description).
		WithAutoID(false).
		WithField(entity.NewField().
			WithName(PrimaryField).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(primaryMaxLen).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(VectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(schema.Dimension)))

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.Name, collSchema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewIvfFlatIndex(entity.COSINE, 128)
	createIdxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(schema.Name, VectorField, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// Upsert writes embeddings keyed by record id, replacing existing rows.
func (c *Client) Upsert(ctx context.Context, collection string, ids []string, embeddings [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(embeddings) {
		return fmt.Errorf("got %d ids for %d embeddings", len(ids), len(embeddings))
	}

	opt := milvusclient.NewColumnBasedInsertOption(collection,
		column.NewColumnVarChar(PrimaryField, ids),
		column.NewColumnFloatVector(VectorField, len(embeddings[0]), embeddings),
	)
	if _, err := c.client.Upsert(ctx, opt); err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", collection, err)
	}
	return nil
}

// Delete removes rows by record id.
func (c *Client) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := c.client.Delete(ctx, milvusclient.NewDeleteOption(collection).WithStringIDs(PrimaryField, ids)); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	return nil
}

// Ping lists collections to check the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	return err
}
