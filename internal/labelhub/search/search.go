// Package search keeps the external vector index in step with committed
// record changes.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kart-io/logger"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/component/milvus"
)

// Indexer is called once per committed bulk call with every touched record.
type Indexer interface {
	IndexRecords(ctx context.Context, dataset *model.Dataset, records []*model.Record) error
	DeleteRecords(ctx context.Context, dataset *model.Dataset, records []*model.Record) error
}

// NopIndexer ignores every call.
type NopIndexer struct{}

func (NopIndexer) IndexRecords(context.Context, *model.Dataset, []*model.Record) error { return nil }

func (NopIndexer) DeleteRecords(context.Context, *model.Dataset, []*model.Record) error { return nil }

// VectorClient is the part of the Milvus client the indexer needs.
type VectorClient interface {
	EnsureCollection(ctx context.Context, schema *milvus.CollectionSchema) error
	Upsert(ctx context.Context, collection string, ids []string, embeddings [][]float32) error
	Delete(ctx context.Context, collection string, ids []string) error
}

var _ VectorClient = (*milvus.Client)(nil)

// MilvusIndexer stores each vector settings of a dataset in its own
// collection, keyed by record id.
type MilvusIndexer struct {
	client VectorClient
	prefix string

	mu      sync.Mutex
	ensured map[string]bool
}

// NewMilvusIndexer returns an indexer writing to collections named
// <prefix>_<dataset>_<vector settings>.
func NewMilvusIndexer(client VectorClient, prefix string) *MilvusIndexer {
	return &MilvusIndexer{client: client, prefix: prefix, ensured: map[string]bool{}}
}

// CollectionName returns the collection of one vector settings.
func (m *MilvusIndexer) CollectionName(datasetID, settingsID uuid.UUID) string {
	compact := func(id uuid.UUID) string {
		return strings.ReplaceAll(id.String(), "-", "")
	}
	return fmt.Sprintf("%s_%s_%s", m.prefix, compact(datasetID), compact(settingsID))
}

func (m *MilvusIndexer) ensure(ctx context.Context, dataset *model.Dataset, vs *model.VectorSettings) (string, error) {
	name := m.CollectionName(dataset.ID, vs.ID)

	m.mu.Lock()
	done := m.ensured[name]
	m.mu.Unlock()
	if done {
		return name, nil
	}

	err := m.client.EnsureCollection(ctx, &milvus.CollectionSchema{
		Name:        name,
		Description: fmt.Sprintf("%s vectors of dataset %s", vs.Name, dataset.Name),
		Dimension:   vs.Dimensions,
	})
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.ensured[name] = true
	m.mu.Unlock()
	return name, nil
}

// IndexRecords upserts the vectors of the records, one call per vector
// settings that has at least one vector in the batch.
func (m *MilvusIndexer) IndexRecords(ctx context.Context, dataset *model.Dataset, records []*model.Record) error {
	var errs []error
	for _, vs := range dataset.VectorsSettings {
		var ids []string
		var embeddings [][]float32
		for _, r := range records {
			for _, v := range r.Vectors {
				if v.VectorSettingsID != vs.ID {
					continue
				}
				emb := make([]float32, len(v.Value))
				for i, f := range v.Value {
					emb[i] = float32(f)
				}
				ids = append(ids, r.ID.String())
				embeddings = append(embeddings, emb)
			}
		}
		if len(ids) == 0 {
			continue
		}

		collection, err := m.ensure(ctx, dataset, vs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := m.client.Upsert(ctx, collection, ids, embeddings); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Debugw("Indexed record vectors", "collection", collection, "count", len(ids))
	}
	return errors.Join(errs...)
}

// DeleteRecords removes the records from every vector collection of the dataset.
func (m *MilvusIndexer) DeleteRecords(ctx context.Context, dataset *model.Dataset, records []*model.Record) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID.String()
	}

	var errs []error
	for _, vs := range dataset.VectorsSettings {
		collection, err := m.ensure(ctx, dataset, vs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := m.client.Delete(ctx, collection, ids); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
