package biz

import (
	"context"

	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
)

// bulkMode selects the verb of a bulk call.
type bulkMode int

const (
	modeCreate bulkMode = iota
	modeUpsert
)

func (m bulkMode) String() string {
	if m == modeCreate {
		return "create"
	}
	return "upsert"
}

// Limits bounds the number of items of one bulk call.
type Limits struct {
	MinItems int
	MaxItems int
}

// DefaultLimits returns the default batch bounds.
func DefaultLimits() Limits {
	return Limits{MinItems: 1, MaxItems: 1000}
}

// plannedItem pairs a spec with the record it updates, nil for creation.
type plannedItem struct {
	position int
	spec     *RecordSpec
	existing *model.Record
}

func (p *plannedItem) creates() bool {
	return p.existing == nil
}

// checkShape rejects batches out of bounds before any database work.
func checkShape(specs []*RecordSpec, limits Limits) error {
	n := len(specs)
	if n < limits.MinItems || n > limits.MaxItems {
		return errors.ErrBatchShape.WithMessagef(
			"expected a list of records with at least %d and at most %d items, found %d",
			limits.MinItems, limits.MaxItems, n)
	}
	for i, s := range specs {
		if s == nil {
			return errors.ErrBatchShape.WithMessagef("record at position %d is not an object", i)
		}
	}
	return nil
}

// needsReadyDataset reports whether any item of the batch creates a record.
func needsReadyDataset(specs []*RecordSpec, mode bulkMode) bool {
	if mode == modeCreate {
		return true
	}
	for _, s := range specs {
		if s.ID == nil {
			return true
		}
	}
	return false
}

// plan classifies every item as create or update in input order. Repeated
// and unknown ids fail the whole batch; an id on the create path is a
// positional failure.
func plan(ctx context.Context, records store.RecordStore, datasetID uuid.UUID,
	specs []*RecordSpec, mode bulkMode,
) ([]*plannedItem, []PositionalError, error) {
	items := make([]*plannedItem, len(specs))
	var failures []PositionalError

	seen := make(map[uuid.UUID]int, len(specs))
	var ids []uuid.UUID
	for i, s := range specs {
		items[i] = &plannedItem{position: i, spec: s}
		if s.ID == nil {
			continue
		}
		if mode == modeCreate {
			failures = append(failures, PositionalError{
				Position: i,
				Reason:   "id is not allowed when creating records",
			})
			continue
		}
		if first, dup := seen[*s.ID]; dup {
			return nil, nil, errors.ErrDuplicateRecordID.WithMessagef(
				"found duplicate record id %s at positions %d and %d", *s.ID, first, i)
		}
		seen[*s.ID] = i
		ids = append(ids, *s.ID)
	}

	if len(ids) == 0 {
		return items, failures, nil
	}

	existing, err := records.GetByIDs(ctx, datasetID, ids)
	if err != nil {
		return nil, nil, err
	}
	for _, item := range items {
		if item.spec.ID == nil || mode == modeCreate {
			continue
		}
		r, ok := existing[*item.spec.ID]
		if !ok {
			return nil, nil, errors.ErrRecordNotFound.WithMessagef(
				"record at position %d with id %s does not exist in dataset", item.position, *item.spec.ID)
		}
		item.existing = r
	}
	return items, failures, nil
}
