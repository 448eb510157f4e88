package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
	"github.com/kart-io/labelhub/pkg/store"
)

// Include selects the child collections loaded with records.
type Include struct {
	Responses   bool
	Suggestions bool
	Vectors     bool
}

// IncludeAll loads every child collection.
var IncludeAll = Include{Responses: true, Suggestions: true, Vectors: true}

// RecordStore defines the record storage interface. Children are written
// explicitly; associations are never saved implicitly.
type RecordStore interface {
	Get(ctx context.Context, id uuid.UUID, include Include) (*model.Record, error)
	// GetByIDs returns the records of the dataset among ids, with every
	// child collection loaded. Unknown ids are absent from the map.
	GetByIDs(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*model.Record, error)
	List(ctx context.Context, datasetID uuid.UUID, whr *store.Options, include Include) (int64, []*model.Record, error)
	Create(ctx context.Context, record *model.Record) error
	Update(ctx context.Context, record *model.Record) error
	Delete(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID) ([]*model.Record, error)

	CreateResponse(ctx context.Context, response *model.Response) error
	UpdateResponse(ctx context.Context, response *model.Response) error
	CreateSuggestion(ctx context.Context, suggestion *model.Suggestion) error
	UpdateSuggestion(ctx context.Context, suggestion *model.Suggestion) error
	DeleteSuggestions(ctx context.Context, ids []uuid.UUID) error
	CreateVector(ctx context.Context, vector *model.Vector) error
	UpdateVector(ctx context.Context, vector *model.Vector) error
}

type records struct {
	db *gorm.DB
}

func newRecords(db *gorm.DB) *records {
	return &records{db}
}

func preload(db *gorm.DB, include Include) *gorm.DB {
	byCreation := func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at").Order("id")
	}
	if include.Responses {
		db = db.Preload("Responses", byCreation)
	}
	if include.Suggestions {
		db = db.Preload("Suggestions", byCreation)
	}
	if include.Vectors {
		db = db.Preload("Vectors", byCreation)
	}
	return db
}

// Get retrieves a record by id.
func (s *records) Get(ctx context.Context, id uuid.UUID, include Include) (*model.Record, error) {
	var record model.Record
	if err := preload(s.db.WithContext(ctx), include).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, notFound(err, errors.ErrRecordNotFound)
	}
	return &record, nil
}

func (s *records) GetByIDs(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*model.Record, error) {
	found := make(map[uuid.UUID]*model.Record, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var rows []*model.Record
	err := preload(s.db.WithContext(ctx), IncludeAll).
		Where("dataset_id = ? AND id IN ?", datasetID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	for _, r := range rows {
		found[r.ID] = r
	}
	return found, nil
}

// List lists the records of a dataset in insertion order.
func (s *records) List(ctx context.Context, datasetID uuid.UUID, whr *store.Options, include Include) (int64, []*model.Record, error) {
	if whr == nil {
		whr = store.NewWhere()
	}
	whr.F("dataset_id", datasetID)

	var count int64
	if err := whr.Where(s.db.WithContext(ctx).Model(&model.Record{})).Count(&count).Error; err != nil {
		return 0, nil, errors.ErrDatabase.WithCause(err)
	}

	var rows []*model.Record
	query := preload(s.db.WithContext(ctx), include).Order("created_at").Order("id")
	if err := whr.Page(query).Find(&rows).Error; err != nil {
		return 0, nil, errors.ErrDatabase.WithCause(err)
	}
	return count, rows, nil
}

// Create inserts the record row only.
func (s *records) Create(ctx context.Context, record *model.Record) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// Update writes the mutable columns of the record row.
func (s *records) Update(ctx context.Context, record *model.Record) error {
	err := s.db.WithContext(ctx).Model(record).
		Omit(clause.Associations).
		Select("fields", "metadata", "external_id", "status", "updated_at").
		Updates(record).Error
	if err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

// Delete removes the dataset records among ids with their children and
// returns the removed rows.
func (s *records) Delete(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID) ([]*model.Record, error) {
	var rows []*model.Record
	if len(ids) == 0 {
		return rows, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dataset_id = ? AND id IN ?", datasetID, ids).Order("created_at").Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		found := make([]uuid.UUID, len(rows))
		for i, r := range rows {
			found[i] = r.ID
		}
		for _, child := range []any{&model.Response{}, &model.Suggestion{}, &model.Vector{}} {
			if err := tx.Where("record_id IN ?", found).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", found).Delete(&model.Record{}).Error
	})
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return rows, nil
}

func (s *records) CreateResponse(ctx context.Context, response *model.Response) error {
	return create(ctx, s.db, response, "response already exists for user")
}

func (s *records) UpdateResponse(ctx context.Context, response *model.Response) error {
	return update(ctx, s.db, response, "values", "status", "updated_at")
}

func (s *records) CreateSuggestion(ctx context.Context, suggestion *model.Suggestion) error {
	return create(ctx, s.db, suggestion, "suggestion already exists for question")
}

func (s *records) UpdateSuggestion(ctx context.Context, suggestion *model.Suggestion) error {
	return update(ctx, s.db, suggestion, "value", "score", "agent", "type", "updated_at")
}

// DeleteSuggestions removes suggestions by id.
func (s *records) DeleteSuggestions(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Suggestion{}).Error; err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

func (s *records) CreateVector(ctx context.Context, vector *model.Vector) error {
	return create(ctx, s.db, vector, "vector already exists for settings")
}

func (s *records) UpdateVector(ctx context.Context, vector *model.Vector) error {
	return update(ctx, s.db, vector, "value", "updated_at")
}

func update(ctx context.Context, db *gorm.DB, value any, columns ...string) error {
	if err := db.WithContext(ctx).Model(value).Select(columns).Updates(value).Error; err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}
