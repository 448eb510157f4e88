package store

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
)

// DatasetStore defines the dataset and schema storage interface.
type DatasetStore interface {
	Create(ctx context.Context, dataset *model.Dataset) error
	Get(ctx context.Context, id uuid.UUID) (*model.Dataset, error)
	// GetWithSchema loads the dataset with its fields, questions, metadata
	// properties and vector settings in creation order.
	GetWithSchema(ctx context.Context, id uuid.UUID) (*model.Dataset, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.DatasetStatus) error

	CreateField(ctx context.Context, field *model.Field) error
	CreateQuestion(ctx context.Context, question *model.Question) error
	CreateMetadataProperty(ctx context.Context, property *model.MetadataProperty) error
	CreateVectorSettings(ctx context.Context, settings *model.VectorSettings) error
}

type datasets struct {
	db *gorm.DB
}

func newDatasets(db *gorm.DB) *datasets {
	return &datasets{db}
}

// Create creates a new dataset.
func (s *datasets) Create(ctx context.Context, dataset *model.Dataset) error {
	return create(ctx, s.db, dataset, "dataset name already exists in workspace")
}

// Get retrieves a dataset without its schema.
func (s *datasets) Get(ctx context.Context, id uuid.UUID) (*model.Dataset, error) {
	var dataset model.Dataset
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&dataset).Error; err != nil {
		return nil, notFound(err, errors.ErrDatasetNotFound)
	}
	return &dataset, nil
}

func (s *datasets) GetWithSchema(ctx context.Context, id uuid.UUID) (*model.Dataset, error) {
	var dataset model.Dataset
	byCreation := func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at").Order("name")
	}
	err := s.db.WithContext(ctx).
		Preload("Fields", byCreation).
		Preload("Questions", byCreation).
		Preload("MetadataProperties", byCreation).
		Preload("VectorsSettings", byCreation).
		Where("id = ?", id).
		First(&dataset).Error
	if err != nil {
		return nil, notFound(err, errors.ErrDatasetNotFound)
	}
	return &dataset, nil
}

// UpdateStatus sets the publication status.
func (s *datasets) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DatasetStatus) error {
	result := s.db.WithContext(ctx).Model(&model.Dataset{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return errors.ErrDatabase.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrDatasetNotFound
	}
	return nil
}

func (s *datasets) CreateField(ctx context.Context, field *model.Field) error {
	return create(ctx, s.db, field, "field name already exists in dataset")
}

func (s *datasets) CreateQuestion(ctx context.Context, question *model.Question) error {
	return create(ctx, s.db, question, "question name already exists in dataset")
}

func (s *datasets) CreateMetadataProperty(ctx context.Context, property *model.MetadataProperty) error {
	return create(ctx, s.db, property, "metadata property name already exists in dataset")
}

func (s *datasets) CreateVectorSettings(ctx context.Context, settings *model.VectorSettings) error {
	return create(ctx, s.db, settings, "vector settings name already exists in dataset")
}

func create(ctx context.Context, db *gorm.DB, value any, conflict string) error {
	if err := db.WithContext(ctx).Create(value).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrAlreadyExists.WithMessage(conflict)
		}
		return errors.ErrDatabase.WithCause(err)
	}
	return nil
}

func notFound(err error, notFound *errors.Errno) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return errors.ErrDatabase.WithCause(err)
}
