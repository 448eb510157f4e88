// Package model provides the gorm models of the annotation platform.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatasetStatus is the publication state of a dataset.
type DatasetStatus string

const (
	DatasetStatusDraft DatasetStatus = "draft"
	DatasetStatusReady DatasetStatus = "ready"
)

// DistributionStrategyOverlap lets every annotator see every record.
const DistributionStrategyOverlap = "overlap"

// Dataset owns the schema (fields, questions, metadata properties and
// vector settings) every record of the dataset is validated against.
type Dataset struct {
	ID                   uuid.UUID     `json:"id" gorm:"type:char(36);primaryKey"`
	WorkspaceID          uuid.UUID     `json:"workspace_id" gorm:"type:char(36);not null;uniqueIndex:uk_dataset_workspace_name,priority:1"`
	Name                 string        `json:"name" gorm:"size:200;not null;uniqueIndex:uk_dataset_workspace_name,priority:2"`
	Guidelines           string        `json:"guidelines,omitempty" gorm:"type:text"`
	Status               DatasetStatus `json:"status" gorm:"size:16;not null;index"`
	DistributionStrategy string        `json:"distribution_strategy" gorm:"size:32;not null"`
	MinSubmitted         int           `json:"min_submitted" gorm:"not null"`
	AllowExtraMetadata   bool          `json:"allow_extra_metadata" gorm:"not null"`
	CreatedAt            time.Time     `json:"inserted_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	Fields             []*Field            `json:"fields,omitempty" gorm:"foreignKey:DatasetID"`
	Questions          []*Question         `json:"questions,omitempty" gorm:"foreignKey:DatasetID"`
	MetadataProperties []*MetadataProperty `json:"metadata_properties,omitempty" gorm:"foreignKey:DatasetID"`
	VectorsSettings    []*VectorSettings   `json:"vectors_settings,omitempty" gorm:"foreignKey:DatasetID"`
}

// TableName returns the table name for GORM.
func (*Dataset) TableName() string {
	return "datasets"
}

// BeforeCreate assigns a fresh id.
func (d *Dataset) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// IsReady reports whether records may be created in the dataset.
func (d *Dataset) IsReady() bool {
	return d.Status == DatasetStatusReady
}

// Field defines one entry of a record's fields mapping.
type Field struct {
	ID        uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	DatasetID uuid.UUID      `json:"dataset_id" gorm:"type:char(36);not null;uniqueIndex:uk_field_dataset_name,priority:1"`
	Name      string         `json:"name" gorm:"size:200;not null;uniqueIndex:uk_field_dataset_name,priority:2"`
	Title     string         `json:"title" gorm:"size:500"`
	Required  bool           `json:"required" gorm:"not null"`
	Settings  datatypes.JSON `json:"settings"`
	CreatedAt time.Time      `json:"inserted_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (*Field) TableName() string {
	return "fields"
}

// BeforeCreate assigns a fresh id.
func (f *Field) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// QuestionType names the answer kind a question accepts.
type QuestionType string

const (
	QuestionTypeText                QuestionType = "text"
	QuestionTypeRating              QuestionType = "rating"
	QuestionTypeLabelSelection      QuestionType = "label_selection"
	QuestionTypeMultiLabelSelection QuestionType = "multi_label_selection"
	QuestionTypeRanking             QuestionType = "ranking"
	QuestionTypeSpan                QuestionType = "span"
)

// Question defines one entry of a response's values mapping and the shape of
// suggestions for it.
type Question struct {
	ID          uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	DatasetID   uuid.UUID      `json:"dataset_id" gorm:"type:char(36);not null;uniqueIndex:uk_question_dataset_name,priority:1"`
	Name        string         `json:"name" gorm:"size:200;not null;uniqueIndex:uk_question_dataset_name,priority:2"`
	Title       string         `json:"title" gorm:"size:500"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Required    bool           `json:"required" gorm:"not null"`
	Type        QuestionType   `json:"type" gorm:"size:32;not null"`
	Settings    datatypes.JSON `json:"settings"`
	CreatedAt   time.Time      `json:"inserted_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (*Question) TableName() string {
	return "questions"
}

// BeforeCreate assigns a fresh id.
func (q *Question) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// MetadataPropertyType is the value type of a metadata property.
type MetadataPropertyType string

const (
	MetadataPropertyTypeTerms   MetadataPropertyType = "terms"
	MetadataPropertyTypeInteger MetadataPropertyType = "integer"
	MetadataPropertyTypeFloat   MetadataPropertyType = "float"
)

// MetadataProperty defines validation for one key of a record's metadata.
type MetadataProperty struct {
	ID           uuid.UUID                   `json:"id" gorm:"type:char(36);primaryKey"`
	DatasetID    uuid.UUID                   `json:"dataset_id" gorm:"type:char(36);not null;uniqueIndex:uk_metadata_dataset_name,priority:1"`
	Name         string                      `json:"name" gorm:"size:200;not null;uniqueIndex:uk_metadata_dataset_name,priority:2"`
	Title        string                      `json:"title" gorm:"size:500"`
	Type         MetadataPropertyType        `json:"type" gorm:"size:16;not null"`
	Settings     datatypes.JSON              `json:"settings"`
	AllowedRoles datatypes.JSONSlice[string] `json:"allowed_roles"`
	CreatedAt    time.Time                   `json:"inserted_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (*MetadataProperty) TableName() string {
	return "metadata_properties"
}

// BeforeCreate assigns a fresh id.
func (m *MetadataProperty) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// VectorSettings defines the dimensionality of one named record vector.
type VectorSettings struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	DatasetID  uuid.UUID `json:"dataset_id" gorm:"type:char(36);not null;uniqueIndex:uk_vector_settings_dataset_name,priority:1"`
	Name       string    `json:"name" gorm:"size:200;not null;uniqueIndex:uk_vector_settings_dataset_name,priority:2"`
	Title      string    `json:"title" gorm:"size:500"`
	Dimensions int       `json:"dimensions" gorm:"not null"`
	CreatedAt  time.Time `json:"inserted_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (*VectorSettings) TableName() string {
	return "vectors_settings"
}

// BeforeCreate assigns a fresh id.
func (v *VectorSettings) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
