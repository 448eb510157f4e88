package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordStatus is derived from the submitted responses of a record.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusCompleted RecordStatus = "completed"
)

// Record is one annotation unit of a dataset. Responses, suggestions and
// vectors are owned children keyed by user, question and vector settings.
type Record struct {
	ID         uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	DatasetID  uuid.UUID         `json:"dataset_id" gorm:"type:char(36);not null;index"`
	Fields     datatypes.JSONMap `json:"fields" gorm:"not null"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	ExternalID *string           `json:"external_id,omitempty" gorm:"size:255;index"`
	Status     RecordStatus      `json:"status" gorm:"size:16;not null;index"`
	CreatedAt  time.Time         `json:"inserted_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time         `json:"updated_at" gorm:"autoUpdateTime"`

	Responses   []*Response   `json:"responses,omitempty" gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
	Suggestions []*Suggestion `json:"suggestions,omitempty" gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
	Vectors     []*Vector     `json:"vectors,omitempty" gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (*Record) TableName() string {
	return "records"
}

// BeforeCreate assigns a fresh id.
func (r *Record) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ResponseStatus is the state of one user's response.
type ResponseStatus string

const (
	ResponseStatusDraft     ResponseStatus = "draft"
	ResponseStatusSubmitted ResponseStatus = "submitted"
	ResponseStatusDiscarded ResponseStatus = "discarded"
)

// Response holds one user's answers for a record. Values is keyed by
// question name, each entry shaped as {"value": ...}.
type Response struct {
	ID        uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	RecordID  uuid.UUID         `json:"record_id" gorm:"type:char(36);not null;uniqueIndex:uk_response_record_user,priority:1"`
	UserID    uuid.UUID         `json:"user_id" gorm:"type:char(36);not null;uniqueIndex:uk_response_record_user,priority:2;index"`
	Values    datatypes.JSONMap `json:"values,omitempty"`
	Status    ResponseStatus    `json:"status" gorm:"size:16;not null"`
	CreatedAt time.Time         `json:"inserted_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (*Response) TableName() string {
	return "responses"
}

// BeforeCreate assigns a fresh id.
func (r *Response) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Suggestion is a machine or human proposed answer to one question.
type Suggestion struct {
	ID         uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	RecordID   uuid.UUID      `json:"record_id" gorm:"type:char(36);not null;uniqueIndex:uk_suggestion_record_question,priority:1"`
	QuestionID uuid.UUID      `json:"question_id" gorm:"type:char(36);not null;uniqueIndex:uk_suggestion_record_question,priority:2"`
	Value      datatypes.JSON `json:"value" gorm:"not null"`
	Score      datatypes.JSON `json:"score,omitempty"`
	Agent      *string        `json:"agent,omitempty" gorm:"size:200"`
	Type       *string        `json:"type,omitempty" gorm:"size:16"`
	CreatedAt  time.Time      `json:"inserted_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (*Suggestion) TableName() string {
	return "suggestions"
}

// BeforeCreate assigns a fresh id.
func (s *Suggestion) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Vector is the embedding of a record for one vector settings entry.
type Vector struct {
	ID               uuid.UUID                    `json:"id" gorm:"type:char(36);primaryKey"`
	RecordID         uuid.UUID                    `json:"record_id" gorm:"type:char(36);not null;uniqueIndex:uk_vector_record_settings,priority:1"`
	VectorSettingsID uuid.UUID                    `json:"vector_settings_id" gorm:"type:char(36);not null;uniqueIndex:uk_vector_record_settings,priority:2"`
	Value            datatypes.JSONSlice[float64] `json:"value" gorm:"not null"`
	CreatedAt        time.Time                    `json:"inserted_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time                    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (*Vector) TableName() string {
	return "vectors"
}

// BeforeCreate assigns a fresh id.
func (v *Vector) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
