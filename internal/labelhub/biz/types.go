package biz

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/utils/json"
)

// Optional tells an absent JSON key apart from an explicit null.
// Set is true whenever the key was present, Null when it was null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present null value.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is called for null as well, which marks the key present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Null, o.Value = true, zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Present reports a present, non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// RecordSpec is one item of a bulk call. An item without ID creates a record.
type RecordSpec struct {
	ID          *uuid.UUID                 `json:"id,omitempty"`
	Fields      Optional[map[string]any]   `json:"fields"`
	Metadata    Optional[map[string]any]   `json:"metadata"`
	ExternalID  Optional[string]           `json:"external_id"`
	Vectors     map[string][]float64       `json:"vectors,omitempty"`
	Responses   Optional[[]ResponseSpec]   `json:"responses"`
	Suggestions Optional[[]SuggestionSpec] `json:"suggestions"`
}

// ResponseSpec is one user's answers for a record.
type ResponseSpec struct {
	UserID uuid.UUID                `json:"user_id"`
	Values map[string]ResponseValue `json:"values,omitempty"`
	Status model.ResponseStatus     `json:"status"`
}

// ResponseValue wraps the answer to one question.
type ResponseValue struct {
	Value any `json:"value"`
}

// SuggestionSpec is a proposed answer to one question.
type SuggestionSpec struct {
	QuestionID uuid.UUID `json:"question_id"`
	Value      any       `json:"value"`
	Score      any       `json:"score,omitempty"`
	Agent      *string   `json:"agent,omitempty"`
	Type       *string   `json:"type,omitempty"`
}
