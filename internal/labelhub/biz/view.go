package biz

import (
	"time"

	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/internal/model"
)

// RecordView is the API shape of a record. Child collections are only set
// when requested.
type RecordView struct {
	ID          uuid.UUID            `json:"id"`
	DatasetID   uuid.UUID            `json:"dataset_id"`
	Fields      map[string]any       `json:"fields"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	ExternalID  *string              `json:"external_id,omitempty"`
	Status      model.RecordStatus   `json:"status"`
	Responses   []*model.Response    `json:"responses,omitempty"`
	Suggestions []*model.Suggestion  `json:"suggestions,omitempty"`
	Vectors     map[string][]float64 `json:"vectors,omitempty"`
	InsertedAt  time.Time            `json:"inserted_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// RecordList is one page of records.
type RecordList struct {
	Total int64         `json:"total"`
	Items []*RecordView `json:"items"`
}

// vectorNames maps vector settings ids to their names.
func vectorNames(d *model.Dataset) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(d.VectorsSettings))
	for _, vs := range d.VectorsSettings {
		names[vs.ID] = vs.Name
	}
	return names
}

func newRecordView(r *model.Record, names map[uuid.UUID]string, include store.Include) *RecordView {
	v := &RecordView{
		ID:         r.ID,
		DatasetID:  r.DatasetID,
		Fields:     r.Fields,
		Metadata:   r.Metadata,
		ExternalID: r.ExternalID,
		Status:     r.Status,
		InsertedAt: r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if include.Responses {
		v.Responses = r.Responses
	}
	if include.Suggestions {
		v.Suggestions = r.Suggestions
	}
	if include.Vectors && len(r.Vectors) > 0 {
		v.Vectors = make(map[string][]float64, len(r.Vectors))
		for _, vec := range r.Vectors {
			if name, ok := names[vec.VectorSettingsID]; ok {
				v.Vectors[name] = vec.Value
			}
		}
	}
	return v
}

func newRecordViews(records []*model.Record, d *model.Dataset, include store.Include) []*RecordView {
	names := vectorNames(d)
	views := make([]*RecordView, len(records))
	for i, r := range records {
		views[i] = newRecordView(r, names, include)
	}
	return views
}
