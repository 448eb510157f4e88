package biz

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kart-io/labelhub/internal/labelhub/schema"
	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/utils/json"
	"github.com/kart-io/labelhub/pkg/validator"
)

const suggestionTypes = "oneof=model human"

// mutator applies record specs to record aggregates in memory. It is safe for
// concurrent use on distinct aggregates.
type mutator struct {
	registry *schema.Registry
	// visible holds the response user ids allowed in the dataset workspace.
	visible map[uuid.UUID]bool
}

// apply builds the aggregate of one planned item. Steps run in order:
// fields, metadata, vectors, responses with status, suggestions.
func (m *mutator) apply(item *plannedItem) (*recordAggregate, error) {
	dataset := m.registry.Dataset()

	var agg *recordAggregate
	if item.creates() {
		agg = newAggregate(item.position, &model.Record{
			ID:        uuid.New(),
			DatasetID: dataset.ID,
			Status:    model.RecordStatusPending,
		}, true)
	} else {
		agg = newAggregate(item.position, item.existing, false)
	}
	spec := item.spec

	steps := []func(*recordAggregate, *RecordSpec) error{
		m.applyFields,
		m.applyMetadata,
		m.applyVectors,
		m.applyResponses,
		m.applySuggestions,
	}
	for _, step := range steps {
		if err := step(agg, spec); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

func (m *mutator) applyFields(agg *recordAggregate, spec *RecordSpec) error {
	if spec.ExternalID.Set {
		agg.record.ExternalID = externalID(spec.ExternalID)
	}
	if !spec.Fields.Set {
		if agg.created {
			return fmt.Errorf("fields cannot be empty")
		}
		return nil
	}

	if err := m.registry.ValidateFields(spec.Fields.Value); err != nil {
		return err
	}
	agg.record.Fields = datatypes.JSONMap(spec.Fields.Value)
	return nil
}

func externalID(o Optional[string]) *string {
	if o.Null || o.Value == "" {
		return nil
	}
	v := o.Value
	return &v
}

func (m *mutator) applyMetadata(agg *recordAggregate, spec *RecordSpec) error {
	if !spec.Metadata.Set {
		return nil
	}
	if spec.Metadata.Null {
		agg.record.Metadata = nil
		return nil
	}

	keys := sortedKeys(spec.Metadata.Value)
	for _, k := range keys {
		if err := m.registry.ValidateMetadata(k, spec.Metadata.Value[k]); err != nil {
			return err
		}
	}

	merged := make(datatypes.JSONMap, len(agg.record.Metadata)+len(keys))
	for k, v := range agg.record.Metadata {
		merged[k] = v
	}
	for _, k := range keys {
		if v := spec.Metadata.Value[k]; v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		merged = nil
	}
	agg.record.Metadata = merged
	return nil
}

func (m *mutator) applyVectors(agg *recordAggregate, spec *RecordSpec) error {
	names := sortedKeys(spec.Vectors)
	for _, name := range names {
		value := spec.Vectors[name]
		vs, err := m.registry.ValidateVector(name, value)
		if err != nil {
			return err
		}
		agg.vectors.upsert(vs.ID, func() *model.Vector {
			return &model.Vector{ID: uuid.New(), RecordID: agg.record.ID, VectorSettingsID: vs.ID}
		}, func(v *model.Vector) {
			v.Value = datatypes.JSONSlice[float64](append([]float64(nil), value...))
		})
	}
	return nil
}

func validResponseStatus(s model.ResponseStatus) bool {
	switch s {
	case model.ResponseStatusDraft, model.ResponseStatusSubmitted, model.ResponseStatusDiscarded:
		return true
	default:
		return false
	}
}

func (m *mutator) applyResponses(agg *recordAggregate, spec *RecordSpec) error {
	defer agg.recomputeStatus(m.registry.Dataset().MinSubmitted)

	if !spec.Responses.Present() {
		return nil
	}

	seen := make(map[uuid.UUID]struct{}, len(spec.Responses.Value))
	for _, r := range spec.Responses.Value {
		if _, dup := seen[r.UserID]; dup {
			return fmt.Errorf("responses contain more than one response for the same user_id=%s", r.UserID)
		}
		seen[r.UserID] = struct{}{}
	}

	fields := schema.RecordFields(agg.record.Fields)
	for _, r := range spec.Responses.Value {
		if !m.visible[r.UserID] {
			return fmt.Errorf("user_id=%s not found", r.UserID)
		}
		if !validResponseStatus(r.Status) {
			return fmt.Errorf("response status %q is not valid, expected one of draft, submitted or discarded", r.Status)
		}

		values := make(map[string]any, len(r.Values))
		stored := make(datatypes.JSONMap, len(r.Values))
		for name, v := range r.Values {
			values[name] = v.Value
			stored[name] = map[string]any{"value": v.Value}
		}
		if err := m.registry.ValidateResponseValues(values, r.Status, fields); err != nil {
			return fmt.Errorf("response for user_id=%s is not valid: %w", r.UserID, err)
		}
		if len(stored) == 0 {
			stored = nil
		}

		status := r.Status
		agg.responses.upsert(r.UserID, func() *model.Response {
			return &model.Response{ID: uuid.New(), RecordID: agg.record.ID, UserID: r.UserID}
		}, func(resp *model.Response) {
			resp.Values = stored
			resp.Status = status
		})
	}
	return nil
}

func (m *mutator) applySuggestions(agg *recordAggregate, spec *RecordSpec) error {
	if !spec.Suggestions.Set {
		return nil
	}

	supplied := make(map[uuid.UUID]struct{}, len(spec.Suggestions.Value))
	for _, s := range spec.Suggestions.Value {
		if _, dup := supplied[s.QuestionID]; dup {
			return fmt.Errorf("found duplicate suggestions question IDs: question_id=%s", s.QuestionID)
		}
		supplied[s.QuestionID] = struct{}{}
	}

	fields := schema.RecordFields(agg.record.Fields)
	for _, s := range spec.Suggestions.Value {
		q, err := m.registry.QuestionByID(s.QuestionID)
		if err != nil {
			return fmt.Errorf("suggestion is not valid: %w", err)
		}
		v, _ := m.registry.AnswerValidator(q.Name)
		if err := schema.ValidateSuggestion(v, s.Value, s.Score, fields); err != nil {
			return fmt.Errorf("suggestion for question name=%s is not valid: %w", q.Name, err)
		}
		if s.Agent != nil {
			if err := validator.Var(*s.Agent, "min=1,max=200"); err != nil {
				return fmt.Errorf("suggestion agent must have between 1 and 200 characters")
			}
		}
		if s.Type != nil {
			if err := validator.Var(*s.Type, suggestionTypes); err != nil {
				return fmt.Errorf("suggestion type %q is not valid, expected model or human", *s.Type)
			}
		}

		value, err := json.Marshal(s.Value)
		if err != nil {
			return err
		}
		var score datatypes.JSON
		if s.Score != nil {
			if score, err = json.Marshal(s.Score); err != nil {
				return err
			}
		}

		sug := s
		agg.suggestions.upsert(q.ID, func() *model.Suggestion {
			return &model.Suggestion{ID: uuid.New(), RecordID: agg.record.ID, QuestionID: q.ID}
		}, func(existing *model.Suggestion) {
			existing.Value = value
			existing.Score = score
			existing.Agent = sug.Agent
			existing.Type = sug.Type
		})
	}

	for _, k := range agg.suggestions.keys() {
		if _, ok := supplied[k]; !ok {
			agg.suggestions.remove(k)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
