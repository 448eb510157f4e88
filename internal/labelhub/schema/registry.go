// Package schema resolves dataset-scoped names to schema entities and
// validates record values against them.
package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/model"
)

// ErrNameNotFound is wrapped by every failed lookup.
var ErrNameNotFound = errors.New("not found")

// Registry is an immutable view over the schema of one loaded dataset.
type Registry struct {
	dataset *model.Dataset

	fields       map[string]*model.Field
	questions    map[string]*model.Question
	questionByID map[uuid.UUID]*model.Question
	answers      map[string]AnswerValidator
	metadata     map[string]*model.MetadataProperty
	metaChecks   map[string]MetadataValidator
	vectors      map[string]*model.VectorSettings
}

// NewRegistry indexes the schema collections of the dataset. It fails when a
// stored question or metadata property carries settings that cannot be parsed.
func NewRegistry(d *model.Dataset) (*Registry, error) {
	r := &Registry{
		dataset:      d,
		fields:       make(map[string]*model.Field, len(d.Fields)),
		questions:    make(map[string]*model.Question, len(d.Questions)),
		questionByID: make(map[uuid.UUID]*model.Question, len(d.Questions)),
		answers:      make(map[string]AnswerValidator, len(d.Questions)),
		metadata:     make(map[string]*model.MetadataProperty, len(d.MetadataProperties)),
		metaChecks:   make(map[string]MetadataValidator, len(d.MetadataProperties)),
		vectors:      make(map[string]*model.VectorSettings, len(d.VectorsSettings)),
	}

	for _, f := range d.Fields {
		r.fields[f.Name] = f
	}
	for _, q := range d.Questions {
		v, err := NewAnswerValidator(q)
		if err != nil {
			return nil, err
		}
		r.questions[q.Name] = q
		r.questionByID[q.ID] = q
		r.answers[q.Name] = v
	}
	for _, p := range d.MetadataProperties {
		v, err := NewMetadataValidator(p)
		if err != nil {
			return nil, err
		}
		r.metadata[p.Name] = p
		r.metaChecks[p.Name] = v
	}
	for _, vs := range d.VectorsSettings {
		r.vectors[vs.Name] = vs
	}
	return r, nil
}

// Dataset returns the dataset the registry was built from.
func (r *Registry) Dataset() *model.Dataset {
	return r.dataset
}

func (r *Registry) FieldByName(name string) (*model.Field, error) {
	if f, ok := r.fields[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("field with name=%s %w", name, ErrNameNotFound)
}

func (r *Registry) QuestionByName(name string) (*model.Question, error) {
	if q, ok := r.questions[name]; ok {
		return q, nil
	}
	return nil, fmt.Errorf("question with name=%s %w", name, ErrNameNotFound)
}

func (r *Registry) QuestionByID(id uuid.UUID) (*model.Question, error) {
	if q, ok := r.questionByID[id]; ok {
		return q, nil
	}
	return nil, fmt.Errorf("question with id=%s %w", id, ErrNameNotFound)
}

// MetadataPropertyByName returns false for undeclared keys. Callers decide
// whether that is acceptable from AllowExtraMetadata.
func (r *Registry) MetadataPropertyByName(name string) (*model.MetadataProperty, bool) {
	p, ok := r.metadata[name]
	return p, ok
}

func (r *Registry) VectorSettingsByName(name string) (*model.VectorSettings, error) {
	if vs, ok := r.vectors[name]; ok {
		return vs, nil
	}
	return nil, fmt.Errorf("vector settings with name=%s %w", name, ErrNameNotFound)
}

// AnswerValidator returns the validator of the named question.
func (r *Registry) AnswerValidator(question string) (AnswerValidator, bool) {
	v, ok := r.answers[question]
	return v, ok
}

// Questions returns the questions in schema order.
func (r *Registry) Questions() []*model.Question {
	return r.dataset.Questions
}

// ValidateFields checks a complete fields mapping: it must not be empty,
// every key must be a configured field, every required field must be present
// and values must be text. Non-required fields may be null.
func (r *Registry) ValidateFields(fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}

	for _, f := range r.dataset.Fields {
		if !f.Required {
			continue
		}
		if v, ok := fields[f.Name]; !ok || v == nil {
			return fmt.Errorf("missing required value for field: %q", f.Name)
		}
	}

	var unknown []string
	for name, value := range fields {
		f, ok := r.fields[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if value == nil {
			continue
		}
		if _, ok := value.(string); !ok {
			return fmt.Errorf("wrong value found for field %q. Expected 'str', found %s", f.Name, typeName(value))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("found fields values for non configured fields: %s", quoteAll(unknown))
	}
	return nil
}

// ValidateMetadata checks one metadata key. Null is legal for every key,
// declared or not.
func (r *Registry) ValidateMetadata(name string, value any) error {
	check, ok := r.metaChecks[name]
	if !ok {
		if value == nil || r.dataset.AllowExtraMetadata {
			return nil
		}
		return fmt.Errorf("metadata property with name=%s not found and extra metadata is not allowed", name)
	}
	if err := check.Validate(value); err != nil {
		return fmt.Errorf("'%s' metadata property validation failed because %w", name, err)
	}
	return nil
}

// ValidateVector checks the value length against the named settings.
func (r *Registry) ValidateVector(name string, value []float64) (*model.VectorSettings, error) {
	vs, err := r.VectorSettingsByName(name)
	if err != nil {
		return nil, err
	}
	if len(value) != vs.Dimensions {
		return nil, fmt.Errorf("vector %q must have %d elements, got %d elements", name, vs.Dimensions, len(value))
	}
	return vs, nil
}

// ValidateResponseValues checks response values keyed by question name.
// Submitted responses must answer every required question.
func (r *Registry) ValidateResponseValues(values map[string]any, status model.ResponseStatus, record RecordFields) error {
	if status == model.ResponseStatusSubmitted {
		for _, q := range r.dataset.Questions {
			if !q.Required {
				continue
			}
			if _, ok := values[q.Name]; !ok {
				return fmt.Errorf("missing response value for required question with name=%s", q.Name)
			}
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, ok := r.answers[name]
		if !ok {
			return fmt.Errorf("found response value for non configured question with name=%s", name)
		}
		if err := v.ValidateAnswer(values[name], record); err != nil {
			return err
		}
	}
	return nil
}
