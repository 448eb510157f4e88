package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/utils/json"
)

// RecordFields is the fields mapping of the record an answer belongs to.
// Span answers are bounded by the length of one of its fields.
type RecordFields map[string]any

// AnswerValidator validates a response value or a suggestion value for one
// question kind. Implementations form a closed set selected by QuestionType.
type AnswerValidator interface {
	Kind() model.QuestionType
	ValidateAnswer(value any, record RecordFields) error
}

// FieldDependent is implemented by kinds whose answers refer to a record field.
type FieldDependent interface {
	DependsOnField() string
}

type option struct {
	Value       any    `json:"value"`
	Text        string `json:"text,omitempty"`
	Description string `json:"description,omitempty"`
}

type questionSettings struct {
	Type             model.QuestionType `json:"type"`
	UseMarkdown      bool               `json:"use_markdown,omitempty"`
	Options          []option           `json:"options,omitempty"`
	VisibleOptions   *int               `json:"visible_options,omitempty"`
	Field            string             `json:"field,omitempty"`
	AllowOverlapping bool               `json:"allow_overlapping,omitempty"`
}

type kindFactory func(s *questionSettings) (AnswerValidator, error)

var kinds = map[model.QuestionType]kindFactory{
	model.QuestionTypeText:                newTextKind,
	model.QuestionTypeRating:              newRatingKind,
	model.QuestionTypeLabelSelection:      newLabelKind,
	model.QuestionTypeMultiLabelSelection: newMultiLabelKind,
	model.QuestionTypeRanking:             newRankingKind,
	model.QuestionTypeSpan:                newSpanKind,
}

// QuestionTypes lists the supported question kinds.
func QuestionTypes() []model.QuestionType {
	return []model.QuestionType{
		model.QuestionTypeText,
		model.QuestionTypeRating,
		model.QuestionTypeLabelSelection,
		model.QuestionTypeMultiLabelSelection,
		model.QuestionTypeRanking,
		model.QuestionTypeSpan,
	}
}

// NewAnswerValidator parses the question settings and returns the validator
// for its kind.
func NewAnswerValidator(q *model.Question) (AnswerValidator, error) {
	factory, ok := kinds[q.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported question type %q", q.Type)
	}

	s := &questionSettings{Type: q.Type}
	if len(q.Settings) > 0 {
		if err := json.Unmarshal(q.Settings, s); err != nil {
			return nil, fmt.Errorf("invalid settings for question %q: %w", q.Name, err)
		}
	}
	if s.Type != q.Type {
		return nil, fmt.Errorf("question settings type %q does not match question type %q", s.Type, q.Type)
	}

	return factory(s)
}

type textKind struct{}

func newTextKind(*questionSettings) (AnswerValidator, error) {
	return textKind{}, nil
}

func (textKind) Kind() model.QuestionType { return model.QuestionTypeText }

func (textKind) ValidateAnswer(value any, _ RecordFields) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("text question expects a text value, found %s", typeName(value))
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("text question expects a non empty text value")
	}
	return nil
}

type ratingKind struct {
	values []int64
}

func newRatingKind(s *questionSettings) (AnswerValidator, error) {
	if len(s.Options) < 2 {
		return nil, fmt.Errorf("rating question needs at least 2 options, found %d", len(s.Options))
	}

	k := ratingKind{}
	for _, o := range s.Options {
		v, ok := asInt(o.Value)
		if !ok || v < 0 || v > 10 {
			return nil, fmt.Errorf("rating option values must be integers between 0 and 10, found %v", o.Value)
		}
		if slices.Contains(k.values, v) {
			return nil, fmt.Errorf("rating option values must be unique, found %d twice", v)
		}
		k.values = append(k.values, v)
	}
	return k, nil
}

func (ratingKind) Kind() model.QuestionType { return model.QuestionTypeRating }

func (k ratingKind) ValidateAnswer(value any, _ RecordFields) error {
	v, ok := asInt(value)
	if !ok || !slices.Contains(k.values, v) {
		return fmt.Errorf("%v is not a valid rating for rating question.\nValid ratings are: %v", value, k.values)
	}
	return nil
}

type labelOptions struct {
	labels []string
}

func newLabelOptions(kind string, s *questionSettings, min int) (labelOptions, error) {
	if len(s.Options) < min {
		return labelOptions{}, fmt.Errorf("%s question needs at least %d options, found %d", kind, min, len(s.Options))
	}

	lo := labelOptions{}
	for _, o := range s.Options {
		label, ok := o.Value.(string)
		if !ok || label == "" {
			return labelOptions{}, fmt.Errorf("%s option values must be non empty strings, found %v", kind, o.Value)
		}
		if slices.Contains(lo.labels, label) {
			return labelOptions{}, fmt.Errorf("%s option values must be unique, found %q twice", kind, label)
		}
		lo.labels = append(lo.labels, label)
	}

	if s.VisibleOptions != nil && (*s.VisibleOptions < 3 || *s.VisibleOptions > len(lo.labels)) {
		return labelOptions{}, fmt.Errorf("%s visible_options must be between 3 and the number of options (%d)", kind, len(lo.labels))
	}
	return lo, nil
}

func (lo labelOptions) valid(label string) bool {
	return slices.Contains(lo.labels, label)
}

type labelKind struct {
	labelOptions
}

func newLabelKind(s *questionSettings) (AnswerValidator, error) {
	lo, err := newLabelOptions("label selection", s, 2)
	if err != nil {
		return nil, err
	}
	return labelKind{lo}, nil
}

func (labelKind) Kind() model.QuestionType { return model.QuestionTypeLabelSelection }

func (k labelKind) ValidateAnswer(value any, _ RecordFields) error {
	label, ok := value.(string)
	if !ok || !k.valid(label) {
		return fmt.Errorf("%v is not a valid label for label selection question.\nValid labels are: %s", value, quoteAll(k.labels))
	}
	return nil
}

type multiLabelKind struct {
	labelOptions
}

func newMultiLabelKind(s *questionSettings) (AnswerValidator, error) {
	lo, err := newLabelOptions("multi label selection", s, 2)
	if err != nil {
		return nil, err
	}
	return multiLabelKind{lo}, nil
}

func (multiLabelKind) Kind() model.QuestionType { return model.QuestionTypeMultiLabelSelection }

func (k multiLabelKind) ValidateAnswer(value any, _ RecordFields) error {
	items, ok := asList(value)
	if !ok {
		return fmt.Errorf("multi label selection question expects a list of values, found %s", typeName(value))
	}
	if len(items) == 0 {
		return fmt.Errorf("multi label selection answers cannot be an empty list")
	}

	seen := make(map[string]struct{}, len(items))
	var invalid []string
	for _, item := range items {
		label, ok := item.(string)
		if !ok {
			invalid = append(invalid, fmt.Sprint(item))
			continue
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("multi label selection answers cannot contain duplicates, found %q twice", label)
		}
		seen[label] = struct{}{}
		if !k.valid(label) {
			invalid = append(invalid, label)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%s are not valid labels for multi label selection question.\nValid labels are: %s",
			quoteAll(invalid), quoteAll(k.labels))
	}
	return nil
}

type rankingKind struct {
	labelOptions
}

func newRankingKind(s *questionSettings) (AnswerValidator, error) {
	lo, err := newLabelOptions("ranking", s, 2)
	if err != nil {
		return nil, err
	}
	return rankingKind{lo}, nil
}

func (rankingKind) Kind() model.QuestionType { return model.QuestionTypeRanking }

// ValidateAnswer expects every option exactly once, as {"value": ..., "rank": n}
// with rank in [1, len(options)] or omitted.
func (k rankingKind) ValidateAnswer(value any, _ RecordFields) error {
	items, ok := asList(value)
	if !ok {
		return fmt.Errorf("ranking question expects a list of values, found %s", typeName(value))
	}
	if len(items) != len(k.labels) {
		return fmt.Errorf("ranking question expects a list containing %d values, found a list of %d values",
			len(k.labels), len(items))
	}

	seen := make(map[string]struct{}, len(items))
	var invalidValues, invalidRanks []string
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("ranking question expects items shaped as {\"value\": ..., \"rank\": ...}, found %s", typeName(item))
		}
		label, _ := entry["value"].(string)
		if !k.valid(label) {
			invalidValues = append(invalidValues, fmt.Sprint(entry["value"]))
			continue
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("ranking answers cannot contain duplicated values, found %q twice", label)
		}
		seen[label] = struct{}{}

		if rank, present := entry["rank"]; present && rank != nil {
			r, ok := asInt(rank)
			if !ok || r < 1 || r > int64(len(k.labels)) {
				invalidRanks = append(invalidRanks, fmt.Sprint(rank))
			}
		}
	}

	if len(invalidValues) > 0 {
		return fmt.Errorf("%s are not valid values for ranking question.\nValid values are: %s",
			quoteAll(invalidValues), quoteAll(k.labels))
	}
	if len(invalidRanks) > 0 {
		return fmt.Errorf("%s are not valid ranks for ranking question.\nValid ranks are: [1..%d]",
			quoteAll(invalidRanks), len(k.labels))
	}
	return nil
}
