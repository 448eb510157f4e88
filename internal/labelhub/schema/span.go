package schema

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/kart-io/labelhub/internal/model"
)

type spanKind struct {
	labelOptions
	field            string
	allowOverlapping bool
}

func newSpanKind(s *questionSettings) (AnswerValidator, error) {
	if s.Field == "" {
		return nil, fmt.Errorf("span question needs a field")
	}
	lo, err := newLabelOptions("span", s, 1)
	if err != nil {
		return nil, err
	}
	return spanKind{labelOptions: lo, field: s.Field, allowOverlapping: s.AllowOverlapping}, nil
}

func (spanKind) Kind() model.QuestionType { return model.QuestionTypeSpan }

func (k spanKind) DependsOnField() string { return k.field }

type span struct {
	label string
	start int64
	end   int64
}

// ValidateAnswer checks each span against the length of the record field
// the question is bound to. Offsets count characters, not bytes.
func (k spanKind) ValidateAnswer(value any, record RecordFields) error {
	items, ok := asList(value)
	if !ok {
		return fmt.Errorf("span question expects a list of values, found %s", typeName(value))
	}

	raw, exists := record[k.field]
	if !exists || raw == nil {
		return fmt.Errorf("span question requires record to have field %q and this record does not have field %q",
			k.field, k.field)
	}
	text, _ := raw.(string)
	length := int64(utf8.RuneCountInString(text))

	spans := make([]span, 0, len(items))
	for idx, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("span question expects items shaped as {\"label\", \"start\", \"end\"}, found %s", typeName(item))
		}
		label, _ := entry["label"].(string)
		if !k.valid(label) {
			return fmt.Errorf("undefined label %q for span question.\nValid labels are: %s", label, quoteAll(k.labels))
		}
		start, okStart := asInt(entry["start"])
		end, okEnd := asInt(entry["end"])
		if !okStart || !okEnd {
			return fmt.Errorf("span at index idx=%d must have integer start and end values", idx)
		}
		if start < 0 {
			return fmt.Errorf("span at index idx=%d start must be greater or equal than 0", idx)
		}
		if start >= end {
			return fmt.Errorf("span at index idx=%d start must be lower than end", idx)
		}
		if start >= length {
			return fmt.Errorf("span at index idx=%d has start greater than the field length (%d)", idx, length)
		}
		if end > length {
			return fmt.Errorf("span at index idx=%d has end greater than the field length (%d)", idx, length)
		}
		spans = append(spans, span{label: label, start: start, end: end})
	}

	if k.allowOverlapping {
		return nil
	}
	return checkOverlaps(spans)
}

func checkOverlaps(spans []span) error {
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return spans[order[a]].start < spans[order[b]].start
	})

	for i := 1; i < len(order); i++ {
		prev, cur := order[i-1], order[i]
		if spans[cur].start < spans[prev].end {
			first, second := min(prev, cur), max(prev, cur)
			return fmt.Errorf("overlapping values found between spans at index idx=%d and idx=%d", first, second)
		}
	}
	return nil
}
