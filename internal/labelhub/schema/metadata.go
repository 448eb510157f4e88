package schema

import (
	"fmt"
	"math"
	"slices"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/utils/json"
)

// MetadataValidator validates one metadata value. A nil value is always
// accepted and clears the key.
type MetadataValidator interface {
	Type() model.MetadataPropertyType
	Validate(value any) error
}

type metadataSettings struct {
	Type   model.MetadataPropertyType `json:"type"`
	Values []string                   `json:"values,omitempty"`
	Min    *float64                   `json:"min,omitempty"`
	Max    *float64                   `json:"max,omitempty"`
}

// NewMetadataValidator parses the property settings and returns the
// validator for its type.
func NewMetadataValidator(p *model.MetadataProperty) (MetadataValidator, error) {
	s := &metadataSettings{Type: p.Type}
	if len(p.Settings) > 0 {
		if err := json.Unmarshal(p.Settings, s); err != nil {
			return nil, fmt.Errorf("invalid settings for metadata property %q: %w", p.Name, err)
		}
	}
	if s.Type != p.Type {
		return nil, fmt.Errorf("metadata settings type %q does not match property type %q", s.Type, p.Type)
	}
	if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
		return nil, fmt.Errorf("'min' value must be lower or equal than 'max' value")
	}

	switch p.Type {
	case model.MetadataPropertyTypeTerms:
		if s.Values != nil && len(s.Values) == 0 {
			return nil, fmt.Errorf("terms metadata property values cannot be an empty list")
		}
		return termsMetadata{values: s.Values}, nil
	case model.MetadataPropertyTypeInteger:
		for _, bound := range []*float64{s.Min, s.Max} {
			if bound != nil && *bound != math.Trunc(*bound) {
				return nil, fmt.Errorf("integer metadata property bounds must be integers")
			}
		}
		return integerMetadata{bounds{min: s.Min, max: s.Max}}, nil
	case model.MetadataPropertyTypeFloat:
		return floatMetadata{bounds{min: s.Min, max: s.Max}}, nil
	default:
		return nil, fmt.Errorf("unsupported metadata property type %q", p.Type)
	}
}

type termsMetadata struct {
	values []string
}

func (termsMetadata) Type() model.MetadataPropertyType { return model.MetadataPropertyTypeTerms }

func (m termsMetadata) Validate(value any) error {
	if value == nil {
		return nil
	}

	var terms []any
	if s, ok := value.(string); ok {
		terms = []any{s}
	} else if l, ok := asList(value); ok {
		terms = l
	} else {
		return fmt.Errorf("expected a string or a list of strings, found %s", typeName(value))
	}

	for _, t := range terms {
		s, ok := t.(string)
		if !ok {
			return fmt.Errorf("expected a string or a list of strings, found a list containing %s", typeName(t))
		}
		if m.values != nil && !slices.Contains(m.values, s) {
			return fmt.Errorf("%q is not an allowed term", s)
		}
	}
	return nil
}

type bounds struct {
	min *float64
	max *float64
}

func (b bounds) check(v float64) error {
	if b.min != nil && v < *b.min {
		return fmt.Errorf("%v is less than %v", v, *b.min)
	}
	if b.max != nil && v > *b.max {
		return fmt.Errorf("%v is greater than %v", v, *b.max)
	}
	return nil
}

type integerMetadata struct {
	bounds
}

func (integerMetadata) Type() model.MetadataPropertyType { return model.MetadataPropertyTypeInteger }

func (m integerMetadata) Validate(value any) error {
	if value == nil {
		return nil
	}
	v, ok := asInt(value)
	if !ok {
		return fmt.Errorf("expected an integer, found %s", typeName(value))
	}
	return m.check(float64(v))
}

type floatMetadata struct {
	bounds
}

func (floatMetadata) Type() model.MetadataPropertyType { return model.MetadataPropertyTypeFloat }

func (m floatMetadata) Validate(value any) error {
	if value == nil {
		return nil
	}
	v, ok := asFloat(value)
	if !ok {
		return fmt.Errorf("expected a float, found %s", typeName(value))
	}
	if math.IsNaN(v) {
		return fmt.Errorf("NaN is not allowed")
	}
	if math.IsInf(v, 0) {
		return fmt.Errorf("infinite values are not allowed")
	}
	return m.check(v)
}
