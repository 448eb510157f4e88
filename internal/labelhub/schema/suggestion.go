package schema

import (
	"fmt"

	"github.com/kart-io/labelhub/internal/model"
)

// multiValued reports whether answers of the kind are lists of items that
// a list of scores can be paired with.
func multiValued(kind model.QuestionType) bool {
	switch kind {
	case model.QuestionTypeMultiLabelSelection, model.QuestionTypeRanking, model.QuestionTypeSpan:
		return true
	default:
		return false
	}
}

// ValidateSuggestion validates a suggestion value with the question kind and
// its score against the cardinality of the value.
func ValidateSuggestion(v AnswerValidator, value, score any, record RecordFields) error {
	if err := v.ValidateAnswer(value, record); err != nil {
		return err
	}
	if score == nil {
		return nil
	}

	scores, isList := asList(score)
	if !multiValued(v.Kind()) {
		if isList {
			return fmt.Errorf("a list of score values is not allowed for a suggestion with a single value")
		}
		return checkScore(score)
	}

	if !isList {
		return fmt.Errorf("a single score value is not allowed for a suggestion with a multiple items value")
	}
	items, _ := asList(value)
	if len(items) != len(scores) {
		return fmt.Errorf("number of items on value and score attributes doesn't match")
	}
	for _, s := range scores {
		if err := checkScore(s); err != nil {
			return err
		}
	}
	return nil
}

func checkScore(score any) error {
	f, ok := asFloat(score)
	if !ok {
		return fmt.Errorf("score must be a number, found %s", typeName(score))
	}
	if f < 0 || f > 1 {
		return fmt.Errorf("score must be between 0 and 1, found %v", f)
	}
	return nil
}
