package biz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kart-io/labelhub/pkg/errors"
)

// PositionalError attributes a validation failure to the 0-based index of
// a record in the submitted batch.
type PositionalError struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

func (e PositionalError) Error() string {
	return fmt.Sprintf("record at position %d is not valid because %s", e.Position, e.Reason)
}

// BatchValidationError aggregates every failing position of a bulk call.
// It unwraps to ErrRecordsInvalid carrying the failures as details.
type BatchValidationError struct {
	Failures []PositionalError
}

func newBatchValidationError(failures []PositionalError) *BatchValidationError {
	sorted := append([]PositionalError(nil), failures...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	return &BatchValidationError{Failures: sorted}
}

func (e *BatchValidationError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *BatchValidationError) Unwrap() error {
	return errors.ErrRecordsInvalid.WithDetails(e.Failures)
}

// Positions returns the failing positions in ascending order.
func (e *BatchValidationError) Positions() []int {
	out := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Position
	}
	return out
}
