package layout

import (
	"errors"
	"fmt"
)

// ErrMergeDidNotConverge is returned when region merging exceeds its pass bound.
// Every merge removes one region, so this indicates a broken proximity predicate.
var ErrMergeDidNotConverge = errors.New("region merge did not converge")

// InvalidDetectionError reports a detection that is missing a required field
// or carries an unusable value. The page it belongs to must not be processed.
type InvalidDetectionError struct {
	// Index is the position of the detection in its input sequence.
	Index int

	// Field names the offending field (e.g. "quad", "confidence").
	Field string

	// Reason describes what is wrong with the field.
	Reason string
}

func (e *InvalidDetectionError) Error() string {
	return fmt.Sprintf("invalid detection %d: %s %s", e.Index, e.Field, e.Reason)
}

func invalidDetection(index int, field, reason string) *InvalidDetectionError {
	return &InvalidDetectionError{Index: index, Field: field, Reason: reason}
}
