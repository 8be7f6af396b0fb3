package element

import (
	"fmt"
	"time"
)

// Element is an opaque unit of work. Weight is the delay after which the
// element's completion becomes externally visible during a delayed run.
// Elements are immutable; the engine only reads Weight.
type Element struct {
	Weight time.Duration `json:"weight"`
}

// New constructs an element with the given weight.
func New(weight time.Duration) Element { return Element{Weight: weight} }

// FromWeights builds an element sequence from raw weights, all interpreted
// in the given unit (e.g. time.Millisecond).
func FromWeights(weights []float64, unit time.Duration) []Element {
	out := make([]Element, 0, len(weights))
	for _, w := range weights {
		out = append(out, Element{Weight: time.Duration(w * float64(unit))})
	}
	return out
}

// ValidationError reports input rejected before a run starts. No lifecycle
// event is ever emitted for a run that fails validation.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid element at index %d: %s", e.Index, e.Reason)
}

// ValidateAll checks every element in the sequence. An empty sequence is
// valid; a negative weight is not.
func ValidateAll(elems []Element) error {
	for i, el := range elems {
		if el.Weight < 0 {
			return &ValidationError{Index: i, Reason: fmt.Sprintf("negative weight %s", el.Weight)}
		}
	}
	return nil
}
