package batch

import (
	"fmt"

	"github.com/pkg/errors"
)

// AlignmentError is returned when the inputs, actions, and targets of
// a batch do not have equal lengths. Training on such a batch would
// pair observations with the wrong actions or targets, so it is never
// truncated to fit.
type AlignmentError struct {
	Op      string
	Inputs  int
	Actions int
	Targets int
}

func (a *AlignmentError) Error() string {
	return fmt.Sprintf("%v: misaligned batch: %v inputs, %v actions, %v "+
		"targets", a.Op, a.Inputs, a.Actions, a.Targets)
}

// IsAlignmentError returns whether err was caused by misaligned batch
// data
func IsAlignmentError(err error) bool {
	_, ok := errors.Cause(err).(*AlignmentError)
	return ok
}
