package rollout

import (
	"fmt"

	"github.com/unixpickle/essentials"
)

// SampleError is returned when a policy produces a probability vector
// that actions cannot be sampled from
type SampleError struct {
	Probabilities []float64
	Reason        string
}

func (s *SampleError) Error() string {
	return fmt.Sprintf("sample: malformed action probabilities %v: %v",
		s.Probabilities, s.Reason)
}

// IsSampleError returns whether err was caused by a malformed policy
// output
func IsSampleError(err error) bool {
	_, ok := cause(err).(*SampleError)
	return ok
}

// cause unwraps errors wrapped with github.com/pkg/errors or
// essentials.AddCtx
func cause(err error) error {
	for err != nil {
		switch e := err.(type) {
		case *essentials.CtxError:
			err = e.Original

		case interface{ Cause() error }:
			err = e.Cause()

		default:
			return err
		}
	}
	return nil
}
