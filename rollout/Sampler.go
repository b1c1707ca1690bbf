package rollout

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ProbabilityTolerance is the largest deviation from 1 allowed in the
// sum of a policy's action probabilities
const ProbabilityTolerance = 1e-5

// Sampler samples discrete actions from policy probabilities using a
// seeded source of randomness
type Sampler struct {
	source rand.Source
}

// NewSampler returns a new Sampler seeded with seed
func NewSampler(seed uint64) *Sampler {
	return &Sampler{rand.NewSource(seed)}
}

// Sample draws an action in [0, actions) with the given probabilities.
// The probabilities must have one entry per action, be non-negative
// and sum to 1.
func (s *Sampler) Sample(probs []float64, actions int) (int, error) {
	if err := Validate(probs, actions); err != nil {
		return 0, err
	}

	return int(distuv.NewCategorical(probs, s.source).Rand()), nil
}

// Validate returns a *SampleError if probs is not a probability
// vector over actions actions
func Validate(probs []float64, actions int) error {
	if len(probs) != actions {
		return &SampleError{probs, fmt.Sprintf("expected %v probabilities, "+
			"got %v", actions, len(probs))}
	}

	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return &SampleError{probs, fmt.Sprintf("probability %v of "+
				"action %v is not a non-negative number", p, i)}
		}
	}

	sum := floats.Sum(probs)
	if !(math.Abs(sum-1) <= ProbabilityTolerance) {
		return &SampleError{probs, fmt.Sprintf("probabilities sum to %v",
			sum)}
	}
	return nil
}
