// Package agent defines the policy and value function capabilities
// that rollout drivers and credit assignment are written against
package agent

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// Policy represents a stochastic policy over a discrete action set.
//
// Probabilities returns the probability of taking each action given a
// policy input (a stack of recent observations). The returned slice
// should sum to 1; callers treat anything else as a fatal fault.
type Policy interface {
	Probabilities(input *tensor.Dense) ([]float64, error)
}

// ValueFunction estimates the value of the state summarised by a
// policy input
type ValueFunction interface {
	Value(input *tensor.Dense) (float64, error)
}

// ActorCritic is both a Policy and a ValueFunction, usually sharing
// weights
type ActorCritic interface {
	Policy
	ValueFunction
}

// PolicyFunc adapts a function to the Policy interface
type PolicyFunc func(input *tensor.Dense) ([]float64, error)

// Probabilities calls f(input)
func (f PolicyFunc) Probabilities(input *tensor.Dense) ([]float64, error) {
	return f(input)
}

// ValueFunc adapts a function to the ValueFunction interface
type ValueFunc func(input *tensor.Dense) (float64, error)

// Value calls f(input)
func (f ValueFunc) Value(input *tensor.Dense) (float64, error) {
	return f(input)
}

// Greedy wraps a Policy, putting all probability mass on the most
// probable action. Ties go to the lowest action index.
type Greedy struct {
	Policy
}

// Probabilities returns a one-hot vector at the wrapped Policy's most
// probable action
func (g Greedy) Probabilities(input *tensor.Dense) ([]float64, error) {
	probs, err := g.Policy.Probabilities(input)
	if err != nil {
		return nil, err
	}
	if len(probs) == 0 {
		return nil, fmt.Errorf("probabilities: policy returned no actions")
	}

	greedy := make([]float64, len(probs))
	greedy[floats.MaxIdx(probs)] = 1
	return greedy, nil
}
