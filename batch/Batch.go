// Package batch flattens rollouts into parallel arrays of policy
// inputs, actions, and targets, and turns them into a single gradient
// update computed over minibatches.
package batch

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Batch holds parallel sequences of policy inputs, the actions taken
// at those inputs, and the learning targets of those actions.
// All three always have the same length.
type Batch struct {
	Inputs  []*tensor.Dense
	Actions []int
	Targets []float64
}

// New returns an empty Batch
func New() *Batch {
	return &Batch{}
}

// Append adds a trajectory's inputs, actions, and targets to the end
// of the Batch. If the lengths differ, nothing is added and an
// *AlignmentError is returned.
func (b *Batch) Append(inputs []*tensor.Dense, actions []int,
	targets []float64) error {
	if len(inputs) != len(actions) || len(actions) != len(targets) {
		return &AlignmentError{"append", len(inputs), len(actions),
			len(targets)}
	}

	b.Inputs = append(b.Inputs, inputs...)
	b.Actions = append(b.Actions, actions...)
	b.Targets = append(b.Targets, targets...)
	return nil
}

// Validate returns an *AlignmentError if the Batch's sequences have
// different lengths
func (b *Batch) Validate() error {
	if len(b.Inputs) != len(b.Actions) || len(b.Actions) != len(b.Targets) {
		return &AlignmentError{"validate", len(b.Inputs), len(b.Actions),
			len(b.Targets)}
	}
	return nil
}

// Len returns the number of ticks in the Batch
func (b *Batch) Len() int {
	return len(b.Targets)
}

// Minibatches slices the Batch into consecutive minibatches of size
// ticks. All minibatches have exactly size ticks except the last,
// which holds the remainder. Minibatches share memory with b.
func (b *Batch) Minibatches(size int) ([]*Batch, error) {
	if size < 1 {
		return nil, fmt.Errorf("minibatches: size must be positive, got %v",
			size)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	n := b.Len()
	minibatches := make([]*Batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}

		minibatches = append(minibatches, &Batch{
			Inputs:  b.Inputs[start:end:end],
			Actions: b.Actions[start:end:end],
			Targets: b.Targets[start:end:end],
		})
	}
	return minibatches, nil
}
