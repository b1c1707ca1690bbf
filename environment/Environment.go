// Package environment outlines the interfaces and structs needed to
// implement concrete environments that policies can be rolled out in
package environment

import (
	"fmt"

	ts "github.com/samuelfneumann/gopg/timestep"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode has ended. If the episode has ended,
// End marks the argument TimeStep as the last in the episode.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Environment implements a simulated environment with a discrete
// action set.
//
// Step returns the next TimeStep and whether the episode has ended for
// any reason. Whether the ending was a true termination or a timeout is
// recorded on the TimeStep itself (see timestep.TimeStep.TerminalEnd).
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	ObservationSpec() Spec
	ActionSpec() Spec

	// TimestepLimit returns the maximum number of steps in an episode,
	// or 0 if episodes are unbounded
	TimestepLimit() int
}

// Renderer is an Environment that can draw its current state
type Renderer interface {
	Render() error
}

// Closer is an Environment holding resources that must be released
type Closer interface {
	Close() error
}

// ActionSize returns the number of discrete actions described by an
// action Spec
func ActionSize(s Spec) (int, error) {
	if s.Type != Action {
		return 0, fmt.Errorf("actionSize: spec is not an action spec")
	}
	if s.Cardinality != Discrete {
		return 0, fmt.Errorf("actionSize: only discrete actions are " +
			"supported")
	}
	if s.UpperBound == nil || s.UpperBound.Len() != 1 {
		return 0, fmt.Errorf("actionSize: discrete actions must be " +
			"1-dimensional")
	}
	return int(s.UpperBound.AtVec(0)-s.LowerBound.AtVec(0)) + 1, nil
}

// EffectiveLimit returns the episode step limit to use with e when the
// caller additionally wants at most configured steps. A value of 0
// on either side means no limit from that side.
func EffectiveLimit(e Environment, configured int) int {
	envLimit := e.TimestepLimit()
	switch {
	case envLimit <= 0:
		return configured
	case configured <= 0:
		return envLimit
	case envLimit < configured:
		return envLimit
	default:
		return configured
	}
}

// NewObservation returns an observation tensor with the given shape
// backed by data
func NewObservation(data []float64, shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}
