// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gorgonia.org/tensor"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended
type EndType int

const (
	// Unset is the EndType of any TimeStep that is not the last in an
	// episode
	Unset EndType = iota

	// TerminalStateReached denotes that the environment transitioned
	// into a terminal state. Nothing follows this step.
	TerminalStateReached

	// Timeout denotes that the episode was cut off by a step limit.
	// The underlying process would have continued.
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Unset"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	Reward      float64
	Observation *tensor.Dense
	Number      int
	endType     EndType
}

// New returns a new TimeStep
func New(t StepType, r float64, o *tensor.Dense, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Observation: o, Number: n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd marks the TimeStep as the last in its episode, recording
// why the episode ended
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.endType = e
}

// EndType returns why the episode ended on this TimeStep, or Unset if
// the episode has not ended
func (t *TimeStep) EndType() EndType {
	return t.endType
}

// TerminalEnd returns whether the episode ended because a terminal
// state was reached. An episode ending by Timeout is not terminal.
func (t *TimeStep) TerminalEnd() bool {
	return t.Last() && t.endType == TerminalStateReached
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  End: %v  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.endType, t.Number)
}
