package environment

import (
	"fmt"

	ts "github.com/samuelfneumann/gopg/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will mark the timestep as the last with a
// Timeout ending.
func (s StepLimit) End(t *ts.TimeStep) bool {
	if s.episodeSteps > 0 && t.Number >= s.episodeSteps {
		t.SetEnd(ts.Timeout)
		return true
	}
	return false
}

// Limit returns the step limit, 0 if unbounded
func (s StepLimit) Limit() int {
	return s.episodeSteps
}

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature of an observation leaves some interval.
// Such an ending is always terminal.
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
}

// NewIntervalLimit creates and returns a new interval limit ending
// episodes when observation feature obsIndices[i] leaves limits[i].
func NewIntervalLimit(limits []r1.Interval, obsIndices []int) IntervalLimit {
	if len(limits) != len(obsIndices) {
		panic(fmt.Sprintf("limits (%v) should have same length as "+
			"observation indices (%v)", len(limits), len(obsIndices)))
	}

	return IntervalLimit{limits, obsIndices}
}

// End marks the TimeStep as terminal and returns true if any tracked
// feature is outside its interval
func (i IntervalLimit) End(t *ts.TimeStep) bool {
	data := t.Observation.Data().([]float64)
	for index, featureIndex := range i.indices {
		interval := i.intervals[index]

		if data[featureIndex] > interval.Max ||
			data[featureIndex] < interval.Min {
			t.SetEnd(ts.TerminalStateReached)
			return true
		}
	}
	return false
}
