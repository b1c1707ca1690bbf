// Package framestack implements sliding windows over the most recent
// observations of an episode. The policy input at each tick is the
// concatenation of the window along the last (channel) axis.
//
// Every window of an episode is started by replicating the episode's
// first observation, so a policy input always has the same number of
// frames no matter how far into the episode it is built.
package framestack

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Window is a fixed-capacity queue of observations, oldest first.
// Observations are never modified, so windows share them freely.
type Window struct {
	frames []*tensor.Dense
}

// New returns a window of the given depth filled with copies of first.
// New panics if depth < 1.
func New(first *tensor.Dense, depth int) *Window {
	if depth < 1 {
		panic(fmt.Sprintf("new: depth must be positive, got %v", depth))
	}

	frames := make([]*tensor.Dense, depth)
	for i := range frames {
		frames[i] = first
	}
	return &Window{frames}
}

// Zero returns a window of the given depth filled with all-zero
// observations of the given shape
func Zero(shape tensor.Shape, depth int) *Window {
	zero := tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(shape...))
	return New(zero, depth)
}

// Push drops the oldest observation, appends obs and returns the
// resulting policy input
func (w *Window) Push(obs *tensor.Dense) (*tensor.Dense, error) {
	if err := w.Slide(obs); err != nil {
		return nil, fmt.Errorf("push: %v", err)
	}
	return w.Input()
}

// Slide drops the oldest observation and appends obs without building
// a policy input
func (w *Window) Slide(obs *tensor.Dense) error {
	if !obs.Shape().Eq(w.frames[0].Shape()) {
		return fmt.Errorf("slide: observation shape %v does not match "+
			"window shape %v", obs.Shape(), w.frames[0].Shape())
	}

	frames := make([]*tensor.Dense, 0, len(w.frames))
	frames = append(frames, w.frames[1:]...)
	w.frames = append(frames, obs)
	return nil
}

// Input returns the concatenation of the window's observations along
// their last axis
func (w *Window) Input() (*tensor.Dense, error) {
	if len(w.frames) == 1 {
		return w.frames[0].Clone().(*tensor.Dense), nil
	}

	axis := w.frames[0].Dims() - 1
	input, err := w.frames[0].Concat(axis, w.frames[1:]...)
	if err != nil {
		return nil, fmt.Errorf("input: could not concatenate frames: %v", err)
	}
	return input, nil
}

// Newest returns the most recently pushed observation
func (w *Window) Newest() *tensor.Dense {
	return w.frames[len(w.frames)-1]
}

// Frames returns the observations in the window, oldest first
func (w *Window) Frames() []*tensor.Dense {
	frames := make([]*tensor.Dense, len(w.frames))
	copy(frames, w.frames)
	return frames
}

// Depth returns the number of observations in the window
func (w *Window) Depth() int {
	return len(w.frames)
}

// Clone returns a copy of the window that can be pushed to without
// affecting w
func (w *Window) Clone() *Window {
	return &Window{w.Frames()}
}

// Expand returns the policy input at each tick of an episode given the
// observations the actions were taken in, the first being the
// observation returned by the reset
func Expand(observations []*tensor.Dense, depth int) ([]*tensor.Dense, error) {
	if len(observations) == 0 {
		return nil, nil
	}

	window := New(observations[0], depth)
	inputs := make([]*tensor.Dense, len(observations))

	var err error
	if inputs[0], err = window.Input(); err != nil {
		return nil, fmt.Errorf("expand: %v", err)
	}
	for i := 1; i < len(observations); i++ {
		if inputs[i], err = window.Push(observations[i]); err != nil {
			return nil, fmt.Errorf("expand: tick %v: %v", i, err)
		}
	}
	return inputs, nil
}
