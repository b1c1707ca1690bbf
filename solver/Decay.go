package solver

import (
	"math"

	G "gorgonia.org/gorgonia"
)

// ExponentialDecay decays a learning rate exponentially in the number of
// updates applied:
//
//	eta(step) = Initial * Rate^(step / Steps)
//
// With Staircase, step / Steps is floored so that the learning rate
// drops once every Steps updates.
type ExponentialDecay struct {
	Initial   float64
	Rate      float64
	Steps     int
	Staircase bool
}

// LearningRate returns the learning rate after step updates
func (e ExponentialDecay) LearningRate(step int) float64 {
	if e.Steps < 1 || step <= 0 {
		return e.Initial
	}

	exponent := float64(step) / float64(e.Steps)
	if e.Staircase {
		exponent = math.Floor(exponent)
	}
	return e.Initial * math.Pow(e.Rate, exponent)
}

// Apply sets the learning rate of s to the decayed learning rate after
// step updates and returns it. The internal state of s, such as Adam's
// moment estimates, is kept.
func (e ExponentialDecay) Apply(s G.Solver, step int) float64 {
	eta := e.LearningRate(step)
	G.WithLearnRate(eta)(s)
	return eta
}
