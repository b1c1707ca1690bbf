package solver

import G "gorgonia.org/gorgonia"

// MomentumConfig describes a configuration of stochastic gradient
// descent with momentum
type MomentumConfig struct {
	StepSize float64
	Momentum float64
}

// NewMomentum returns a new Momentum Solver
func NewMomentum(stepSize, momentum float64) (*Solver, error) {
	return newSolver(Momentum, MomentumConfig{
		StepSize: stepSize,
		Momentum: momentum,
	})
}

// Create returns a Gorgonia Momentum Solver as described by the
// MomentumConfig
func (m MomentumConfig) Create() G.Solver {
	return G.NewMomentum(
		G.WithLearnRate(m.StepSize),
		G.WithMomentum(m.Momentum),
		G.WithBatchSize(1),
	)
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (m MomentumConfig) ValidType(t Type) bool {
	return t == Momentum
}

// LearningRate returns the step size
func (m MomentumConfig) LearningRate() float64 {
	return m.StepSize
}
