package solver

import G "gorgonia.org/gorgonia"

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	Clip     float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize, clip float64) (*Solver, error) {
	vanilla := VanillaConfig{
		StepSize: stepSize,
		Clip:     clip,
	}

	return newSolver(Vanilla, vanilla)
}

// Create returns a Gorgonia Vanilla Solver as described by the
// VanillaConfig
func (v VanillaConfig) Create() G.Solver {
	if v.Clip <= 0 {
		return G.NewVanillaSolver(G.WithLearnRate(v.StepSize))
	}
	return G.NewVanillaSolver(
		G.WithLearnRate(v.StepSize),
		G.WithClip(v.Clip),
	)
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (v VanillaConfig) ValidType(t Type) bool {
	return t == Vanilla
}

// LearningRate returns the step size
func (v VanillaConfig) LearningRate() float64 {
	return v.StepSize
}
