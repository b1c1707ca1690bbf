// Package gym provides access to OpenAI Gym environments with
// discrete actions.
//
// This is made possible through the Go bindings for OpenAI Gym,
// found at https://github.com/samuelfneumann/GoGym. Only Box
// observation spaces and Discrete action spaces are supported.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	env "github.com/samuelfneumann/gopg/environment"
	ts "github.com/samuelfneumann/gopg/timestep"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Gym implements access to an OpenAI Gym environment using GoGym
type Gym struct {
	gogym.Environment

	name        string
	cutoff      int
	currentStep ts.TimeStep
	obsSpec     env.Spec
	actionSpec  env.Spec
}

// New returns a new Gym environment with the given name, which must be
// a legal name from the OpenAI Gym suite. Episodes are additionally
// cut off after cutoff steps if cutoff > 0.
func New(name string, cutoff int, seed int) (g *Gym, err error) {
	defer essentials.AddCtxTo("new gym environment "+name, &err)

	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment: %v", err)
	}
	goGymEnv.Seed(seed)

	g = &Gym{
		Environment: goGymEnv,
		name:        name,
		cutoff:      cutoff,
	}

	obsSpace := goGymEnv.ObservationSpace()
	switch obsSpace.(type) {
	case *gogym.BoxSpace:
		low := obsSpace.Low()[0]
		high := obsSpace.High()[0]
		g.obsSpec = env.NewSpec(tensor.Shape{low.Len()}, env.Observation,
			low, high, env.Continuous)

	default:
		goGymEnv.Close()
		return nil, fmt.Errorf("new: invalid observation space type %T, "+
			"only BoxSpace observations are supported", obsSpace)
	}

	actionSpace := goGymEnv.ActionSpace()
	switch actionSpace.(type) {
	case *gogym.DiscreteSpace:
		low := actionSpace.Low()[0]
		high := actionSpace.High()[0]
		g.actionSpec = env.NewSpec(tensor.Shape{1}, env.Action, low, high,
			env.Discrete)

	default:
		goGymEnv.Close()
		return nil, fmt.Errorf("new: invalid action space type %T, only "+
			"DiscreteSpace actions are supported", actionSpace)
	}

	return g, nil
}

// Step takes a single environmental step
func (g *Gym) Step(a *mat.VecDense) (step ts.TimeStep, done bool, err error) {
	defer essentials.AddCtxTo("step "+g.name, &err)

	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, toObservation(obs), g.currentStep.Number+1)
	if done {
		t.SetEnd(ts.TerminalStateReached)
	} else if g.cutoff > 0 && t.Number >= g.cutoff {
		t.SetEnd(ts.Timeout)
	}
	g.currentStep = t

	return t, t.Last(), nil
}

// Reset resets the environment to some starting state
func (g *Gym) Reset() (step ts.TimeStep, err error) {
	defer essentials.AddCtxTo("reset "+g.name, &err)

	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, toObservation(obs), 0)
	g.currentStep = t

	return t, nil
}

// ObservationSpec returns the observation spec of the environment
func (g *Gym) ObservationSpec() env.Spec {
	return g.obsSpec
}

// ActionSpec returns the action specification of the environment
func (g *Gym) ActionSpec() env.Spec {
	return g.actionSpec
}

// TimestepLimit returns the episode cutoff imposed on the environment
func (g *Gym) TimestepLimit() int {
	return g.cutoff
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *Gym) Close() error {
	g.Environment.Close()
	return nil
}

// toObservation copies a GoGym observation into a tensor
func toObservation(obs mat.Vector) *tensor.Dense {
	data := make([]float64, obs.Len())
	for i := range data {
		data[i] = obs.AtVec(i)
	}
	return env.NewObservation(data, len(data))
}
