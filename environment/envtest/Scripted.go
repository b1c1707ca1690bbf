// Package envtest provides a deterministic scripted environment for
// testing code that drives environments
package envtest

import (
	"fmt"

	env "github.com/samuelfneumann/gopg/environment"
	ts "github.com/samuelfneumann/gopg/timestep"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Scripted is an environment whose episodes always last len(Rewards)
// steps and pay Rewards[i] on step i+1, regardless of the actions
// taken. The last step of an episode reaches a terminal state.
//
// Observations have shape (2) and hold (episode, tick), where episode
// counts resets from 0 and tick counts steps since the last reset, so
// tests can tell exactly which observation a policy was fed.
type Scripted struct {
	Rewards []float64

	// Limit is reported as the TimestepLimit and, when positive,
	// ends episodes that reach it with a Timeout
	Limit int

	// FailAt makes the FailAt'th call to Step (1-based, counted over
	// the environment's lifetime) return an error. Zero disables it.
	FailAt int

	Resets  int
	Steps   int
	Renders int
	Taken   []int

	actions int
	episode int
	tick    int
	last    ts.TimeStep
	started bool
}

// New returns a Scripted environment with the given reward script and
// number of discrete actions
func New(rewards []float64, actions int) *Scripted {
	return &Scripted{Rewards: rewards, actions: actions}
}

// Observation returns the observation a Scripted environment emits at
// a given episode and tick
func Observation(episode, tick int) *tensor.Dense {
	return env.NewObservation([]float64{float64(episode), float64(tick)}, 2)
}

// Reset starts a new episode
func (s *Scripted) Reset() (ts.TimeStep, error) {
	s.episode = s.Resets
	s.Resets++
	s.tick = 0
	s.started = true
	s.last = ts.New(ts.First, 0, Observation(s.episode, 0), 0)

	return s.last, nil
}

// Step advances the script by one tick
func (s *Scripted) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	s.Steps++
	if s.FailAt > 0 && s.Steps == s.FailAt {
		return ts.TimeStep{}, true, fmt.Errorf("step: scripted fault at "+
			"step %v", s.Steps)
	}
	if !s.started || s.last.Last() {
		return ts.TimeStep{}, true, fmt.Errorf("step: environment must " +
			"be reset")
	}

	action := int(a.AtVec(0))
	if action < 0 || action >= s.actions {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v",
			action)
	}
	s.Taken = append(s.Taken, action)

	s.tick++
	step := ts.New(ts.Mid, s.Rewards[s.tick-1], Observation(s.episode, s.tick),
		s.tick)
	if s.tick >= len(s.Rewards) {
		step.SetEnd(ts.TerminalStateReached)
	} else if s.Limit > 0 && s.tick >= s.Limit {
		step.SetEnd(ts.Timeout)
	}
	s.last = step

	return step, step.Last(), nil
}

// Render counts render calls
func (s *Scripted) Render() error {
	s.Renders++
	return nil
}

// ObservationSpec returns the observation specification
func (s *Scripted) ObservationSpec() env.Spec {
	bound := float64(len(s.Rewards))
	return env.NewSpec(tensor.Shape{2}, env.Observation,
		mat.NewVecDense(2, nil), mat.NewVecDense(2, []float64{1e9, bound}),
		env.Discrete)
}

// ActionSpec returns the action specification
func (s *Scripted) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(s.actions)
}

// TimestepLimit returns Limit
func (s *Scripted) TimestepLimit() int {
	return s.Limit
}

// Unrenderable wraps an Environment, hiding any Render method it has
type Unrenderable struct {
	env.Environment
}
