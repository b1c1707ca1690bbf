// Package rollout drives environments with stochastic policies.
//
// A Driver runs either whole episodes (Episode) or fixed tick budgets
// that may span many episodes (Partial). In both cases the policy input
// at each tick is built with a framestack.Window that is started by
// replicating the first observation of every episode.
package rollout

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/gopg/agent"
	env "github.com/samuelfneumann/gopg/environment"
	"github.com/samuelfneumann/gopg/framestack"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Driver runs a Policy in an Environment
type Driver struct {
	Policy  agent.Policy
	Env     env.Environment
	Sampler *Sampler

	// Depth is the number of observations stacked into each policy
	// input
	Depth int

	// MaxTicks caps the number of ticks in an episode. Zero means
	// episodes only end when the environment ends them.
	MaxTicks int

	// Render calls the environment's Render method after every tick.
	// The environment must implement environment.Renderer.
	Render bool
}

// Trajectory is a single episode. Observations[i] is the observation
// Actions[i] was taken in, and Rewards[i] is the reward that followed.
type Trajectory struct {
	Observations []*tensor.Dense
	Actions      []int
	Rewards      []float64

	// Terminated is true if the episode ended in a terminal state, and
	// false if it was cut off
	Terminated bool
}

// Len returns the number of ticks in the Trajectory
func (t Trajectory) Len() int {
	return len(t.Actions)
}

// Return returns the undiscounted sum of rewards in the Trajectory
func (t Trajectory) Return() float64 {
	return floats.Sum(t.Rewards)
}

// Episode runs the policy from a fresh reset until the episode ends or
// MaxTicks ticks have been taken
func (d Driver) Episode() (traj Trajectory, err error) {
	defer essentials.AddCtxTo("episode", &err)

	actions, renderer, err := d.setup()
	if err != nil {
		return Trajectory{}, err
	}

	step, err := d.Env.Reset()
	if err != nil {
		return Trajectory{}, errors.Wrap(err, "could not reset environment")
	}

	window := framestack.New(step.Observation, d.Depth)
	input, err := window.Input()
	if err != nil {
		return Trajectory{}, err
	}

	for d.MaxTicks <= 0 || traj.Len() < d.MaxTicks {
		action, err := d.act(input, actions)
		if err != nil {
			return Trajectory{}, err
		}

		next, done, err := d.Env.Step(actionVec(action))
		if err != nil {
			return Trajectory{}, errors.Wrapf(err, "could not step "+
				"environment at tick %v", traj.Len())
		}
		traj.Observations = append(traj.Observations, step.Observation)
		traj.Actions = append(traj.Actions, action)
		traj.Rewards = append(traj.Rewards, next.Reward)

		if renderer != nil {
			if err := renderer.Render(); err != nil {
				return Trajectory{}, errors.Wrap(err, "could not render")
			}
		}

		if done {
			traj.Terminated = next.TerminalEnd()
			break
		}

		step = next
		if input, err = window.Push(next.Observation); err != nil {
			return Trajectory{}, err
		}
	}

	return traj, nil
}

// setup validates the Driver and returns the number of actions and the
// Renderer to call, if any
func (d Driver) setup() (int, env.Renderer, error) {
	if d.Policy == nil || d.Env == nil || d.Sampler == nil {
		return 0, nil, fmt.Errorf("setup: driver needs a policy, " +
			"environment and sampler")
	}
	if d.Depth < 1 {
		return 0, nil, fmt.Errorf("setup: frame stack depth must be "+
			"positive, got %v", d.Depth)
	}

	actions, err := env.ActionSize(d.Env.ActionSpec())
	if err != nil {
		return 0, nil, errors.Wrap(err, "setup")
	}

	if !d.Render {
		return actions, nil, nil
	}
	renderer, ok := d.Env.(env.Renderer)
	if !ok {
		return 0, nil, fmt.Errorf("setup: rendering requested but "+
			"environment %T cannot render", d.Env)
	}
	return actions, renderer, nil
}

// act samples an action from the policy's distribution at input
func (d Driver) act(input *tensor.Dense, actions int) (int, error) {
	probs, err := d.Policy.Probabilities(input)
	if err != nil {
		return 0, errors.Wrap(err, "policy could not compute probabilities")
	}
	return d.Sampler.Sample(probs, actions)
}

func actionVec(action int) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(action)})
}
