package rollout

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/gopg/framestack"
	"github.com/unixpickle/essentials"
	"gorgonia.org/tensor"
)

// Tick is a single step of interaction recorded by Partial
type Tick struct {
	// Observation is the observation Action was taken in, and Next the
	// observation the environment returned
	Observation *tensor.Dense
	Next        *tensor.Dense
	Action      int
	Reward      float64

	// Nonterminal is false if Next is a terminal state
	Nonterminal bool

	// Truncated is true if the episode was cut off after this tick
	// without reaching a terminal state
	Truncated bool

	// Reset is true if the environment was reset right before this
	// tick, making Observation the first of a new episode
	Reset bool
}

// State is carried from one Partial call to the next
type State struct {
	Window *framestack.Window

	// Done is true if the next tick must start with a reset
	Done bool

	// EpisodeTicks is the number of ticks taken in the current episode
	EpisodeTicks int
}

// NewState returns the State to start streaming rollouts with: an
// all-zero window that is never used, since Done forces a reset
func NewState(shape tensor.Shape, depth int) State {
	return State{Window: framestack.Zero(shape, depth), Done: true}
}

// Partial runs exactly budget ticks, continuing from state and
// resetting the environment whenever an episode ends or reaches
// MaxTicks ticks. It returns the ticks and the State to continue from.
// The argument state is never modified.
func (d Driver) Partial(budget int, state State) (ticks []Tick, final State,
	err error) {
	defer essentials.AddCtxTo("partial rollout", &err)

	actions, renderer, err := d.setup()
	if err != nil {
		return nil, state, err
	}
	if budget < 0 {
		return nil, state, fmt.Errorf("budget must be non-negative, got %v",
			budget)
	}
	if state.Window == nil || state.Window.Depth() != d.Depth {
		return nil, state, fmt.Errorf("state window must have depth %v",
			d.Depth)
	}

	window := state.Window.Clone()
	done := state.Done
	episodeTicks := state.EpisodeTicks
	ticks = make([]Tick, 0, budget)

	for len(ticks) < budget {
		reset := false
		if done {
			step, err := d.Env.Reset()
			if err != nil {
				return nil, state, errors.Wrap(err, "could not reset "+
					"environment")
			}
			window = framestack.New(step.Observation, d.Depth)
			episodeTicks = 0
			reset = true
		}

		input, err := window.Input()
		if err != nil {
			return nil, state, err
		}
		action, err := d.act(input, actions)
		if err != nil {
			return nil, state, err
		}

		next, ended, err := d.Env.Step(actionVec(action))
		if err != nil {
			return nil, state, errors.Wrapf(err, "could not step "+
				"environment at tick %v", len(ticks))
		}
		episodeTicks++

		terminal := ended && next.TerminalEnd()
		capped := d.MaxTicks > 0 && episodeTicks >= d.MaxTicks
		ticks = append(ticks, Tick{
			Observation: window.Newest(),
			Next:        next.Observation,
			Action:      action,
			Reward:      next.Reward,
			Nonterminal: !terminal,
			Truncated:   !terminal && (ended || capped),
			Reset:       reset,
		})

		if renderer != nil {
			if err := renderer.Render(); err != nil {
				return nil, state, errors.Wrap(err, "could not render")
			}
		}

		if err := window.Slide(next.Observation); err != nil {
			return nil, state, err
		}
		done = ended || capped
	}

	return ticks, State{Window: window, Done: done,
		EpisodeTicks: episodeTicks}, nil
}
