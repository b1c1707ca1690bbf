// Package segment splits streams of rollout ticks into segments that
// each lie within a single episode, rebuilding the policy input of
// every tick along the way.
package segment

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/gopg/agent"
	"github.com/samuelfneumann/gopg/batch"
	"github.com/samuelfneumann/gopg/credit"
	"github.com/samuelfneumann/gopg/framestack"
	"github.com/samuelfneumann/gopg/rollout"
	"gorgonia.org/tensor"
)

// EndKind describes how a Segment ended
type EndKind int

const (
	// Incomplete segments ran off the end of the tick stream and are
	// continued by the next stream
	Incomplete EndKind = iota

	// Terminated segments ended in a terminal state
	Terminated

	// Truncated segments were cut off before reaching a terminal state
	Truncated
)

func (e EndKind) String() string {
	switch e {
	case Terminated:
		return "Terminated"
	case Truncated:
		return "Truncated"
	default:
		return "Incomplete"
	}
}

// Bootstraps returns whether the return of a segment with this EndKind
// continues past its last tick
func (e EndKind) Bootstraps() bool {
	return e != Terminated
}

// Segment is a maximal run of consecutive ticks within one episode
type Segment struct {
	Inputs  []*tensor.Dense
	Actions []int
	Rewards []float64
	End     EndKind

	// Last is the policy input following the final tick, used to
	// bootstrap segments that do not terminate. It is nil for
	// Terminated segments.
	Last *tensor.Dense
}

// Len returns the number of ticks in the Segment
func (s Segment) Len() int {
	return len(s.Rewards)
}

// BoundaryError is returned when a tick follows the end of a segment
// without the environment having been reset
type BoundaryError struct {
	Index int
}

func (b *BoundaryError) Error() string {
	return fmt.Sprintf("tick %v does not reset the environment after a "+
		"segment boundary", b.Index)
}

// Split splits ticks into segments. Start is the frame window that was
// current before the first tick, i.e. the window of the rollout state
// the ticks were collected from. Whenever a tick resets the
// environment, the window is rebuilt by replicating that tick's
// observation, the same way the rollout driver rebuilds it.
//
// The ticks of all segments together are exactly the given ticks, in
// order.
func Split(ticks []rollout.Tick, start *framestack.Window) ([]Segment,
	error) {
	if start == nil {
		return nil, fmt.Errorf("split: start window must not be nil")
	}

	window := start.Clone()
	var segments []Segment
	var current Segment
	closed := false

	for i, tick := range ticks {
		if tick.Reset {
			if current.Len() > 0 {
				return nil, errors.Wrap(&BoundaryError{i}, "split: reset "+
					"inside a segment")
			}
			window = framestack.New(tick.Observation, start.Depth())
			closed = false
		} else if closed {
			return nil, errors.Wrap(&BoundaryError{i}, "split")
		}

		input, err := window.Input()
		if err != nil {
			return nil, errors.Wrapf(err, "split: tick %v", i)
		}
		current.Inputs = append(current.Inputs, input)
		current.Actions = append(current.Actions, tick.Action)
		current.Rewards = append(current.Rewards, tick.Reward)

		if err := window.Slide(tick.Next); err != nil {
			return nil, errors.Wrapf(err, "split: tick %v", i)
		}

		switch {
		case !tick.Nonterminal:
			current.End = Terminated
		case tick.Truncated:
			current.End = Truncated
			if current.Last, err = window.Input(); err != nil {
				return nil, errors.Wrapf(err, "split: tick %v", i)
			}
		default:
			continue
		}
		segments = append(segments, current)
		current = Segment{}
		closed = true
	}

	if current.Len() > 0 {
		last, err := window.Input()
		if err != nil {
			return nil, errors.Wrap(err, "split")
		}
		current.End = Incomplete
		current.Last = last
		segments = append(segments, current)
	}

	return segments, nil
}

// Process splits ticks into segments and builds a Batch whose targets
// are the discounted returns of each segment, bootstrapped with v at
// the end of every segment that did not terminate
func Process(ticks []rollout.Tick, start *framestack.Window, gamma float64,
	v agent.ValueFunction) (*batch.Batch, error) {
	segments, err := Split(ticks, start)
	if err != nil {
		return nil, errors.Wrap(err, "process")
	}

	b := batch.New()
	for i, s := range segments {
		var bootstrap float64
		if s.End.Bootstraps() {
			bootstrap, err = v.Value(s.Last)
			if err != nil {
				return nil, errors.Wrapf(err, "process: could not bootstrap "+
					"segment %v", i)
			}
		}

		targets := credit.Bootstrapped(s.Rewards, gamma, bootstrap)
		if err := b.Append(s.Inputs, s.Actions, targets); err != nil {
			return nil, errors.Wrapf(err, "process: segment %v", i)
		}
	}

	return b, nil
}
