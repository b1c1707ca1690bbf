// Package cartpole implements the classic control Cartpole balancing
// environment with two discrete actions
package cartpole

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/gopg/environment"
	ts "github.com/samuelfneumann/gopg/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gorgonia.org/tensor"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Episodes terminate when the cart or pole leave these bounds
	PositionThreshold float64 = 2.4
	FailAngle         float64 = 12 * 2 * math.Pi / 360

	// Discrete Actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 1

	// StartBound bounds each state feature (+/-) of starting states
	StartBound float64 = 0.05

	features = 4
)

// Cartpole implements the classic control environment Cartpole. In
// this environment, a pole is attached to a cart, which can move
// horizontally along a track. The agent must keep the pole upright
// for as long as possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
//
// Actions are discrete and consist of the direction of the force
// applied to the cart:
//
//	Action	Meaning
//	  0		Push left
//	  1		Push right
//
// A reward of +1 is given on every step, including the last. The
// episode terminates when the pole leans more than FailAngle from
// upright or the cart leaves [-PositionThreshold, PositionThreshold].
// Episodes are cut off by a Timeout after the configured step limit.
type Cartpole struct {
	env.Starter
	failure env.IntervalLimit
	limit   env.StepLimit

	state    *mat.VecDense
	lastStep ts.TimeStep
	started  bool

	renderDir string
	frame     int
}

// Option configures a Cartpole
type Option func(*Cartpole)

// WithRender makes Render write PNG frames of the environment into
// directory dir
func WithRender(dir string) Option {
	return func(c *Cartpole) {
		c.renderDir = dir
	}
}

// New constructs a new Cartpole environment which samples starting
// states from s and cuts off episodes after cutoff steps. A cutoff of
// 0 means episodes only end at terminal states.
func New(s env.Starter, cutoff int, opts ...Option) *Cartpole {
	failure := env.NewIntervalLimit(
		[]r1.Interval{
			{Min: -PositionThreshold, Max: PositionThreshold},
			{Min: -FailAngle, Max: FailAngle},
		},
		[]int{0, 2},
	)

	c := &Cartpole{
		Starter: s,
		failure: failure,
		limit:   env.NewStepLimit(cutoff),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefault returns a Cartpole with the default uniform starting
// state distribution
func NewDefault(cutoff int, seed uint64, opts ...Option) *Cartpole {
	bounds := r1.Interval{Min: -StartBound, Max: StartBound}
	s := env.NewUniformStarter([]r1.Interval{bounds, bounds, bounds,
		bounds}, seed)

	return New(s, cutoff, opts...)
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() (ts.TimeStep, error) {
	start := c.Start()
	if start.Len() != features {
		return ts.TimeStep{}, fmt.Errorf("reset: starter returned %v "+
			"features, expected %v", start.Len(), features)
	}

	c.state = mat.VecDenseCopyOf(start)
	c.lastStep = ts.New(ts.First, 0, c.observation(), 0)
	c.started = true

	return c.lastStep, nil
}

// Step takes one environmental step given action a and returns the next
// timestep and whether the episode has ended
func (c *Cartpole) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if !c.started {
		return ts.TimeStep{}, true, fmt.Errorf("step: environment must " +
			"be reset before stepping")
	}
	if c.lastStep.Last() {
		return ts.TimeStep{}, true, fmt.Errorf("step: episode has ended, " +
			"environment must be reset")
	}
	if a.Len() != 1 {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be "+
			"1-dimensional, got %v dimensions", a.Len())
	}

	action := int(a.AtVec(0))
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action "+
			"%v ∉ {0, 1}", action)
	}

	force := ForceMag
	if action == 0 {
		force = -ForceMag
	}
	c.state = nextState(c.state, force)

	nextStep := ts.New(ts.Mid, 1.0, c.observation(), c.lastStep.Number+1)
	if !c.failure.End(&nextStep) {
		c.limit.End(&nextStep)
	}

	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// nextState computes the state following state when force is applied
// to the cart, using Euler integration
func nextState(state *mat.VecDense, force float64) *mat.VecDense {
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	x += Dt * xDot
	xDot += Dt * xAcc
	th += Dt * thDot
	thDot += Dt * thAcc

	return mat.NewVecDense(features, []float64{x, xDot, th, thDot})
}

// observation returns a copy of the current state as an observation
func (c *Cartpole) observation() *tensor.Dense {
	data := make([]float64, features)
	copy(data, c.state.RawVector().Data)
	return env.NewObservation(data, features)
}

// ActionSpec returns the action specification of the environment
func (c *Cartpole) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(MaxDiscreteAction + 1)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Cartpole) ObservationSpec() env.Spec {
	lower := []float64{-PositionThreshold, -math.MaxFloat64, -FailAngle,
		-math.MaxFloat64}
	upper := []float64{PositionThreshold, math.MaxFloat64, FailAngle,
		math.MaxFloat64}

	return env.NewSpec(tensor.Shape{features}, env.Observation,
		mat.NewVecDense(features, lower), mat.NewVecDense(features, upper),
		env.Continuous)
}

// TimestepLimit returns the episode cutoff
func (c *Cartpole) TimestepLimit() int {
	return c.limit.Limit()
}

func (c *Cartpole) String() string {
	if c.state == nil {
		return "Cartpole  |  not started"
	}
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	return fmt.Sprintf(msg, c.state.AtVec(0), c.state.AtVec(1),
		c.state.AtVec(2), c.state.AtVec(3))
}
