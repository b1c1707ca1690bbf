// Package experiment implements the training loops of policy gradient
// agents and the evaluation of trained policies
package experiment

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samuelfneumann/gopg/agent"
	"github.com/samuelfneumann/gopg/batch"
	"github.com/samuelfneumann/gopg/config"
	env "github.com/samuelfneumann/gopg/environment"
	"github.com/samuelfneumann/gopg/experiment/checkpointer"
	"github.com/samuelfneumann/gopg/experiment/tracker"
	"github.com/samuelfneumann/gopg/rollout"
	"github.com/samuelfneumann/gopg/solver"
	"github.com/samuelfneumann/gopg/utils/progressbar"
	G "gorgonia.org/gorgonia"
)

// Experiment outlines the training loops in this package. Step runs a
// single training iteration, collecting experience and updating the
// model once, while Run runs iterations until the configured number of
// training steps is reached or the context is cancelled.
//
// Summaries of each iteration are sent to every registered Tracker.
// The Save() method saves all tracked data to disk.
type Experiment interface {
	Step(iteration int) (tracker.Summary, error)
	Run(ctx context.Context) error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment
	Register(t tracker.Tracker)

	// Save all tracked data to disk
	Save() error
}

// Model is a policy with a value function that can be differentiated
// and stepped by a solver, such as *model.Linear
type Model interface {
	agent.ActorCritic
	batch.Differentiable

	Features() int
	Actions() int

	// Critic returns whether Value may be called
	Critic() bool
}

// Option configures an Experiment
type Option func(*base)

// WithLogger sets the logger of an Experiment
func WithLogger(logger zerolog.Logger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

// WithProgressBar displays the progress of Run on bar
func WithProgressBar(bar *progressbar.ManualProgressBar) Option {
	return func(b *base) {
		b.bar = bar
	}
}

// WithCheckpointer saves the model to dir every interval iterations
// and at the end of Run. If restore is true, Run first restores the
// newest checkpoint in dir and continues from its iteration.
func WithCheckpointer(dir *checkpointer.Dir, interval int,
	restore bool) Option {
	return func(b *base) {
		b.dir = dir
		b.checkpointer = checkpointer.NewNStep(interval, dir)
		b.restore = restore
	}
}

// WithTracker registers trackers with an Experiment
func WithTracker(t ...tracker.Tracker) Option {
	return func(b *base) {
		b.trackers = append(b.trackers, t...)
	}
}

// base holds what both training loops share: the model and its
// updater, the run loop, and its logging, checkpointing and tracking
type base struct {
	cfg     config.Config
	env     env.Environment
	model   Model
	updater *batch.Updater
	decay   solver.ExponentialDecay
	sampler *rollout.Sampler
	render  bool

	logger       zerolog.Logger
	bar          *progressbar.ManualProgressBar
	dir          *checkpointer.Dir
	checkpointer checkpointer.Checkpointer
	restore      bool
	trackers     []tracker.Tracker
}

func newBase(component string, c config.Config, e env.Environment,
	m Model, s G.Solver, opts []Option) (*base, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if e == nil || m == nil || s == nil {
		return nil, fmt.Errorf("experiment needs an environment, model " +
			"and solver")
	}

	actions, err := env.ActionSize(e.ActionSpec())
	if err != nil {
		return nil, err
	}
	features := e.ObservationSpec().Shape.TotalSize() * c.NObsTicks
	if m.Actions() != actions || m.Features() != features {
		return nil, fmt.Errorf("model has %v features and %v actions, "+
			"environment needs %v and %v", m.Features(), m.Actions(),
			features, actions)
	}

	b := &base{
		cfg:   c,
		env:   e,
		model: m,
		updater: &batch.Updater{
			Model:          m,
			Solver:         s,
			MinibatchTicks: c.NBatchTicks,
		},
		decay:   c.Decay(),
		sampler: rollout.NewSampler(c.Seed),
		render:  c.Render,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With().Str("component", component).Logger()

	if b.render {
		if _, ok := e.(env.Renderer); !ok {
			b.logger.Warn().Str("env", c.Env).
				Msg("environment cannot render, rendering disabled")
			b.render = false
		}
	}

	return b, nil
}

// driver returns a Driver running the model's policy in the training
// environment
func (b *base) driver() rollout.Driver {
	return rollout.Driver{
		Policy:   b.model,
		Env:      b.env,
		Sampler:  b.sampler,
		Depth:    b.cfg.NObsTicks,
		MaxTicks: env.EffectiveLimit(b.env, b.cfg.TimestepLimit),
		Render:   b.render,
	}
}

// Register registers a Tracker with the Experiment
func (b *base) Register(t tracker.Tracker) {
	b.trackers = append(b.trackers, t)
}

// Save saves the data of all Trackers
func (b *base) Save() error {
	for _, t := range b.trackers {
		if err := t.Save(); err != nil {
			return errors.Wrap(err, "save")
		}
	}
	return nil
}

func (b *base) track(iteration int, s tracker.Summary) {
	for _, t := range b.trackers {
		t.Track(iteration, s)
	}
}

// run runs step for each iteration after the restored one up to the
// configured number of training steps. Cancelling ctx stops the loop
// between iterations, after which the final checkpoint is still saved.
//
// Each iteration applies one update, so before iteration i the
// learning rate is decayed by the i-1 updates applied so far.
func (b *base) run(ctx context.Context,
	step func(iteration int) (tracker.Summary, error)) error {
	start := 0
	if b.dir != nil && b.restore {
		restored, ok, err := b.dir.Restore()
		if err != nil {
			return errors.Wrap(err, "run")
		}
		if ok {
			start = restored
			b.logger.Info().Int("step", start).Str("dir", b.dir.Path()).
				Msg("restored checkpoint")
		}
	}
	if b.bar != nil {
		b.bar.Set(start)
		b.bar.Display()
	}

	iteration := start
	for iteration < b.cfg.NTrainSteps {
		if err := ctx.Err(); err != nil {
			b.logger.Info().Int("step", iteration).Msg("training interrupted")
			break
		}

		iteration++
		eta := b.decay.Apply(b.updater.Solver, iteration-1)
		summary, err := step(iteration)
		if err != nil {
			return errors.Wrapf(err, "run: iteration %v", iteration)
		}
		if summary == nil {
			summary = tracker.Summary{}
		}
		summary[tracker.LearningRate] = eta
		b.track(iteration, summary)
		b.log(iteration, summary)

		if b.checkpointer != nil {
			if err := b.checkpointer.Checkpoint(iteration); err != nil {
				return errors.Wrap(err, "run")
			}
		}
		if b.bar != nil {
			b.bar.Increment()
			if r, ok := summary[tracker.AverageEpisodeReward]; ok {
				b.bar.Description(fmt.Sprintf("reward %.2f", r))
			}
			b.bar.Display()
		}
	}

	if b.bar != nil {
		b.bar.Close()
	}
	if b.dir != nil && iteration > start {
		if err := b.dir.Save(iteration); err != nil {
			return errors.Wrap(err, "run: could not save final checkpoint")
		}
		b.logger.Info().Int("step", iteration).Str("dir", b.dir.Path()).
			Msg("saved checkpoint")
	}
	return nil
}

func (b *base) log(iteration int, s tracker.Summary) {
	event := b.logger.Debug().Int("step", iteration)
	for _, k := range s.Keys() {
		event = event.Float64(k, s[k])
	}
	event.Msg("iteration")
}
