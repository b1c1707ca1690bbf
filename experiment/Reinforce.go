package experiment

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/gopg/batch"
	"github.com/samuelfneumann/gopg/config"
	"github.com/samuelfneumann/gopg/credit"
	env "github.com/samuelfneumann/gopg/environment"
	"github.com/samuelfneumann/gopg/experiment/tracker"
	"github.com/samuelfneumann/gopg/framestack"
	"github.com/samuelfneumann/gopg/rollout"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
)

// Reinforce trains a policy with episodic REINFORCE. Each iteration
// collects n_update_episodes whole episodes, assigns credit to every
// tick with the configured objective, and takes one gradient step on
// the mean loss per episode.
type Reinforce struct {
	*base
}

// NewReinforce returns a new Reinforce experiment
func NewReinforce(c config.Config, e env.Environment, m Model,
	s G.Solver, opts ...Option) (*Reinforce, error) {
	b, err := newBase("reinforce", c, e, m, s, opts)
	if err != nil {
		return nil, errors.Wrap(err, "newReinforce")
	}

	b.logger.Info().Str("env", c.Env).Str("objective", string(c.Objective)).
		Int("n_obs_ticks", c.NObsTicks).
		Int("n_update_episodes", c.NUpdateEpisodes).
		Str("optimizer", string(c.Optimizer)).
		Float64("initial_learning_rate", c.InitialLearningRate).
		Msg("created experiment")
	return &Reinforce{b}, nil
}

// Step runs a single training iteration
func (r *Reinforce) Step(iteration int) (tracker.Summary, error) {
	driver := r.driver()

	n := r.cfg.NUpdateEpisodes
	trajectories := make([]rollout.Trajectory, n)
	rewards := make([][]float64, n)
	for i := range trajectories {
		traj, err := driver.Episode()
		if err != nil {
			return nil, errors.Wrapf(err, "step: episode %v", i)
		}
		trajectories[i] = traj
		rewards[i] = traj.Rewards
	}

	// The baseline is the reward per tick over all episodes of the
	// iteration
	avg := credit.AverageTickReward(rewards)

	b := batch.New()
	returns := make([]float64, n)
	lengths := make([]float64, n)
	for i, traj := range trajectories {
		targets, err := r.cfg.Objective.Targets(traj.Rewards,
			r.cfg.RewardLambda, avg)
		if err != nil {
			return nil, errors.Wrap(err, "step")
		}
		inputs, err := framestack.Expand(traj.Observations, r.cfg.NObsTicks)
		if err != nil {
			return nil, errors.Wrapf(err, "step: episode %v", i)
		}
		if err := b.Append(inputs, traj.Actions, targets); err != nil {
			return nil, errors.Wrapf(err, "step: episode %v", i)
		}

		returns[i] = traj.Return()
		lengths[i] = float64(traj.Len())
	}

	stats, err := r.updater.Update(b, 1/float64(n))
	if err != nil {
		return nil, errors.Wrap(err, "step")
	}

	summary := tracker.Summary{
		tracker.AverageEpisodeReward: stat.Mean(returns, nil),
		tracker.MaxEpisodeReward:     floats.Max(returns),
		tracker.MinEpisodeReward:     floats.Min(returns),
		tracker.AverageTickReward:    avg,
		tracker.AverageEpisodeLength: stat.Mean(lengths, nil),
	}
	if b.Len() > 0 {
		summary[tracker.AverageActionEntropy] = stats.Entropy /
			float64(b.Len())
	}
	return summary, nil
}

// Run runs the experiment until n_train_steps iterations have been
// run or ctx is cancelled
func (r *Reinforce) Run(ctx context.Context) error {
	return r.run(ctx, r.Step)
}
