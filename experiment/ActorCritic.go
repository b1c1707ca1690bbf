package experiment

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/gopg/agent"
	"github.com/samuelfneumann/gopg/config"
	env "github.com/samuelfneumann/gopg/environment"
	"github.com/samuelfneumann/gopg/experiment/tracker"
	"github.com/samuelfneumann/gopg/rollout"
	"github.com/samuelfneumann/gopg/segment"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
)

// ActorCritic trains a policy and a state-value function with
// streaming actor-critic. Each iteration runs exactly n_update_ticks
// ticks, continuing the episode left open by the previous iteration,
// and takes one gradient step on the mean loss per tick. Segments that
// do not end in a terminal state are bootstrapped with the critic.
type ActorCritic struct {
	*base
	state rollout.State

	// Return and length of the episode in progress
	episodeReward float64
	episodeLength int

	evalEnv env.Environment
}

// NewActorCritic returns a new ActorCritic experiment. If evalEnv is
// not nil, the greedy policy is evaluated on it every n_eval_interval
// iterations.
func NewActorCritic(c config.Config, e, evalEnv env.Environment,
	m Model, s G.Solver, opts ...Option) (*ActorCritic, error) {
	b, err := newBase("actor-critic", c, e, m, s, opts)
	if err != nil {
		return nil, errors.Wrap(err, "newActorCritic")
	}
	if !m.Critic() {
		return nil, errors.New("newActorCritic: model has no critic")
	}

	b.logger.Info().Str("env", c.Env).Int("n_obs_ticks", c.NObsTicks).
		Int("n_update_ticks", c.NUpdateTicks).
		Float64("reward_gamma", c.RewardGamma).
		Str("optimizer", string(c.Optimizer)).
		Float64("initial_learning_rate", c.InitialLearningRate).
		Msg("created experiment")

	return &ActorCritic{
		base:    b,
		state:   rollout.NewState(e.ObservationSpec().Shape, c.NObsTicks),
		evalEnv: evalEnv,
	}, nil
}

// Step runs a single training iteration
func (a *ActorCritic) Step(iteration int) (tracker.Summary, error) {
	ticks, next, err := a.driver().Partial(a.cfg.NUpdateTicks, a.state)
	if err != nil {
		return nil, errors.Wrap(err, "step")
	}

	b, err := segment.Process(ticks, a.state.Window, a.cfg.RewardGamma,
		a.model)
	if err != nil {
		return nil, errors.Wrap(err, "step")
	}
	a.state = next

	stats, err := a.updater.Update(b, 1/float64(len(ticks)))
	if err != nil {
		return nil, errors.Wrap(err, "step")
	}

	rewards := make([]float64, len(ticks))
	var returns, lengths []float64
	for i, tick := range ticks {
		if tick.Reset {
			a.episodeReward, a.episodeLength = 0, 0
		}
		rewards[i] = tick.Reward
		a.episodeReward += tick.Reward
		a.episodeLength++

		if !tick.Nonterminal || tick.Truncated {
			returns = append(returns, a.episodeReward)
			lengths = append(lengths, float64(a.episodeLength))
		}
	}

	summary := tracker.Summary{
		tracker.AverageTickReward:     stat.Mean(rewards, nil),
		tracker.AverageActionEntropy:  stats.Entropy / float64(len(ticks)),
		tracker.AverageValueObjective: stats.ValueLoss / float64(len(ticks)),
	}
	if len(returns) > 0 {
		summary[tracker.AverageEpisodeReward] = stat.Mean(returns, nil)
		summary[tracker.MaxEpisodeReward] = floats.Max(returns)
		summary[tracker.MinEpisodeReward] = floats.Min(returns)
		summary[tracker.AverageEpisodeLength] = stat.Mean(lengths, nil)
	}

	if a.evalEnv != nil && iteration%a.cfg.NEvalInterval == 0 {
		eval, err := a.Evaluate(a.cfg.NEvalEpisodes, true)
		if err != nil {
			return nil, errors.Wrap(err, "step")
		}
		a.logger.Info().Int("step", iteration).Int("episodes", eval.N).
			Float64("mean_reward", eval.Rewards.Mean).
			Float64("mean_length", eval.Lengths.Mean).
			Msg("evaluated policy")
		for k, v := range eval.Summary("eval_") {
			summary[k] = v
		}
	}

	return summary, nil
}

// Evaluate runs n episodes of the policy in the evaluation
// environment, acting greedily if greedy is true
func (a *ActorCritic) Evaluate(n int, greedy bool) (EvalSummary, error) {
	if a.evalEnv == nil {
		return EvalSummary{}, errors.New("evaluate: no evaluation " +
			"environment")
	}
	d := a.driver()
	d.Env = a.evalEnv
	d.MaxTicks = env.EffectiveLimit(a.evalEnv, a.cfg.TimestepLimit)
	d.Render = false
	if greedy {
		d.Policy = agent.Greedy{Policy: a.model}
	}
	return Evaluate(d, n)
}

// Run runs the experiment until n_train_steps iterations have been
// run or ctx is cancelled
func (a *ActorCritic) Run(ctx context.Context) error {
	return a.run(ctx, a.Step)
}
