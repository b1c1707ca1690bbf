package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/samuelfneumann/gopg/config"
	env "github.com/samuelfneumann/gopg/environment"
	"github.com/samuelfneumann/gopg/experiment/tracker"
	"github.com/samuelfneumann/gopg/model"
	"github.com/samuelfneumann/gopg/rollout"
	"gonum.org/v1/gonum/stat"
)

// Moments summarizes a sample
type Moments struct {
	Mean   float64
	Median float64
	Std    float64 // Population standard deviation
}

func (m Moments) String() string {
	return fmt.Sprintf("mean %.3f  median %.3f  std %.3f", m.Mean, m.Median,
		m.Std)
}

// newMoments returns the Moments of x
func newMoments(x []float64) Moments {
	if len(x) == 0 {
		return Moments{}
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	mean, variance := stat.MeanVariance(sorted, nil)
	n := float64(len(sorted))
	std := 0.0
	if len(sorted) > 1 {
		std = math.Sqrt(variance * (n - 1) / n)
	}

	return Moments{
		Mean:   mean,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Std:    std,
	}
}

// EvalSummary summarizes the episodes of an evaluation
type EvalSummary struct {
	N       int
	Lengths Moments
	Rewards Moments
}

// Summary returns the mean episode reward and length as a tracker
// Summary, with each name prefixed by prefix
func (e EvalSummary) Summary(prefix string) tracker.Summary {
	return tracker.Summary{
		prefix + tracker.AverageEpisodeReward: e.Rewards.Mean,
		prefix + tracker.AverageEpisodeLength: e.Lengths.Mean,
	}
}

func (e EvalSummary) String() string {
	return fmt.Sprintf("N: %v\nLengths: %v\nRewards: %v", e.N, e.Lengths,
		e.Rewards)
}

// Evaluate runs n episodes with d and summarizes their lengths and
// rewards
func Evaluate(d rollout.Driver, n int) (EvalSummary, error) {
	if n < 1 {
		return EvalSummary{}, fmt.Errorf("evaluate: number of episodes "+
			"must be positive, got %v", n)
	}

	lengths := make([]float64, n)
	rewards := make([]float64, n)
	for i := 0; i < n; i++ {
		traj, err := d.Episode()
		if err != nil {
			return EvalSummary{}, errors.Wrapf(err, "evaluate: episode %v", i)
		}
		lengths[i] = float64(traj.Len())
		rewards[i] = traj.Return()
	}

	return EvalSummary{
		N:       n,
		Lengths: newMoments(lengths),
		Rewards: newMoments(rewards),
	}, nil
}

// NewModel returns the model described by c for environment e. Models
// for actor-critic have a critic and are regularized with the action
// entropy coefficient, while REINFORCE models use reg_coeff.
func NewModel(c config.Config, e env.Environment, critic bool) (*model.Linear,
	error) {
	actions, err := env.ActionSize(e.ActionSpec())
	if err != nil {
		return nil, errors.Wrap(err, "newModel")
	}
	features := e.ObservationSpec().Shape.TotalSize() * c.NObsTicks

	init, err := c.InitWFn()
	if err != nil {
		return nil, errors.Wrap(err, "newModel")
	}

	opts := []model.Option{model.WithEntropyCoeff(c.RegCoeff)}
	if critic {
		opts = []model.Option{
			model.WithEntropyCoeff(c.ActionEntropyCoeff),
			model.WithValueCoeff(c.ValueObjectiveCoeff),
		}
	}

	m, err := model.New(features, actions, critic, init.InitWFn(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "newModel")
	}
	return m, nil
}
