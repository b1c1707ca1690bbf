package credit

import "fmt"

// Objective selects how episodic rollouts are turned into targets
type Objective string

// Available objectives
const (
	EpisodicRewardObjective Objective = "episodic_reward"
	RewardToGoObjective     Objective = "reward_to_go"
	BaselineObjective       Objective = "baseline"
)

// Valid returns whether o names a known objective
func (o Objective) Valid() bool {
	switch o {
	case EpisodicRewardObjective, RewardToGoObjective, BaselineObjective:
		return true
	}
	return false
}

// Targets computes the targets of one episode under the objective.
// The avgTickReward argument is only used by BaselineObjective
// and should be the average tick reward over the whole batch the
// episode was collected in (see AverageTickReward).
func (o Objective) Targets(rewards []float64, lambda,
	avgTickReward float64) ([]float64, error) {
	switch o {
	case EpisodicRewardObjective:
		return EpisodicTotal(rewards, lambda), nil

	case RewardToGoObjective:
		return RewardToGo(rewards, lambda), nil

	case BaselineObjective:
		return WithBaseline(rewards, lambda, avgTickReward), nil
	}

	return nil, fmt.Errorf("targets: unknown objective %q", o)
}

// UnmarshalText implements encoding.TextUnmarshaler, rejecting unknown
// objectives
func (o *Objective) UnmarshalText(text []byte) error {
	obj := Objective(text)
	if !obj.Valid() {
		return fmt.Errorf("unmarshalText: unknown objective %q", text)
	}
	*o = obj
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (o Objective) MarshalText() ([]byte, error) {
	return []byte(o), nil
}
