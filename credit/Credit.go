// Package credit converts the rewards of a single episode or episode
// segment into per-tick learning targets.
//
// All functions are pure: they never modify their arguments, and an
// empty reward sequence always produces an empty target sequence.
package credit

import "gonum.org/v1/gonum/floats"

// EpisodicTotal assigns every tick the discounted return of the whole
// episode, Σ_t rewards[t]·λ^t
func EpisodicTotal(rewards []float64, lambda float64) []float64 {
	targets := make([]float64, len(rewards))
	if len(rewards) == 0 {
		return targets
	}

	total := discountCumSum(rewards, lambda)[0]
	for i := range targets {
		targets[i] = total
	}
	return targets
}

// RewardToGo assigns tick t the discounted sum of the rewards from t
// onward, Σ_u rewards[t+u]·λ^u
func RewardToGo(rewards []float64, lambda float64) []float64 {
	return discountCumSum(rewards, lambda)
}

// WithBaseline returns the reward-to-go of each tick minus
// avgTickReward·(len(rewards)-t), the reward the remaining ticks would
// collect at the average rate
func WithBaseline(rewards []float64, lambda, avgTickReward float64) []float64 {
	targets := discountCumSum(rewards, lambda)
	for t := range targets {
		targets[t] -= avgTickReward * float64(len(rewards)-t)
	}
	return targets
}

// Bootstrapped returns the discounted returns V[t] = rewards[t] +
// γ·V[t+1] of an episode segment with V[len(rewards)] = bootstrap.
//
// The bootstrap argument should be 0 if the segment ended because a
// terminal state was reached, and otherwise v(s), the value estimate
// of the state the segment was cut off in.
func Bootstrapped(rewards []float64, gamma, bootstrap float64) []float64 {
	if len(rewards) == 0 {
		return []float64{}
	}

	rews := make([]float64, len(rewards)+1)
	copy(rews, rewards)
	rews[len(rewards)] = bootstrap

	return discountCumSum(rews, gamma)[:len(rewards)]
}

// AverageTickReward returns the reward per tick over all episodes in
// a batch, or 0 if the batch holds no ticks
func AverageTickReward(episodes [][]float64) float64 {
	var sum float64
	var ticks int
	for _, rewards := range episodes {
		sum += floats.Sum(rewards)
		ticks += len(rewards)
	}

	if ticks == 0 {
		return 0
	}
	return sum / float64(ticks)
}

// discountCumSum computes and returns the discounted cumulative sum
// of all elements of a slice. Given x = [x0 x1 x2 ... xN] and discount
// ℽ, this function computes and returns:
//
// [
//	x0 + ℽ x1 + ℽ^2 x2 + ℽ^3 x3 + ... + ℽ^N xN
//	x1 + ℽ^1 x2 + ℽ^2 x3 + ... + ℽ^(N-1) xN
//	x2 + ℽ^1 x3 + ... + ℽ^(N-2) xN
// ...
// xN
// ]
func discountCumSum(x []float64, discount float64) []float64 {
	cumSums := make([]float64, len(x))

	var next float64
	for i := len(x) - 1; i >= 0; i-- {
		next = x[i] + discount*next
		cumSums[i] = next
	}
	return cumSums
}
