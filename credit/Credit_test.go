package credit

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

const tol = 1e-12

func TestRewardToGo(t *testing.T) {
	tests := []struct {
		rewards []float64
		lambda  float64
		want    []float64
	}{
		{[]float64{1, 1, 1}, 1, []float64{3, 2, 1}},
		{[]float64{1, 1, 1}, 0.5, []float64{1.75, 1.5, 1}},
		{[]float64{1, 2, 3}, 1, []float64{6, 5, 3}},
		{[]float64{1, 2, 3}, 0, []float64{1, 2, 3}},
		{[]float64{}, 0.9, []float64{}},
	}

	for _, test := range tests {
		got := RewardToGo(test.rewards, test.lambda)
		if !floats.EqualApprox(got, test.want, tol) {
			t.Errorf("RewardToGo(%v, %v) = %v, want %v", test.rewards,
				test.lambda, got, test.want)
		}
	}
}

func TestEpisodicTotalIsConstant(t *testing.T) {
	rewards := []float64{1, -2, 0.5, 4}
	lambda := 0.9

	var want float64
	for i, r := range rewards {
		want += r * math.Pow(lambda, float64(i))
	}

	got := EpisodicTotal(rewards, lambda)
	if len(got) != len(rewards) {
		t.Fatalf("got %v targets, want %v", len(got), len(rewards))
	}
	for i := range got {
		if got[i] != got[0] {
			t.Errorf("target %v = %v differs from target 0 = %v", i,
				got[i], got[0])
		}
	}
	if math.Abs(got[0]-want) > tol {
		t.Errorf("total = %v, want %v", got[0], want)
	}

	if got := EpisodicTotal(nil, lambda); len(got) != 0 {
		t.Errorf("EpisodicTotal(nil) = %v, want empty", got)
	}
}

func TestBaselineUniformRewardsIsZero(t *testing.T) {
	for _, r := range []float64{1, -0.5, 3} {
		rewards := []float64{r, r, r, r, r}
		avg := AverageTickReward([][]float64{rewards, {r, r}})

		got := WithBaseline(rewards, 1, avg)
		if !floats.EqualApprox(got, make([]float64, len(rewards)), tol) {
			t.Errorf("baseline targets for uniform reward %v = %v, want "+
				"zeros", r, got)
		}
	}
}

func TestBaselineUsesBatchAverage(t *testing.T) {
	a := []float64{1, 1}
	b := []float64{3, 3, 3, 3}
	avg := AverageTickReward([][]float64{a, b})
	if math.Abs(avg-14.0/6.0) > tol {
		t.Fatalf("average tick reward = %v, want %v", avg, 14.0/6.0)
	}

	got := WithBaseline(a, 1, avg)
	want := []float64{2 - 2*avg, 1 - avg}
	if !floats.EqualApprox(got, want, tol) {
		t.Errorf("WithBaseline = %v, want %v", got, want)
	}
}

func TestAverageTickRewardEmpty(t *testing.T) {
	if got := AverageTickReward(nil); got != 0 {
		t.Errorf("AverageTickReward(nil) = %v, want 0", got)
	}
	if got := AverageTickReward([][]float64{{}, {}}); got != 0 {
		t.Errorf("AverageTickReward of empty episodes = %v, want 0", got)
	}
}

func TestBootstrapped(t *testing.T) {
	tests := []struct {
		name      string
		rewards   []float64
		gamma     float64
		bootstrap float64
		want      []float64
	}{
		{"terminated", []float64{1, 2, 3}, 0.5, 0, []float64{2.75, 3.5, 3}},
		{"truncated", []float64{1, 2, 3}, 0.5, 8, []float64{3.75, 5.5, 7}},
		{"zero reward carries bootstrap", []float64{0}, 1, 4.5, []float64{4.5}},
		{"empty", []float64{}, 0.9, 10, []float64{}},
	}

	for _, test := range tests {
		got := Bootstrapped(test.rewards, test.gamma, test.bootstrap)
		if !floats.EqualApprox(got, test.want, tol) {
			t.Errorf("%v: Bootstrapped = %v, want %v", test.name, got,
				test.want)
		}
	}
}

func TestBootstrappedFinalTick(t *testing.T) {
	rewards := []float64{0.3, -1, 2}
	gamma := 0.9

	terminal := Bootstrapped(rewards, gamma, 0)
	if terminal[len(terminal)-1] != rewards[len(rewards)-1] {
		t.Errorf("terminal final target = %v, want final reward %v",
			terminal[len(terminal)-1], rewards[len(rewards)-1])
	}

	const v = 5.0
	truncated := Bootstrapped(rewards, gamma, v)
	want := rewards[len(rewards)-1] + gamma*v
	if math.Abs(truncated[len(truncated)-1]-want) > tol {
		t.Errorf("truncated final target = %v, want %v",
			truncated[len(truncated)-1], want)
	}
}

func TestInputsUnmodified(t *testing.T) {
	rewards := []float64{1, 2, 3}
	orig := append([]float64(nil), rewards...)

	RewardToGo(rewards, 0.5)
	EpisodicTotal(rewards, 0.5)
	WithBaseline(rewards, 0.5, 1)
	Bootstrapped(rewards, 0.5, 1)

	if !floats.Equal(rewards, orig) {
		t.Errorf("rewards modified: %v, want %v", rewards, orig)
	}
}

func TestObjectiveTargets(t *testing.T) {
	rewards := []float64{1, 2, 3}

	for _, o := range []Objective{EpisodicRewardObjective,
		RewardToGoObjective, BaselineObjective} {
		if !o.Valid() {
			t.Errorf("%v should be valid", o)
		}
		got, err := o.Targets(rewards, 1, 2)
		if err != nil {
			t.Fatalf("%v: %v", o, err)
		}
		if len(got) != len(rewards) {
			t.Errorf("%v: got %v targets, want %v", o, len(got), len(rewards))
		}
	}

	var o Objective
	if err := o.UnmarshalText([]byte("advantage")); err == nil {
		t.Errorf("unknown objective should not unmarshal")
	}
	if _, err := Objective("advantage").Targets(rewards, 1, 0); err == nil {
		t.Errorf("unknown objective should fail")
	}
}
