package model

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"github.com/samuelfneumann/gopg/batch"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func input(x ...float64) *tensor.Dense {
	return tensor.New(tensor.WithBacking(x))
}

func newBatch(t *testing.T) *batch.Batch {
	b := batch.New()
	err := b.Append(
		[]*tensor.Dense{input(1, 0.5, -1), input(0.2, -0.3, 2),
			input(-1, 1, 0.5), input(0.7, 0.1, 0.3)},
		[]int{0, 2, 1, 2},
		[]float64{1.5, -0.5, 2, 0.25},
	)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// loss evaluates the model's loss on b, holding the advantages fixed
// at the given values when the model has a critic
func loss(t *testing.T, l *Linear, b *batch.Batch, advantages []float64) float64 {
	var total, entropy float64
	for i, in := range b.Inputs {
		probs, err := l.Probabilities(in)
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range probs {
			entropy -= p * math.Log(p)
		}

		coeff := b.Targets[i]
		if l.Critic() {
			v, err := l.Value(in)
			if err != nil {
				t.Fatal(err)
			}
			total += l.valueCoeff * (b.Targets[i] - v) * (b.Targets[i] - v)
			coeff = advantages[i]
		}
		total -= coeff * math.Log(probs[b.Actions[i]])
	}
	return total - l.entropyCoeff*entropy/float64(b.Len())
}

func checkGradient(t *testing.T, l *Linear) {
	b := newBatch(t)

	advantages := make([]float64, b.Len())
	if l.Critic() {
		for i, in := range b.Inputs {
			v, err := l.Value(in)
			if err != nil {
				t.Fatal(err)
			}
			advantages[i] = b.Targets[i] - v
		}
	}

	grads, _, err := l.Gradient(b)
	if err != nil {
		t.Fatal(err)
	}
	params := l.Model()
	if len(grads) != len(params) {
		t.Fatalf("got %v gradients for %v parameters", len(grads),
			len(params))
	}

	const h = 1e-6
	for i, p := range params {
		param := p.(*Param)
		data := param.Data()
		grad := grads[i].Data().([]float64)
		if len(grad) != len(data) {
			t.Fatalf("%v: gradient has %v values, want %v", param.Name(),
				len(grad), len(data))
		}

		for j := range data {
			orig := data[j]
			data[j] = orig + h
			plus := loss(t, l, b, advantages)
			data[j] = orig - h
			minus := loss(t, l, b, advantages)
			data[j] = orig

			want := (plus - minus) / (2 * h)
			if !scalar.EqualWithinAbsOrRel(grad[j], want, 1e-6, 1e-5) {
				t.Errorf("%v[%v]: gradient = %v, finite difference = %v",
					param.Name(), j, grad[j], want)
			}
		}
	}
}

func TestGradientPolicy(t *testing.T) {
	l, err := New(3, 3, false, G.GlorotU(1), WithEntropyCoeff(0.1))
	if err != nil {
		t.Fatal(err)
	}
	checkGradient(t, l)
}

func TestGradientActorCritic(t *testing.T) {
	l, err := New(3, 3, true, G.GlorotU(1), WithEntropyCoeff(0.01),
		WithValueCoeff(0.5))
	if err != nil {
		t.Fatal(err)
	}
	copy(l.valueWeights.Data(), []float64{0.3, -0.2, 0.1})
	l.valueBias.Data()[0] = 0.4
	checkGradient(t, l)
}

func TestGradientStats(t *testing.T) {
	l, err := New(3, 3, true, G.Zeroes(), WithValueCoeff(1))
	if err != nil {
		t.Fatal(err)
	}
	b := newBatch(t)
	_, stats, err := l.Gradient(b)
	if err != nil {
		t.Fatal(err)
	}

	// Zero weights give a uniform policy and zero values
	wantEntropy := float64(b.Len()) * math.Log(3)
	if !scalar.EqualWithinAbsOrRel(stats.Entropy, wantEntropy, 1e-12, 1e-12) {
		t.Errorf("entropy = %v, want %v", stats.Entropy, wantEntropy)
	}
	var wantValueLoss float64
	for _, target := range b.Targets {
		wantValueLoss += target * target
	}
	if !scalar.EqualWithinAbsOrRel(stats.ValueLoss, wantValueLoss, 1e-12,
		1e-12) {
		t.Errorf("value loss = %v, want %v", stats.ValueLoss, wantValueLoss)
	}
}

func TestProbabilities(t *testing.T) {
	l, err := New(3, 4, false, G.GlorotU(1))
	if err != nil {
		t.Fatal(err)
	}

	for _, in := range newBatch(t).Inputs {
		probs, err := l.Probabilities(in)
		if err != nil {
			t.Fatal(err)
		}
		if len(probs) != 4 {
			t.Fatalf("got %v probabilities, want 4", len(probs))
		}
		if sum := floats.Sum(probs); math.Abs(sum-1) > 1e-12 {
			t.Errorf("probabilities sum to %v", sum)
		}
		if floats.Min(probs) <= 0 {
			t.Errorf("probabilities must be positive, got %v", probs)
		}
	}

	if _, err := l.Probabilities(input(1, 2)); err == nil {
		t.Error("expected an error for an input of the wrong size")
	}
	if _, err := l.Value(input(1, 2, 3)); err == nil {
		t.Error("expected an error for the value of a model with no critic")
	}
}

func TestSolverStep(t *testing.T) {
	l, err := New(3, 3, true, G.GlorotU(1))
	if err != nil {
		t.Fatal(err)
	}
	before := append([]float64(nil), l.weights.Data()...)

	u := &batch.Updater{Model: l, Solver: G.NewAdamSolver(G.WithLearnRate(0.01)),
		MinibatchTicks: 2}
	if _, err := u.Update(newBatch(t), 0.25); err != nil {
		t.Fatal(err)
	}

	if floats.Equal(before, l.weights.Data()) {
		t.Error("weights did not change after an update")
	}
}

func TestGobRoundTrip(t *testing.T) {
	l, err := New(3, 2, true, G.GlorotU(1))
	if err != nil {
		t.Fatal(err)
	}
	l.valueBias.Data()[0] = 1.25

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(l); err != nil {
		t.Fatal(err)
	}

	restored, err := New(3, 2, true, G.Zeroes())
	if err != nil {
		t.Fatal(err)
	}
	if err := gob.NewDecoder(&buf).Decode(restored); err != nil {
		t.Fatal(err)
	}

	in := input(0.5, -1, 2)
	want, _ := l.Probabilities(in)
	got, _ := restored.Probabilities(in)
	if !floats.EqualApprox(got, want, 1e-12) {
		t.Errorf("restored probabilities = %v, want %v", got, want)
	}
	wantV, _ := l.Value(in)
	gotV, _ := restored.Value(in)
	if gotV != wantV {
		t.Errorf("restored value = %v, want %v", gotV, wantV)
	}

	mismatched, err := New(3, 2, false, G.Zeroes())
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := l.GobEncode()
	if err != nil {
		t.Fatal(err)
	}
	if err := mismatched.GobDecode(encoded); err == nil {
		t.Error("expected an error decoding into a model without a critic")
	}
}
