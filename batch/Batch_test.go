package batch

import (
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// param is a single parameter tensor with its gradient
type param struct {
	value *tensor.Dense
	grad  *tensor.Dense
}

func (p *param) Value() G.Value         { return p.value }
func (p *param) Grad() (G.Value, error) { return p.grad, nil }

// quadratic is a linear regressor with loss Σ (w·x - target)²
type quadratic struct {
	w     *param
	calls int
}

func newQuadratic(w ...float64) *quadratic {
	return &quadratic{
		w: &param{
			value: tensor.New(tensor.WithBacking(w)),
			grad:  tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(len(w))),
		},
	}
}

func (q *quadratic) Model() []G.ValueGrad {
	return []G.ValueGrad{q.w}
}

func (q *quadratic) Gradient(mb *Batch) ([]*tensor.Dense, Stats, error) {
	q.calls++
	w := q.w.value.Data().([]float64)
	grad := make([]float64, len(w))
	var loss float64
	for i, in := range mb.Inputs {
		x := in.Data().([]float64)
		diff := floats.Dot(w, x) - mb.Targets[i]
		loss += diff * diff
		floats.AddScaled(grad, 2*diff, x)
	}
	return []*tensor.Dense{tensor.New(tensor.WithBacking(grad))},
		Stats{ValueLoss: loss, Entropy: float64(mb.Len())}, nil
}

func input(x ...float64) *tensor.Dense {
	return tensor.New(tensor.WithBacking(x))
}

func regressionBatch(t *testing.T) *Batch {
	b := New()
	err := b.Append(
		[]*tensor.Dense{input(1, 0), input(0, 1), input(1, 1)},
		[]int{0, 1, 0},
		[]float64{1, 2, 3},
	)
	if err != nil {
		t.Fatal(err)
	}
	err = b.Append(
		[]*tensor.Dense{input(2, 1), input(-1, 1)},
		[]int{1, 1},
		[]float64{0, 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestMinibatches(t *testing.T) {
	b := regressionBatch(t)

	tests := []struct {
		size  int
		sizes []int
	}{
		{1, []int{1, 1, 1, 1, 1}},
		{2, []int{2, 2, 1}},
		{3, []int{3, 2}},
		{5, []int{5}},
		{128, []int{5}},
	}

	for _, test := range tests {
		mbs, err := b.Minibatches(test.size)
		if err != nil {
			t.Fatalf("size %v: %v", test.size, err)
		}
		if len(mbs) != len(test.sizes) {
			t.Errorf("size %v: expected %v minibatches, got %v", test.size,
				len(test.sizes), len(mbs))
			continue
		}

		next := 0
		for i, mb := range mbs {
			if mb.Len() != test.sizes[i] {
				t.Errorf("size %v: minibatch %v has length %v, expected %v",
					test.size, i, mb.Len(), test.sizes[i])
			}
			if err := mb.Validate(); err != nil {
				t.Errorf("size %v: minibatch %v: %v", test.size, i, err)
			}
			for j := range mb.Targets {
				if mb.Targets[j] != b.Targets[next] ||
					mb.Actions[j] != b.Actions[next] ||
					mb.Inputs[j] != b.Inputs[next] {
					t.Errorf("size %v: minibatch %v tick %v does not match "+
						"batch tick %v", test.size, i, j, next)
				}
				next++
			}
		}
		if next != b.Len() {
			t.Errorf("size %v: minibatches cover %v ticks, expected %v",
				test.size, next, b.Len())
		}
	}

	if _, err := b.Minibatches(0); err == nil {
		t.Error("expected an error for minibatch size 0")
	}
}

func TestMinibatchesEmpty(t *testing.T) {
	mbs, err := New().Minibatches(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(mbs) != 0 {
		t.Errorf("expected no minibatches, got %v", len(mbs))
	}
}

func TestAppendMisaligned(t *testing.T) {
	b := New()
	err := b.Append([]*tensor.Dense{input(1, 0)}, []int{0, 1}, []float64{1})
	if err == nil {
		t.Fatal("expected an error for misaligned data")
	}
	if !IsAlignmentError(err) {
		t.Errorf("expected an *AlignmentError, got %T", err)
	}
	if b.Len() != 0 || len(b.Inputs) != 0 || len(b.Actions) != 0 {
		t.Error("misaligned data should not be appended")
	}
}

func TestValidateMisaligned(t *testing.T) {
	b := &Batch{
		Inputs:  []*tensor.Dense{input(1, 0), input(0, 1)},
		Actions: []int{0, 1},
		Targets: []float64{1},
	}

	if err := b.Validate(); !IsAlignmentError(err) {
		t.Errorf("expected an *AlignmentError, got %v", err)
	}

	_, err := b.Minibatches(1)
	if !IsAlignmentError(err) {
		t.Errorf("minibatches: expected an *AlignmentError, got %v", err)
	}

	_, _, err = Accumulate(newQuadratic(0, 0), b, 1, 1)
	if !IsAlignmentError(err) {
		t.Errorf("accumulate: expected an *AlignmentError, got %v", err)
	}
}

func TestAccumulateMinibatchSizeInvariant(t *testing.T) {
	b := regressionBatch(t)
	scale := 1.0 / 3.0

	full := newQuadratic(0.5, -0.25)
	want, wantStats, err := Accumulate(full, b, b.Len(), scale)
	if err != nil {
		t.Fatal(err)
	}
	if full.calls != 1 {
		t.Fatalf("expected one gradient call, got %v", full.calls)
	}

	for _, size := range []int{1, 2, 3, 4} {
		q := newQuadratic(0.5, -0.25)
		got, stats, err := Accumulate(q, b, size, scale)
		if err != nil {
			t.Fatalf("size %v: %v", size, err)
		}
		if want := (b.Len() + size - 1) / size; q.calls != want {
			t.Errorf("size %v: expected %v gradient calls, got %v", size,
				want, q.calls)
		}

		if !floats.EqualApprox(got[0].Data().([]float64),
			want[0].Data().([]float64), 1e-12) {
			t.Errorf("size %v: expected gradient %v, got %v", size,
				want[0].Data(), got[0].Data())
		}
		if !scalar.EqualWithinAbsOrRel(stats.ValueLoss, wantStats.ValueLoss,
			1e-12, 1e-12) || stats.Entropy != wantStats.Entropy {
			t.Errorf("size %v: expected stats %+v, got %+v", size, wantStats,
				stats)
		}
	}
}

func TestAccumulateEmpty(t *testing.T) {
	q := newQuadratic(1, 2)
	grads, stats, err := Accumulate(q, New(), 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if q.calls != 0 {
		t.Errorf("expected no gradient calls, got %v", q.calls)
	}
	if len(grads) != 1 || !floats.Equal(grads[0].Data().([]float64),
		[]float64{0, 0}) {
		t.Errorf("expected zero gradient, got %v", grads)
	}
	if stats != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestUpdateSingleStep(t *testing.T) {
	b := regressionBatch(t)
	lr := 0.1
	scale := 0.5

	reference := newQuadratic(0.5, -0.25)
	grads, _, err := Accumulate(reference, b, b.Len(), scale)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.5, -0.25}
	floats.AddScaled(want, -lr, grads[0].Data().([]float64))

	q := newQuadratic(0.5, -0.25)
	u := &Updater{
		Model:          q,
		Solver:         G.NewVanillaSolver(G.WithLearnRate(lr)),
		MinibatchTicks: 2,
	}
	if _, err := u.Update(b, scale); err != nil {
		t.Fatal(err)
	}

	got := q.w.value.Data().([]float64)
	if !floats.EqualApprox(got, want, 1e-12) {
		t.Errorf("expected weights %v after one step, got %v", want, got)
	}
}
