package solver

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

type param struct {
	value *tensor.Dense
	grad  *tensor.Dense
}

func (p *param) Value() G.Value         { return p.value }
func (p *param) Grad() (G.Value, error) { return p.grad, nil }

func TestJSONRoundTrip(t *testing.T) {
	constructors := []struct {
		name string
		new  func() (*Solver, error)
	}{
		{"adam", func() (*Solver, error) { return NewDefaultAdam(0.001) }},
		{"rmsprop", func() (*Solver, error) {
			return NewRMSProp(0.01, 1e-10, 0.9, 0)
		}},
		{"momentum", func() (*Solver, error) { return NewMomentum(0.1, 0.9) }},
		{"vanilla", func() (*Solver, error) { return NewVanilla(0.5, 1) }},
	}

	for _, c := range constructors {
		s, err := c.new()
		if err != nil {
			t.Fatalf("%v: %v", c.name, err)
		}
		if string(s.Type) != c.name || !s.Type.Valid() {
			t.Errorf("%v: got type %v", c.name, s.Type)
		}

		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("%v: %v", c.name, err)
		}

		var restored Solver
		if err := json.Unmarshal(data, &restored); err != nil {
			t.Fatalf("%v: %v", c.name, err)
		}
		if restored.Type != s.Type {
			t.Errorf("%v: restored type %v", c.name, restored.Type)
		}
		if !reflect.DeepEqual(restored.Config, s.Config) {
			t.Errorf("%v: restored config %+v, want %+v", c.name,
				restored.Config, s.Config)
		}
		if restored.Solver == nil {
			t.Errorf("%v: restored solver was not created", c.name)
		}
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type": "ag", "Config": {}}`), &s)
	if err == nil {
		t.Error("expected an error for an unknown solver type")
	}
}

func TestInvalidLearningRate(t *testing.T) {
	if _, err := NewVanilla(0, 0); err == nil {
		t.Error("expected an error for a zero learning rate")
	}
	if _, err := newSolver(Adam, VanillaConfig{StepSize: 1}); err == nil {
		t.Error("expected an error for a mismatched configuration")
	}
}

func TestVanillaStep(t *testing.T) {
	s, err := NewVanilla(0.5, 0)
	if err != nil {
		t.Fatal(err)
	}

	p := &param{
		value: tensor.New(tensor.WithBacking([]float64{1, 2})),
		grad:  tensor.New(tensor.WithBacking([]float64{1, -2})),
	}
	if err := s.Step([]G.ValueGrad{p}); err != nil {
		t.Fatal(err)
	}

	want := []float64{0.5, 3}
	if got := p.value.Data().([]float64); !floats.EqualApprox(got, want,
		1e-12) {
		t.Errorf("weights = %v, want %v", got, want)
	}
}

func TestExponentialDecay(t *testing.T) {
	tests := []struct {
		name  string
		decay ExponentialDecay
		step  int
		want  float64
	}{
		{"initial", ExponentialDecay{1, 0.5, 2, true}, 0, 1},
		{"staircaseFloors", ExponentialDecay{1, 0.5, 2, true}, 3, 0.5},
		{"staircaseDrops", ExponentialDecay{1, 0.5, 2, true}, 4, 0.25},
		{"continuous", ExponentialDecay{1, 0.25, 2, false}, 1, 0.5},
		{"noSteps", ExponentialDecay{0.1, 0.5, 0, false}, 10, 0.1},
	}

	for _, test := range tests {
		if got := test.decay.LearningRate(test.step); math.Abs(got-test.want) >
			1e-12 {
			t.Errorf("%v: learning rate %v, want %v", test.name, got,
				test.want)
		}
	}
}

func TestExponentialDecayApply(t *testing.T) {
	s, err := NewVanilla(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	decay := ExponentialDecay{Initial: 1, Rate: 0.5, Steps: 2, Staircase: true}

	value := tensor.New(tensor.WithBacking([]float64{0}))
	p := &param{value: value}

	// Unit gradient at every update, so each update moves the weight by
	// exactly the current learning rate
	var want float64
	for step := 0; step < 5; step++ {
		eta := decay.Apply(s.Solver, step)
		want -= eta

		p.grad = tensor.New(tensor.WithBacking([]float64{1}))
		if err := s.Step([]G.ValueGrad{p}); err != nil {
			t.Fatal(err)
		}
		if got := value.Data().([]float64)[0]; math.Abs(got-want) > 1e-12 {
			t.Fatalf("step %v: weight = %v, want %v", step, got, want)
		}
	}

	// 1 + 1 + 0.5 + 0.5 + 0.25
	if math.Abs(want+3.25) > 1e-12 {
		t.Errorf("total movement %v, want -3.25", want)
	}
}
