package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"github.com/samuelfneumann/gopg/batch"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Option configures a Linear model
type Option func(*Linear)

// WithEntropyCoeff sets the weight of the mean policy entropy bonus in
// the loss
func WithEntropyCoeff(c float64) Option {
	return func(l *Linear) {
		l.entropyCoeff = c
	}
}

// WithValueCoeff sets the weight of the squared value error in the
// loss. It only has an effect on models with a critic.
func WithValueCoeff(c float64) Option {
	return func(l *Linear) {
		l.valueCoeff = c
	}
}

// Linear is a softmax policy over linear action preferences, with an
// optional linear state-value head (the critic). Inputs of any shape
// are flattened.
//
// Without a critic, the loss of a minibatch of n ticks is
//
//	-Σ target_i log π(a_i|x_i) - c_H/n Σ H(π(·|x_i))
//
// With a critic, the target is replaced by the advantage
// target_i - V(x_i), held constant, and c_V Σ (target_i - V(x_i))² is
// added.
type Linear struct {
	features int
	actions  int

	weights *Param // actions × features
	bias    *Param // actions

	critic       bool
	valueWeights *Param // features
	valueBias    *Param // 1

	entropyCoeff float64
	valueCoeff   float64
}

// New returns a new Linear model. Action preference weights and value
// weights are initialized with init, biases with zeroes.
func New(features, actions int, critic bool, init G.InitWFn,
	opts ...Option) (*Linear, error) {
	if features < 1 {
		return nil, fmt.Errorf("new: features must be positive, got %v",
			features)
	}
	if actions < 1 {
		return nil, fmt.Errorf("new: actions must be positive, got %v",
			actions)
	}

	weights, ok := init(tensor.Float64, actions, features).([]float64)
	if !ok {
		return nil, fmt.Errorf("new: initializer did not produce float64 " +
			"weights")
	}

	l := &Linear{
		features: features,
		actions:  actions,
		weights:  NewParam("weights", weights, actions, features),
		bias:     NewParam("bias", make([]float64, actions), actions),
		critic:   critic,
	}

	if critic {
		valueWeights, ok := init(tensor.Float64, 1, features).([]float64)
		if !ok {
			return nil, fmt.Errorf("new: initializer did not produce " +
				"float64 value weights")
		}
		l.valueWeights = NewParam("value weights", valueWeights, features)
		l.valueBias = NewParam("value bias", make([]float64, 1), 1)
	}

	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Features returns the number of input features
func (l *Linear) Features() int {
	return l.features
}

// Actions returns the number of actions
func (l *Linear) Actions() int {
	return l.actions
}

// Critic returns whether the model has a value head
func (l *Linear) Critic() bool {
	return l.critic
}

// Model returns the model's parameters
func (l *Linear) Model() []G.ValueGrad {
	params := []G.ValueGrad{l.weights, l.bias}
	if l.critic {
		params = append(params, l.valueWeights, l.valueBias)
	}
	return params
}

// Probabilities returns the probability of each action given input
func (l *Linear) Probabilities(input *tensor.Dense) ([]float64, error) {
	x, err := l.flatten(input)
	if err != nil {
		return nil, fmt.Errorf("probabilities: %v", err)
	}

	logProbs := l.logProbs(x)
	probs := make([]float64, len(logProbs))
	for i, lp := range logProbs {
		probs[i] = math.Exp(lp)
	}
	return probs, nil
}

// Value returns the critic's estimate of the value of input
func (l *Linear) Value(input *tensor.Dense) (float64, error) {
	if !l.critic {
		return 0, fmt.Errorf("value: model has no critic")
	}
	x, err := l.flatten(input)
	if err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}
	return l.value(x), nil
}

// Gradient returns the gradient of the loss on mb with respect to each
// parameter, in the order of Model()
func (l *Linear) Gradient(mb *batch.Batch) ([]*tensor.Dense, batch.Stats,
	error) {
	if err := mb.Validate(); err != nil {
		return nil, batch.Stats{}, err
	}

	dWeights := mat.NewDense(l.actions, l.features, nil)
	dBias := mat.NewVecDense(l.actions, nil)
	var dValueWeights *mat.VecDense
	var dValueBias float64
	if l.critic {
		dValueWeights = mat.NewVecDense(l.features, nil)
	}

	var stats batch.Stats
	entropyScale := 0.0
	if n := mb.Len(); n > 0 {
		entropyScale = l.entropyCoeff / float64(n)
	}
	dz := mat.NewVecDense(l.actions, nil)

	for i, input := range mb.Inputs {
		x, err := l.flatten(input)
		if err != nil {
			return nil, batch.Stats{}, fmt.Errorf("gradient: tick %v: %v", i,
				err)
		}
		a := mb.Actions[i]
		if a < 0 || a >= l.actions {
			return nil, batch.Stats{}, fmt.Errorf("gradient: tick %v: "+
				"illegal action %v", i, a)
		}

		coeff := mb.Targets[i]
		if l.critic {
			v := l.value(x)
			diff := mb.Targets[i] - v
			coeff = diff
			stats.ValueLoss += diff * diff

			// d/dv c_V (t - v)² = -2 c_V (t - v)
			dv := -2 * l.valueCoeff * diff
			dValueWeights.AddScaledVec(dValueWeights, dv, x)
			dValueBias += dv
		}

		logProbs := l.logProbs(x)
		var entropy float64
		for _, lp := range logProbs {
			entropy -= math.Exp(lp) * lp
		}
		stats.Entropy += entropy

		// Policy term: d/dz_k -coeff log π(a) = -coeff (1[k=a] - p_k)
		// Entropy term: d/dz_k -c H = c p_k (log p_k + H)
		for k, lp := range logProbs {
			p := math.Exp(lp)
			indicator := 0.0
			if k == a {
				indicator = 1
			}
			dz.SetVec(k, -coeff*(indicator-p)+entropyScale*p*(lp+entropy))
		}

		dWeights.RankOne(dWeights, 1, dz, x)
		dBias.AddVec(dBias, dz)
	}

	grads := []*tensor.Dense{
		tensor.New(tensor.WithShape(l.actions, l.features),
			tensor.WithBacking(dWeights.RawMatrix().Data)),
		tensor.New(tensor.WithShape(l.actions),
			tensor.WithBacking(dBias.RawVector().Data)),
	}
	if l.critic {
		grads = append(grads,
			tensor.New(tensor.WithShape(l.features),
				tensor.WithBacking(dValueWeights.RawVector().Data)),
			tensor.New(tensor.WithShape(1),
				tensor.WithBacking([]float64{dValueBias})),
		)
	}

	return grads, stats, nil
}

func (l *Linear) flatten(input *tensor.Dense) (*mat.VecDense, error) {
	if input == nil {
		return nil, fmt.Errorf("nil input")
	}
	data, ok := input.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("input must have dtype float64, got %v",
			input.Dtype())
	}
	if len(data) != l.features {
		return nil, fmt.Errorf("input has %v features, expected %v",
			len(data), l.features)
	}
	return mat.NewVecDense(len(data), data), nil
}

func (l *Linear) logProbs(x *mat.VecDense) []float64 {
	weights := mat.NewDense(l.actions, l.features, l.weights.Data())

	z := mat.NewVecDense(l.actions, nil)
	z.MulVec(weights, x)
	z.AddVec(z, mat.NewVecDense(l.actions, l.bias.Data()))

	logits := z.RawVector().Data
	lse := floats.LogSumExp(logits)
	floats.AddConst(-lse, logits)
	return logits
}

func (l *Linear) value(x *mat.VecDense) float64 {
	w := mat.NewVecDense(l.features, l.valueWeights.Data())
	return mat.Dot(w, x) + l.valueBias.Data()[0]
}

// linearState is the serialized form of a Linear model
type linearState struct {
	Features     int
	Actions      int
	Critic       bool
	Weights      []float64
	Bias         []float64
	ValueWeights []float64
	ValueBias    []float64
}

// GobEncode implements the gob.GobEncoder interface
func (l *Linear) GobEncode() ([]byte, error) {
	state := linearState{
		Features: l.features,
		Actions:  l.actions,
		Critic:   l.critic,
		Weights:  l.weights.Data(),
		Bias:     l.bias.Data(),
	}
	if l.critic {
		state.ValueWeights = l.valueWeights.Data()
		state.ValueBias = l.valueBias.Data()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode model: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The receiver must
// already have the architecture of the encoded model; only parameter
// values are restored, in place, so solvers holding the parameters
// keep working.
func (l *Linear) GobDecode(in []byte) error {
	var state linearState
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&state); err != nil {
		return fmt.Errorf("gobdecode: could not decode model: %v", err)
	}

	if state.Features != l.features || state.Actions != l.actions ||
		state.Critic != l.critic {
		return fmt.Errorf("gobdecode: encoded model has %v features, %v "+
			"actions, critic %v; receiver has %v features, %v actions, "+
			"critic %v", state.Features, state.Actions, state.Critic,
			l.features, l.actions, l.critic)
	}

	if err := l.weights.set(state.Weights); err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}
	if err := l.bias.set(state.Bias); err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}
	if l.critic {
		if err := l.valueWeights.set(state.ValueWeights); err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
		if err := l.valueBias.set(state.ValueBias); err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
	}
	return nil
}
