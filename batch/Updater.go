package batch

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Stats are sums of per-tick quantities reported while computing
// gradients
type Stats struct {
	Entropy   float64 // Sum of policy entropies
	ValueLoss float64 // Sum of squared value errors
}

// Add adds o to s
func (s *Stats) Add(o Stats) {
	s.Entropy += o.Entropy
	s.ValueLoss += o.ValueLoss
}

// Differentiable is a model whose loss on a Batch can be
// differentiated with respect to its parameters
type Differentiable interface {
	// Gradient returns the gradient of the minibatch loss with respect
	// to each parameter of Model(), in the same order and shape
	Gradient(mb *Batch) ([]*tensor.Dense, Stats, error)

	// Model returns the parameters that a gorgonia Solver updates
	Model() []G.ValueGrad
}

// Accumulate computes the gradient of d's loss on b minibatch by
// minibatch, returning the sum of all minibatch gradients scaled by
// scale
func Accumulate(d Differentiable, b *Batch, size int,
	scale float64) ([]*tensor.Dense, Stats, error) {
	minibatches, err := b.Minibatches(size)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "accumulate")
	}

	sums, err := zeroGradients(d.Model())
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "accumulate")
	}

	var stats Stats
	for i, mb := range minibatches {
		grads, s, err := d.Gradient(mb)
		if err != nil {
			return nil, Stats{}, errors.Wrapf(err, "accumulate: minibatch %v",
				i)
		}
		if len(grads) != len(sums) {
			return nil, Stats{}, fmt.Errorf("accumulate: got %v gradients "+
				"for %v parameters", len(grads), len(sums))
		}

		for j, g := range grads {
			if !g.Shape().Eq(sums[j].Shape()) {
				return nil, Stats{}, fmt.Errorf("accumulate: gradient %v "+
					"has shape %v, parameter has shape %v", j, g.Shape(),
					sums[j].Shape())
			}
			floats.AddScaled(sums[j].Data().([]float64), scale,
				g.Data().([]float64))
		}
		stats.Add(s)
	}

	return sums, stats, nil
}

func zeroGradients(model []G.ValueGrad) ([]*tensor.Dense, error) {
	sums := make([]*tensor.Dense, len(model))
	for i, param := range model {
		shape := param.Value().Shape()
		if shape.IsScalar() {
			return nil, fmt.Errorf("parameter %v is a scalar, parameters "+
				"must have at least one dimension", i)
		}
		sums[i] = tensor.New(tensor.Of(tensor.Float64),
			tensor.WithShape(shape.Clone()...))
	}
	return sums, nil
}

// Updater applies one gradient step per Batch, computing the gradient
// in minibatches of MinibatchTicks ticks
type Updater struct {
	Model          Differentiable
	Solver         G.Solver
	MinibatchTicks int
}

// Update accumulates the gradient of the Model's loss over b, scaled
// by scale, and applies it to the Model's parameters with exactly one
// Solver step. The scale is usually 1/n where n is the number of
// episodes or ticks the Batch was collected over.
func (u *Updater) Update(b *Batch, scale float64) (Stats, error) {
	grads, stats, err := Accumulate(u.Model, b, u.MinibatchTicks, scale)
	if err != nil {
		return Stats{}, errors.Wrap(err, "update")
	}

	model := u.Model.Model()
	for i, param := range model {
		g, err := param.Grad()
		if err != nil {
			return Stats{}, errors.Wrapf(err, "update: parameter %v", i)
		}
		grad, ok := g.(*tensor.Dense)
		if !ok {
			return Stats{}, fmt.Errorf("update: parameter %v has gradient "+
				"of type %T, expected *tensor.Dense", i, g)
		}
		copy(grad.Data().([]float64), grads[i].Data().([]float64))
	}

	if err := u.Solver.Step(model); err != nil {
		return Stats{}, errors.Wrap(err, "update: could not step solver")
	}
	return stats, nil
}
