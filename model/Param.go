// Package model implements a linear softmax policy with an optional
// linear state-value head, whose parameters can be stepped by gorgonia
// solvers
package model

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Param is a named parameter tensor together with the tensor holding
// its gradient. Param implements gorgonia's ValueGrad, so a slice of
// Params can be handed directly to a gorgonia Solver.
type Param struct {
	name  string
	value *tensor.Dense
	grad  *tensor.Dense
}

// NewParam returns a new Param with the given backing data and shape
// and a zero gradient
func NewParam(name string, backing []float64, shape ...int) *Param {
	return &Param{
		name:  name,
		value: tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)),
		grad: tensor.New(tensor.Of(tensor.Float64),
			tensor.WithShape(shape...)),
	}
}

// Name returns the name of the Param
func (p *Param) Name() string {
	return p.name
}

// Value returns the value of the Param
func (p *Param) Value() G.Value {
	return p.value
}

// Grad returns the gradient of the Param
func (p *Param) Grad() (G.Value, error) {
	return p.grad, nil
}

// Data returns the backing data of the Param's value
func (p *Param) Data() []float64 {
	return p.value.Data().([]float64)
}

// set copies data into the Param's value
func (p *Param) set(data []float64) error {
	if len(data) != p.value.Shape().TotalSize() {
		return fmt.Errorf("set %v: got %v values, expected %v", p.name,
			len(data), p.value.Shape().TotalSize())
	}
	copy(p.Data(), data)
	return nil
}

func (p *Param) String() string {
	return fmt.Sprintf("%v %v", p.name, p.value.Shape())
}
