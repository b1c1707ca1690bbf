package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action or an observation.
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action or observation in an environment.
//
// The bounds are given over the flattened data and so have length
// Shape.TotalSize().
type Spec struct {
	Shape      tensor.Shape
	Type       SpecType
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
	Cardinality
}

// NewSpec constructs a new environment specification
func NewSpec(shape tensor.Shape, t SpecType, lowerBound,
	upperBound *mat.VecDense, cardinality Cardinality) Spec {
	if shape.TotalSize() != lowerBound.Len() {
		panic(fmt.Sprintf("shape size %v must match lower bounds length %v",
			shape.TotalSize(), lowerBound.Len()))
	}
	if shape.TotalSize() != upperBound.Len() {
		panic(fmt.Sprintf("shape size %v must match upper bounds length %v",
			shape.TotalSize(), upperBound.Len()))
	}
	return Spec{shape.Clone(), t, lowerBound, upperBound, cardinality}
}

// NewDiscreteActionSpec returns the Spec of an action set {0, ..., n-1}
func NewDiscreteActionSpec(n int) Spec {
	return NewSpec(tensor.Shape{1}, Action,
		mat.NewVecDense(1, []float64{0}),
		mat.NewVecDense(1, []float64{float64(n - 1)}), Discrete)
}
