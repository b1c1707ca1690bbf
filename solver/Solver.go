// Package solver wraps Gorgonia Solvers so that the optimizer of a run
// can be described in, and rebuilt from, JSON hyperparameter files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam     Type = "adam"
	RMSProp  Type = "rmsprop"
	Momentum Type = "momentum"
	Vanilla  Type = "vanilla"
)

// configTypes maps each solver Type to its concrete Config type
var configTypes = map[Type]reflect.Type{
	Adam:     reflect.TypeOf(AdamConfig{}),
	RMSProp:  reflect.TypeOf(RMSPropConfig{}),
	Momentum: reflect.TypeOf(MomentumConfig{}),
	Vanilla:  reflect.TypeOf(VanillaConfig{}),
}

// Valid returns whether t names an available solver
func (t Type) Valid() bool {
	_, ok := configTypes[t]
	return ok
}

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if c.LearningRate() <= 0 {
		return nil, fmt.Errorf("newSolver: learning rate must be positive, "+
			"got %v", c.LearningRate())
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config")
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	s.Type = typeName
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField,
	valueJsonField string) (Config, Type, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	var typeName Type
	if err := json.Unmarshal(m[typeJsonField], &typeName); err != nil {
		return nil, "", fmt.Errorf("could not read solver type: %v", err)
	}

	ty, found := configTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unknown solver type %q", typeName)
	}
	value := reflect.New(ty)

	if err := json.Unmarshal(m[valueJsonField], value.Interface()); err != nil {
		return nil, "", err
	}

	return value.Elem().Interface().(Config), typeName, nil
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// LearningRate returns the step size of the described Solver
	LearningRate() float64
}
