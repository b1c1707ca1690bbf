// Package initwfn wraps Gorgonia InitWFn so that the weight
// initialization of a run can be described in, and rebuilt from, JSON
// hyperparameter files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU Type = "glorot_uniform"
	GlorotN Type = "glorot_normal"
	HeU     Type = "he_uniform"
	HeN     Type = "he_normal"
	Zeroes  Type = "zeroes"
)

var configTypes = map[Type]reflect.Type{
	GlorotU: reflect.TypeOf(GlorotUConfig{}),
	GlorotN: reflect.TypeOf(GlorotNConfig{}),
	HeU:     reflect.TypeOf(HeUConfig{}),
	HeN:     reflect.TypeOf(HeNConfig{}),
	Zeroes:  reflect.TypeOf(ZeroesConfig{}),
}

// Valid returns whether t names an available initializer
func (t Type) Valid() bool {
	_, ok := configTypes[t]
	return ok
}

// InitWFn wraps Gorgonia InitWFn so that they can be JSON marshalled and
// unmarshalled.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// New returns the InitWFn of the given type. The gain is ignored by
// initializers that do not scale their weights.
func New(t Type, gain float64) (*InitWFn, error) {
	switch t {
	case GlorotU, GlorotN, HeU, HeN:
		return newScaled(t, gain)
	case Zeroes:
		return NewZeroes()
	}
	return nil, fmt.Errorf("new: unknown initializer %q", t)
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newInitWFn: %v", err)
	}
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config")
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	i.Type = typeName
	i.Config = config
	i.initWFn = i.Config.Create()

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
		return nil, "", fmt.Errorf("could not read initializer type: %v", err)
	}

	ty, found := configTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unknown initializer type %q", typeName)
	}
	value := reflect.New(ty)

	if raw, ok := m[valueJsonField]; ok {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return nil, "", err
		}
	}

	return value.Elem().Interface().(Config), typeName, nil
}

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type

	// Validate returns an error if the Config cannot be created
	Validate() error
}
