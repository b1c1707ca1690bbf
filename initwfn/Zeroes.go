package initwfn

import G "gorgonia.org/gorgonia"

// ZeroesConfig implements a configuration of a weight initializer
// that sets all weights to 0
type ZeroesConfig struct{}

// NewZeroes returns a new zeroes weight initializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type returns the type of the weight initializer created using this
// config
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Create creates the Gorgonia weight initializer from this
// initializer config
func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}

// Validate always returns nil
func (z ZeroesConfig) Validate() error {
	return nil
}
