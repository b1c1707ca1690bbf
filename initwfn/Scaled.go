package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// scaled is embedded by the Glorot and He configurations, whose weights
// are scaled by a positive gain. Its Gain field is promoted, so each
// configuration marshals as {"Gain": g}.
type scaled struct {
	Gain float64
}

// Validate returns an error if the gain is not positive
func (s scaled) Validate() error {
	if s.Gain <= 0 {
		return fmt.Errorf("gain must be positive, got %v", s.Gain)
	}
	return nil
}

// GlorotUConfig configures Glorot uniform initialization
type GlorotUConfig struct{ scaled }

// GlorotNConfig configures Glorot normal initialization
type GlorotNConfig struct{ scaled }

// HeUConfig configures He uniform initialization
type HeUConfig struct{ scaled }

// HeNConfig configures He normal initialization
type HeNConfig struct{ scaled }

func (GlorotUConfig) Type() Type { return GlorotU }
func (GlorotNConfig) Type() Type { return GlorotN }
func (HeUConfig) Type() Type     { return HeU }
func (HeNConfig) Type() Type     { return HeN }

func (c GlorotUConfig) Create() G.InitWFn { return G.GlorotU(c.Gain) }
func (c GlorotNConfig) Create() G.InitWFn { return G.GlorotN(c.Gain) }
func (c HeUConfig) Create() G.InitWFn     { return G.HeU(c.Gain) }
func (c HeNConfig) Create() G.InitWFn     { return G.HeN(c.Gain) }

// newScaled returns the gain-scaled initializer of type t
func newScaled(t Type, gain float64) (*InitWFn, error) {
	s := scaled{Gain: gain}

	var c Config
	switch t {
	case GlorotU:
		c = GlorotUConfig{s}
	case GlorotN:
		c = GlorotNConfig{s}
	case HeU:
		c = HeUConfig{s}
	case HeN:
		c = HeNConfig{s}
	default:
		return nil, fmt.Errorf("newScaled: %q is not a scaled initializer", t)
	}
	return newInitWFn(c)
}
