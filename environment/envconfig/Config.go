// Package envconfig creates environments from their configured names
package envconfig

import (
	"fmt"
	"os"
	"strings"
	"sync"

	env "github.com/samuelfneumann/gopg/environment"
	"github.com/samuelfneumann/gopg/environment/cartpole"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Cartpole EnvName = "cartpole"

	// GymPrefix prefixes OpenAI Gym environment IDs, e.g.
	// "gym:CartPole-v0"
	GymPrefix = "gym:"
)

// Constructor creates the environment id of a family of environments
// registered under a name prefix
type Constructor func(id string, c Config) (env.Environment, error)

var (
	constructorsMu sync.RWMutex
	constructors   = map[string]Constructor{}
)

// Register makes the environments created by create available under
// the names prefix+id. Gym environments need the cgo Python bindings,
// so binaries that want them register gym.New under GymPrefix.
//
// Register panics if create is nil or prefix is already registered.
func Register(prefix string, create Constructor) {
	constructorsMu.Lock()
	defer constructorsMu.Unlock()

	if create == nil {
		panic("register: nil constructor for prefix " + prefix)
	}
	if _, dup := constructors[prefix]; dup {
		panic("register: prefix " + prefix + " registered twice")
	}
	constructors[prefix] = create
}

func lookup(name string) (Constructor, string, bool) {
	constructorsMu.RLock()
	defer constructorsMu.RUnlock()

	for prefix, create := range constructors {
		if strings.HasPrefix(name, prefix) {
			return create, strings.TrimPrefix(name, prefix), true
		}
	}
	return nil, "", false
}

// Config describes an environment to create
type Config struct {
	Name   EnvName
	Cutoff int
	Seed   uint64

	// RenderDir is the directory rendered frames are written to for
	// environments that render to files
	RenderDir string
}

// Create returns the environment described by the Config
func (c Config) Create() (env.Environment, error) {
	name := string(c.Name)

	if c.Name == Cartpole {
		var opts []cartpole.Option
		if c.RenderDir != "" {
			if err := os.MkdirAll(c.RenderDir, 0o755); err != nil {
				return nil, fmt.Errorf("create: could not create render "+
					"directory: %v", err)
			}
			opts = append(opts, cartpole.WithRender(c.RenderDir))
		}
		return cartpole.NewDefault(c.Cutoff, c.Seed, opts...), nil
	}

	if create, id, ok := lookup(name); ok {
		e, err := create(id, c)
		if err != nil {
			return nil, fmt.Errorf("create: %v", err)
		}
		return e, nil
	}
	if strings.HasPrefix(name, GymPrefix) {
		return nil, fmt.Errorf("create: cannot create environment %v, gym "+
			"environments are not registered", c.Name)
	}

	return nil, fmt.Errorf("create: cannot create environment %v, no such "+
		"environment", c.Name)
}

// Valid returns whether name names an environment this package can
// create. Gym names are valid whether or not gym environments have been
// registered.
func Valid(name string) bool {
	if EnvName(name) == Cartpole {
		return true
	}
	if strings.HasPrefix(name, GymPrefix) {
		return len(name) > len(GymPrefix)
	}
	_, id, ok := lookup(name)
	return ok && id != ""
}
