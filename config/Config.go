// Package config implements the hyperparameters of a training run and
// loads them from JSON or YAML files
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/samuelfneumann/gopg/credit"
	"github.com/samuelfneumann/gopg/environment/envconfig"
	"github.com/samuelfneumann/gopg/initwfn"
	"github.com/samuelfneumann/gopg/solver"
	"gopkg.in/yaml.v3"
)

// Config holds every hyperparameter of a training run
type Config struct {
	// Environment
	Env           string `json:"env" yaml:"env"`
	NObsTicks     int    `json:"n_obs_ticks" yaml:"n_obs_ticks"`
	TimestepLimit int    `json:"timestep_limit" yaml:"timestep_limit"`

	// Training loop
	NTrainSteps     int `json:"n_train_steps" yaml:"n_train_steps"`
	NUpdateEpisodes int `json:"n_update_episodes" yaml:"n_update_episodes"`
	NUpdateTicks    int `json:"n_update_ticks" yaml:"n_update_ticks"`
	NBatchTicks     int `json:"n_batch_ticks" yaml:"n_batch_ticks"`
	NSaveInterval   int `json:"n_save_interval" yaml:"n_save_interval"`
	NEvalEpisodes   int `json:"n_eval_episodes" yaml:"n_eval_episodes"`
	NEvalInterval   int `json:"n_eval_interval" yaml:"n_eval_interval"`

	// Objective
	Objective           credit.Objective `json:"objective" yaml:"objective"`
	RewardLambda        float64          `json:"reward_lambda" yaml:"reward_lambda"`
	RewardGamma         float64          `json:"reward_gamma" yaml:"reward_gamma"`
	RegCoeff            float64          `json:"reg_coeff" yaml:"reg_coeff"`
	ValueObjectiveCoeff float64          `json:"value_objective_coeff" yaml:"value_objective_coeff"`
	ActionEntropyCoeff  float64          `json:"action_entropy_coeff" yaml:"action_entropy_coeff"`

	// Optimizer
	Optimizer           solver.Type `json:"optimizer" yaml:"optimizer"`
	InitialLearningRate float64     `json:"initial_learning_rate" yaml:"initial_learning_rate"`
	Momentum            float64     `json:"momentum" yaml:"momentum"`
	AdamBeta1           float64     `json:"adam_beta1" yaml:"adam_beta1"`
	AdamBeta2           float64     `json:"adam_beta2" yaml:"adam_beta2"`
	AdamEpsilon         float64     `json:"adam_epsilon" yaml:"adam_epsilon"`
	RMSPropDecay        float64     `json:"rmsprop_decay" yaml:"rmsprop_decay"`
	RMSPropEpsilon      float64     `json:"rmsprop_epsilon" yaml:"rmsprop_epsilon"`

	// Learning rate decay
	NDecaySteps    int     `json:"n_decay_steps" yaml:"n_decay_steps"`
	DecayRate      float64 `json:"decay_rate" yaml:"decay_rate"`
	DecayStaircase bool    `json:"decay_staircase" yaml:"decay_staircase"`

	// Weight initialization
	Init     initwfn.Type `json:"init" yaml:"init"`
	InitGain float64      `json:"init_gain" yaml:"init_gain"`

	// Run
	CheckpointDir string `json:"checkpoint_dir" yaml:"checkpoint_dir"`
	Restart       bool   `json:"restart" yaml:"restart"`
	Render        bool   `json:"render" yaml:"render"`
	Seed          uint64 `json:"seed" yaml:"seed"`
}

// Default returns the default Config
func Default() Config {
	return Config{
		Env:           string(envconfig.Cartpole),
		NObsTicks:     1,
		TimestepLimit: 1000,

		NTrainSteps:     10000,
		NUpdateEpisodes: 20,
		NUpdateTicks:    256,
		NBatchTicks:     128,
		NSaveInterval:   1,
		NEvalEpisodes:   20,
		NEvalInterval:   100,

		Objective:           credit.RewardToGoObjective,
		RewardLambda:        1,
		RewardGamma:         0.99,
		RegCoeff:            0.0001,
		ValueObjectiveCoeff: 0.1,
		ActionEntropyCoeff:  0.0001,

		Optimizer:           solver.Adam,
		InitialLearningRate: 0.001,
		Momentum:            0.9,
		AdamBeta1:           0.9,
		AdamBeta2:           0.999,
		AdamEpsilon:         1e-8,
		RMSPropDecay:        0.9,
		RMSPropEpsilon:      1e-10,

		NDecaySteps:    512,
		DecayRate:      0.8,
		DecayStaircase: true,

		Init:     initwfn.GlorotU,
		InitGain: 1,

		CheckpointDir: "checkpoints",
	}
}

// Load reads a Config from a JSON or YAML file, chosen by the file's
// extension. Values missing from the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	c := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	case ".json":
		err = json.Unmarshal(data, &c)
	default:
		return Config{}, fmt.Errorf("load: unsupported config file "+
			"extension %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load: could not decode %v: %v", path,
			err)
	}

	return c, nil
}

// Validate returns an error describing the first invalid
// hyperparameter, if any
func (c Config) Validate() error {
	switch {
	case !envconfig.Valid(c.Env):
		return fmt.Errorf("validate: unknown environment %q", c.Env)
	case c.NObsTicks < 1:
		return fmt.Errorf("validate: n_obs_ticks must be at least 1, got %v",
			c.NObsTicks)
	case c.TimestepLimit < 0:
		return fmt.Errorf("validate: timestep_limit must be non-negative, "+
			"got %v", c.TimestepLimit)
	case c.NTrainSteps < 0:
		return fmt.Errorf("validate: n_train_steps must be non-negative, "+
			"got %v", c.NTrainSteps)
	case c.NUpdateEpisodes < 1:
		return fmt.Errorf("validate: n_update_episodes must be positive, "+
			"got %v", c.NUpdateEpisodes)
	case c.NUpdateTicks < 1:
		return fmt.Errorf("validate: n_update_ticks must be positive, got %v",
			c.NUpdateTicks)
	case c.NBatchTicks < 1:
		return fmt.Errorf("validate: n_batch_ticks must be positive, got %v",
			c.NBatchTicks)
	case c.NSaveInterval < 1:
		return fmt.Errorf("validate: n_save_interval must be positive, "+
			"got %v", c.NSaveInterval)
	case c.NEvalEpisodes < 1:
		return fmt.Errorf("validate: n_eval_episodes must be positive, "+
			"got %v", c.NEvalEpisodes)
	case c.NEvalInterval < 1:
		return fmt.Errorf("validate: n_eval_interval must be positive, "+
			"got %v", c.NEvalInterval)
	case c.RewardLambda < 0 || c.RewardLambda > 1:
		return fmt.Errorf("validate: reward_lambda must be in [0, 1], got %v",
			c.RewardLambda)
	case c.RewardGamma < 0 || c.RewardGamma > 1:
		return fmt.Errorf("validate: reward_gamma must be in [0, 1], got %v",
			c.RewardGamma)
	case !c.Objective.Valid():
		return fmt.Errorf("validate: unknown objective %q", c.Objective)
	case !c.Optimizer.Valid():
		return fmt.Errorf("validate: unknown optimizer %q", c.Optimizer)
	case c.InitialLearningRate <= 0:
		return fmt.Errorf("validate: initial_learning_rate must be "+
			"positive, got %v", c.InitialLearningRate)
	case c.NDecaySteps < 1:
		return fmt.Errorf("validate: n_decay_steps must be positive, got %v",
			c.NDecaySteps)
	case c.DecayRate <= 0 || c.DecayRate > 1:
		return fmt.Errorf("validate: decay_rate must be in (0, 1], got %v",
			c.DecayRate)
	case !c.Init.Valid():
		return fmt.Errorf("validate: unknown initializer %q", c.Init)
	case c.CheckpointDir == "":
		return fmt.Errorf("validate: checkpoint_dir must not be empty")
	}
	return nil
}

// Solver returns the optimizer described by the Config
func (c Config) Solver() (*solver.Solver, error) {
	switch c.Optimizer {
	case solver.Adam:
		return solver.NewAdam(c.InitialLearningRate, c.AdamEpsilon,
			c.AdamBeta1, c.AdamBeta2)
	case solver.RMSProp:
		return solver.NewRMSProp(c.InitialLearningRate, c.RMSPropEpsilon,
			c.RMSPropDecay, 0)
	case solver.Momentum:
		return solver.NewMomentum(c.InitialLearningRate, c.Momentum)
	case solver.Vanilla:
		return solver.NewVanilla(c.InitialLearningRate, 0)
	}
	return nil, fmt.Errorf("solver: unknown optimizer %q", c.Optimizer)
}

// Decay returns the learning rate schedule of the optimizer, starting
// at initial_learning_rate
func (c Config) Decay() solver.ExponentialDecay {
	return solver.ExponentialDecay{
		Initial:   c.InitialLearningRate,
		Rate:      c.DecayRate,
		Steps:     c.NDecaySteps,
		Staircase: c.DecayStaircase,
	}
}

// InitWFn returns the weight initializer described by the Config
func (c Config) InitWFn() (*initwfn.InitWFn, error) {
	return initwfn.New(c.Init, c.InitGain)
}

// Environment returns the configuration of the training environment.
// Evaluation environments use a different seed so that they do not
// replay the training episodes.
func (c Config) Environment(renderDir string, eval bool) envconfig.Config {
	seed := c.Seed
	if eval {
		seed++
	}
	return envconfig.Config{
		Name:      envconfig.EnvName(c.Env),
		Cutoff:    c.TimestepLimit,
		Seed:      seed,
		RenderDir: renderDir,
	}
}
