// Command gopg trains linear softmax policies with episodic REINFORCE
// or streaming actor-critic, and evaluates trained checkpoints.
//
// Usage:
//
//	gopg train -config FILE [-checkpoint_dir DIR] [-restart] [-render] [-v]
//	gopg actor-critic -config FILE [-checkpoint_dir DIR] [-restart] [-render] [-v]
//	gopg eval [-checkpoint_dir DIR] [-checkpoint FILE] [-n_samples N] [-argmax] [-render] [-v]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/gopg/agent"
	"github.com/samuelfneumann/gopg/config"
	env "github.com/samuelfneumann/gopg/environment"
	"github.com/samuelfneumann/gopg/environment/envconfig"
	"github.com/samuelfneumann/gopg/environment/gym"
	"github.com/samuelfneumann/gopg/experiment"
	"github.com/samuelfneumann/gopg/experiment/checkpointer"
	"github.com/samuelfneumann/gopg/experiment/tracker"
	"github.com/samuelfneumann/gopg/model"
	"github.com/samuelfneumann/gopg/rollout"
	"github.com/samuelfneumann/gopg/utils/progressbar"
)

const (
	checkpointPrefix = "model"
	checkpointsKept  = 2
	progressBarWidth = 40
)

func init() {
	envconfig.Register(envconfig.GymPrefix, newGym)
}

// newGym creates gym environments configured as "gym:<id>"
func newGym(id string, c envconfig.Config) (env.Environment, error) {
	g, err := gym.New(id, c.Cutoff, int(c.Seed))
	if err != nil {
		return nil, err
	}
	return g, nil
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Logger()

	if err := run(logger, os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("gopg")
	}
}

func run(logger zerolog.Logger, args []string) error {
	if len(args) < 1 {
		return errors.New("missing subcommand; try 'train', " +
			"'actor-critic' or 'eval'")
	}

	switch args[0] {
	case "train":
		return runTrain(logger, "train", args[1:], false)
	case "actor-critic":
		return runTrain(logger, "actor-critic", args[1:], true)
	case "eval":
		return runEval(logger, args[1:])
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func setLevel(logger zerolog.Logger, verbose bool) zerolog.Logger {
	if verbose {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}

func runTrain(logger zerolog.Logger, name string, args []string,
	critic bool) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath := fs.String("config", "", "JSON or YAML hyperparameter file")
	checkpointDir := fs.String("checkpoint_dir", "", "directory to save "+
		"checkpoints in, overrides the config")
	restart := fs.Bool("restart", false, "ignore existing checkpoints")
	render := fs.Bool("render", false, "render the environment")
	verbose := fs.Bool("v", false, "log every iteration")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logger = setLevel(logger, *verbose)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *checkpointDir != "" {
		cfg.CheckpointDir = *checkpointDir
	}
	cfg.Restart = cfg.Restart || *restart
	cfg.Render = cfg.Render || *render
	if err := cfg.Validate(); err != nil {
		return err
	}

	var renderDir string
	if cfg.Render {
		renderDir = filepath.Join(cfg.CheckpointDir, "frames")
	}
	e, err := cfg.Environment(renderDir, false).Create()
	if err != nil {
		return err
	}
	defer closeEnv(logger, e)

	m, err := experiment.NewModel(cfg, e, critic)
	if err != nil {
		return err
	}
	s, err := cfg.Solver()
	if err != nil {
		return err
	}

	runID, err := checkpointer.WriteHyperparameters(cfg.CheckpointDir, cfg)
	if err != nil {
		return err
	}
	logger.Info().Int("run_id", runID).Str("dir", cfg.CheckpointDir).
		Msg("wrote hyperparameters")

	dir, err := checkpointer.NewDir(cfg.CheckpointDir, checkpointPrefix, m,
		checkpointsKept)
	if err != nil {
		return err
	}

	train := tracker.NewScalars(filepath.Join(cfg.CheckpointDir,
		fmt.Sprintf("summaries.%v.bin", runID)))
	eval := tracker.NewScalars(filepath.Join(cfg.CheckpointDir,
		fmt.Sprintf("eval_summaries.%v.bin", runID)))

	opts := []experiment.Option{
		experiment.WithLogger(logger),
		experiment.WithProgressBar(progressbar.NewManualProgressBar(
			os.Stderr, progressBarWidth, cfg.NTrainSteps)),
		experiment.WithCheckpointer(dir, cfg.NSaveInterval, !cfg.Restart),
		experiment.WithTracker(tracker.Exclude(train, "eval_"),
			tracker.Register(eval, "eval_")),
	}

	var exp experiment.Experiment
	if critic {
		evalEnv, err := cfg.Environment("", true).Create()
		if err != nil {
			return err
		}
		defer closeEnv(logger, evalEnv)

		exp, err = experiment.NewActorCritic(cfg, e, evalEnv, m, s.Solver,
			opts...)
		if err != nil {
			return err
		}
	} else {
		exp, err = experiment.NewReinforce(cfg, e, m, s.Solver, opts...)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := exp.Run(ctx); err != nil {
		return err
	}
	return exp.Save()
}

func runEval(logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	checkpointDir := fs.String("checkpoint_dir", "checkpoints", "directory "+
		"holding the checkpoints and hyperparameters of a run")
	checkpoint := fs.String("checkpoint", "", "checkpoint file to "+
		"evaluate, defaults to the newest in checkpoint_dir")
	samples := fs.Int("n_samples", 0, "number of episodes, defaults to "+
		"n_eval_episodes")
	argmax := fs.Bool("argmax", false, "always take the most probable "+
		"action")
	render := fs.Bool("render", false, "render the environment")
	verbose := fs.Bool("v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logger = setLevel(logger, *verbose).With().Str("component", "eval").
		Logger()

	cfg := config.Default()
	runID, err := checkpointer.LatestHyperparameters(*checkpointDir, &cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Info().Int("run_id", runID).Str("dir", *checkpointDir).
		Msg("loaded hyperparameters")

	var renderDir string
	if *render {
		renderDir = filepath.Join(*checkpointDir, "eval_frames")
	}
	e, err := cfg.Environment(renderDir, true).Create()
	if err != nil {
		return err
	}
	defer closeEnv(logger, e)

	m, step, err := restore(cfg, e, *checkpointDir, *checkpoint)
	if err != nil {
		return err
	}
	logger.Info().Int("step", step).Msg("restored checkpoint")

	var policy agent.Policy = m
	if *argmax {
		policy = agent.Greedy{Policy: m}
	}
	if _, ok := e.(env.Renderer); *render && !ok {
		logger.Warn().Str("env", cfg.Env).
			Msg("environment cannot render, rendering disabled")
		*render = false
	}

	n := *samples
	if n <= 0 {
		n = cfg.NEvalEpisodes
	}

	summary, err := experiment.Evaluate(rollout.Driver{
		Policy:   policy,
		Env:      e,
		Sampler:  rollout.NewSampler(cfg.Seed),
		Depth:    cfg.NObsTicks,
		MaxTicks: env.EffectiveLimit(e, cfg.TimestepLimit),
		Render:   *render,
	}, n)
	if err != nil {
		return err
	}

	fmt.Println(summary)
	return nil
}

// restore loads a checkpoint into a model built from cfg. Checkpoints
// do not record whether they hold a critic, so both architectures are
// tried.
func restore(cfg config.Config, e env.Environment, dir,
	path string) (*model.Linear, int, error) {
	var lastErr error
	for _, critic := range []bool{false, true} {
		m, err := experiment.NewModel(cfg, e, critic)
		if err != nil {
			return nil, 0, err
		}

		if path != "" {
			step, err := checkpointer.Load(path, m)
			if err == nil {
				return m, step, nil
			}
			lastErr = err
			continue
		}

		d, err := checkpointer.NewDir(dir, checkpointPrefix, m,
			checkpointsKept)
		if err != nil {
			return nil, 0, err
		}
		step, ok, err := d.Restore()
		if err == nil && !ok {
			return nil, 0, fmt.Errorf("no checkpoints in %v", dir)
		}
		if err == nil {
			return m, step, nil
		}
		lastErr = err
	}
	return nil, 0, lastErr
}

func closeEnv(logger zerolog.Logger, e env.Environment) {
	if c, ok := e.(env.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("could not close environment")
		}
	}
}
