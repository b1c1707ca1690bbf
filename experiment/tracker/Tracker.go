// Package tracker implements Trackers, which record the scalar
// summaries of training iterations and save them to disk
package tracker

import (
	"encoding/gob"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// Names of the scalar summaries reported by training iterations
const (
	AverageEpisodeReward     = "average_episode_reward"
	MaxEpisodeReward         = "max_episode_reward"
	MinEpisodeReward         = "min_episode_reward"
	AverageTickReward        = "average_tick_reward"
	AverageEpisodeLength     = "average_episode_length"
	AverageActionEntropy     = "average_action_entropy"
	AverageValueObjective    = "average_value_objective"
	LearningRate             = "learning_rate"
	EvalAverageEpisodeReward = "eval_average_episode_reward"
	EvalAverageEpisodeLength = "eval_average_episode_length"
)

// Summary maps scalar names to their values at one training step
type Summary map[string]float64

// Keys returns the names in the Summary in sorted order
func (s Summary) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(step int, s Summary)
	Save() error
}

// Series is a named sequence of scalars, each recorded at a step
type Series struct {
	Steps  []int
	Values []float64
}

// Len returns the number of recorded points
func (s Series) Len() int {
	return len(s.Values)
}

// LoadData loads and returns the data saved by a Scalars Tracker
func LoadData(filename string) (map[string]Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "loadData: could not open data file")
	}
	defer file.Close()

	var data map[string]Series
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "loadData: could not decode data")
	}

	return data, nil
}
