package checkpointer

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	hyperparametersPrefix = "hyperparameters"
	hyperparametersExt    = ".json"
)

// WriteHyperparameters writes hyperparameters as JSON to
// hyperparameters.<run>.json in dir, where run is one more than the
// newest run already in dir. It returns the run id.
func WriteHyperparameters(dir string, hyperparameters interface{}) (int,
	error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrap(err, "writeHyperparameters")
	}

	runs, err := enumerate(dir, hyperparametersPrefix, hyperparametersExt)
	if err != nil {
		return 0, errors.Wrap(err, "writeHyperparameters")
	}
	run := 0
	if len(runs) > 0 {
		run = runs[len(runs)-1] + 1
	}

	data, err := json.MarshalIndent(hyperparameters, "", "    ")
	if err != nil {
		return 0, errors.Wrap(err, "writeHyperparameters: could not encode")
	}

	path := filepath.Join(dir, hyperparametersFilename(run))
	if err := ioutil.WriteFile(path, data, 0o644); err != nil {
		return 0, errors.Wrap(err, "writeHyperparameters")
	}
	return run, nil
}

// LatestHyperparameters decodes the newest hyperparameters file in dir
// into hyperparameters, returning its run id
func LatestHyperparameters(dir string, hyperparameters interface{}) (int,
	error) {
	runs, err := enumerate(dir, hyperparametersPrefix, hyperparametersExt)
	if err != nil {
		return 0, errors.Wrap(err, "latestHyperparameters")
	}
	if len(runs) == 0 {
		return 0, fmt.Errorf("latestHyperparameters: no hyperparameters "+
			"in %v", dir)
	}

	run := runs[len(runs)-1]
	data, err := ioutil.ReadFile(filepath.Join(dir,
		hyperparametersFilename(run)))
	if err != nil {
		return 0, errors.Wrap(err, "latestHyperparameters")
	}
	if err := json.Unmarshal(data, hyperparameters); err != nil {
		return 0, errors.Wrapf(err, "latestHyperparameters: could not "+
			"decode run %v", run)
	}
	return run, nil
}

func hyperparametersFilename(run int) string {
	return fmt.Sprintf("%v.%v%v", hyperparametersPrefix, run,
		hyperparametersExt)
}
