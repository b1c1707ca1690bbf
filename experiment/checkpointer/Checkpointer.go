// Package checkpointer saves and restores training state to and from
// step-keyed checkpoint files
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects based on the
// training iteration
type Checkpointer interface {
	Checkpoint(iteration int) error
}

// Dir stores checkpoints of a single object in a directory, keyed by
// training step. Only the newest maxToKeep checkpoints are kept.
type Dir struct {
	dir       string
	prefix    string
	object    Serializable
	maxToKeep int
}

// NewDir returns a new Dir, creating the directory if needed. If
// maxToKeep is not positive, all checkpoints are kept.
func NewDir(dir, prefix string, object Serializable,
	maxToKeep int) (*Dir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "newDir: could not create checkpoint "+
			"directory")
	}
	return &Dir{
		dir:       dir,
		prefix:    prefix,
		object:    object,
		maxToKeep: maxToKeep,
	}, nil
}

// Path returns the directory checkpoints are stored in
func (d *Dir) Path() string {
	return d.dir
}

// Save checkpoints the object at the given step and removes all but
// the newest maxToKeep checkpoints
func (d *Dir) Save(step int) error {
	path := filepath.Join(d.dir, stepFilename(d.prefix, step))

	// Write to a temporary file first so an interrupted save never
	// leaves a truncated checkpoint behind
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "save: step %v", step)
	}
	if err := gob.NewEncoder(f).Encode(d.object); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "save: could not encode step %v", step)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "save: step %v", step)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "save: step %v", step)
	}

	return d.prune()
}

// Latest returns the path and step of the newest checkpoint without
// loading it. If there are no checkpoints, ok is false.
func (d *Dir) Latest() (path string, step int, ok bool, err error) {
	steps, err := enumerate(d.dir, d.prefix, checkpointExt)
	if err != nil {
		return "", 0, false, errors.Wrap(err, "latest")
	}
	if len(steps) == 0 {
		return "", 0, false, nil
	}

	step = steps[len(steps)-1]
	return filepath.Join(d.dir, stepFilename(d.prefix, step)), step, true, nil
}

// Restore loads the newest checkpoint into the object, returning its
// step. If there are no checkpoints, ok is false and the object is
// left as is.
func (d *Dir) Restore() (step int, ok bool, err error) {
	path, step, ok, err := d.Latest()
	if err != nil || !ok {
		return 0, ok, err
	}

	if _, err := Load(path, d.object); err != nil {
		return 0, false, errors.Wrap(err, "restore")
	}
	return step, true, nil
}

func (d *Dir) prune() error {
	if d.maxToKeep <= 0 {
		return nil
	}

	steps, err := enumerate(d.dir, d.prefix, checkpointExt)
	if err != nil {
		return errors.Wrap(err, "prune")
	}
	for len(steps) > d.maxToKeep {
		path := filepath.Join(d.dir, stepFilename(d.prefix, steps[0]))
		if err := os.Remove(path); err != nil {
			return errors.Wrap(err, "prune")
		}
		steps = steps[1:]
	}
	return nil
}

// Load decodes the checkpoint at path into object, returning the step
// it was saved at
func Load(path string, object Serializable) (int, error) {
	step, ok := parseStep(filepath.Base(path), checkpointExt)
	if !ok {
		return 0, fmt.Errorf("load: %v is not a checkpoint file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "load")
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(object); err != nil {
		return 0, errors.Wrapf(err, "load: could not decode %v", path)
	}
	return step, nil
}
