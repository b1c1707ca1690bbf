package tracker

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// Scalars tracks every scalar of every Summary it is given, keeping
// one Series per name, and saves them all to a single gob file
type Scalars struct {
	filename string
	series   map[string]Series
}

// NewScalars returns a new Scalars Tracker that saves to filename
func NewScalars(filename string) *Scalars {
	return &Scalars{
		filename: filename,
		series:   make(map[string]Series),
	}
}

// Track records each scalar in s at step
func (s *Scalars) Track(step int, summary Summary) {
	for name, value := range summary {
		series := s.series[name]
		series.Steps = append(series.Steps, step)
		series.Values = append(series.Values, value)
		s.series[name] = series
	}
}

// Series returns the recorded Series of a scalar
func (s *Scalars) Series(name string) Series {
	return s.series[name]
}

// Save writes all recorded Series to the Tracker's file
func (s *Scalars) Save() error {
	file, err := os.Create(s.filename)
	if err != nil {
		return errors.Wrap(err, "save: could not create data file")
	}

	if err := gob.NewEncoder(file).Encode(s.series); err != nil {
		file.Close()
		return errors.Wrap(err, "save: could not encode data")
	}
	return errors.Wrap(file.Close(), "save")
}
