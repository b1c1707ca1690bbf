package cartpole

import (
	"os"
	"path/filepath"
	"testing"

	ts "github.com/samuelfneumann/gopg/timestep"
	"gonum.org/v1/gonum/mat"
)

func TestResetWithinStartBounds(t *testing.T) {
	c := NewDefault(200, 7)

	for i := 0; i < 20; i++ {
		step, err := c.Reset()
		if err != nil {
			t.Fatalf("reset: %v", err)
		}
		if !step.First() {
			t.Errorf("reset returned step type %v, want First", step.StepType)
		}
		for j, v := range step.Observation.Data().([]float64) {
			if v < -StartBound || v > StartBound {
				t.Errorf("feature %v = %v outside start bounds", j, v)
			}
		}
	}
}

func TestPushingOneWayTerminates(t *testing.T) {
	c := NewDefault(500, 1)
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}

	right := mat.NewVecDense(1, []float64{1})
	var step ts.TimeStep
	done := false
	for n := 0; !done; n++ {
		if n > 500 {
			t.Fatalf("episode did not end")
		}
		var err error
		step, done, err = c.Step(right)
		if err != nil {
			t.Fatal(err)
		}
		if step.Reward != 1 {
			t.Errorf("reward = %v, want 1", step.Reward)
		}
	}

	if !step.TerminalEnd() {
		t.Errorf("end type = %v, want %v", step.EndType(),
			ts.TerminalStateReached)
	}
	if _, _, err := c.Step(right); err == nil {
		t.Errorf("stepping a finished episode should fail")
	}
}

func TestStepLimitTimesOut(t *testing.T) {
	const cutoff = 4
	c := NewDefault(cutoff, 3)
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}

	var step ts.TimeStep
	var done bool
	var err error
	for i := 0; i < cutoff; i++ {
		if done {
			t.Fatalf("episode ended early at step %v", i)
		}
		step, done, err = c.Step(mat.NewVecDense(1, []float64{float64(i % 2)}))
		if err != nil {
			t.Fatal(err)
		}
	}

	if !done || step.EndType() != ts.Timeout {
		t.Errorf("done = %v, end = %v, want timeout at step %v", done,
			step.EndType(), cutoff)
	}
	if step.TerminalEnd() {
		t.Errorf("timeout should not be terminal")
	}
	if c.TimestepLimit() != cutoff {
		t.Errorf("TimestepLimit() = %v, want %v", c.TimestepLimit(), cutoff)
	}
}

func TestIllegalAction(t *testing.T) {
	c := NewDefault(10, 3)
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Step(mat.NewVecDense(1, []float64{2})); err == nil {
		t.Errorf("action 2 should be rejected")
	}
}

func TestRenderWritesFrames(t *testing.T) {
	dir := t.TempDir()
	c := NewDefault(10, 3, WithRender(dir))
	if _, err := c.Reset(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := c.Render(); err != nil {
			t.Fatalf("render: %v", err)
		}
	}

	for _, name := range []string{"frame-000000.png", "frame-000001.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing frame %v: %v", name, err)
		}
	}
}
