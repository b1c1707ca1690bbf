package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestManualProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewManualProgressBar(&buf, 10, 4)

	p.Increment()
	p.Description("reward 3.5")
	p.Display()

	out := buf.String()
	if !strings.Contains(out, "1/4") || !strings.Contains(out, "25.00%") {
		t.Errorf("unexpected bar %q", out)
	}
	if !strings.Contains(out, "reward 3.5") {
		t.Errorf("bar %q does not contain its description", out)
	}
	if n := strings.Count(out, "█"); n != 3 {
		t.Errorf("bar has %v filled cells, want 3", n)
	}

	for i := 0; i < 10; i++ {
		p.Increment()
	}
	if p.Progress() != 4 {
		t.Errorf("progress = %v, want it capped at 4", p.Progress())
	}

	buf.Reset()
	p.Close()
	if !strings.HasSuffix(buf.String(), "\n") ||
		!strings.Contains(buf.String(), "100.00%") {
		t.Errorf("unexpected final bar %q", buf.String())
	}
}

func TestSet(t *testing.T) {
	p := NewManualProgressBar(&bytes.Buffer{}, 10, 5)
	p.Set(3)
	if p.Progress() != 3 {
		t.Errorf("progress = %v, want 3", p.Progress())
	}
	p.Set(8)
	if p.Progress() != 5 {
		t.Errorf("progress = %v, want 5", p.Progress())
	}
}
