// Package progressbar implements functionality of printing a progress
// bar to a terminal
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ManualProgressBar implement progress bar functionality that must
// be manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64
	currentProgress float64
	description     string
	bar             strings.Builder
	startTime       time.Time
}

// NewManualProgressBar returns a new ManualProgressBar that prints to
// out
func NewManualProgressBar(out io.Writer, width, max int) *ManualProgressBar {
	if max < 1 {
		max = 1
	}
	return &ManualProgressBar{
		out:         out,
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ManualProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Set sets the progress counter, e.g. when resuming a run
func (p *ManualProgressBar) Set(progress int) {
	p.currentProgress = float64(progress)
	if p.currentProgress > p.maxProgress {
		p.currentProgress = p.maxProgress
	}
	if p.currentProgress < 0 {
		p.currentProgress = 0
	}
}

// Progress returns the progress counter
func (p *ManualProgressBar) Progress() int {
	return int(p.currentProgress)
}

// Description sets text displayed after the bar
func (p *ManualProgressBar) Description(desc string) {
	p.description = desc
}

// Display redraws the progress bar over the current line
func (p *ManualProgressBar) Display() {
	p.bar.Reset()
	p.bar.WriteString("|")

	currentProg := p.currentProgress / p.maxProgress * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	fmt.Fprintf(&p.bar, "| %v/%v [%.2f%% | elapsed: %v]",
		p.currentProgress, p.maxProgress,
		p.currentProgress/p.maxProgress*100,
		time.Since(p.startTime).Truncate(time.Second))
	if p.description != "" {
		fmt.Fprintf(&p.bar, " %v", p.description)
	}

	fmt.Fprintf(p.out, "\r\033[K%v", p.bar.String())
}

// Close displays the bar a final time and ends its line
func (p *ManualProgressBar) Close() {
	p.Display()
	fmt.Fprintln(p.out)
}
