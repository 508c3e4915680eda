// Package ui draws terminal progress for long emissions.
package ui

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/mark3labs/apigen/internal/emitter"
)

// Phase is a stage of a generate run.
type Phase string

const (
	PhaseEmitting Phase = "Emitting"
)

// Progress counts rendered units. A disabled Progress accepts every call and
// draws nothing.
type Progress struct {
	bar   *progressbar.ProgressBar
	phase Phase
	done  int
}

// NewProgress draws a bar of total steps to w when enabled.
func NewProgress(w io.Writer, phase Phase, total int, enabled bool) *Progress {
	if !enabled {
		w = io.Discard
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(fmt.Sprintf("[%s]", phase)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
	return &Progress{bar: bar, phase: phase}
}

// OnUnit advances the bar by one and shows the unit path. It matches
// emitter.Options.OnUnit.
func (p *Progress) OnUnit(u emitter.Unit) {
	p.done++
	p.bar.Describe(fmt.Sprintf("[%s] %s", p.phase, u.Path))
	_ = p.bar.Add(1)
}

// Done is the number of units seen so far.
func (p *Progress) Done() int { return p.done }

// Finish completes and clears the bar.
func (p *Progress) Finish() error { return p.bar.Finish() }
