// Package progress reports the outcome of batch incident assignment on
// stderr.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter is told about every incident of a batch as it is assigned.
type Reporter interface {
	Start(total int)
	Assigned(incidentID, owner string)
	Failed(incidentID string, err error)
	Finish()
}

// NewReporter picks a line-based reporter under CI and a progress bar
// otherwise.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{Out: os.Stderr}
}

// Tally counts the outcomes seen so far.
type Tally struct {
	Total    int
	Assigned int
	Failed   int
}

// Done is the number of incidents already handled.
func (t Tally) Done() int { return t.Assigned + t.Failed }

// Summary is the closing line of a batch.
func (t Tally) Summary() string {
	s := fmt.Sprintf("Assigned %d of %d incident(s)", t.Assigned, t.Total)
	if t.Failed > 0 {
		s += fmt.Sprintf(", %d failed", t.Failed)
	}
	return s
}

// TerminalReporter draws a bar and prints failures above it as they happen.
type TerminalReporter struct {
	Out   io.Writer
	Tally Tally
	bar   *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int) {
	r.Tally = Tally{Total: total}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.Out),
		progressbar.OptionSetDescription("Assigning incidents"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Assigned(incidentID, owner string) {
	r.Tally.Assigned++
	r.advance(fmt.Sprintf("%s -> %s", incidentID, owner))
}

func (r *TerminalReporter) Failed(incidentID string, err error) {
	r.Tally.Failed++
	if r.bar != nil {
		_ = r.bar.Clear()
	}
	fmt.Fprintf(r.Out, "%s: %v\n", incidentID, err)
	r.advance(incidentID + " failed")
}

func (r *TerminalReporter) advance(desc string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(desc)
	_ = r.bar.Set(r.Tally.Done())
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintln(r.Out, r.Tally.Summary())
}

// CIReporter prints one line per incident, suitable for CI logs.
type CIReporter struct {
	Out   io.Writer
	Tally Tally
}

func (r *CIReporter) Start(total int) {
	r.Tally = Tally{Total: total}
	fmt.Fprintf(r.Out, "Assigning %d incident(s)\n", total)
}

func (r *CIReporter) Assigned(incidentID, owner string) {
	r.Tally.Assigned++
	fmt.Fprintf(r.Out, "[%d/%d] %s -> %s\n", r.Tally.Done(), r.Tally.Total, incidentID, owner)
}

func (r *CIReporter) Failed(incidentID string, err error) {
	r.Tally.Failed++
	fmt.Fprintf(r.Out, "[%d/%d] %s FAILED: %v\n", r.Tally.Done(), r.Tally.Total, incidentID, err)
}

func (r *CIReporter) Finish() {
	fmt.Fprintln(r.Out, r.Tally.Summary())
}
