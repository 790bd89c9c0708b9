package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"

	"cadenza/internal/clip"
	"cadenza/internal/prompts"
	"cadenza/internal/workflow"
)

// consoleReporter renders run progress. On a terminal it drives go-pretty
// trackers; otherwise it prints one line per event so logs stay readable.
type consoleReporter struct {
	out io.Writer
	pw  progress.Writer

	mu       sync.Mutex
	trackers map[int]*progress.Tracker
	total    int
}

func newConsoleReporter(out io.Writer) *consoleReporter {
	r := &consoleReporter{
		out:      out,
		trackers: make(map[int]*progress.Tracker),
	}
	if file, ok := out.(*os.File); ok && (isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		pw := progress.NewWriter()
		pw.SetOutputWriter(out)
		pw.SetAutoStop(false)
		pw.SetUpdateFrequency(100 * time.Millisecond)
		pw.Style().Visibility.ETA = false
		pw.Style().Visibility.Speed = false
		go pw.Render()
		r.pw = pw
	}
	return r
}

func (r *consoleReporter) close() {
	if r.pw != nil {
		r.pw.Stop()
	}
}

func (r *consoleReporter) RunStarted(plan prompts.Plan, finalPath string) {
	if r.pw == nil {
		fmt.Fprintf(r.out, "Composing %d clips into %s\n", len(plan.Units), finalPath)
	}
	r.mu.Lock()
	r.total = len(plan.Units)
	r.mu.Unlock()
}

func (r *consoleReporter) UnitStarted(unit prompts.Unit, total int) {
	if r.pw == nil {
		fmt.Fprintf(r.out, "[%d/%d] %s\n", unit.Ordinal, total, unit.Label)
		return
	}
	tracker := &progress.Tracker{
		Message: unit.Label,
		Total:   100,
		Units:   progress.UnitsDefault,
	}
	r.mu.Lock()
	r.trackers[unit.Ordinal] = tracker
	r.mu.Unlock()
	r.pw.AppendTracker(tracker)
}

func (r *consoleReporter) UnitProgress(ordinal int, fraction float64) {
	if r.pw == nil {
		return
	}
	r.mu.Lock()
	tracker := r.trackers[ordinal]
	r.mu.Unlock()
	if tracker != nil {
		tracker.SetValue(int64(fraction * 100))
	}
}

func (r *consoleReporter) UnitCompleted(unit prompts.Unit, result clip.Result) {
	if r.pw == nil {
		if result.Resumed {
			fmt.Fprintf(r.out, "[%d] reused existing clip\n", unit.Ordinal)
		} else {
			fmt.Fprintf(r.out, "[%d] completed in %s\n", unit.Ordinal, result.Elapsed.Round(time.Second))
		}
		return
	}
	r.mu.Lock()
	tracker := r.trackers[unit.Ordinal]
	r.mu.Unlock()
	if tracker != nil {
		tracker.MarkAsDone()
	}
}

func (r *consoleReporter) AssemblyStarted(finalPath string) {
	if r.pw == nil {
		fmt.Fprintf(r.out, "Assembling %s\n", finalPath)
	}
}

func (r *consoleReporter) RunCompleted(outcome workflow.Outcome) {
	if r.pw != nil {
		// Give the renderer one last frame before the summary prints.
		time.Sleep(150 * time.Millisecond)
	}
}
