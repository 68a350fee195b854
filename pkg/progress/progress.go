// Package progress reports build-pipeline events to the user. The Reporter
// shape is adapted from the teacher's tracedhardware.go Tracer interface:
// a single-method event sink that every pipeline stage pushes events
// through, so the concurrency model in pkg/compiler never needs to know
// which reporter is listening.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Stage names a point in one opcode's pipeline, per §5's per-opcode stages.
type Stage string

const (
	StageCompileIR     Stage = "compile-ir"
	StageCompileObject Stage = "compile-object"
	StageReadObject    Stage = "read-object"
	StageParse         Stage = "parse"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// Event is one observation of an opcode's progress through the pipeline.
type Event struct {
	Opcode string
	Stage  Stage
	Err    error
}

// Reporter is the event sink every build stage reports through.
type Reporter interface {
	Report(e Event)
	Close() error
}

// Noop discards every event.
type noopReporter struct{}

func (noopReporter) Report(Event) {}
func (noopReporter) Close() error { return nil }

// Noop returns a Reporter that discards all events.
func Noop() Reporter { return noopReporter{} }

// plainReporter prints one colorized line per event to w, matching the
// teacher's habit of plain verbose stderr printing rather than a structured
// log for user-facing progress.
type plainReporter struct {
	mu   sync.Mutex
	w    io.Writer
	ok   *color.Color
	fail *color.Color
	dim  *color.Color
}

// NewPlain returns a Reporter that writes colorized progress lines to w.
func NewPlain(w io.Writer) Reporter {
	return &plainReporter{
		w:    w,
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed, color.Bold),
		dim:  color.New(color.FgHiBlack),
	}
}

func (r *plainReporter) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Stage {
	case StageDone:
		r.ok.Fprintf(r.w, "✓ %s\n", e.Opcode)
	case StageFailed:
		r.fail.Fprintf(r.w, "✗ %s: %v\n", e.Opcode, e.Err)
	default:
		r.dim.Fprintf(r.w, "  %s: %s\n", e.Opcode, e.Stage)
	}
}

func (r *plainReporter) Close() error { return nil }

// Fanout reports every event to each of reporters in turn.
type fanoutReporter struct {
	reporters []Reporter
}

// Fanout combines several reporters into one, matching pkg/logging's
// fanout idiom for the progress side of the pipeline.
func Fanout(reporters ...Reporter) Reporter {
	return &fanoutReporter{reporters: reporters}
}

func (f *fanoutReporter) Report(e Event) {
	for _, r := range f.reporters {
		r.Report(e)
	}
}

func (f *fanoutReporter) Close() error {
	var firstErr error
	for _, r := range f.reporters {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("progress: close reporter: %w", err)
		}
	}
	return firstErr
}
