package progress

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// tuiReporter drives a live tview dashboard: a scrolling log view plus a
// one-line-per-opcode status table, updated as events arrive.
type tuiReporter struct {
	app  *tview.Application
	log  *tview.TextView
	rows *tview.Table

	mu      sync.Mutex
	indices map[string]int

	done chan struct{}
}

// NewTUI starts a tview dashboard tracking opcodes and returns a Reporter
// bound to it. Call Close to stop the dashboard and restore the terminal.
func NewTUI(opcodes []string) (Reporter, error) {
	app := tview.NewApplication()

	log := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	log.SetBorder(true).SetTitle("events")

	rows := tview.NewTable().SetBorders(false)
	rows.SetBorder(true).SetTitle("opcodes")

	r := &tuiReporter{
		app:     app,
		log:     log,
		rows:    rows,
		indices: make(map[string]int, len(opcodes)),
		done:    make(chan struct{}),
	}

	for i, opcode := range opcodes {
		r.indices[opcode] = i
		rows.SetCell(i, 0, tview.NewTableCell(opcode))
		rows.SetCell(i, 1, tview.NewTableCell("pending").SetTextColor(tcell.ColorGray))
	}

	flex := tview.NewFlex().
		AddItem(rows, 0, 1, false).
		AddItem(log, 0, 2, false)

	app.SetRoot(flex, true)

	go func() {
		defer close(r.done)
		// Run is blocking; a run error after Close has already torn the
		// screen down is expected and ignored.
		_ = app.Run()
	}()

	return r, nil
}

func (r *tuiReporter) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var status string
	var color tcell.Color
	switch e.Stage {
	case StageDone:
		status, color = "done", tcell.ColorGreen
	case StageFailed:
		status, color = "failed", tcell.ColorRed
	default:
		status, color = string(e.Stage), tcell.ColorYellow
	}

	r.app.QueueUpdateDraw(func() {
		if idx, ok := r.indices[e.Opcode]; ok {
			r.rows.SetCell(idx, 1, tview.NewTableCell(status).SetTextColor(color))
		}
		if e.Err != nil {
			fmt.Fprintf(r.log, "[red]%s: %v[-]\n", e.Opcode, e.Err)
		} else {
			fmt.Fprintf(r.log, "%s: %s\n", e.Opcode, e.Stage)
		}
	})
}

func (r *tuiReporter) Close() error {
	r.app.Stop()
	<-r.done
	return nil
}
