package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/batonhq/baton/internal/event"
	"github.com/batonhq/baton/internal/util"
)

// timeUnit is the rounding granularity for printed durations.
const timeUnit = time.Millisecond

// Display runs a progress renderer over an event bus. Attach picks the
// bubbletea program for interactive terminals or the plain writer
// otherwise; Stop unsubscribes and waits for the renderer to exit.
type Display struct {
	subID string
	bus   *event.Bus

	program *tea.Program
	done    chan struct{}

	plain *PlainWriter
}

// Attach subscribes a renderer to the bus. When interactive is true a
// bubbletea program owns the terminal; otherwise events print line by line
// to out.
func Attach(bus *event.Bus, out io.Writer, interactive bool) *Display {
	d := &Display{bus: bus}

	if !interactive {
		d.plain = NewPlainWriter(out)
		d.subID = bus.SubscribeAll(d.plain.Handle)
		return d
	}

	d.program = tea.NewProgram(NewModel(), tea.WithOutput(out))
	d.done = make(chan struct{})
	d.subID = bus.SubscribeAll(func(e event.Event) {
		d.program.Send(e)
	})
	go func() {
		defer close(d.done)
		_, _ = d.program.Run()
	}()
	return d
}

// Stop detaches from the bus and shuts the renderer down.
func (d *Display) Stop() {
	d.bus.Unsubscribe(d.subID)
	if d.program != nil {
		d.program.Quit()
		<-d.done
	}
}

// PlainWriter prints engine events as single lines, one per event, for
// non-TTY output. Concurrent subtask chunks interleave but every line is
// prefixed with its subtask id, so the streams stay readable.
type PlainWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainWriter returns a line-based renderer writing to out.
func NewPlainWriter(out io.Writer) *PlainWriter {
	return &PlainWriter{out: out}
}

// Handle renders one event. Safe for concurrent use.
func (w *PlainWriter) Handle(e event.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch e := e.(type) {
	case event.RunStartedEvent:
		fmt.Fprintf(w.out, "run %s: piece %q starting at %q\n", e.RunID, e.Piece, e.Entry)
	case event.MovementStartedEvent:
		fmt.Fprintf(w.out, "[%s] started (iteration %d)\n", e.Movement, e.Iteration)
	case event.MovementFinishedEvent:
		fmt.Fprintf(w.out, "[%s] finished: %s (%s)\n", e.Movement, e.Status, e.Duration.Round(timeUnit))
	case event.TransitionEvent:
		fmt.Fprintf(w.out, "[%s] -> %s (%s)\n", e.From, e.To, e.Strategy)
	case event.SubtaskStartedEvent:
		fmt.Fprintf(w.out, "[%s/%s] started: %s\n", e.Movement, e.SubtaskID, e.Title)
	case event.SubtaskProgressEvent:
		fmt.Fprintf(w.out, "[%s/%s] %s\n", e.Movement, e.SubtaskID, util.FirstLine(e.Chunk))
	case event.SubtaskFinishedEvent:
		if e.Success {
			fmt.Fprintf(w.out, "[%s/%s] done\n", e.Movement, e.SubtaskID)
		} else {
			fmt.Fprintf(w.out, "[%s/%s] failed: %s\n", e.Movement, e.SubtaskID, e.Reason)
		}
	case event.ReportArtifactEvent:
		fmt.Fprintf(w.out, "report: %s\n", strings.Join(e.Paths, ", "))
	case event.HealthEvaluatedEvent:
		fmt.Fprintf(w.out, "[%s] health: %s (%d active)\n", e.Movement, e.Verdict, e.ActiveCount)
	case event.RunFinishedEvent:
		fmt.Fprintf(w.out, "run finished: %s after %d iterations\n", e.Outcome, e.Iterations)
	}
}
