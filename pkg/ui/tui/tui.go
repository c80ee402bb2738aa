package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"twscraper/pkg/timeline"
)

// TUI shows the progress of one collection
type TUI struct {
	program *tea.Program
}

// New creates the program. Quitting early cancels the context behind cancel.
func New(handle string, maxIterations int, cancel context.CancelFunc, out io.Writer) *TUI {
	model := NewModel(handle, maxIterations, cancel)
	opts := []tea.ProgramOption{}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return &TUI{program: tea.NewProgram(model, opts...)}
}

// Run blocks until the collection finishes or the user quits
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Page forwards a collector progress event
func (t *TUI) Page(ev timeline.PageEvent) {
	t.program.Send(PageMsg{Iteration: ev.Iteration, Size: ev.Size, Total: ev.Total})
}

// Done reports the outcome and stops the program
func (t *TUI) Done(posts, skipped int, location string, err error) {
	t.program.Send(DoneMsg{Posts: posts, Skipped: skipped, Location: location, Err: err})
}
