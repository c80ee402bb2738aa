package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PageMsg reports a fetched timeline page
type PageMsg struct {
	Iteration int
	Size      int
	Total     int
}

// DoneMsg ends the collection
type DoneMsg struct {
	Posts    int
	Skipped  int
	Location string
	Err      error
}

// Model is the collection progress view
type Model struct {
	spinner       spinner.Model
	handle        string
	maxIterations int
	pages         int
	posts         int
	lastPage      int
	started       time.Time
	finished      time.Time
	done          bool
	result        DoneMsg
	cancel        func()
	now           func() time.Time
}

// NewModel creates the view for one handle. cancel is called when the user
// quits before the collection finishes.
func NewModel(handle string, maxIterations int, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	if cancel == nil {
		cancel = func() {}
	}
	return Model{
		spinner:       s,
		handle:        handle,
		maxIterations: maxIterations,
		started:       time.Now(),
		cancel:        cancel,
		now:           time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done {
				m.cancel()
			}
			return m, tea.Quit
		}
	case PageMsg:
		m.pages++
		m.posts = msg.Total
		m.lastPage = msg.Size
		return m, nil
	case DoneMsg:
		m.done = true
		m.result = msg
		m.finished = m.now()
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("twscraper @"+m.handle) + "\n\n")
	b.WriteString(row("Pages", fmt.Sprintf("%d / %d", m.pages, m.maxIterations+1)))
	b.WriteString(row("Posts", humanize.Comma(int64(m.posts))))
	if m.lastPage > 0 {
		b.WriteString(row("Last page", humanize.Comma(int64(m.lastPage))))
	}
	b.WriteString(row("Elapsed", m.elapsed().Round(time.Second).String()))
	b.WriteString("\n")

	switch {
	case !m.done:
		b.WriteString(m.spinner.View() + " collecting...\n")
		b.WriteString(helpStyle.Render("q to cancel"))
	case m.result.Err != nil:
		b.WriteString(errorStyle.Render("✗ " + m.result.Err.Error()))
	default:
		line := fmt.Sprintf("✓ %s posts saved to %s", humanize.Comma(int64(m.result.Posts)), m.result.Location)
		if m.result.Skipped > 0 {
			line += fmt.Sprintf(" (%d skipped)", m.result.Skipped)
		}
		b.WriteString(successStyle.Render(line))
	}

	return panelStyle.Render(b.String()) + "\n"
}

func (m Model) elapsed() time.Duration {
	if m.done {
		return m.finished.Sub(m.started)
	}
	return m.now().Sub(m.started)
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}
