package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ninefold/fleet/internal/config"
	"github.com/ninefold/fleet/internal/events"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleTimer   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleActive  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleName    = lipgloss.NewStyle().Bold(true)
	stylePhase   = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true)
	styleLogLine = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleFooter  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1)
)

const (
	iconActive = "●"
	iconDone   = "✓"
	iconFailed = "✗"
	iconWait   = "⏳"
)

// agentLine tracks one agent's last-known status for the TUI.
type agentLine struct {
	key    string
	status string
	icon   string
}

// tuiModel is the bubbletea model driving `fleet start`/`watch`'s
// interactive display: one line per agent slot plus a scrolling tail
// of the most recent stdout/stderr/warning events.
type tuiModel struct {
	jobID     string
	startedAt time.Time
	agents    map[string]*agentLine
	order     []string
	logLines  []string
	logLimit  int
	width     int
	height    int

	phase string
	done  bool
	err   error

	events <-chan events.Event
}

func newTUIModel(jobID string, ch <-chan events.Event) *tuiModel {
	agents := make(map[string]*agentLine, 4)
	order := []string{string(config.Primary1), string(config.Primary2), string(config.Primary3), string(config.Integrator)}
	for _, k := range order {
		agents[k] = &agentLine{key: k, status: "pending", icon: iconWait}
	}
	return &tuiModel{
		jobID:     jobID,
		startedAt: time.Now(),
		agents:    agents,
		order:     order,
		logLimit:  200,
		events:    ch,
	}
}

type tuiEventMsg events.Event
type tuiClosedMsg struct{}
type tuiTickMsg time.Time

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tuiTick())
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return tuiClosedMsg{}
		}
		return tuiEventMsg(e)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tuiTickMsg(t) })
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	case tuiTickMsg:
		return m, tuiTick()
	case tuiEventMsg:
		m.applyEvent(events.Event(msg))
		if events.Event(msg).Kind == events.KindComplete {
			m.done = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	case tuiClosedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *tuiModel) applyEvent(e events.Event) {
	switch e.Kind {
	case events.KindPhase:
		m.phase = e.Payload
	case events.KindStatus:
		if a, ok := m.agents[e.AgentKey]; ok {
			a.status = e.Payload
			a.icon = iconFor(e.Payload)
		}
	case events.KindStdout, events.KindStderr, events.KindWarning, events.KindError:
		line := fmt.Sprintf("[%s] %s", e.AgentKey, e.Payload)
		m.logLines = append(m.logLines, line)
		if len(m.logLines) > m.logLimit {
			m.logLines = m.logLines[len(m.logLines)-m.logLimit:]
		}
		if e.Kind == events.KindError {
			if a, ok := m.agents[e.AgentKey]; ok {
				a.status, a.icon = "failed", iconFailed
			}
		}
	}
}

func iconFor(status string) string {
	switch status {
	case "succeeded":
		return iconDone
	case "failed", "timeout", "cancelled":
		return iconFailed
	case "running":
		return iconActive
	default:
		return iconWait
	}
}

func (m *tuiModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("fleet job %s", m.jobID)))
	b.WriteString("  ")
	b.WriteString(styleTimer.Render(time.Since(m.startedAt).Round(time.Second).String()))
	if m.phase != "" {
		b.WriteString("  ")
		b.WriteString(stylePhase.Render(m.phase))
	}
	b.WriteString("\n\n")

	for _, key := range m.order {
		a := m.agents[key]
		iconStyle := styleActive
		switch a.icon {
		case iconDone:
			iconStyle = styleDone
		case iconFailed:
			iconStyle = styleFailed
		}
		b.WriteString(fmt.Sprintf(" %s %s  %s\n", iconStyle.Render(a.icon), styleName.Render(a.key), a.status))
	}

	if len(m.logLines) > 0 {
		b.WriteString("\n")
		tail := m.logLines
		maxLines := 10
		if m.height > 0 {
			maxLines = m.height - len(m.order) - 6
			if maxLines < 3 {
				maxLines = 3
			}
		}
		if len(tail) > maxLines {
			tail = tail[len(tail)-maxLines:]
		}
		for _, line := range tail {
			b.WriteString(styleLogLine.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString(styleFooter.Render("q: quit"))
	return b.String()
}

// runTUI drives the bubbletea program for ch until the job completes,
// the stream closes, or ctx is cancelled.
func runTUI(ctx context.Context, jobID string, ch <-chan events.Event) error {
	model := newTUIModel(jobID, ch)
	program := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan error, 1)
	go func() {
		_, err := program.Run()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		program.Kill()
		<-done
		return ctx.Err()
	}
}
