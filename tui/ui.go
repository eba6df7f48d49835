package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hirevox/interview"
	"hirevox/monitor"
)

// alertTTL is how long a transient notice stays on screen.
const alertTTL = 5 * time.Second

type QuestionMsg struct {
	Index    int
	Total    int
	Question string
}

type InterimMsg struct {
	Text string
}

type AnswerMsg struct {
	Answer string
}

type AlertMsg struct {
	Level   string
	Message string
}

type FlagsMsg monitor.Flags

// DecisionMsg asks the candidate to retry, skip, or abort. The answer is
// delivered on Resp.
type DecisionMsg struct {
	Prompt string
	Resp   chan interview.Decision
}

// DoneMsg ends the program once the interview run has finished.
type DoneMsg struct {
	Err error
}

type alertExpiredMsg struct {
	id int
}

type alert struct {
	id      int
	level   string
	message string
}

type Model struct {
	viewport viewport.Model
	events   chan tea.Msg
	ready    bool

	question      string
	questionIndex int
	questionTotal int
	answers       []string
	interim       string

	alerts  []alert
	nextID  int
	flags   monitor.Flags
	pending *DecisionMsg

	finished bool
	runErr   error
}

func NewModel(events chan tea.Msg) Model {
	return Model{events: events}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func expireAlert(id int) tea.Cmd {
	return tea.Tick(alertTTL, func(time.Time) tea.Msg {
		return alertExpiredMsg{id: id}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.pending != nil {
			switch msg.String() {
			case "r":
				m.pending.Resp <- interview.Retry
				m.pending = nil
			case "s":
				m.pending.Resp <- interview.Skip
				m.pending = nil
			case "a":
				m.pending.Resp <- interview.Abort
				m.pending = nil
			}
			m.refresh()
			break
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		verticalMarginHeight := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMarginHeight)
			m.viewport.YPosition = headerHeight
			m.viewport.SetContent(m.ContentView())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMarginHeight
		}

	case QuestionMsg:
		m.question = msg.Question
		m.questionIndex = msg.Index
		m.questionTotal = msg.Total
		m.interim = ""
		m.refresh()
		cmds = append(cmds, waitForEvent(m.events))

	case InterimMsg:
		m.interim = msg.Text
		m.refresh()
		cmds = append(cmds, waitForEvent(m.events))

	case AnswerMsg:
		m.answers = append(m.answers, msg.Answer)
		m.interim = ""
		m.refresh()
		cmds = append(cmds, waitForEvent(m.events))

	case AlertMsg:
		a := alert{id: m.nextID, level: msg.Level, message: msg.Message}
		m.nextID++
		m.alerts = append(m.alerts, a)
		m.refresh()
		cmds = append(cmds, expireAlert(a.id), waitForEvent(m.events))

	case alertExpiredMsg:
		for i, a := range m.alerts {
			if a.id == msg.id {
				m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
				break
			}
		}
		m.refresh()

	case FlagsMsg:
		m.flags = monitor.Flags(msg)
		m.refresh()
		cmds = append(cmds, waitForEvent(m.events))

	case DecisionMsg:
		pending := msg
		m.pending = &pending
		m.refresh()
		cmds = append(cmds, waitForEvent(m.events))

	case DoneMsg:
		m.finished = true
		m.runErr = msg.Err
		m.refresh()
		cmds = append(cmds, waitForEvent(m.events))
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.ContentView())
		m.viewport.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	return fmt.Sprintf(
		"%s\n%s\n%s",
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
	)
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)
	interimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FD75F"))
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F")).
			Bold(true)
)

func (m Model) headerView() string {
	title := titleStyle.Render("Voice Interview")
	line := strings.Repeat(
		"─",
		max(0, m.viewport.Width-lipgloss.Width(title)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Center, title, line)
}

func (m Model) footerView() string {
	counters := fmt.Sprintf(
		"warnings %d/%d · malpractice %d/%d",
		m.flags.Warnings,
		m.flags.MaxWarnings,
		m.flags.MalpracticeCount,
		m.flags.MaxMalpractice,
	)
	info := titleStyle.Render(counters + " · q to quit")
	line := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(info)))
	return lipgloss.JoinHorizontal(lipgloss.Center, line, info)
}

// ContentView renders everything between header and footer.
func (m Model) ContentView() string {
	var b strings.Builder

	if m.question != "" {
		fmt.Fprintf(
			&b,
			"Question %d of %d:\n%s\n\n",
			m.questionIndex+1,
			m.questionTotal,
			m.question,
		)
	}

	for _, answer := range m.answers {
		b.WriteString(answer)
		b.WriteString("\n")
	}
	if m.interim != "" {
		b.WriteString(interimStyle.Render(m.interim))
		b.WriteString("\n")
	}

	for _, a := range m.alerts {
		style := successStyle
		if a.level == "error" {
			style = errorStyle
		}
		b.WriteString(style.Render(a.message))
		b.WriteString("\n")
	}

	if m.pending != nil {
		b.WriteString(promptStyle.Render(
			m.pending.Prompt + " (r)etry · (s)kip · (a)bort",
		))
		b.WriteString("\n")
	}

	if m.finished {
		if m.runErr != nil {
			b.WriteString(errorStyle.Render(
				fmt.Sprintf("Interview ended: %v", m.runErr),
			))
		} else {
			b.WriteString(successStyle.Render("Interview complete."))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
