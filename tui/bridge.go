package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"hirevox/interview"
)

// Bridge adapts the orchestrator's Confirmer and Notifier ports onto the
// UI event channel. Decide blocks the interview goroutine until the
// candidate picks an option, which is exactly the interaction the
// retry-or-skip gate wants.
type Bridge struct {
	Events chan<- tea.Msg
}

func (b *Bridge) Notify(level, message string) {
	b.Events <- AlertMsg{Level: level, Message: message}
}

func (b *Bridge) Decide(question, reason string) interview.Decision {
	resp := make(chan interview.Decision)
	b.Events <- DecisionMsg{Prompt: reason, Resp: resp}
	return <-resp
}
