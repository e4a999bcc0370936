package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

type promptRequest struct {
	prompt string
	reply  chan bool
}

type promptMsg promptRequest

// Prompter answers workflow confirmations through the dashboard modal. It
// satisfies selection.Confirmer.
type Prompter struct {
	requests chan promptRequest
}

// NewPrompter returns a Prompter with no pending request.
func NewPrompter() *Prompter {
	return &Prompter{requests: make(chan promptRequest)}
}

// Confirm blocks until the user answers the modal or ctx ends.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	req := promptRequest{prompt: prompt, reply: make(chan bool, 1)}
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (p *Prompter) wait() tea.Cmd {
	return func() tea.Msg {
		return promptMsg(<-p.requests)
	}
}
