package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up                  key.Binding
	Down                key.Binding
	Select              key.Binding
	Refresh             key.Binding
	GenerateTasks       key.Binding
	ApproveTasks        key.Binding
	GenerateDeliverable key.Binding
	ApproveDeliverable  key.Binding
	Preview             key.Binding
	Dismiss             key.Binding
	Yes                 key.Binding
	No                  key.Binding
	Help                key.Binding
	Quit                key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:                  key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:                key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:              key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select meeting")),
		Refresh:             key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		GenerateTasks:       key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate tasks")),
		ApproveTasks:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve tasks")),
		GenerateDeliverable: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "generate deliverables")),
		ApproveDeliverable:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "approve deliverables")),
		Preview:             key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next spec sheet")),
		Dismiss:             key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Yes:                 key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:                  key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
		Help:                key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:                key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Refresh, k.GenerateTasks, k.Preview, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Refresh},
		{k.GenerateTasks, k.ApproveTasks, k.GenerateDeliverable, k.ApproveDeliverable},
		{k.Preview, k.Dismiss, k.Help, k.Quit},
	}
}
