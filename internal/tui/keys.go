package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle  key.Binding
	Delete  key.Binding
	Add     key.Binding
	Refresh key.Binding
	Next    key.Binding
	Prev    key.Binding
	All     key.Binding
	Pending key.Binding
	Done    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next filter")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab")),
		All:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		Pending: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
		Done:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) short() []key.Binding {
	return []key.Binding{k.Toggle, k.Delete, k.Add, k.Refresh, k.Next}
}

func (k keyMap) full() []key.Binding {
	return []key.Binding{k.Toggle, k.Delete, k.Add, k.Refresh, k.Next, k.All, k.Pending, k.Done}
}
