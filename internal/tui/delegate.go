package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// todoItem adapts model.Todo to bubbles/list.Item.
type todoItem struct {
	todo model.Todo
}

func (i todoItem) Title() string       { return i.todo.Description }
func (i todoItem) Description() string { return ui.Timestamps(i.todo) }
func (i todoItem) FilterValue() string { return i.todo.Description }

func toItems(todos []model.Todo) []list.Item {
	out := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		out = append(out, todoItem{todo: t})
	}
	return out
}

// itemDelegate renders one todo per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}
	line := ui.TodoLine(it.todo)
	if ts := ui.Timestamps(it.todo); ts != "" {
		line += "  " + ts
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.Current().Selected.Render(">") + " "
	}
	fmt.Fprint(w, prefix+line)
}
