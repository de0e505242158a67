package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/todos"
)

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx is canceled.
func Run(ctx context.Context, svc *todos.Service, opts Options) error {
	m := New(ctx, svc, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
