// Package tui is the interactive todo view: filter tabs, a list and inline
// add, all driven through the cached todos service.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options configures a Model.
type Options struct {
	Status         model.Status
	ResyncInterval time.Duration // 0 disables periodic count resync
	Logger         *log.Logger
}

// Messages produced by commands and fed back into Update.
type (
	loadedMsg struct {
		Status model.Status
		List   model.TodoList
		Count  int
		Err    error
	}
	mutatedMsg struct {
		Op   todos.Op
		Todo model.Todo
		Err  error
	}
	resyncTickMsg struct{}
	resyncedMsg   struct {
		Counts map[model.Status]int
		Err    error
	}
)

// Model is the bubbletea model of the todo view.
type Model struct {
	ctx    context.Context
	svc    *todos.Service
	logger *log.Logger
	keys   keyMap

	status model.Status
	list   list.Model
	count  int

	// Inline add
	adding bool
	input  textinput.Model
	addErr string

	// Pending delete, waiting for y/n
	confirm *model.Todo

	spinner  spinner.Model
	loading  int
	resync   time.Duration
	err      error
	notice   string
	width    int
	height   int
	quitting bool
}

// New builds a Model. ctx bounds every request the view issues.
func New(ctx context.Context, svc *todos.Service, opts Options) Model {
	if opts.Logger == nil {
		// stderr would draw over the alt screen
		opts.Logger = logging.Discard()
	}
	if opts.Status == "" {
		opts.Status = model.StatusAll
	}
	keys := defaultKeys()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.HelpStyle = ui.Current().Muted
	l.Styles.PaginationStyle = ui.Current().Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.KeyMap.Quit.SetEnabled(false)
	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.full

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.Current().Accent

	m := Model{
		ctx:     ctx,
		svc:     svc,
		logger:  opts.Logger,
		keys:    keys,
		status:  opts.Status,
		list:    l,
		input:   ti,
		spinner: sp,
		resync:  opts.ResyncInterval,
		loading: 1, // Init loads the active filter
		width:   80,
		height:  24,
	}
	m.resize()
	return m
}

// Status returns the active filter.
func (m Model) Status() model.Status { return m.status }

// Todos returns the todos currently shown.
func (m Model) Todos() []model.Todo {
	items := m.list.Items()
	out := make([]model.Todo, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(todoItem); ok {
			out = append(out, ti.todo)
		}
	}
	return out
}

// Err returns the last error shown in the status line.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.load(m.status), m.spinner.Tick}
	if m.resync > 0 {
		cmds = append(cmds, m.scheduleResync())
	}
	return tea.Batch(cmds...)
}

func (m Model) load(status model.Status) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		l, err := svc.List(ctx, status)
		if err != nil {
			return loadedMsg{Status: status, Err: err}
		}
		n, err := svc.Count(ctx, status)
		return loadedMsg{Status: status, List: l, Count: n, Err: err}
	}
}

func (m Model) mutate(op todos.Op, fn func(ctx context.Context) (model.Todo, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		t, err := fn(ctx)
		return mutatedMsg{Op: op, Todo: t, Err: err}
	}
}

func (m Model) scheduleResync() tea.Cmd {
	return tea.Tick(m.resync, func(time.Time) tea.Msg { return resyncTickMsg{} })
}

func (m Model) runResync() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		counts, err := svc.Resync(ctx)
		return resyncedMsg{Counts: counts, Err: err}
	}
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

// startLoad bumps the loading counter and restarts the spinner.
func (m *Model) startLoad(cmds ...tea.Cmd) tea.Cmd {
	m.loading++
	if m.loading == 1 {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) doneLoad() {
	if m.loading > 0 {
		m.loading--
	}
}

func (m *Model) setStatus(s model.Status) tea.Cmd {
	if s == m.status {
		return nil
	}
	m.status = s
	m.confirm = nil
	m.list.ResetFilter()
	m.list.Select(0)
	return m.startLoad(m.load(s))
}

func (m *Model) fail(err error) {
	m.err = err
	m.notice = ""
	m.logger.Error("request failed", "err", err)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case loadedMsg:
		m.doneLoad()
		if msg.Status != m.status {
			return m, nil
		}
		if msg.Err != nil {
			m.fail(msg.Err)
			return m, nil
		}
		m.err = nil
		m.count = msg.Count
		cmd := m.list.SetItems(toItems(msg.List.Items))
		return m, cmd

	case mutatedMsg:
		m.doneLoad()
		if msg.Err != nil {
			m.fail(msg.Err)
			return m, nil
		}
		m.err = nil
		m.notice = noticeFor(msg.Op, msg.Todo)
		// Patched entries are fresh, so this reads straight from the cache.
		return m, m.startLoad(m.load(m.status))

	case resyncTickMsg:
		return m, tea.Batch(m.runResync(), m.scheduleResync())

	case resyncedMsg:
		if msg.Err != nil {
			m.fail(msg.Err)
			return m, nil
		}
		if n, ok := msg.Counts[m.status]; ok {
			m.count = n
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case msg.String() == "esc" && m.list.FilterState() == list.Unfiltered:
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.All):
		return m, m.setStatus(model.StatusAll)
	case key.Matches(msg, m.keys.Pending):
		return m, m.setStatus(model.StatusPending)
	case key.Matches(msg, m.keys.Done):
		return m, m.setStatus(model.StatusDone)
	case key.Matches(msg, m.keys.Next):
		return m, m.setStatus(cycle(m.status, 1))
	case key.Matches(msg, m.keys.Prev):
		return m, m.setStatus(cycle(m.status, -1))
	case key.Matches(msg, m.keys.Refresh):
		n := m.svc.Refresh()
		m.logger.Debug("refresh", "invalidated", n)
		m.notice = ""
		return m, m.startLoad(m.load(m.status))
	case key.Matches(msg, m.keys.Toggle):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		svc, active := m.svc, m.status
		op := todos.OpMarkDone
		if t.Done {
			op = todos.OpMarkUndone
		}
		return m, m.startLoad(m.mutate(op, func(ctx context.Context) (model.Todo, error) {
			return svc.Toggle(ctx, active, t)
		}))
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.confirm = &t
		}
		return m, nil
	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.addErr = ""
		m.input.SetValue("")
		m.resize()
		return m, m.input.Focus()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		t := *m.confirm
		m.confirm = nil
		svc, active := m.svc, m.status
		return m, m.startLoad(m.mutate(todos.OpRemove, func(ctx context.Context) (model.Todo, error) {
			return t, svc.Remove(ctx, active, t.ID)
		}))
	case "n", "esc":
		m.confirm = nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		desc := strings.TrimSpace(m.input.Value())
		if len([]rune(desc)) < todos.MinDescriptionLength {
			m.addErr = todos.ErrDescriptionTooShort.Error()
			return m, nil
		}
		m.adding = false
		m.addErr = ""
		m.input.SetValue("")
		m.input.Blur()
		m.resize()
		svc := m.svc
		return m, m.startLoad(m.mutate(todos.OpCreate, func(ctx context.Context) (model.Todo, error) {
			return svc.Create(ctx, desc)
		}))
	case "esc":
		m.adding = false
		m.addErr = ""
		m.input.SetValue("")
		m.input.Blur()
		m.resize()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	reserved := 6 // header, tabs, footer, status line, border
	if m.adding {
		reserved += 4
	}
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.list.SetSize(w, h)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	t := ui.Current()

	header := t.Title.Render("Todos") + "  " + ui.Tabs(m.status)
	if m.loading > 0 {
		header += "  " + m.spinner.View()
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString(m.list.View())

	if m.adding {
		title := "Add new todo"
		if m.addErr != "" {
			title += ": " + t.Error.Render(m.addErr)
		}
		bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		b.WriteString("\n" + bar.Render(title+"\n"+m.input.View()))
	}

	b.WriteString("\n" + ui.CountFooter(m.count))
	switch {
	case m.confirm != nil:
		b.WriteString("\n" + t.Pending.Render(fmt.Sprintf("Delete %q? (y/n)", m.confirm.Description)))
	case m.err != nil:
		b.WriteString("\n" + t.Error.Render(t.SymCross+" "+errorText(m.err)))
	case m.notice != "":
		b.WriteString("\n" + t.Success.Render(t.SymDone+" "+m.notice))
	}

	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Render(b.String())
}

func cycle(s model.Status, step int) model.Status {
	n := len(model.Statuses)
	for i, st := range model.Statuses {
		if st == s {
			return model.Statuses[((i+step)%n+n)%n]
		}
	}
	return model.StatusAll
}

func noticeFor(op todos.Op, t model.Todo) string {
	switch op {
	case todos.OpCreate:
		return "added " + t.Description
	case todos.OpMarkDone:
		return "completed " + t.Description
	case todos.OpMarkUndone:
		return "reopened " + t.Description
	case todos.OpRemove:
		return "removed " + t.Description
	}
	return op.String()
}

func errorText(err error) string {
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return err.Error()
}
