// Package tui is the interactive terminal front end over a view.Engine.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harrisonrobin/evertask/pkg/model"
	"github.com/harrisonrobin/evertask/pkg/present"
	"github.com/harrisonrobin/evertask/pkg/store"
	"github.com/harrisonrobin/evertask/pkg/view"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// column widths, in view.Columns order
var widths = []int{4, 24, 17, 46, 9, 12}

// Messages carrying store results back to Update.
type (
	loadedMsg struct {
		tasks []model.Task
		err   error
	}
	updatedMsg struct {
		id   string
		task model.Task
		err  error
	}
	deletedMsg struct {
		id  string
		err error
	}
)

// Model is the bubbletea model. All engine access happens inside Update;
// store calls run on their own goroutines and report back as messages.
type Model struct {
	ctx     context.Context
	engine  *view.Engine
	store   store.TaskStore
	rows    []model.Task
	cursor  int
	pending map[string]bool
	confirm string
	status  string
	err     error
	width   int
}

// New builds the model for engine, whose task store is st.
func New(ctx context.Context, engine *view.Engine, st store.TaskStore) Model {
	m := Model{ctx: ctx, engine: engine, store: st, pending: make(map[string]bool)}
	m.project()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loadedMsg:
		if err := m.engine.ApplyLoad(msg.tasks, msg.err); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Loaded %d tasks", m.engine.Len())
		m.project()
		return m, nil

	case updatedMsg:
		delete(m.pending, msg.id)
		if err := m.engine.ApplyUpdate(msg.task, msg.err); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = "Saved " + msg.task.Title
		m.project()
		return m, nil

	case deletedMsg:
		delete(m.pending, msg.id)
		removed, err := m.engine.ApplyDelete(msg.id, msg.err)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = "Deleted " + removed.Title
		m.project()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirm != "" {
		id := m.confirm
		m.confirm = ""
		if key != "y" && key != "Y" {
			m.status = "Delete cancelled"
			return m, nil
		}
		return m, m.remove(id)
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case " ":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.pending[t.ID] {
			m.status = "Still saving " + t.Title
			return m, nil
		}
		return m, m.toggle(t.ID)
	case "d":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.pending[t.ID] {
			m.status = "Still saving " + t.Title
			return m, nil
		}
		m.confirm = t.ID
		m.status = fmt.Sprintf("Delete %q? (y/N)", t.Title)
	case "1", "2", "3", "4", "5", "6":
		m.engine.RequestSort(view.Columns[key[0]-'1'])
		m.project()
	case "f":
		m.engine.SetFilter(nextFilter(m.engine.Filter(), view.Categories(m.engine.Tasks())))
		m.cursor = 0
		m.project()
	case "r":
		m.status = "Reloading..."
		return m, m.load()
	}
	return m, nil
}

func (m *Model) project() {
	rows, err := m.engine.Projection()
	if err != nil {
		m.err = err
	}
	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return model.Task{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) load() tea.Cmd {
	st, owner := m.store, m.engine.Owner()
	f := view.Go(m.ctx, func(ctx context.Context) ([]model.Task, error) {
		return st.ListTasks(ctx, owner)
	})
	return func() tea.Msg {
		tasks, err := f.Result()
		return loadedMsg{tasks: tasks, err: err}
	}
}

func (m Model) toggle(id string) tea.Cmd {
	next, err := m.engine.BeginToggle(id)
	if err != nil {
		return func() tea.Msg { return updatedMsg{id: id, err: err} }
	}
	m.pending[id] = true
	st := m.store
	f := view.Go(m.ctx, func(ctx context.Context) (model.Task, error) {
		return st.UpdateTask(ctx, next)
	})
	return func() tea.Msg {
		t, err := f.Result()
		return updatedMsg{id: id, task: t, err: err}
	}
}

func (m Model) remove(id string) tea.Cmd {
	m.pending[id] = true
	st := m.store
	f := view.Go(m.ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, st.DeleteTask(ctx, id)
	})
	return func() tea.Msg {
		_, err := f.Result()
		return deletedMsg{id: id, err: err}
	}
}

// nextFilter cycles All followed by each category.
func nextFilter(current string, categories []string) string {
	options := append([]string{view.FilterAll}, categories...)
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)]
		}
	}
	return view.FilterAll
}

func (m Model) View() string {
	var b strings.Builder

	col, dir := m.engine.Sort()
	var header []string
	for i, c := range view.Columns {
		h := c.Header()
		if c == col {
			if dir == view.Ascending {
				h += " ▲"
			} else {
				h += " ▼"
			}
		}
		header = append(header, cell(h, widths[i]))
	}
	b.WriteString(headerStyle.Render(strings.Join(header, " ")))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(helpStyle.Render("  no tasks"))
		b.WriteString("\n")
	}
	for i, t := range m.rows {
		var cells []string
		for j, v := range present.Row(t) {
			cells = append(cells, cell(v, widths[j]))
		}
		line := strings.Join(cells, " ")
		switch {
		case i == m.cursor:
			line = selectedStyle.Render(line)
		case t.Completed:
			line = doneStyle.Render(line)
		}
		if m.pending[t.ID] {
			line += " …"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Filter: %s  Tasks: %d/%d\n", m.engine.Filter(), len(m.rows), m.engine.Len()))
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + present.Message(m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("space toggle • d delete • 1-6 sort • f filter • r reload • q quit"))
	return b.String()
}

func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(s)
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, engine *view.Engine, st store.TaskStore) error {
	p := tea.NewProgram(New(ctx, engine, st), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
