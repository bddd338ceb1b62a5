package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo-client/internal/api"
	"github.com/idilsaglam/todo-client/internal/model"
	"github.com/idilsaglam/todo-client/internal/ui"
)

type listMode int

const (
	modeBrowse listMode = iota
	modeSearch
	modeEdit
	modeReminder
)

// todoList is the main screen: every todo of the user with filter, search,
// inline editing and reminders.
type todoList struct {
	ctx  context.Context
	deps Deps
	keys listKeys
	loc  *time.Location

	list   list.Model
	todos  []model.Todo
	filter model.Filter
	query  string

	mode     listMode
	search   textinput.Model
	editor   todoEditor
	reminder textinput.Model
	target   model.Todo // todo the reminder input applies to

	loading bool
	status  string
	err     string

	width, height int
}

func newTodoList(ctx context.Context, deps Deps) todoList {
	loc := time.Local
	l := list.New(nil, itemDelegate{loc: loc}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	l.SetShowHelp(true)
	l.DisableQuitKeybindings()
	l.Styles.HelpStyle = ui.Current().Help
	l.Styles.PaginationStyle = ui.Current().Help

	keys := defaultListKeys
	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.full

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search..."

	reminder := textinput.New()
	reminder.Prompt = "> "
	reminder.Placeholder = "YYYY-MM-DDTHH:MM or +2h, empty clears"

	return todoList{
		ctx:      ctx,
		deps:     deps,
		keys:     keys,
		loc:      loc,
		list:     l,
		filter:   model.FilterAll,
		search:   search,
		reminder: reminder,
		loading:  true,
	}
}

func (m todoList) Init() tea.Cmd { return fetchTodos(m.ctx, m.deps) }

// visible returns the todos passing the current filter and search.
func (m todoList) visible() []model.Todo {
	return model.Select(m.todos, m.filter, m.query)
}

func (m *todoList) refresh() tea.Cmd {
	todos := m.visible()
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		items = append(items, listItem{todo: t})
	}
	return m.list.SetItems(items)
}

func (m todoList) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

func (m *todoList) setSize(w, h int) {
	m.width, m.height = w, h
	m.layout()
}

func (m *todoList) layout() {
	reserved := 7 // panel border, header, progress, status
	switch m.mode {
	case modeEdit:
		reserved += 7
	case modeSearch, modeReminder:
		reserved += 2
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

func (m *todoList) enter(mode listMode) {
	m.mode = mode
	m.layout()
}

func (m *todoList) mutate(op, ok string, fn func(context.Context) error) tea.Cmd {
	m.loading = true
	m.err = ""
	return run(m.ctx, m.deps, op, ok, fn)
}

func (m todoList) Update(msg tea.Msg) (todoList, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil
	case todosLoadedMsg:
		m.loading = false
		m.todos = msg.todos
		return m, m.refresh()
	case mutatedMsg:
		m.status = msg.status
		return m, fetchTodos(m.ctx, m.deps)
	case opFailedMsg:
		m.loading = false
		m.status = ""
		m.err = fmt.Sprintf("%s: %s", msg.op, api.Message(msg.err))
		return m, nil
	}

	switch m.mode {
	case modeSearch:
		return m.updateSearch(msg)
	case modeEdit:
		return m.updateEditor(msg)
	case modeReminder:
		return m.updateReminder(msg)
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		if cmd, handled := m.handleKey(k); handled {
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKey runs browse-mode shortcuts. It works on a pointer so the
// caller's copy sees mode changes.
func (m *todoList) handleKey(k tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(k, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(k, m.keys.Add):
		m.editor = newEditor(nil, m.loc)
		m.enter(modeEdit)
		return textinput.Blink, true

	case key.Matches(k, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		m.editor = newEditor(&t, m.loc)
		m.enter(modeEdit)
		return textinput.Blink, true

	case key.Matches(k, m.keys.Toggle):
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		status := "marked done"
		if t.Done {
			status = "marked not done"
		}
		return m.mutate("update", status, func(ctx context.Context) error {
			_, err := m.deps.Service.ToggleDone(ctx, t)
			return err
		}), true

	case key.Matches(k, m.keys.Delete):
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		return m.mutate("delete", "deleted", func(ctx context.Context) error {
			return m.deps.Service.DeleteTodo(ctx, t.ID)
		}), true

	case key.Matches(k, m.keys.Remind):
		t, ok := m.selected()
		if !ok {
			return nil, true
		}
		m.target = t
		m.reminder.SetValue(model.FormatReminderInput(t.ReminderAt, m.loc))
		m.reminder.CursorEnd()
		m.enter(modeReminder)
		return m.reminder.Focus(), true

	case key.Matches(k, m.keys.ClearRemind):
		t, ok := m.selected()
		if !ok || !t.HasReminder() {
			return nil, true
		}
		return m.mutate("reminder", "reminder cleared", func(ctx context.Context) error {
			_, err := m.deps.Service.SetReminder(ctx, t, nil)
			return err
		}), true

	case key.Matches(k, m.keys.Filter):
		m.filter = m.filter.Next()
		return m.refresh(), true

	case key.Matches(k, m.keys.Search):
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		m.enter(modeSearch)
		return m.search.Focus(), true

	case key.Matches(k, m.keys.ClearDone):
		todos := m.todos
		if len(model.Completed(todos)) == 0 {
			m.status = "nothing to clear"
			return nil, true
		}
		return m.mutate("clear completed", "cleared completed", func(ctx context.Context) error {
			_, err := m.deps.Service.ClearCompleted(ctx, todos)
			return err
		}), true

	case key.Matches(k, m.keys.Reload):
		m.loading = true
		return fetchTodos(m.ctx, m.deps), true

	case key.Matches(k, m.keys.Logout):
		if err := m.deps.Session.Clear(); err != nil {
			m.err = "logout: " + err.Error()
			return nil, true
		}
		m.deps.Log.Info("logged out")
		return func() tea.Msg { return loggedOutMsg{} }, true
	}
	return nil, false
}

// Search filters as you type; enter keeps the query, esc drops it.
func (m todoList) updateSearch(msg tea.Msg) (todoList, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			m.search.Blur()
			m.enter(modeBrowse)
			return m, nil
		case "esc":
			m.query = ""
			m.search.SetValue("")
			m.search.Blur()
			m.enter(modeBrowse)
			return m, m.refresh()
		}
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, m.refresh())
	}
	return m, cmd
}

func (m todoList) updateEditor(msg tea.Msg) (todoList, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.enter(modeBrowse)
			return m, nil
		case "tab", "down":
			return m, m.editor.cycle(1)
		case "shift+tab", "up":
			return m, m.editor.cycle(-1)
		case "enter":
			in, err := m.editor.input(m.deps.Now())
			if err != nil {
				m.editor.err = err.Error()
				return m, nil
			}
			editing := m.editor.editing
			m.enter(modeBrowse)
			if editing == nil {
				return m, m.mutate("create", "added", func(ctx context.Context) error {
					_, err := m.deps.Service.CreateTodo(ctx, in)
					return err
				})
			}
			id := editing.ID
			return m, m.mutate("save", "saved", func(ctx context.Context) error {
				_, err := m.deps.Service.ReplaceTodo(ctx, id, in)
				return err
			})
		}
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.update(msg)
	return m, cmd
}

func (m todoList) updateReminder(msg tea.Msg) (todoList, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.reminder.Blur()
			m.enter(modeBrowse)
			return m, nil
		case "enter":
			at, err := model.ParseReminder(m.reminder.Value(), m.deps.Now())
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.reminder.Blur()
			m.enter(modeBrowse)
			t := m.target
			if at == nil && !t.HasReminder() {
				return m, nil
			}
			status := "reminder set"
			if at == nil {
				status = "reminder cleared"
			}
			return m, m.mutate("reminder", status, func(ctx context.Context) error {
				_, err := m.deps.Service.SetReminder(ctx, t, at)
				return err
			})
		}
	}
	var cmd tea.Cmd
	m.reminder, cmd = m.reminder.Update(msg)
	return m, cmd
}

func (m todoList) header() string {
	t := ui.Current()
	done, pending := model.Counts(m.todos)
	head := fmt.Sprintf("%s   %s %d  %s %d  %s %d   %s",
		t.Title.Render("My Todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), pending,
		t.Accent.Render("Total"), len(m.todos),
		t.Muted.Render("filter: "+string(m.filter)),
	)
	if m.query != "" && m.mode != modeSearch {
		head += t.Muted.Render(fmt.Sprintf("  search: %q", m.query))
	}
	return head + "\n" + t.Muted.Render(ui.ProgressBar(done, done+pending, 28))
}

func (m todoList) statusLine() string {
	t := ui.Current()
	switch {
	case m.err != "":
		return t.Error.Render(t.SymFail + " " + m.err)
	case m.loading:
		return t.Muted.Render("loading…")
	case m.status != "":
		return t.Success.Render(t.SymOK + " " + m.status)
	}
	return ""
}

func (m todoList) View() string {
	t := ui.Current()
	parts := []string{m.header()}
	switch m.mode {
	case modeSearch:
		parts = append(parts, m.search.View())
	case modeReminder:
		parts = append(parts, t.Reminder.Render("Reminder for "+m.target.Title), m.reminder.View())
	}
	if len(m.list.Items()) == 0 && !m.loading {
		empty := "No todos yet. Press a to add one."
		if len(m.todos) > 0 {
			empty = "Nothing matches the current filter."
		}
		parts = append(parts, "", t.Muted.Render(empty), "")
	} else {
		parts = append(parts, m.list.View())
	}
	if m.mode == modeEdit {
		parts = append(parts, m.editor.View())
	}
	parts = append(parts, m.statusLine())
	return ui.PanelString(strings.Join(parts, "\n"))
}
