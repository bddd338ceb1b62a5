package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo-client/internal/model"
	"github.com/idilsaglam/todo-client/internal/ui"
)

const (
	edTitle = iota
	edDescription
	edReminder
)

// reminderCharLimit fits an RFC 3339 time with nanoseconds and an offset.
const reminderCharLimit = 35

// todoEditor is the inline form used to create or edit a todo.
type todoEditor struct {
	inputs  [3]textinput.Model
	focus   int
	editing *model.Todo // nil when creating
	err     string
}

func newEditor(editing *model.Todo, loc *time.Location) todoEditor {
	e := todoEditor{editing: editing}
	for i := range e.inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = model.MaxTitleLen
		e.inputs[i] = ti
	}
	e.inputs[edTitle].Placeholder = "Title"
	e.inputs[edDescription].Placeholder = "Description (optional)"
	e.inputs[edDescription].CharLimit = 0
	e.inputs[edReminder].Placeholder = "Reminder: YYYY-MM-DDTHH:MM or +2h (optional)"
	e.inputs[edReminder].CharLimit = reminderCharLimit
	if editing != nil {
		e.inputs[edTitle].SetValue(editing.Title)
		e.inputs[edDescription].SetValue(editing.Description)
		e.inputs[edReminder].SetValue(model.FormatReminderInput(editing.ReminderAt, loc))
		e.inputs[edTitle].CursorEnd()
	}
	e.inputs[edTitle].Focus()
	return e
}

func (e *todoEditor) cycle(delta int) tea.Cmd {
	e.focus = (e.focus + delta + len(e.inputs)) % len(e.inputs)
	var cmd tea.Cmd
	for i := range e.inputs {
		if i == e.focus {
			cmd = e.inputs[i].Focus()
		} else {
			e.inputs[i].Blur()
		}
	}
	return cmd
}

// input builds the request body. Editing starts from the stored todo so
// done, priority, due date and tags survive the full replace.
func (e todoEditor) input(now time.Time) (model.TodoInput, error) {
	at, err := model.ParseReminder(e.inputs[edReminder].Value(), now)
	if err != nil {
		return model.TodoInput{}, err
	}
	var in model.TodoInput
	if e.editing != nil {
		in = e.editing.Input()
	}
	in.Title = strings.TrimSpace(e.inputs[edTitle].Value())
	in.Description = model.OptionalString(e.inputs[edDescription].Value())
	in.ReminderAt = model.At(at)
	if err := in.Validate(); err != nil {
		return model.TodoInput{}, err
	}
	return in, nil
}

func (e todoEditor) update(msg tea.Msg) (todoEditor, tea.Cmd) {
	var cmd tea.Cmd
	e.inputs[e.focus], cmd = e.inputs[e.focus].Update(msg)
	return e, cmd
}

func (e todoEditor) View() string {
	t := ui.Current()
	title := "Create New Todo"
	if e.editing != nil {
		title = "Edit Todo"
	}
	if e.err != "" {
		title += "  " + t.Error.Render(e.err)
	}
	lines := []string{t.Title.Render(title)}
	for _, in := range e.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, t.Help.Render("tab next field · enter save · esc cancel"))
	return ui.PanelString(strings.Join(lines, "\n"))
}
