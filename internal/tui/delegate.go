package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo-client/internal/model"
	"github.com/idilsaglam/todo-client/internal/ui"
)

// listItem adapts a Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return i.todo.Description }
func (i listItem) FilterValue() string { return i.todo.Title + " " + i.todo.Description }

// Two lines per todo: checkbox + title, then details.
type itemDelegate struct {
	loc *time.Location
}

func (d itemDelegate) Height() int                               { return 2 }
func (d itemDelegate) Spacing() int                              { return 1 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()
	todo := it.todo

	box := t.Muted.Render(t.Box(false))
	title := todo.Title
	if todo.Done {
		box = t.Success.Render(t.Box(true))
		title = t.Done.Render(title)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s %s\n", prefix, box, title, t.Muted.Render(fmt.Sprintf("#%d", todo.ID)))
	fmt.Fprint(w, "    "+detailLine(todo, d.loc))
}

func detailLine(todo model.Todo, loc *time.Location) string {
	t := ui.Current()
	var parts []string
	if todo.Description != "" {
		desc := ui.Truncate(todo.Description, 60)
		if todo.Done {
			desc = t.Done.Render(desc)
		}
		parts = append(parts, t.Muted.Render(desc))
	}
	if todo.HasReminder() {
		parts = append(parts, t.Reminder.Render(t.SymReminder+" "+model.FormatReminder(todo.ReminderAt, loc)))
	}
	if todo.Priority != "" {
		parts = append(parts, t.Pending.Render("!"+todo.Priority))
	}
	if todo.DueDate != nil && !todo.DueDate.IsZero() {
		parts = append(parts, t.Accent.Render("due "+todo.DueDate.In(loc).Format("2006-01-02")))
	}
	for _, tag := range todo.TagList() {
		parts = append(parts, t.Accent.Render("#"+tag))
	}
	return strings.Join(parts, "  ")
}
