package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/todo-client/internal/model"
	"github.com/idilsaglam/todo-client/internal/ui"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return usagef("unknown output format %q (want table, json or yaml)", format)
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// listPanel draws the header, progress bar and todos in a themed panel.
func listPanel(w io.Writer, todos []model.Todo, group bool, filter model.Filter, query string) {
	t := ui.Current()
	d, p := model.Counts(todos)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(todos),
	)
	if filter != model.FilterAll {
		header += "  " + t.Muted.Render("filter: "+string(filter))
	}
	if query != "" {
		header += "  " + t.Muted.Render(fmt.Sprintf("search: %q", query))
	}

	lines := []string{header, t.Muted.Render(ui.ProgressBar(d, d+p, 28)), ""}
	if group {
		lines = append(lines, groupLines(todos)...)
	} else {
		lines = append(lines, flatLines(todos)...)
	}
	lines = append(lines, "", t.Muted.Render("Tip: add with `todo add \"Buy milk\"`, toggle with `todo done <id>`"))
	ui.Panel(w, lines)
}

func flatLines(todos []model.Todo) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{t.Muted.Render("no todos")}
	}
	out := make([]string, 0, len(todos))
	for _, todo := range todos {
		id := fmt.Sprintf("%4s", fmt.Sprintf("#%d", todo.ID))
		box := t.Muted.Render(t.Box(false))
		title := ui.Truncate(todo.Title, 80)
		if todo.Done {
			box = t.Success.Render(t.Box(true))
			title = t.Done.Render(title)
		}
		line := fmt.Sprintf("%s %s %s", t.Muted.Render(id), box, title)
		if todo.HasReminder() {
			line += "  " + t.Reminder.Render(t.SymReminder+" "+model.FormatReminder(todo.ReminderAt, time.Local))
		}
		out = append(out, line)
	}
	return out
}

func groupLines(todos []model.Todo) []string {
	pending := model.Select(todos, model.FilterActive, "")
	done := model.Select(todos, model.FilterCompleted, "")
	t := ui.Current()

	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pending) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(pending)...)
	}
	lines = append(lines, "", t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}

// todoPanel shows every field of one todo.
func todoPanel(w io.Writer, todo model.Todo) {
	t := ui.Current()
	status := t.Pending.Render("pending")
	if todo.Done {
		status = t.Success.Render("done")
	}
	row := func(label, value string) string {
		return fmt.Sprintf("%-12s %s", t.Muted.Render(label), value)
	}
	lines := []string{
		t.Title.Render(fmt.Sprintf("#%d %s", todo.ID, todo.Title)),
		"",
		row("status", status),
	}
	if todo.Description != "" {
		lines = append(lines, row("description", todo.Description))
	}
	if todo.HasReminder() {
		lines = append(lines, row("reminder", t.Reminder.Render(model.FormatReminder(todo.ReminderAt, time.Local))))
	}
	if todo.Priority != "" {
		lines = append(lines, row("priority", todo.Priority))
	}
	if todo.DueDate != nil && !todo.DueDate.IsZero() {
		lines = append(lines, row("due", todo.DueDate.In(time.Local).Format("2006-01-02")))
	}
	if tags := todo.TagList(); len(tags) > 0 {
		lines = append(lines, row("tags", strings.Join(tags, ", ")))
	}
	if !todo.CreatedAt.IsZero() {
		lines = append(lines, row("created", todo.CreatedAt.In(time.Local).Format(time.DateTime)))
	}
	if !todo.UpdatedAt.IsZero() {
		lines = append(lines, row("updated", todo.UpdatedAt.In(time.Local).Format(time.DateTime)))
	}
	ui.Panel(w, lines)
}
