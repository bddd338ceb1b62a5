package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/todo-client/internal/model"
	"github.com/idilsaglam/todo-client/internal/ui"
)

func parseID(cmd *cobra.Command, s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || id < 1 {
		return 0, usagef("%s: not a todo id: %s", cmd.Name(), s)
	}
	return id, nil
}

func newListCommand(e *env) *cobra.Command {
	var (
		filter, query, output string
		group                 bool
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos, newest first",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return usagef("ls: %v", err)
			}
			if err := checkFormat(output); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			todos, err := e.client.ListTodos(cmd.Context())
			if err != nil {
				return err
			}
			selected := model.Select(todos, f, query)
			if output != formatTable {
				if selected == nil {
					selected = []model.Todo{}
				}
				return encode(cmd.OutOrStdout(), output, selected)
			}
			listPanel(cmd.OutOrStdout(), selected, group, f, query)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&filter, "filter", "f", string(model.FilterAll), "all, active or completed")
	fs.StringVarP(&query, "search", "s", "", "only todos whose title or description contains this text")
	fs.BoolVarP(&group, "group", "g", false, "group output by pending/done")
	fs.StringVarP(&output, "output", "o", formatTable, "table, json or yaml")
	return cmd
}

func newShowCommand(e *env) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one todo",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			if err := checkFormat(output); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			todo, err := e.client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}
			if output != formatTable {
				return encode(cmd.OutOrStdout(), output, todo)
			}
			todoPanel(cmd.OutOrStdout(), todo)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "table, json or yaml")
	return cmd
}

// todoFlags registers the optional field flags shared by add and edit.
func todoFlags(cmd *cobra.Command, withTitle bool) {
	fs := cmd.Flags()
	if withTitle {
		fs.String("title", "", "new title")
	}
	fs.StringP("desc", "d", "", "description")
	fs.StringP("remind", "r", "", "reminder: YYYY-MM-DDTHH:MM, RFC3339 or +2h (empty clears)")
	fs.StringP("priority", "p", "", "priority, e.g. high")
	fs.String("due", "", "due date: YYYY-MM-DD")
	fs.StringP("tags", "t", "", "comma separated tags")
}

// applyFlags copies the flags the user set onto in and reports how many
// there were.
func applyFlags(cmd *cobra.Command, e *env, in *model.TodoInput) (int, error) {
	fs := cmd.Flags()
	changed := 0
	get := func(name string) (string, bool) {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			return "", false
		}
		changed++
		v, _ := fs.GetString(name)
		return v, true
	}
	if v, ok := get("title"); ok {
		in.Title = strings.TrimSpace(v)
	}
	if v, ok := get("desc"); ok {
		in.Description = model.OptionalString(v)
	}
	if v, ok := get("remind"); ok {
		at, err := model.ParseReminder(v, e.opt.Now())
		if err != nil {
			return changed, err
		}
		in.ReminderAt = model.At(at)
	}
	if v, ok := get("priority"); ok {
		in.Priority = model.OptionalString(v)
	}
	if v, ok := get("due"); ok {
		at, err := model.ParseReminder(v, e.opt.Now())
		if err != nil {
			return changed, &model.ValidationError{Field: "due", Msg: fmt.Sprintf("cannot parse %q (use YYYY-MM-DD)", v)}
		}
		in.DueDate = model.At(at)
	}
	if v, ok := get("tags"); ok {
		in.Tags = model.OptionalString(v)
	}
	return changed, nil
}

func newAddCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo (the title can be multiple words)",
		Example: `  todo add "Buy milk"
  todo add Call the dentist --remind +2h
  todo add Pay rent --due 2025-07-01 --priority high --tags home,bills`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.TodoInput{Title: strings.TrimSpace(strings.Join(args, " "))}
			if in.Title == "" {
				return usagef("add: empty title")
			}
			if _, err := applyFlags(cmd, e, &in); err != nil {
				return err
			}
			if err := in.Validate(); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			todo, err := e.client.CreateTodo(cmd.Context(), in)
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("added #%d %s", todo.ID, todo.Title))
			return nil
		},
	}
	todoFlags(cmd, false)
	return cmd
}

func newEditCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a todo; unset flags keep their value",
		Example: `  todo edit 3 --title "Buy oat milk"
  todo edit 3 --remind ""`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			var changes model.TodoInput
			n, err := applyFlags(cmd, e, &changes)
			if err != nil {
				return err
			}
			if n == 0 {
				return usagef("edit: nothing to change (use --title, --desc, --remind, --priority, --due or --tags)")
			}
			if err := e.requireSession(); err != nil {
				return err
			}

			current, err := e.client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}
			in := current.Input()
			if _, err := applyFlags(cmd, e, &in); err != nil {
				return err
			}
			if err := in.Validate(); err != nil {
				return err
			}
			todo, err := e.client.ReplaceTodo(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("saved #%d %s", todo.ID, todo.Title))
			return nil
		},
	}
	todoFlags(cmd, true)
	return cmd
}

func newDoneCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle done for a todo",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			current, err := e.client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}
			todo, err := e.client.ToggleDone(cmd.Context(), current)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("#%d marked not done", todo.ID)
			if todo.Done {
				msg = fmt.Sprintf("#%d marked done", todo.ID)
			}
			ui.OK(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newRemoveCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			if err := e.client.DeleteTodo(cmd.Context(), id); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("removed #%d", id))
			return nil
		},
	}
}

func newRemindCommand(e *env) *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "remind <id> [when]",
		Short: "Set or clear the reminder of a todo",
		Example: `  todo remind 3 2025-06-02T09:15
  todo remind 3 +90m
  todo remind 3 --clear`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			when := strings.Join(args[1:], " ")
			if unset == (when != "") {
				return usagef("remind: give either a time or --clear")
			}
			at, err := model.ParseReminder(when, e.opt.Now())
			if err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			current, err := e.client.GetTodo(cmd.Context(), id)
			if err != nil {
				return err
			}
			todo, err := e.client.SetReminder(cmd.Context(), current, at)
			if err != nil {
				return err
			}
			if !todo.HasReminder() {
				ui.OK(cmd.OutOrStdout(), fmt.Sprintf("#%d reminder cleared", todo.ID))
				return nil
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("#%d reminder set for %s", todo.ID, model.FormatReminder(todo.ReminderAt, e.opt.Now().Location())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unset, "clear", false, "remove the reminder")
	return cmd
}

func newClearCompletedCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed todo",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireSession(); err != nil {
				return err
			}
			todos, err := e.client.ListTodos(cmd.Context())
			if err != nil {
				return err
			}
			n, err := e.client.ClearCompleted(cmd.Context(), todos)
			if err != nil {
				return fmt.Errorf("cleared %d before failing: %w", n, err)
			}
			if n == 0 {
				ui.Hint(cmd.OutOrStdout(), "nothing to clear")
				return nil
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("cleared %d completed", n))
			return nil
		},
	}
}
