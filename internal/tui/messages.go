package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo-client/internal/api"
	"github.com/idilsaglam/todo-client/internal/model"
)

type (
	loggedInMsg   struct{}
	loggedOutMsg  struct{}
	signedUpMsg   struct{ detail string }
	authFailedMsg struct{ err error }

	// unauthorizedMsg sends the user back to the login form. The API
	// client has already cleared the token.
	unauthorizedMsg struct{}

	todosLoadedMsg struct{ todos []model.Todo }
	mutatedMsg     struct{ status string }
	opFailedMsg    struct {
		op  string
		err error
	}
)

// run performs a list operation off the UI loop, mapping the outcome to a
// message. ok is the status shown on success.
func run(ctx context.Context, deps Deps, op, ok string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			deps.Log.WithError(err).WithField("op", op).Error("operation failed")
			if errors.Is(err, api.ErrUnauthorized) {
				return unauthorizedMsg{}
			}
			return opFailedMsg{op: op, err: err}
		}
		return mutatedMsg{status: ok}
	}
}

func fetchTodos(ctx context.Context, deps Deps) tea.Cmd {
	return func() tea.Msg {
		todos, err := deps.Service.ListTodos(ctx)
		if err != nil {
			deps.Log.WithError(err).Error("fetch todos")
			if errors.Is(err, api.ErrUnauthorized) {
				return unauthorizedMsg{}
			}
			return opFailedMsg{op: "load", err: err}
		}
		return todosLoadedMsg{todos: todos}
	}
}
