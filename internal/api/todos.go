package api

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/idilsaglam/todo-client/internal/model"
)

// bulkDeleteLimit bounds concurrent DELETEs in ClearCompleted.
const bulkDeleteLimit = 4

func todoPath(id int) string { return fmt.Sprintf("/todos/%d", id) }

// ListTodos returns the user's todos, newest first.
func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var out []model.Todo
	if err := c.call(ctx, "list todos", http.MethodGet, "/todos", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Todo{}
	}
	return out, nil
}

func (c *Client) GetTodo(ctx context.Context, id int) (model.Todo, error) {
	var out model.Todo
	err := c.call(ctx, "get todo", http.MethodGet, todoPath(id), nil, &out)
	return out, err
}

func (c *Client) CreateTodo(ctx context.Context, in model.TodoInput) (model.Todo, error) {
	if err := in.Validate(); err != nil {
		return model.Todo{}, err
	}
	var out model.Todo
	err := c.call(ctx, "create todo", http.MethodPost, "/todos", in, &out)
	return out, err
}

// ReplaceTodo overwrites every field of the todo.
func (c *Client) ReplaceTodo(ctx context.Context, id int, in model.TodoInput) (model.Todo, error) {
	if err := in.Validate(); err != nil {
		return model.Todo{}, err
	}
	var out model.Todo
	err := c.call(ctx, "replace todo", http.MethodPut, todoPath(id), in, &out)
	return out, err
}

// UpdateTodo changes only the fields set in p.
func (c *Client) UpdateTodo(ctx context.Context, id int, p model.TodoPatch) (model.Todo, error) {
	if p.Empty() {
		return model.Todo{}, &model.ValidationError{Field: "patch", Msg: "nothing to update"}
	}
	if err := p.Validate(); err != nil {
		return model.Todo{}, err
	}
	var out model.Todo
	err := c.call(ctx, "update todo", http.MethodPatch, todoPath(id), p, &out)
	return out, err
}

func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	return c.call(ctx, "delete todo", http.MethodDelete, todoPath(id), nil, nil)
}

// ToggleDone flips the completion flag of t.
func (c *Client) ToggleDone(ctx context.Context, t model.Todo) (model.Todo, error) {
	done := !t.Done
	return c.UpdateTodo(ctx, t.ID, model.TodoPatch{Done: &done})
}

// SetReminder schedules a reminder at the given time, or clears it when at
// is nil. Clearing needs a full PUT because PATCH ignores nulls.
func (c *Client) SetReminder(ctx context.Context, t model.Todo, at *time.Time) (model.Todo, error) {
	if at != nil {
		return c.UpdateTodo(ctx, t.ID, model.TodoPatch{ReminderAt: model.At(at)})
	}
	in := t.Input()
	in.ReminderAt = nil
	return c.ReplaceTodo(ctx, t.ID, in)
}

// ClearCompleted deletes every done todo in todos and returns how many
// were deleted. The first failure is returned after all deletes finish.
func (c *Client) ClearCompleted(ctx context.Context, todos []model.Todo) (int, error) {
	var (
		g       errgroup.Group
		deleted atomic.Int64
	)
	g.SetLimit(bulkDeleteLimit)
	for _, t := range model.Completed(todos) {
		id := t.ID
		g.Go(func() error {
			if err := c.DeleteTodo(ctx, id); err != nil {
				return err
			}
			deleted.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(deleted.Load()), err
}
