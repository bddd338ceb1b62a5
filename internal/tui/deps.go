package tui

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/todo-client/internal/api"
	"github.com/idilsaglam/todo-client/internal/logging"
	"github.com/idilsaglam/todo-client/internal/model"
)

// Service is the slice of the API the TUI drives. *api.Client implements it.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, creds model.Credentials) (*api.SignupResult, error)
	ListTodos(ctx context.Context) ([]model.Todo, error)
	CreateTodo(ctx context.Context, in model.TodoInput) (model.Todo, error)
	ReplaceTodo(ctx context.Context, id int, in model.TodoInput) (model.Todo, error)
	ToggleDone(ctx context.Context, t model.Todo) (model.Todo, error)
	SetReminder(ctx context.Context, t model.Todo, at *time.Time) (model.Todo, error)
	DeleteTodo(ctx context.Context, id int) error
	ClearCompleted(ctx context.Context, todos []model.Todo) (int, error)
}

// Session is the auth context. *session.Store implements it.
type Session interface {
	Authenticated() bool
	Save(token string) error
	Clear() error
}

type Deps struct {
	Service Service
	Session Session
	Log     logrus.FieldLogger
	// Now is the clock used for relative reminders; time.Now when nil.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
