package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo-client/internal/logging"
)

type screen int

const (
	screenAuth screen = iota
	screenList
)

// App routes between the login form and the todo list: a valid session
// shows the list, anything else (including a 401 mid-session) shows the
// form.
type App struct {
	ctx  context.Context
	deps Deps

	screen screen
	auth   authForm
	list   todoList

	width, height int
}

func NewApp(ctx context.Context, deps Deps) App {
	if deps.Log == nil {
		deps.Log = logging.FromContext(ctx)
	}
	deps = deps.withDefaults()
	a := App{ctx: ctx, deps: deps}
	if deps.Session.Authenticated() {
		a.screen = screenList
		a.list = newTodoList(ctx, deps)
	} else {
		a.screen = screenAuth
		a.auth = newAuthForm(ctx, deps, "")
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.screen == screenList {
		return a.list.Init()
	}
	return a.auth.Init()
}

func (a App) toAuth(notice string) (App, tea.Cmd) {
	a.screen = screenAuth
	a.auth = newAuthForm(a.ctx, a.deps, notice)
	return a, a.auth.Init()
}

func (a App) toList() (App, tea.Cmd) {
	a.screen = screenList
	a.list = newTodoList(a.ctx, a.deps)
	a.list.setSize(a.width, a.height)
	return a, a.list.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
	case loggedInMsg:
		return a.toList()
	case loggedOutMsg:
		return a.toAuth("")
	case unauthorizedMsg:
		return a.toAuth("Your session has expired. Please log in again.")
	}

	var cmd tea.Cmd
	if a.screen == screenList {
		a.list, cmd = a.list.Update(msg)
	} else {
		a.auth, cmd = a.auth.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	if a.screen == screenList {
		return a.list.View()
	}
	return a.auth.View()
}

// Run starts the interactive client and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(NewApp(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
