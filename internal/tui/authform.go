package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/todo-client/internal/api"
	"github.com/idilsaglam/todo-client/internal/model"
	"github.com/idilsaglam/todo-client/internal/ui"
)

const (
	fieldName = iota
	fieldEmail
	fieldPassword
)

// authForm is the login/signup screen.
type authForm struct {
	ctx  context.Context
	deps Deps

	signup  bool
	inputs  [3]textinput.Model
	focus   int
	loading bool
	err     string
	notice  string
}

func newAuthForm(ctx context.Context, deps Deps, notice string) authForm {
	f := authForm{ctx: ctx, deps: deps, notice: notice}
	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 255
		ti.Prompt = "  "
		f.inputs[i] = ti
	}
	f.inputs[fieldName].Placeholder = "Name"
	f.inputs[fieldEmail].Placeholder = "you@example.com"
	f.inputs[fieldPassword].Placeholder = "Password"
	f.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	f.inputs[fieldPassword].EchoCharacter = '•'
	f.focus = fieldEmail
	f.inputs[fieldEmail].Focus()
	return f
}

func (f authForm) Init() tea.Cmd { return textinput.Blink }

// fields lists the visible inputs; name only shows when signing up.
func (f authForm) fields() []int {
	if f.signup {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

func (f *authForm) setFocus(field int) tea.Cmd {
	f.focus = field
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == field {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *authForm) move(delta int) tea.Cmd {
	fields := f.fields()
	pos := 0
	for i, id := range fields {
		if id == f.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	return f.setFocus(fields[pos])
}

func (f authForm) credentials() model.Credentials {
	c := model.Credentials{
		Email:    strings.TrimSpace(f.inputs[fieldEmail].Value()),
		Password: f.inputs[fieldPassword].Value(),
	}
	if f.signup {
		c.Name = strings.TrimSpace(f.inputs[fieldName].Value())
	}
	return c
}

func (f authForm) submit() (authForm, tea.Cmd) {
	f.err = ""
	creds := f.credentials()
	validate := creds.ValidateLogin
	if f.signup {
		validate = creds.ValidateSignup
	}
	if err := validate(); err != nil {
		f.err = err.Error()
		return f, nil
	}
	f.loading = true
	ctx, deps, signup := f.ctx, f.deps, f.signup
	return f, func() tea.Msg {
		if signup {
			res, err := deps.Service.Signup(ctx, creds)
			if err != nil {
				return authFailedMsg{err: err}
			}
			return signedUpMsg{detail: res.Detail}
		}
		token, err := deps.Service.Login(ctx, creds.Email, creds.Password)
		if err != nil {
			return authFailedMsg{err: err}
		}
		if err := deps.Session.Save(token); err != nil {
			return authFailedMsg{err: err}
		}
		deps.Log.WithField("email", creds.Email).Info("logged in")
		return loggedInMsg{}
	}
}

func (f authForm) Update(msg tea.Msg) (authForm, tea.Cmd) {
	switch msg := msg.(type) {
	case authFailedMsg:
		f.loading = false
		f.err = api.Message(msg.err)
		f.deps.Log.WithError(msg.err).Warn("authentication failed")
		return f, nil
	case signedUpMsg:
		f.loading = false
		f.signup = false
		f.notice = "Signup successful! Please log in."
		return f, f.setFocus(fieldEmail)
	case tea.KeyMsg:
		if f.loading {
			return f, nil
		}
		switch msg.String() {
		case "esc":
			return f, tea.Quit
		case "tab", "down":
			return f, f.move(1)
		case "shift+tab", "up":
			return f, f.move(-1)
		case "ctrl+t":
			f.signup = !f.signup
			f.err, f.notice = "", ""
			if f.signup {
				return f, f.setFocus(fieldName)
			}
			return f, f.setFocus(fieldEmail)
		case "enter":
			return f.submit()
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f authForm) View() string {
	t := ui.Current()
	heading, button, toggle := "Login", "Login", "Need an account? ctrl+t to sign up"
	if f.signup {
		heading, button, toggle = "Sign Up", "Sign Up", "Already have an account? ctrl+t to log in"
	}
	if f.loading {
		button = "Please wait…"
	}

	labels := map[int]string{fieldName: "Name", fieldEmail: "Email", fieldPassword: "Password"}
	var b strings.Builder
	b.WriteString(t.Title.Render(heading) + "\n\n")
	for _, id := range f.fields() {
		label := labels[id]
		if id == f.focus {
			label = t.Accent.Render(label)
		}
		b.WriteString(label + "\n" + f.inputs[id].View() + "\n\n")
	}
	if f.err != "" {
		b.WriteString(t.Error.Render(f.err) + "\n")
	}
	if f.notice != "" {
		b.WriteString(t.Success.Render(f.notice) + "\n")
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("[ "+button+" ]") + "  " + t.Help.Render("enter") + "\n\n")
	b.WriteString(t.Help.Render(toggle + " · tab next field · esc quit"))
	return ui.PanelString(b.String())
}
