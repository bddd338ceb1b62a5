package tui

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todo-client/internal/api"
	"github.com/idilsaglam/todo-client/internal/logging"
	"github.com/idilsaglam/todo-client/internal/model"
)

type fakeService struct {
	todos []model.Todo
	token string

	loginErr, signupErr, listErr, createErr error

	created   []model.TodoInput
	replaced  map[int]model.TodoInput
	toggled   []int
	deleted   []int
	reminders map[int]*time.Time
	cleared   int
}

func (s *fakeService) Login(_ context.Context, email, password string) (string, error) {
	return s.token, s.loginErr
}

func (s *fakeService) Signup(_ context.Context, c model.Credentials) (*api.SignupResult, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return &api.SignupResult{Success: true, Detail: "registered", UserID: 9}, nil
}

func (s *fakeService) ListTodos(context.Context) ([]model.Todo, error) {
	return s.todos, s.listErr
}

func (s *fakeService) CreateTodo(_ context.Context, in model.TodoInput) (model.Todo, error) {
	s.created = append(s.created, in)
	return model.Todo{}, s.createErr
}

func (s *fakeService) ReplaceTodo(_ context.Context, id int, in model.TodoInput) (model.Todo, error) {
	if s.replaced == nil {
		s.replaced = map[int]model.TodoInput{}
	}
	s.replaced[id] = in
	return model.Todo{}, nil
}

func (s *fakeService) ToggleDone(_ context.Context, t model.Todo) (model.Todo, error) {
	s.toggled = append(s.toggled, t.ID)
	return t, nil
}

func (s *fakeService) SetReminder(_ context.Context, t model.Todo, at *time.Time) (model.Todo, error) {
	if s.reminders == nil {
		s.reminders = map[int]*time.Time{}
	}
	s.reminders[t.ID] = at
	return t, nil
}

func (s *fakeService) DeleteTodo(_ context.Context, id int) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeService) ClearCompleted(_ context.Context, todos []model.Todo) (int, error) {
	s.cleared = len(model.Completed(todos))
	return s.cleared, nil
}

type fakeSession struct {
	authed  bool
	saved   string
	cleared int
}

func (s *fakeSession) Authenticated() bool { return s.authed }
func (s *fakeSession) Save(token string) error {
	s.saved, s.authed = token, true
	return nil
}
func (s *fakeSession) Clear() error {
	s.cleared++
	s.authed = false
	return nil
}

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

func deps(svc *fakeService, sess *fakeSession) Deps {
	return Deps{Service: svc, Session: sess, Now: func() time.Time { return now }}.withDefaults()
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleTodos() []model.Todo {
	rem := &model.Timestamp{Time: time.Date(2025, 6, 3, 7, 0, 0, 0, time.UTC)}
	return []model.Todo{
		{ID: 3, Title: "Buy milk", Description: "oat"},
		{ID: 2, Title: "Pay rent", Done: true, Priority: "high", Tags: "home"},
		{ID: 1, Title: "Dentist", ReminderAt: rem},
	}
}

// loadedList returns a list screen that has received sampleTodos.
func loadedList(t *testing.T, svc *fakeService) todoList {
	t.Helper()
	svc.todos = sampleTodos()
	m := newTodoList(context.Background(), deps(svc, &fakeSession{authed: true}))
	m.setSize(100, 60)
	msg := m.Init()()
	require.IsType(t, todosLoadedMsg{}, msg)
	m, _ = m.Update(msg)
	require.False(t, m.loading)
	return m
}

func TestAppStartsOnLoginWithoutSession(t *testing.T) {
	a := NewApp(context.Background(), deps(&fakeService{}, &fakeSession{}))
	assert.Equal(t, screenAuth, a.screen)
	assert.Contains(t, a.View(), "Login")
}

func TestAppStartsOnListWithSession(t *testing.T) {
	svc := &fakeService{todos: sampleTodos()}
	a := NewApp(context.Background(), deps(svc, &fakeSession{authed: true}))
	assert.Equal(t, screenList, a.screen)
	assert.IsType(t, todosLoadedMsg{}, a.Init()())
}

func TestLoginFlow(t *testing.T) {
	svc := &fakeService{token: "tok", todos: sampleTodos()}
	sess := &fakeSession{}
	var m tea.Model = NewApp(context.Background(), deps(svc, sess))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	a := m.(App)

	for _, r := range "ada@example.com" {
		m, _ = a.Update(keyMsg(string(r)))
		a = m.(App)
	}
	m, _ = a.Update(keyMsg("tab"))
	a = m.(App)
	assert.Equal(t, fieldPassword, a.auth.focus)
	a.auth.inputs[fieldPassword].SetValue("secret1")

	m, cmd := a.Update(keyMsg("enter"))
	a = m.(App)
	require.NotNil(t, cmd)
	assert.True(t, a.auth.loading)
	assert.Contains(t, a.View(), "Please wait…")

	msg := cmd()
	require.IsType(t, loggedInMsg{}, msg)
	assert.Equal(t, "tok", sess.saved)

	m, cmd = a.Update(msg)
	a = m.(App)
	assert.Equal(t, screenList, a.screen)

	m, _ = a.Update(cmd())
	a = m.(App)
	assert.Len(t, a.list.list.Items(), 3)
	assert.Contains(t, a.View(), "Buy milk")
}

func TestLoginErrorShowsDetail(t *testing.T) {
	svc := &fakeService{loginErr: &api.Error{Op: "login", Status: http.StatusBadRequest, Detail: "Invalid email or password."}}
	f := newAuthForm(context.Background(), deps(svc, &fakeSession{}), "")
	f.inputs[fieldEmail].SetValue("ada@example.com")
	f.inputs[fieldPassword].SetValue("secret1")

	f, cmd := f.Update(keyMsg("enter"))
	f, _ = f.Update(cmd())
	assert.False(t, f.loading)
	assert.Equal(t, "Invalid email or password.", f.err)
}

func TestAppLogsToContextLogger(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	ctx := logging.WithContext(context.Background(), log)
	svc := &fakeService{loginErr: errors.New("connection refused")}
	a := NewApp(ctx, Deps{Service: svc, Session: &fakeSession{}})
	a.auth.inputs[fieldEmail].SetValue("ada@example.com")
	a.auth.inputs[fieldPassword].SetValue("secret1")

	m, cmd := a.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	m.Update(cmd())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "authentication failed", hook.LastEntry().Message)
}

func TestLoginValidatesBeforeSending(t *testing.T) {
	f := newAuthForm(context.Background(), deps(&fakeService{}, &fakeSession{}), "")
	f.inputs[fieldEmail].SetValue("not-an-email")
	f.inputs[fieldPassword].SetValue("secret1")

	f, cmd := f.Update(keyMsg("enter"))
	assert.Nil(t, cmd)
	assert.Contains(t, f.err, "email")
}

func TestSignupFlow(t *testing.T) {
	f := newAuthForm(context.Background(), deps(&fakeService{}, &fakeSession{}), "")
	f, _ = f.Update(keyMsg("ctrl+t"))
	require.True(t, f.signup)
	assert.Equal(t, fieldName, f.focus)
	assert.Contains(t, f.View(), "Sign Up")

	f.inputs[fieldName].SetValue("Ada")
	f.inputs[fieldEmail].SetValue("ada@example.com")
	f.inputs[fieldPassword].SetValue("secret1")

	f, cmd := f.Update(keyMsg("enter"))
	msg := cmd()
	require.IsType(t, signedUpMsg{}, msg)

	f, _ = f.Update(msg)
	assert.False(t, f.signup)
	assert.Equal(t, "Signup successful! Please log in.", f.notice)
	assert.Equal(t, "ada@example.com", f.inputs[fieldEmail].Value())
}

func TestListFilterAndSearch(t *testing.T) {
	m := loadedList(t, &fakeService{})

	m, _ = m.Update(keyMsg("f"))
	assert.Equal(t, model.FilterActive, m.filter)
	assert.Len(t, m.list.Items(), 2)

	m, _ = m.Update(keyMsg("f"))
	assert.Equal(t, model.FilterCompleted, m.filter)
	assert.Len(t, m.list.Items(), 1)

	m, _ = m.Update(keyMsg("f"))
	assert.Equal(t, model.FilterAll, m.filter)

	m, _ = m.Update(keyMsg("/"))
	require.Equal(t, modeSearch, m.mode)
	m, _ = m.Update(keyMsg("OAT"))
	assert.Equal(t, "OAT", m.query)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, 3, m.list.Items()[0].(listItem).todo.ID)

	m, _ = m.Update(keyMsg("enter"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "OAT", m.query, "enter keeps the query")

	m, _ = m.Update(keyMsg("/"))
	m, _ = m.Update(keyMsg("esc"))
	assert.Empty(t, m.query)
	assert.Len(t, m.list.Items(), 3)
}

func TestListToggleAndDelete(t *testing.T) {
	svc := &fakeService{}
	m := loadedList(t, svc)

	m, _ = m.Update(keyMsg("down"))
	m, cmd := m.Update(keyMsg(" "))
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	msg := cmd()
	require.Equal(t, mutatedMsg{status: "marked not done"}, msg)
	assert.Equal(t, []int{2}, svc.toggled)

	m, cmd = m.Update(msg)
	assert.Equal(t, "marked not done", m.status)
	assert.IsType(t, todosLoadedMsg{}, cmd(), "mutations refetch")

	_, cmd = m.Update(keyMsg("d"))
	cmd()
	assert.Equal(t, []int{2}, svc.deleted)
}

func TestListCreateTodo(t *testing.T) {
	svc := &fakeService{}
	m := loadedList(t, svc)

	m, _ = m.Update(keyMsg("a"))
	require.Equal(t, modeEdit, m.mode)
	assert.Contains(t, m.View(), "Create New Todo")

	m, _ = m.Update(keyMsg("enter"))
	assert.Equal(t, modeEdit, m.mode, "empty title is rejected")
	assert.NotEmpty(t, m.editor.err)

	m.editor.inputs[edTitle].SetValue("Call mom")
	m.editor.inputs[edDescription].SetValue("Sunday")
	m.editor.inputs[edReminder].SetValue("+2h")
	m, cmd := m.Update(keyMsg("enter"))
	assert.Equal(t, modeBrowse, m.mode)
	cmd()

	require.Len(t, svc.created, 1)
	in := svc.created[0]
	assert.Equal(t, "Call mom", in.Title)
	require.NotNil(t, in.Description)
	assert.Equal(t, "Sunday", *in.Description)
	require.NotNil(t, in.ReminderAt)
	assert.True(t, in.ReminderAt.Equal(now.Add(2*time.Hour)))
}

func TestListEditPreservesHiddenFields(t *testing.T) {
	svc := &fakeService{}
	m := loadedList(t, svc)

	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("e"))
	require.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "Pay rent", m.editor.inputs[edTitle].Value())

	m.editor.inputs[edTitle].SetValue("Pay rent (July)")
	_, cmd := m.Update(keyMsg("enter"))
	cmd()

	in, ok := svc.replaced[2]
	require.True(t, ok)
	assert.Equal(t, "Pay rent (July)", in.Title)
	assert.True(t, in.Done)
	require.NotNil(t, in.Priority)
	assert.Equal(t, "high", *in.Priority)
	require.NotNil(t, in.Tags)
	assert.Equal(t, "home", *in.Tags)
}

func TestListReminders(t *testing.T) {
	svc := &fakeService{}
	m := loadedList(t, svc)

	m, _ = m.Update(keyMsg("r"))
	require.Equal(t, modeReminder, m.mode)
	m.reminder.SetValue("2025-06-02T09:15")
	m, cmd := m.Update(keyMsg("enter"))
	cmd()

	want, err := model.ParseReminder("2025-06-02T09:15", now)
	require.NoError(t, err)
	require.Contains(t, svc.reminders, 3)
	assert.Equal(t, want, svc.reminders[3])

	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("down"))
	_, cmd = m.Update(keyMsg("R"))
	require.NotNil(t, cmd)
	assert.Equal(t, mutatedMsg{status: "reminder cleared"}, cmd())
	require.Contains(t, svc.reminders, 1)
	assert.Nil(t, svc.reminders[1])
}

func TestListClearCompleted(t *testing.T) {
	svc := &fakeService{}
	m := loadedList(t, svc)
	_, cmd := m.Update(keyMsg("C"))
	cmd()
	assert.Equal(t, 1, svc.cleared)
}

func TestListShowsFailures(t *testing.T) {
	svc := &fakeService{createErr: errors.New("connection refused")}
	m := loadedList(t, svc)

	m, _ = m.Update(keyMsg("a"))
	m.editor.inputs[edTitle].SetValue("x")
	m, cmd := m.Update(keyMsg("enter"))
	msg := cmd()
	require.IsType(t, opFailedMsg{}, msg)

	m, _ = m.Update(msg)
	assert.False(t, m.loading)
	assert.Equal(t, "create: connection refused", m.err)
	assert.Contains(t, m.View(), "connection refused")
}

func TestUnauthorizedReturnsToLogin(t *testing.T) {
	svc := &fakeService{todos: sampleTodos()}
	sess := &fakeSession{authed: true}
	a := NewApp(context.Background(), deps(svc, sess))

	svc.listErr = &api.Error{Op: "list todos", Status: http.StatusUnauthorized, Detail: "Invalid or expired token"}
	msg := a.Init()()
	require.IsType(t, unauthorizedMsg{}, msg)

	m, _ := a.Update(msg)
	a = m.(App)
	assert.Equal(t, screenAuth, a.screen)
	assert.Contains(t, a.auth.notice, "expired")
}

func TestLogout(t *testing.T) {
	svc := &fakeService{todos: sampleTodos()}
	sess := &fakeSession{authed: true}
	a := NewApp(context.Background(), deps(svc, sess))
	m, _ := a.Update(a.Init()())
	a = m.(App)

	m, cmd := a.Update(keyMsg("L"))
	a = m.(App)
	assert.Equal(t, 1, sess.cleared)

	m, _ = a.Update(cmd())
	a = m.(App)
	assert.Equal(t, screenAuth, a.screen)
}

func TestDetailLineTruncatesByCharacter(t *testing.T) {
	desc := strings.Repeat("a", 56) + strings.Repeat("é", 10)
	line := detailLine(model.Todo{ID: 1, Title: "x", Description: desc}, time.UTC)
	assert.True(t, utf8.ValidString(line))
	assert.Contains(t, line, strings.Repeat("a", 56)+"é...")

	short := detailLine(model.Todo{ID: 1, Title: "x", Description: "café"}, time.UTC)
	assert.Contains(t, short, "café")
	assert.NotContains(t, short, "...")
}

func TestEditorInputLimits(t *testing.T) {
	e := newEditor(nil, time.UTC)
	assert.Equal(t, model.MaxTitleLen, e.inputs[edTitle].CharLimit)
	assert.Zero(t, e.inputs[edDescription].CharLimit)
	assert.Equal(t, reminderCharLimit, e.inputs[edReminder].CharLimit)

	e.inputs[edReminder].SetValue(strings.Repeat("9", 100))
	assert.Len(t, e.inputs[edReminder].Value(), reminderCharLimit)

	e.inputs[edReminder].SetValue("2025-06-02T09:15:00.123456789+02:00")
	_, err := time.Parse(time.RFC3339Nano, e.inputs[edReminder].Value())
	assert.NoError(t, err, "longest accepted layout fits")
}
