package cli_test

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todo-client/internal/apitest"
	"github.com/idilsaglam/todo-client/internal/cli"
	"github.com/idilsaglam/todo-client/internal/model"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	srv    *apitest.Server
	home   string
	userID int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{srv: apitest.New(t), home: t.TempDir()}
	h.userID = h.srv.AddUser("Ada", "ada@example.com", "secret1")
	return h
}

type result struct {
	code     int
	out, err string
}

func (h *harness) run(stdin string, args ...string) result {
	var out, errb bytes.Buffer
	args = append(args, "--home="+h.home, "--api-url="+h.srv.URL, "--theme=mono")
	code := cli.Run(args, cli.Options{
		Getenv: func(string) string { return "" },
		In:     strings.NewReader(stdin),
		Out:    &out,
		Err:    &errb,
		Now:    func() time.Time { return now },
	})
	return result{code: code, out: out.String(), err: errb.String()}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	res := h.run("secret1\n", "auth", "login", "--email", "ada@example.com")
	require.Equal(t, 0, res.code, res.err)
	require.Contains(t, res.out, "logged in as ada@example.com")
}

func TestLoginAndList(t *testing.T) {
	h := newHarness(t)
	h.srv.AddTodo(h.userID, "Buy milk", false)
	h.srv.AddTodo(h.userID, "Pay rent", true)
	h.login(t)

	res := h.run("", "ls")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Buy milk")
	assert.Contains(t, res.out, "Pay rent")
	assert.Contains(t, res.out, "50%")

	res = h.run("", "ls", "--group")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Pending")
	assert.Contains(t, res.out, "Done")

	res = h.run("", "ls", "--filter", "active", "-o", "json")
	require.Equal(t, 0, res.code, res.err)
	var todos []model.Todo
	require.NoError(t, json.Unmarshal([]byte(res.out), &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, "Buy milk", todos[0].Title)

	res = h.run("", "ls", "--search", "RENT", "-o", "json")
	require.Equal(t, 0, res.code, res.err)
	require.NoError(t, json.Unmarshal([]byte(res.out), &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, "Pay rent", todos[0].Title)

	res = h.run("", "ls", "--search", "nothing", "-o", "json")
	require.Equal(t, 0, res.code, res.err)
	assert.Equal(t, "[]", strings.TrimSpace(res.out))
}

func TestListTruncatesLongTitles(t *testing.T) {
	h := newHarness(t)
	h.srv.AddTodo(h.userID, strings.Repeat("é", 90), false)
	h.login(t)

	res := h.run("", "ls")
	require.Equal(t, 0, res.code, res.err)
	assert.True(t, utf8.ValidString(res.out))
	assert.Contains(t, res.out, strings.Repeat("é", 77)+"...")
	assert.NotContains(t, res.out, strings.Repeat("é", 78))
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)

	res := h.run("wrong-pass\n", "auth", "login", "--email", "ada@example.com")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "Invalid email or password.")

	res = h.run("secret1\n", "auth", "login", "--email", "not-an-email")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.err, "email")

	res = h.run("", "auth", "login", "--email", "ada@example.com")
	assert.Equal(t, 2, res.code, "no password on stdin")
}

func TestCommandsNeedSession(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{{"ls"}, {"add", "x"}, {"done", "1"}, {"auth", "whoami"}, {"auth", "status"}} {
		res := h.run("", args...)
		assert.Equal(t, 1, res.code, args)
		assert.Contains(t, res.err, "not logged in", args)
	}
	assert.Empty(t, h.srv.Requests(), "nothing is sent without a token")
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	cases := map[string][]string{
		"unknown command":   {"bogus"},
		"missing id":        {"done"},
		"bad id":            {"rm", "abc"},
		"bad format":        {"ls", "-o", "xml"},
		"bad filter":        {"ls", "--filter", "later"},
		"unknown flag":      {"ls", "--nope"},
		"remind needs time": {"remind", "1"},
		"remind both":       {"remind", "1", "+1h", "--clear"},
		"edit nothing":      {"edit", "1"},
		"bad reminder":      {"add", "x", "--remind", "tomorrowish"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res := h.run("", args...)
			assert.Equal(t, 2, res.code, res.err)
			assert.NotEmpty(t, res.err)
		})
	}
}

func TestTodoLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "add", "Call", "mom", "--desc", "Sunday", "--remind", "+2h", "--priority", "high")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "added #1 Call mom")

	todos := h.srv.Todos(h.userID)
	require.Len(t, todos, 1)
	todo := todos[0]
	require.NotNil(t, todo.Description)
	assert.Equal(t, "Sunday", *todo.Description)
	require.NotNil(t, todo.ReminderAt)
	assert.True(t, todo.ReminderAt.Equal(now.Add(2*time.Hour)))
	id := strconv.Itoa(todo.ID)

	res = h.run("", "edit", id, "--title", "Call dad")
	require.Equal(t, 0, res.code, res.err)
	todo = h.srv.Todos(h.userID)[0]
	assert.Equal(t, "Call dad", todo.Title)
	require.NotNil(t, todo.Description, "edit keeps fields it was not told to change")
	assert.Equal(t, "Sunday", *todo.Description)
	require.NotNil(t, todo.Priority)
	assert.Equal(t, "high", *todo.Priority)

	res = h.run("", "done", id)
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "marked done")
	assert.True(t, h.srv.Todos(h.userID)[0].Done)

	res = h.run("", "remind", id, "2025-06-03T08:30")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "reminder set for Tue 3 Jun 2025 08:30")

	res = h.run("", "remind", id, "--clear")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "reminder cleared")
	todo = h.srv.Todos(h.userID)[0]
	assert.Nil(t, todo.ReminderAt)
	assert.True(t, todo.Done, "clearing a reminder keeps the rest")

	res = h.run("", "show", id, "-o", "yaml")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "title: Call dad")
	assert.NotContains(t, res.out, "reminder_at")

	res = h.run("", "show", id)
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Call dad")
	assert.Contains(t, res.out, "Sunday")

	res = h.run("", "rm", id)
	require.Equal(t, 0, res.code, res.err)
	assert.Empty(t, h.srv.Todos(h.userID))
}

func TestClearCompleted(t *testing.T) {
	h := newHarness(t)
	h.srv.AddTodo(h.userID, "a", true)
	h.srv.AddTodo(h.userID, "b", false)
	h.srv.AddTodo(h.userID, "c", true)
	h.login(t)

	res := h.run("", "clear-completed")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "cleared 2 completed")
	left := h.srv.Todos(h.userID)
	require.Len(t, left, 1)
	assert.Equal(t, "b", left[0].Title)

	res = h.run("", "clear-completed")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "nothing to clear")
}

func TestNotFoundHint(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "show", "999")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "todo ls")
}

func TestExpiredSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.RotateSecret()

	res := h.run("", "ls")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "session expired")
	assert.Contains(t, res.err, "todo auth login")

	res = h.run("", "auth", "status")
	assert.Equal(t, 1, res.code, "the rejected token was cleared")
	assert.Contains(t, res.err, "not logged in")
}

func TestSignupThenLogin(t *testing.T) {
	h := newHarness(t)

	res := h.run("Grace\ngrace@example.com\nsecret2\n", "auth", "signup")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "successfully registered")
	assert.Contains(t, res.out, "todo auth login")

	res = h.run("Grace\ngrace@example.com\nsecret2\n", "auth", "signup")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "already registered")

	res = h.run("secret2\n", "auth", "login", "--email", "grace@example.com")
	require.Equal(t, 0, res.code, res.err)
}

func TestStatusWhoamiLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	res := h.run("", "auth", "status", "--check")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Logged in to "+h.srv.URL)
	assert.Contains(t, res.out, "token accepted")

	res = h.run("", "auth", "whoami")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "user id: "+strconv.Itoa(h.userID))

	res = h.run("", "auth", "logout")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "logged out")

	res = h.run("", "ls")
	assert.Equal(t, 1, res.code)
}

func TestRequestsCarryInterceptorHeaders(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	require.Equal(t, 0, h.run("", "ls").code)

	reqs := h.srv.Requests()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Authorization, "login is sent without a token")
	assert.True(t, strings.HasPrefix(reqs[1].Authorization, "Bearer "))
	assert.NotEmpty(t, reqs[1].RequestID)
}
