// Package apitest runs an in-memory stand-in for the to-do REST API, for
// tests of everything that talks to it.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

type user struct {
	ID       int
	Name     string
	Email    string
	Password []byte
}

// Todo mirrors the server's row, including the owner.
type Todo struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Done        bool       `json:"done"`
	ReminderAt  *time.Time `json:"reminder_at"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *string    `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	UserID      int        `json:"-"`
}

type todoIn struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Done        *bool      `json:"done"`
	ReminderAt  *time.Time `json:"reminder_at"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *string    `json:"tags"`
}

// Server is a fake of the remote API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	secret   []byte
	users    map[string]*user
	todos    map[int]*Todo
	nextUser int
	nextTodo int
	clock    time.Time
	requests []Request
}

// Request records a call the server received.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

// New starts a server; it is closed when the test ends.
func New(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		secret: []byte("test-secret"),
		users:  map[string]*user{},
		todos:  map[int]*Todo{},
		clock:  time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	router := httprouter.New()
	router.POST("/signup", s.signup)
	router.POST("/login", s.login)
	router.GET("/todos", s.authed(s.listTodos))
	router.POST("/todos", s.authed(s.createTodo))
	router.GET("/todos/:id", s.authed(s.getTodo))
	router.PUT("/todos/:id", s.authed(s.replaceTodo))
	router.PATCH("/todos/:id", s.authed(s.updateTodo))
	router.DELETE("/todos/:id", s.authed(s.deleteTodo))
	return s.record(router)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Requests returns every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// AddUser registers an account directly and returns its id.
func (s *Server) AddUser(name, email, password string) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	s.users[strings.ToLower(email)] = &user{ID: s.nextUser, Name: name, Email: email, Password: hash}
	return s.nextUser
}

// Token issues a valid token for a user id.
func (s *Server) Token(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(userID)
}

func (s *Server) issue(userID int) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": s.clock.Unix(),
	}).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return tok
}

// RotateSecret invalidates every token issued so far.
func (s *Server) RotateSecret() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = append(s.secret, '!')
}

// AddTodo stores a todo for userID and returns it.
func (s *Server) AddTodo(userID int, title string, done bool) Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.insert(userID, todoIn{Title: &title, Done: &done})
	return *t
}

// Todos returns the stored todos of userID, newest first.
func (s *Server) Todos(userID int) []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Todo
	for _, t := range s.sorted(userID) {
		out = append(out, *t)
	}
	return out
}

func (s *Server) insert(userID int, in todoIn) *Todo {
	s.nextTodo++
	s.clock = s.clock.Add(time.Minute)
	t := &Todo{ID: s.nextTodo, UserID: userID, CreatedAt: s.clock, UpdatedAt: s.clock}
	applyPut(t, in)
	s.todos[t.ID] = t
	return t
}

func (s *Server) sorted(userID int) []*Todo {
	var out []*Todo
	for _, t := range s.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func invalid(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg, "type": "value_error"}},
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		invalid(w, "body", "invalid JSON")
		return
	}
	switch {
	case len(in.Name) < 2:
		invalid(w, "name", "String should have at least 2 characters")
		return
	case !strings.Contains(in.Email, "@"):
		invalid(w, "email", "value is not a valid email address")
		return
	case len(in.Password) < 6:
		invalid(w, "password", "String should have at least 6 characters")
		return
	}
	s.mu.Lock()
	_, exists := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if exists {
		detail(w, http.StatusBadRequest, "You are already registered. Please login.")
		return
	}
	id := s.AddUser(in.Name, in.Email, in.Password)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "detail": "Your account is successfully registered.", "user_id": id,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		invalid(w, "body", "invalid JSON")
		return
	}
	s.mu.Lock()
	u := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.Password, []byte(in.Password)) != nil {
		detail(w, http.StatusBadRequest, "Invalid email or password.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": s.Token(u.ID)})
}

type authedHandle func(w http.ResponseWriter, r *http.Request, p httprouter.Params, userID int)

func (s *Server) authed(next authedHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(data) != 2 || data[0] != "Bearer" {
			detail(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		userID, err := s.verify(data[1])
		if err != nil {
			detail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r, p, userID)
	}
}

func (s *Server) verify(raw string) (int, error) {
	s.mu.Lock()
	secret := append([]byte(nil), s.secret...)
	s.mu.Unlock()
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return 0, errors.New("the token is not valid")
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return 0, errors.New("missing id claim")
	}
	return int(id), nil
}

func (s *Server) owned(w http.ResponseWriter, p httprouter.Params, userID int) *Todo {
	id, err := strconv.Atoi(p.ByName("id"))
	if err != nil {
		invalid(w, "todo_id", "Input should be a valid integer")
		return nil
	}
	t := s.todos[id]
	if t == nil || t.UserID != userID {
		detail(w, http.StatusNotFound, "Todo not found")
		return nil
	}
	return t
}

func decodeTodo(w http.ResponseWriter, r *http.Request, requireTitle bool) (todoIn, bool) {
	var in todoIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		invalid(w, "body", "invalid JSON")
		return in, false
	}
	if requireTitle && (in.Title == nil || *in.Title == "") {
		invalid(w, "title", "String should have at least 1 character")
		return in, false
	}
	if in.Priority != nil && len(*in.Priority) > 10 {
		invalid(w, "priority", "String should have at most 10 characters")
		return in, false
	}
	return in, true
}

func (s *Server) listTodos(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, userID int) {
	s.mu.Lock()
	out := make([]Todo, 0)
	for _, t := range s.sorted(userID) {
		out = append(out, *t)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request, _ httprouter.Params, userID int) {
	in, ok := decodeTodo(w, r, true)
	if !ok {
		return
	}
	s.mu.Lock()
	t := *s.insert(userID, in)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) getTodo(w http.ResponseWriter, _ *http.Request, p httprouter.Params, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.owned(w, p, userID); t != nil {
		writeJSON(w, http.StatusOK, *t)
	}
}

func (s *Server) replaceTodo(w http.ResponseWriter, r *http.Request, p httprouter.Params, userID int) {
	in, ok := decodeTodo(w, r, true)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.owned(w, p, userID)
	if t == nil {
		return
	}
	applyPut(t, in)
	s.clock = s.clock.Add(time.Second)
	t.UpdatedAt = s.clock
	writeJSON(w, http.StatusOK, *t)
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request, p httprouter.Params, userID int) {
	in, ok := decodeTodo(w, r, false)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.owned(w, p, userID)
	if t == nil {
		return
	}
	applyPatch(t, in)
	s.clock = s.clock.Add(time.Second)
	t.UpdatedAt = s.clock
	writeJSON(w, http.StatusOK, *t)
}

func (s *Server) deleteTodo(w http.ResponseWriter, _ *http.Request, p httprouter.Params, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.owned(w, p, userID)
	if t == nil {
		return
	}
	delete(s.todos, t.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// applyPut replaces every field; missing values become null.
func applyPut(t *Todo, in todoIn) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	t.Description = in.Description
	t.Done = in.Done != nil && *in.Done
	t.ReminderAt = in.ReminderAt
	t.Priority = in.Priority
	t.DueDate = in.DueDate
	t.Tags = in.Tags
}

// applyPatch sets only non-null values, like the real server.
func applyPatch(t *Todo, in todoIn) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.Done != nil {
		t.Done = *in.Done
	}
	if in.ReminderAt != nil {
		t.ReminderAt = in.ReminderAt
	}
	if in.Priority != nil {
		t.Priority = in.Priority
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.Tags != nil {
		t.Tags = in.Tags
	}
}
