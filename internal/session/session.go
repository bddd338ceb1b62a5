package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/idilsaglam/todo-client/internal/store/jsonstore"
)

const (
	credFileName = "credentials.json"

	// EnvToken overrides the stored token when set.
	EnvToken = "TODO_TOKEN"

	SourceEnv  = "env"
	SourceFile = "file"
)

// ErrEmptyToken is returned when saving a blank token.
var ErrEmptyToken = errors.New("empty token")

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // from the JWT exp claim, if any
}

// Expired reports whether the token carries an expiry that has passed.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && !now.Before(*ti.ExpiresAt)
}

// Store keeps the bearer token issued at login. It is the client's auth
// context: whatever it holds is attached to outgoing requests.
type Store struct {
	dir    string
	getenv func(string) string
	now    func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, getenv: os.Getenv, now: time.Now}
}

// WithEnv replaces the environment lookup, for tests.
func (s *Store) WithEnv(getenv func(string) string) *Store {
	s.getenv = getenv
	return s
}

func (s *Store) path() string { return filepath.Join(s.dir, credFileName) }

// Token returns the current token, or nil when not logged in.
func (s *Store) Token() (*TokenInfo, error) {
	// 1) env override
	if env := strings.TrimSpace(s.getenv(EnvToken)); env != "" {
		ti := &TokenInfo{Token: stripBearer(env), Source: SourceEnv}
		if c, err := ParseClaims(ti.Token); err == nil {
			ti.ExpiresAt = c.ExpiresAt
		}
		return ti, nil
	}

	// 2) file
	var ti TokenInfo
	if err := jsonstore.Load(s.path(), &ti); err != nil {
		if errors.Is(err, jsonstore.ErrNotFound) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	if ti.Token == "" {
		return nil, nil
	}
	ti.Source = SourceFile
	return &ti, nil
}

// Bearer returns the token to attach to requests, "" when there is none
// or it has expired.
func (s *Store) Bearer() string {
	ti, err := s.Token()
	if err != nil || ti == nil || ti.Expired(s.now()) {
		return ""
	}
	return ti.Token
}

// Authenticated reports whether a usable token is present.
func (s *Store) Authenticated() bool { return s.Bearer() != "" }

// Save stores token, recording its expiry when it is a JWT with exp.
func (s *Store) Save(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return ErrEmptyToken
	}
	ti := TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: s.now(),
	}
	if c, err := ParseClaims(token); err == nil && c.ExpiresAt != nil {
		ti.ExpiresAt = c.ExpiresAt
	}
	if err := jsonstore.Save(s.path(), ti); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear forgets the stored token. A token from the environment cannot be
// cleared; Clear reports that via FromEnv.
func (s *Store) Clear() error {
	return jsonstore.Remove(s.path())
}

// FromEnv reports whether the token comes from the environment.
func (s *Store) FromEnv() bool {
	return strings.TrimSpace(s.getenv(EnvToken)) != ""
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
