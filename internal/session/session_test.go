package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todo-client/internal/session"
)

func noEnv(string) string { return "" }

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestStoreLifecycle(t *testing.T) {
	s := session.NewStore(t.TempDir()).WithEnv(noEnv)

	ti, err := s.Token()
	require.NoError(t, err)
	assert.Nil(t, ti)
	assert.False(t, s.Authenticated())

	require.NoError(t, s.Save("Bearer abc.def"))
	ti, err = s.Token()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, "abc.def", ti.Token)
	assert.Equal(t, session.SourceFile, ti.Source)
	assert.True(t, s.Authenticated())

	require.NoError(t, s.Clear())
	assert.False(t, s.Authenticated())
	require.NoError(t, s.Clear(), "clearing twice is fine")
}

func TestStoreRejectsEmpty(t *testing.T) {
	s := session.NewStore(t.TempDir()).WithEnv(noEnv)
	require.ErrorIs(t, s.Save("  "), session.ErrEmptyToken)
}

func TestEnvOverride(t *testing.T) {
	s := session.NewStore(t.TempDir()).WithEnv(func(k string) string {
		if k == session.EnvToken {
			return "bearer from-env"
		}
		return ""
	})
	require.NoError(t, s.Save("from-file"))

	ti, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", ti.Token)
	assert.Equal(t, session.SourceEnv, ti.Source)
	assert.True(t, s.FromEnv())
}

func TestExpiredJWTIsNotAuthenticated(t *testing.T) {
	expired := signed(t, jwt.MapClaims{"id": 1, "exp": time.Now().Add(-time.Hour).Unix()})
	valid := signed(t, jwt.MapClaims{"id": 1, "exp": time.Now().Add(time.Hour).Unix()})
	fromEnv := func(tok string) func(string) string {
		return func(k string) string {
			if k == session.EnvToken {
				return tok
			}
			return ""
		}
	}

	tests := []struct {
		name    string
		getenv  func(string) string
		saved   string
		source  string
		expired bool
	}{
		{name: "file expired", getenv: noEnv, saved: expired, source: session.SourceFile, expired: true},
		{name: "file valid", getenv: noEnv, saved: valid, source: session.SourceFile},
		{name: "env expired", getenv: fromEnv(expired), source: session.SourceEnv, expired: true},
		{name: "env expired with bearer prefix", getenv: fromEnv("Bearer " + expired), source: session.SourceEnv, expired: true},
		{name: "env valid", getenv: fromEnv(valid), source: session.SourceEnv},
		{name: "env expired overrides valid file", getenv: fromEnv(expired), saved: valid, source: session.SourceEnv, expired: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.NewStore(t.TempDir()).WithEnv(tt.getenv)
			if tt.saved != "" {
				require.NoError(t, s.Save(tt.saved))
			}

			ti, err := s.Token()
			require.NoError(t, err)
			require.NotNil(t, ti)
			assert.Equal(t, tt.source, ti.Source)
			require.NotNil(t, ti.ExpiresAt)
			assert.Equal(t, tt.expired, ti.Expired(time.Now()))
			assert.Equal(t, !tt.expired, s.Authenticated())
			if tt.expired {
				assert.Empty(t, s.Bearer())
			} else {
				assert.NotEmpty(t, s.Bearer())
			}
		})
	}
}

func TestOpaqueEnvTokenHasNoExpiry(t *testing.T) {
	s := session.NewStore(t.TempDir()).WithEnv(func(k string) string {
		if k == session.EnvToken {
			return "opaque-token"
		}
		return ""
	})
	ti, err := s.Token()
	require.NoError(t, err)
	assert.Nil(t, ti.ExpiresAt)
	assert.True(t, s.Authenticated())
}

func TestParseClaims(t *testing.T) {
	iat := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	tok := signed(t, jwt.MapClaims{"id": 42, "iat": iat.Unix()})

	c, err := session.ParseClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, 42, c.UserID)
	require.NotNil(t, c.IssuedAt)
	assert.Equal(t, iat, *c.IssuedAt)
	assert.Nil(t, c.ExpiresAt)

	_, err = session.ParseClaims("not-a-jwt")
	require.ErrorIs(t, err, session.ErrOpaque)
}
