package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mitchellh/mapstructure"
)

// ErrOpaque means the token is not a JWT and cannot be introspected.
var ErrOpaque = errors.New("opaque token")

// Claims are the fields the API puts in its tokens. They are decoded
// without verifying the signature; the client never holds the secret.
type Claims struct {
	UserID    int
	Subject   string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

type claimFields struct {
	UserID  int    `mapstructure:"id"`
	Subject string `mapstructure:"sub"`
}

// ParseClaims decodes the payload of a JWT.
func ParseClaims(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(stripBearer(token), mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaque, err)
	}

	var f claimFields
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &f,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]any(mc)); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return &Claims{
		UserID:    f.UserID,
		Subject:   f.Subject,
		IssuedAt:  unixClaim(mc, "iat"),
		ExpiresAt: unixClaim(mc, "exp"),
	}, nil
}

func unixClaim(mc jwt.MapClaims, name string) *time.Time {
	var sec float64
	switch v := mc[name].(type) {
	case float64:
		sec = v
	case int64:
		sec = float64(v)
	case int:
		sec = float64(v)
	default:
		return nil
	}
	t := time.Unix(int64(sec), 0).UTC()
	return &t
}
