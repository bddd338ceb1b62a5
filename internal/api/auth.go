package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/idilsaglam/todo-client/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// SignupResult is the server's answer to a successful signup.
type SignupResult struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
	UserID  int    `json:"user_id"`
}

// Login exchanges credentials for a bearer token. The caller decides where
// the token is stored.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "login"
	creds := model.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := creds.ValidateLogin(); err != nil {
		return "", err
	}
	var out loginResponse
	if err := c.call(ctx, op, http.MethodPost, "/login", loginRequest{creds.Email, creds.Password}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", &Error{Op: op, Status: http.StatusOK, Err: errors.New("empty token in response")}
	}
	return out.Token, nil
}

// Signup registers a new account. It does not log in.
func (c *Client) Signup(ctx context.Context, creds model.Credentials) (*SignupResult, error) {
	creds.Name = strings.TrimSpace(creds.Name)
	creds.Email = strings.TrimSpace(creds.Email)
	if err := creds.ValidateSignup(); err != nil {
		return nil, err
	}
	var out SignupResult
	if err := c.call(ctx, "signup", http.MethodPost, "/signup", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
