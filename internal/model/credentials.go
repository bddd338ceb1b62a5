package model

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Credentials are what the login/signup form collects. Name is only used
// for signup.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateLogin checks email and password.
func (c Credentials) ValidateLogin() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil || !strings.Contains(c.Email, "@") {
		return &ValidationError{Field: "email", Msg: "not a valid address"}
	}
	if n := utf8.RuneCountInString(c.Password); n < MinPasswordLen || n > MaxPasswordLen {
		return &ValidationError{Field: "password", Msg: "must be 6-255 characters"}
	}
	return nil
}

// ValidateSignup checks name in addition to the login fields.
func (c Credentials) ValidateSignup() error {
	if n := utf8.RuneCountInString(strings.TrimSpace(c.Name)); n < MinNameLen || n > MaxNameLen {
		return &ValidationError{Field: "name", Msg: "must be 2-255 characters"}
	}
	return c.ValidateLogin()
}
