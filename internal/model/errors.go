package model

import (
	"errors"
	"fmt"
)

// Limits enforced by the API.
const (
	MaxTitleLen    = 255
	MaxPriorityLen = 10
	MaxTagsLen     = 255
	MinNameLen     = 2
	MaxNameLen     = 255
	MinPasswordLen = 6
	MaxPasswordLen = 255
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("invalid input")

// ValidationError describes a field rejected before it reaches the API.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }
