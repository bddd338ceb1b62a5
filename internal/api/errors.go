package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

const fallbackDetail = "an error occurred"

// Error describes a failed API call. Status is 0 when no response arrived.
type Error struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "api error"
	}
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Message is the text to show a user: the server's detail when there is
// one.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.Status == 0 && apiErr.Err != nil {
			return apiErr.Err.Error()
		}
		return fallbackDetail
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// decodeError reads {"detail": "..."} or FastAPI-style
// {"detail": [{"loc": [...], "msg": "..."}]}.
func decodeError(op string, resp *http.Response) *Error {
	e := &Error{Op: op, Status: resp.StatusCode}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(b) == 0 {
		e.Detail = fallbackDetail
		return e
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(b, &body); err != nil || len(body.Detail) == 0 {
		e.Detail = fallbackDetail
		return e
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil && s != "" {
		e.Detail = s
		return e
	}
	var issues []validationIssue
	if err := json.Unmarshal(body.Detail, &issues); err == nil && len(issues) > 0 {
		parts := make([]string, 0, len(issues))
		for _, is := range issues {
			if field := lastLoc(is.Loc); field != "" {
				parts = append(parts, field+": "+is.Msg)
			} else {
				parts = append(parts, is.Msg)
			}
		}
		e.Detail = strings.Join(parts, "; ")
		return e
	}
	e.Detail = fallbackDetail
	return e
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}
