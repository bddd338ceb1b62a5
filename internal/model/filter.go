package model

import (
	"fmt"
	"strings"
)

// Filter selects todos by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter accepts all, active or completed (case-insensitive).
// An empty string means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterCompleted:
		return FilterCompleted, nil
	}
	return "", fmt.Errorf("unknown filter %q (want all, active or completed)", s)
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Todo) bool {
	switch f {
	case FilterActive:
		return !t.Done
	case FilterCompleted:
		return t.Done
	default:
		return true
	}
}

// Select applies the filter and then a case-insensitive substring search
// over title and description. Order is preserved.
func Select(todos []Todo, f Filter, query string) []Todo {
	q := strings.ToLower(query)
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if !f.Match(t) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title+" "+t.Description), q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Counts returns how many todos are done and pending.
func Counts(todos []Todo) (done, pending int) {
	for _, t := range todos {
		if t.Done {
			done++
		} else {
			pending++
		}
	}
	return
}

// Completed returns the done todos.
func Completed(todos []Todo) []Todo {
	return Select(todos, FilterCompleted, "")
}
