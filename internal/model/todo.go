package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Todo is a to-do item as returned by the API.
type Todo struct {
	ID          int        `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description,omitempty"`
	Done        bool       `json:"done" yaml:"done"`
	ReminderAt  *Timestamp `json:"reminder_at" yaml:"reminder_at,omitempty"`
	Priority    string     `json:"priority" yaml:"priority,omitempty"`
	DueDate     *Timestamp `json:"due_date" yaml:"due_date,omitempty"`
	Tags        string     `json:"tags" yaml:"tags,omitempty"`
	CreatedAt   Timestamp  `json:"created_at" yaml:"created_at"`
	UpdatedAt   Timestamp  `json:"updated_at" yaml:"updated_at"`
}

// HasReminder reports whether a reminder is scheduled.
func (t Todo) HasReminder() bool { return t.ReminderAt != nil && !t.ReminderAt.IsZero() }

// Input returns a full-replace body carrying every field of t.
func (t Todo) Input() TodoInput {
	return TodoInput{
		Title:       t.Title,
		Description: OptionalString(t.Description),
		Done:        t.Done,
		ReminderAt:  t.ReminderAt,
		Priority:    OptionalString(t.Priority),
		DueDate:     t.DueDate,
		Tags:        OptionalString(t.Tags),
	}
}

// TagList splits the comma separated tags field.
func (t Todo) TagList() []string {
	var out []string
	for _, tag := range strings.Split(t.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// TodoInput is the body of POST /todos and PUT /todos/{id}.
// Nil fields are sent as null.
type TodoInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Done        bool       `json:"done"`
	ReminderAt  *Timestamp `json:"reminder_at"`
	Priority    *string    `json:"priority"`
	DueDate     *Timestamp `json:"due_date"`
	Tags        *string    `json:"tags"`
}

// Validate checks the limits the API enforces.
func (in TodoInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return &ValidationError{Field: "title", Msg: "cannot be empty"}
	case utf8.RuneCountInString(title) > MaxTitleLen:
		return &ValidationError{Field: "title", Msg: "too long"}
	}
	if in.Priority != nil && utf8.RuneCountInString(*in.Priority) > MaxPriorityLen {
		return &ValidationError{Field: "priority", Msg: "at most 10 characters"}
	}
	if in.Tags != nil && utf8.RuneCountInString(*in.Tags) > MaxTagsLen {
		return &ValidationError{Field: "tags", Msg: "too long"}
	}
	return nil
}

// TodoPatch is the body of PATCH /todos/{id}. Only non-nil fields are sent;
// the server ignores nulls, so a patch can never clear a field.
type TodoPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Done        *bool      `json:"done,omitempty"`
	ReminderAt  *Timestamp `json:"reminder_at,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
	Tags        *string    `json:"tags,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Done == nil &&
		p.ReminderAt == nil && p.Priority == nil && p.DueDate == nil && p.Tags == nil
}

// Validate checks the limits the API enforces.
func (p TodoPatch) Validate() error {
	if p.Title != nil {
		if t := strings.TrimSpace(*p.Title); t == "" || utf8.RuneCountInString(t) > MaxTitleLen {
			return &ValidationError{Field: "title", Msg: "must be 1-255 characters"}
		}
	}
	if p.Priority != nil && utf8.RuneCountInString(*p.Priority) > MaxPriorityLen {
		return &ValidationError{Field: "priority", Msg: "at most 10 characters"}
	}
	if p.Tags != nil && utf8.RuneCountInString(*p.Tags) > MaxTagsLen {
		return &ValidationError{Field: "tags", Msg: "too long"}
	}
	return nil
}

// OptionalString returns nil for blank strings.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// At wraps t as an API timestamp, nil for a nil t.
func At(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	return &Timestamp{Time: t.UTC()}
}
