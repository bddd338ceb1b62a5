package model

import (
	"fmt"
	"strings"
	"time"
)

// Layout of an editable reminder value, the terminal stand-in for a
// datetime-local input.
const ReminderInputLayout = "2006-01-02T15:04"

const reminderDisplayLayout = "Mon 2 Jan 2006 15:04"

var localReminderLayouts = []string{
	ReminderInputLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseReminder turns user input into a reminder time in UTC.
// Empty input means no reminder (nil, nil). Wall-clock forms are read in
// now's location; "+1h30m" is relative to now.
func ParseReminder(input string, now time.Time) (*time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "+") {
		d, err := time.ParseDuration(s[1:])
		if err != nil || d <= 0 {
			return nil, &ValidationError{Field: "reminder", Msg: fmt.Sprintf("bad offset %q", s)}
		}
		at := now.Add(d).UTC().Truncate(time.Minute)
		return &at, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		at := t.UTC()
		return &at, nil
	}
	for _, layout := range localReminderLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			at := t.UTC()
			return &at, nil
		}
	}
	return nil, &ValidationError{Field: "reminder", Msg: fmt.Sprintf("cannot parse %q (use YYYY-MM-DDTHH:MM or +2h)", s)}
}

// FormatReminder renders ts for display in loc.
func FormatReminder(ts *Timestamp, loc *time.Location) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.In(loc).Format(reminderDisplayLayout)
}

// FormatReminderInput renders ts as an editable value in loc.
func FormatReminderInput(ts *Timestamp, loc *time.Location) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.In(loc).Format(ReminderInputLayout)
}
