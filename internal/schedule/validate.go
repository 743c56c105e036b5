package schedule

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed or logically invalid item.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if e.Start.IsZero() {
		return invalid("start", "is required")
	}
	if !e.End.After(e.Start) {
		return invalid("end", "must be after start")
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if t.Duration <= 0 {
		return invalid("duration", "must be positive")
	}
	if (t.Start == nil) != (t.End == nil) {
		return invalid("end", "start and end must both be set or both be empty")
	}
	if t.Start != nil && !t.End.After(*t.Start) {
		return invalid("end", "must be after start")
	}
	if t.Priority != "" && t.Priority.Rank() < 0 {
		return invalid("priority", fmt.Sprintf("unknown value %q", t.Priority))
	}
	if t.Difficulty != "" && !t.Difficulty.valid() {
		return invalid("difficulty", fmt.Sprintf("unknown value %q", t.Difficulty))
	}
	return nil
}

func (c Calendar) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "must not be empty")
	}
	return nil
}

func (i Item) Validate() error {
	if i.Kind == KindTask {
		return i.Task.Validate()
	}
	return i.Event.Validate()
}
