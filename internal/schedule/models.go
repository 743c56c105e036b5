package schedule

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityASAP   Priority = "asap"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityASAP}

// Rank orders priorities low < medium < high < asap. Unknown values rank -1.
func (p Priority) Rank() int {
	for i, v := range Priorities {
		if v == p {
			return i
		}
	}
	return -1
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.Rank() < 0 {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) valid() bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

// Frequency is the recurrence tag carried by events and tasks.
type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// ParseFrequency is lenient: empty and unknown tags mean no recurrence.
func ParseFrequency(s string) Frequency {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return f
	}
	return FrequencyNone
}

type Event struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Frequency   string    `json:"frequency,omitempty"`
	Location    string    `json:"location,omitempty"`
	AllDay      bool      `json:"allDay,omitempty"`
	UserID      int64     `json:"userID"`
	CalendarID  int64     `json:"calendarID"`

	// Client-only bookkeeping.
	TempID     string `json:"-"`
	Occurrence int    `json:"-"` // >0 for expanded recurrences
}

type Task struct {
	ID          int64      `json:"id,omitempty"`
	Title       string     `json:"title"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Frequency   string     `json:"frequency,omitempty"`
	DueDate     time.Time  `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	Difficulty  Difficulty `json:"difficulty"`
	Duration    int        `json:"duration"` // minutes
	Auto        bool       `json:"auto"`
	Completed   bool       `json:"completed"`
	Flexible    bool       `json:"flexible"`
	UserID      int64      `json:"userID"`
	CalendarID  int64      `json:"calendarID"`

	TempID string `json:"-"`
}

type Calendar struct {
	ID          int64  `json:"id,omitempty"`
	UserID      int64  `json:"userID"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

type User struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CalendarSet is the set of selected calendar ids. An empty set selects
// everything.
type CalendarSet map[int64]struct{}

func NewCalendarSet(cals []Calendar) CalendarSet {
	set := make(CalendarSet, len(cals))
	for _, c := range cals {
		set[c.ID] = struct{}{}
	}
	return set
}

func (s CalendarSet) Has(id int64) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[id]
	return ok
}
