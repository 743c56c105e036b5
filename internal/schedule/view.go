package schedule

import (
	"strings"
	"time"
)

type Mode int

const (
	ModeDay Mode = iota
	ModeWeek
	ModeMonth
)

var modeNames = []string{"day", "week", "month"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

func ParseMode(s string) Mode {
	for i, n := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Mode(i)
		}
	}
	return ModeWeek
}

func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "monday") {
		return time.Monday
	}
	return time.Sunday
}

// ViewState is the visible period of the schedule. It is passed explicitly to
// layout and drag code.
type ViewState struct {
	Mode      Mode
	Date      time.Time
	WeekStart time.Weekday
}

func NewViewState(mode Mode, date time.Time, weekStart time.Weekday) ViewState {
	return ViewState{Mode: mode, Date: StartOfDay(date), WeekStart: weekStart}
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := StartOfDay(t)
	back := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -back)
}

func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Days lists the day starts rendered by the view. Month views include the
// leading and trailing days needed to fill whole weeks.
func (v ViewState) Days() []time.Time {
	var first time.Time
	var n int
	switch v.Mode {
	case ModeDay:
		return []time.Time{v.Date}
	case ModeWeek:
		first, n = StartOfWeek(v.Date, v.WeekStart), 7
	default:
		monthStart := time.Date(v.Date.Year(), v.Date.Month(), 1, 0, 0, 0, 0, v.Date.Location())
		monthEnd := monthStart.AddDate(0, 1, -1)
		first = StartOfWeek(monthStart, v.WeekStart)
		last := StartOfWeek(monthEnd, v.WeekStart).AddDate(0, 0, 7)
		for d := first; d.Before(last); d = d.AddDate(0, 0, 1) {
			n++
		}
	}
	days := make([]time.Time, n)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// Range is the half-open span covered by Days.
func (v ViewState) Range() (from, to time.Time) {
	days := v.Days()
	return days[0], days[len(days)-1].AddDate(0, 0, 1)
}

func (v ViewState) shift(n int) ViewState {
	switch v.Mode {
	case ModeDay:
		v.Date = v.Date.AddDate(0, 0, n)
	case ModeWeek:
		v.Date = v.Date.AddDate(0, 0, 7*n)
	default:
		first := time.Date(v.Date.Year(), v.Date.Month(), 1, 0, 0, 0, 0, v.Date.Location())
		v.Date = first.AddDate(0, n, 0)
	}
	return v
}

func (v ViewState) Next() ViewState { return v.shift(1) }
func (v ViewState) Prev() ViewState { return v.shift(-1) }

func (v ViewState) WithMode(m Mode) ViewState {
	v.Mode = m
	return v
}

func (v ViewState) WithDate(t time.Time) ViewState {
	v.Date = StartOfDay(t)
	return v
}
