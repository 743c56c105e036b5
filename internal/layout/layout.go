// Package layout maps schedule items onto day columns.
//
// Geometry is expressed in fractions: Top and Height of the 24h column,
// Left and Width of the day column's width.
package layout

import (
	"sort"
	"time"

	"github.com/sadopc/asap/internal/schedule"
)

const (
	MinutesPerDay = 1440
	SlotMinutes   = 15
	SlotsPerDay   = MinutesPerDay / SlotMinutes
)

type Placement struct {
	Item    schedule.Item
	Top     float64
	Height  float64
	Left    float64
	Width   float64
	Column  int
	Columns int
}

// Bottom is the fraction where the placement ends.
func (p Placement) Bottom() float64 { return p.Top + p.Height }

type DayLayout struct {
	Day    time.Time
	AllDay []schedule.Item
	Timed  []Placement
}

// MinutesFromMidnight returns the wall-clock minutes of t in loc.
func MinutesFromMidnight(t time.Time, loc *time.Location) float64 {
	t = t.In(loc)
	return float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60
}

type slot struct {
	item       schedule.Item
	start, end float64
	col        int
}

func (s slot) overlaps(o slot) bool {
	return s.start < o.end && o.start < s.end
}

// Day lays out items that belong to dayStart. Items are assumed valid
// (start before end). All-day items are split off and not laid out.
//
// Columns are assigned in start order, ties broken by input order: each item
// takes the lowest column not used by an already placed item it overlaps.
// Every member of a connected overlap group then shares width 1/N, where N is
// the number of columns the group needed.
func Day(items []schedule.Item, dayStart time.Time) DayLayout {
	out := DayLayout{Day: dayStart}
	loc := dayStart.Location()
	dayEnd := dayStart.AddDate(0, 0, 1)

	var slots []slot
	for _, it := range items {
		start, end, ok := it.Interval()
		if !ok {
			continue
		}
		if it.AllDay() {
			out.AllDay = append(out.AllDay, it)
			continue
		}
		s := slot{item: it, start: MinutesFromMidnight(start, loc), end: MinutesFromMidnight(end, loc)}
		if start.Before(dayStart) {
			s.start = 0
		}
		if !end.Before(dayEnd) || s.end < s.start {
			s.end = MinutesPerDay
		}
		slots = append(slots, s)
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].start < slots[j].start })

	for i := range slots {
		used := make(map[int]bool)
		for j := 0; j < i; j++ {
			if slots[j].overlaps(slots[i]) {
				used[slots[j].col] = true
			}
		}
		col := 0
		for used[col] {
			col++
		}
		slots[i].col = col
	}

	// Sorted by start, a group ends when the next start reaches the furthest
	// end seen so far.
	for lo := 0; lo < len(slots); {
		hi, maxEnd, cols := lo, slots[lo].end, 0
		for hi < len(slots) && (hi == lo || slots[hi].start < maxEnd) {
			if slots[hi].end > maxEnd {
				maxEnd = slots[hi].end
			}
			if slots[hi].col+1 > cols {
				cols = slots[hi].col + 1
			}
			hi++
		}
		width := 1 / float64(cols)
		for _, s := range slots[lo:hi] {
			out.Timed = append(out.Timed, Placement{
				Item:    s.item,
				Top:     s.start / MinutesPerDay,
				Height:  (s.end - s.start) / MinutesPerDay,
				Left:    float64(s.col) * width,
				Width:   width,
				Column:  s.col,
				Columns: cols,
			})
		}
		lo = hi
	}
	return out
}

// Filter keeps the items whose effective start falls on day and whose
// calendar is selected.
func Filter(items []schedule.Item, day time.Time, selected schedule.CalendarSet) []schedule.Item {
	var out []schedule.Item
	for _, it := range items {
		start, _, ok := it.Interval()
		if !ok || !selected.Has(it.CalendarID()) {
			continue
		}
		if schedule.SameDay(day, start) {
			out = append(out, it)
		}
	}
	return out
}

// View lays out every day shown by a day or week view.
func View(items []schedule.Item, v schedule.ViewState, selected schedule.CalendarSet) []DayLayout {
	days := v.Days()
	out := make([]DayLayout, len(days))
	for i, d := range days {
		out[i] = Day(Filter(items, d, selected), d)
	}
	return out
}

type MonthCell struct {
	Day     time.Time
	InMonth bool
	Items   []schedule.Item
}

// Month buckets items per day of the month grid, all-day items first, then
// by start.
func Month(items []schedule.Item, v schedule.ViewState, selected schedule.CalendarSet) []MonthCell {
	days := v.WithMode(schedule.ModeMonth).Days()
	out := make([]MonthCell, len(days))
	for i, d := range days {
		cell := MonthCell{Day: d, InMonth: d.Month() == v.Date.Month(), Items: Filter(items, d, selected)}
		sort.SliceStable(cell.Items, func(a, b int) bool {
			ia, ib := cell.Items[a], cell.Items[b]
			if ia.AllDay() != ib.AllDay() {
				return ia.AllDay()
			}
			sa, _, _ := ia.Interval()
			sb, _, _ := ib.Interval()
			return sa.Before(sb)
		})
		out[i] = cell
	}
	return out
}

// Items merges events and tasks into one list, events first.
func Items(events []schedule.Event, tasks []schedule.Task) []schedule.Item {
	out := make([]schedule.Item, 0, len(events)+len(tasks))
	for _, e := range events {
		out = append(out, schedule.EventItem(e))
	}
	for _, t := range tasks {
		out = append(out, schedule.TaskItem(t))
	}
	return out
}
