package layout

import (
	"math"
	"time"

	"github.com/sadopc/asap/internal/schedule"
)

// DayTotal is the scheduled time per calendar on one day.
type DayTotal struct {
	Day        time.Time
	ByCalendar map[int64]time.Duration
}

func (d DayTotal) Sum() time.Duration {
	var total time.Duration
	for _, v := range d.ByCalendar {
		total += v
	}
	return total
}

// Totals sums timed (non all-day) durations per day, clipped to the day.
func Totals(items []schedule.Item, days []time.Time, selected schedule.CalendarSet) []DayTotal {
	out := make([]DayTotal, len(days))
	for i, d := range days {
		out[i] = DayTotal{Day: d, ByCalendar: make(map[int64]time.Duration)}
		for _, p := range Day(Filter(items, d, selected), d).Timed {
			secs := math.Round(p.Height * MinutesPerDay * 60)
			out[i].ByCalendar[p.Item.CalendarID()] += time.Duration(secs) * time.Second
		}
	}
	return out
}
