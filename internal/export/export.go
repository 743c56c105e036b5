// Package export writes the loaded schedule to CSV, JSON or iCalendar.
package export

import (
	"fmt"
	"time"

	"github.com/sadopc/asap/internal/schedule"
)

// Data is what gets exported: the items currently loaded plus the
// calendars used to name them.
type Data struct {
	Events    []schedule.Event
	Tasks     []schedule.Task
	Calendars []schedule.Calendar
}

// Format is a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatICS  Format = "ics"
)

var Formats = []Format{FormatCSV, FormatJSON, FormatICS}

// Write dispatches to the writer for f.
func Write(f Format, d Data, path string) error {
	switch f {
	case FormatCSV:
		return ToCSV(d, path)
	case FormatJSON:
		return ToJSON(d, path)
	case FormatICS:
		return ToICS(d, path)
	}
	return fmt.Errorf("unknown export format %q", f)
}

func (d Data) calendarName(id int64) string {
	for _, c := range d.Calendars {
		if c.ID == id {
			return c.Name
		}
	}
	return "Unknown"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// taskSeconds is the scheduled length, or the estimated duration for
// unscheduled tasks.
func taskSeconds(t schedule.Task) int64 {
	if start, end, ok := t.Interval(); ok {
		return int64(end.Sub(start) / time.Second)
	}
	return int64(t.Duration) * 60
}
