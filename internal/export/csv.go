package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"Kind", "ID", "Title", "Calendar", "Start", "End", "Duration (s)", "Duration", "Priority", "Due", "Completed", "Description"}

func ToCSV(d Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range d.Events {
		secs := int64(e.End.Sub(e.Start) / time.Second)
		row := []string{
			"event",
			strconv.FormatInt(e.ID, 10),
			e.Title,
			d.calendarName(e.CalendarID),
			formatTime(e.Start),
			formatTime(e.End),
			strconv.FormatInt(secs, 10),
			formatDuration(secs),
			"", "", "",
			e.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, t := range d.Tasks {
		var start, end string
		if s, e, ok := t.Interval(); ok {
			start, end = formatTime(s), formatTime(e)
		}
		secs := taskSeconds(t)
		row := []string{
			"task",
			strconv.FormatInt(t.ID, 10),
			t.Title,
			d.calendarName(t.CalendarID),
			start,
			end,
			strconv.FormatInt(secs, 10),
			formatDuration(secs),
			string(t.Priority),
			formatTime(t.DueDate),
			strconv.FormatBool(t.Completed),
			t.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
