package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Items      []jsonItem `json:"items"`
	Calendars  []jsonCal  `json:"calendars,omitempty"`
}

type jsonItem struct {
	Kind        string `json:"kind"`
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Calendar    string `json:"calendar"`
	CalendarID  int64  `json:"calendar_id"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Priority    string `json:"priority,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Due         string `json:"due,omitempty"`
	Completed   bool   `json:"completed,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
	Description string `json:"description,omitempty"`
}

type jsonCal struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func ToJSON(d Data, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(d.Events) + len(d.Tasks),
	}

	for _, e := range d.Events {
		secs := int64(e.End.Sub(e.Start) / time.Second)
		export.Items = append(export.Items, jsonItem{
			Kind:        "event",
			ID:          e.ID,
			Title:       e.Title,
			Calendar:    d.calendarName(e.CalendarID),
			CalendarID:  e.CalendarID,
			Start:       formatTime(e.Start),
			End:         formatTime(e.End),
			DurationSec: secs,
			Duration:    formatDuration(secs),
			Frequency:   e.Frequency,
			Description: e.Description,
		})
	}

	for _, t := range d.Tasks {
		item := jsonItem{
			Kind:        "task",
			ID:          t.ID,
			Title:       t.Title,
			Calendar:    d.calendarName(t.CalendarID),
			CalendarID:  t.CalendarID,
			DurationSec: taskSeconds(t),
			Duration:    formatDuration(taskSeconds(t)),
			Priority:    string(t.Priority),
			Difficulty:  string(t.Difficulty),
			Due:         formatTime(t.DueDate),
			Completed:   t.Completed,
			Frequency:   t.Frequency,
			Description: t.Description,
		}
		if s, e, ok := t.Interval(); ok {
			item.Start, item.End = formatTime(s), formatTime(e)
		}
		export.Items = append(export.Items, item)
	}

	for _, c := range d.Calendars {
		export.Calendars = append(export.Calendars, jsonCal{ID: c.ID, Name: c.Name, Color: c.Color})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
