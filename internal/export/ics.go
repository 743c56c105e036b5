package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sadopc/asap/internal/schedule"
)

const (
	icsProductID = "-//asap//schedule export//EN"
	icsUIDDomain = "asap.local"
	icsUTCLayout = "20060102T150405Z"
)

// ToICS writes events as VEVENTs and tasks as VTODOs.
func ToICS(d Data, path string) error {
	if err := os.WriteFile(path, []byte(ICS(d, time.Now())), 0o644); err != nil {
		return fmt.Errorf("write ics file: %w", err)
	}
	return nil
}

// ICS renders d as an iCalendar document stamped with now.
func ICS(d Data, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, e := range d.Events {
		ev := cal.AddEvent(uid("event", e.ID))
		ev.SetDtStampTime(now)
		if e.AllDay {
			ev.SetAllDayStartAt(e.Start)
			ev.SetAllDayEndAt(e.End)
		} else {
			ev.SetStartAt(e.Start)
			ev.SetEndAt(e.End)
		}
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.Category != "" {
			ev.SetProperty(ical.ComponentPropertyCategories, e.Category)
		}
		if rule := rrule(e.Frequency); rule != "" {
			ev.AddProperty(ical.ComponentPropertyRrule, rule)
		}
	}

	for _, t := range d.Tasks {
		todo := cal.AddTodo(uid("task", t.ID))
		todo.SetProperty(ical.ComponentProperty("DTSTAMP"), utc(now))
		todo.SetProperty(ical.ComponentPropertySummary, t.Title)
		if start, _, ok := t.Interval(); ok {
			todo.SetProperty(ical.ComponentPropertyDtStart, utc(start))
		}
		if !t.DueDate.IsZero() {
			todo.SetProperty(ical.ComponentPropertyDue, utc(t.DueDate))
		}
		todo.SetProperty(ical.ComponentPropertyDuration, fmt.Sprintf("PT%dM", t.Duration))
		todo.SetProperty(ical.ComponentPropertyPriority, fmt.Sprint(icsPriority(t.Priority)))
		if t.Completed {
			todo.SetProperty(ical.ComponentPropertyStatus, "COMPLETED")
		} else {
			todo.SetProperty(ical.ComponentPropertyStatus, "NEEDS-ACTION")
		}
		if t.Description != "" {
			todo.SetProperty(ical.ComponentPropertyDescription, t.Description)
		}
		if cat := d.calendarName(t.CalendarID); cat != "Unknown" {
			todo.SetProperty(ical.ComponentPropertyCategories, cat)
		}
	}

	return cal.Serialize()
}

func uid(kind string, id int64) string {
	return fmt.Sprintf("%s-%d@%s", kind, id, icsUIDDomain)
}

func utc(t time.Time) string {
	return t.UTC().Format(icsUTCLayout)
}

func rrule(tag string) string {
	f := schedule.ParseFrequency(tag)
	if f == schedule.FrequencyNone {
		return ""
	}
	return "FREQ=" + strings.ToUpper(string(f))
}

// icsPriority maps onto RFC 5545 PRIORITY, where 1 is highest and 0 is
// undefined.
func icsPriority(p schedule.Priority) int {
	switch p {
	case schedule.PriorityASAP:
		return 1
	case schedule.PriorityHigh:
		return 3
	case schedule.PriorityMedium:
		return 5
	case schedule.PriorityLow:
		return 9
	}
	return 0
}
