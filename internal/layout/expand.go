package layout

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "github.com/sadopc/asap/internal/log"
	"github.com/sadopc/asap/internal/schedule"
)

const maxOccurrencesPerEvent = 5000

var freqs = map[schedule.Frequency]rrule.Frequency{
	schedule.FrequencyDaily:   rrule.DAILY,
	schedule.FrequencyWeekly:  rrule.WEEKLY,
	schedule.FrequencyMonthly: rrule.MONTHLY,
	schedule.FrequencyYearly:  rrule.YEARLY,
}

// Expand returns the events visible in [from, to). Recurring events yield one
// copy per occurrence with the base duration; copies other than the base
// carry Occurrence > 0 and are read-only for dragging.
func Expand(events []schedule.Event, from, to time.Time) []schedule.Event {
	out := make([]schedule.Event, 0, len(events))
	for _, ev := range events {
		freq, ok := freqs[schedule.ParseFrequency(ev.Frequency)]
		if !ok || ev.ID == 0 {
			out = append(out, ev)
			continue
		}
		out = append(out, expandEvent(ev, freq, from, to)...)
	}
	return out
}

func expandEvent(ev schedule.Event, freq rrule.Frequency, from, to time.Time) []schedule.Event {
	r, err := rrule.NewRRule(rrule.ROption{Freq: freq, Dtstart: ev.Start})
	if err != nil {
		appLog.Error("expand: build rule", err, "event", ev.ID, "frequency", ev.Frequency)
		return []schedule.Event{ev}
	}

	dur := ev.End.Sub(ev.Start)
	times := r.Between(from.In(ev.Start.Location()), to.In(ev.Start.Location()), true)
	if len(times) > maxOccurrencesPerEvent {
		appLog.Error("expand: truncated occurrences", errors.New("max occurrences reached"),
			"event", ev.ID, "cap", maxOccurrencesPerEvent)
		times = times[:maxOccurrencesPerEvent]
	}

	// The stored event is always kept so it stays draggable, even when its
	// own start is outside the window.
	out := []schedule.Event{ev}
	n := 0
	for _, start := range times {
		if start.Equal(ev.Start) || !start.Before(to) {
			continue
		}
		n++
		occ := ev
		occ.Start = start
		occ.End = start.Add(dur)
		occ.Occurrence = n
		out = append(out, occ)
	}
	return out
}
