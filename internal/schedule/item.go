package schedule

import "time"

// Kind discriminates the Item union.
type Kind string

const (
	KindEvent Kind = "event"
	KindTask  Kind = "task"
)

// Item is anything placeable on the grid. Only the field matching Kind is
// meaningful.
type Item struct {
	Kind  Kind
	Event Event
	Task  Task
}

func EventItem(e Event) Item { return Item{Kind: KindEvent, Event: e} }
func TaskItem(t Task) Item   { return Item{Kind: KindTask, Task: t} }

// Key identifies an item across its lifecycle: by server id once assigned,
// by temporary id while a create is pending.
type Key struct {
	Kind   Kind
	ID     int64
	TempID string
}

func EventKey(e Event) Key {
	if e.ID == 0 {
		return Key{Kind: KindEvent, TempID: e.TempID}
	}
	return Key{Kind: KindEvent, ID: e.ID}
}

func TaskKey(t Task) Key {
	if t.ID == 0 {
		return Key{Kind: KindTask, TempID: t.TempID}
	}
	return Key{Kind: KindTask, ID: t.ID}
}

func (i Item) Key() Key {
	if i.Kind == KindTask {
		return TaskKey(i.Task)
	}
	return EventKey(i.Event)
}

func (i Item) ID() int64 {
	if i.Kind == KindTask {
		return i.Task.ID
	}
	return i.Event.ID
}

func (i Item) Title() string {
	if i.Kind == KindTask {
		return i.Task.Title
	}
	return i.Event.Title
}

func (i Item) CalendarID() int64 {
	if i.Kind == KindTask {
		return i.Task.CalendarID
	}
	return i.Event.CalendarID
}

// Pending reports whether the item is a not yet confirmed create.
func (i Item) Pending() bool {
	return i.ID() == 0 && i.Key().TempID != ""
}

// ReadOnly reports whether the item is a synthesized recurrence occurrence.
func (i Item) ReadOnly() bool {
	return i.Kind == KindEvent && i.Event.Occurrence > 0
}

// Interval returns the effective [start, end). ok is false for tasks that
// have not been scheduled.
func (i Item) Interval() (start, end time.Time, ok bool) {
	switch i.Kind {
	case KindEvent:
		return i.Event.Start, i.Event.End, true
	case KindTask:
		return i.Task.Interval()
	}
	return time.Time{}, time.Time{}, false
}

// Interval of a task: explicit end if present, otherwise start + duration.
func (t Task) Interval() (start, end time.Time, ok bool) {
	if t.Start == nil {
		return time.Time{}, time.Time{}, false
	}
	start = *t.Start
	if t.End != nil {
		return start, *t.End, true
	}
	return start, start.Add(time.Duration(t.Duration) * time.Minute), true
}

func (i Item) Duration() time.Duration {
	start, end, ok := i.Interval()
	if !ok {
		return 0
	}
	return end.Sub(start)
}

// AllDay items span a whole day or more, or are flagged as such.
func (i Item) AllDay() bool {
	if i.Kind == KindEvent && i.Event.AllDay {
		return true
	}
	return i.Duration() >= 24*time.Hour
}

// Reschedule returns a copy moved to start with its duration unchanged.
func (i Item) Reschedule(start time.Time) Item {
	d := i.Duration()
	end := start.Add(d)
	switch i.Kind {
	case KindEvent:
		i.Event.Start = start
		i.Event.End = end
	case KindTask:
		i.Task.Start = &start
		i.Task.End = &end
	}
	return i
}
