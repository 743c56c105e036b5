// Package drag turns pointer movement over day columns into snapped
// reschedules of a single item.
package drag

import (
	"errors"
	"math"
	"time"

	"github.com/sadopc/asap/internal/layout"
	"github.com/sadopc/asap/internal/schedule"
)

var (
	ErrDragActive   = errors.New("drag: a drag is already in progress")
	ErrNotPlaceable = errors.New("drag: item has no start time")
	ErrReadOnly     = errors.New("drag: recurring occurrences cannot be moved")
)

// State of the controller. Committed and Cancelled are transient: the
// controller returns to Idle right away and reports them via Outcome.
type State int

const (
	Idle State = iota
	Dragging
	Previewing
	Committed
	Cancelled
)

var stateNames = []string{"idle", "dragging", "previewing", "committed", "cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Callbacks receive the rescheduled copy on commit.
type Callbacks struct {
	OnEventUpdate func(schedule.Event)
	OnTaskUpdate  func(schedule.Task)
}

type Controller struct {
	cb Callbacks

	state     State
	outcome   State
	item      schedule.Item
	candidate time.Time
}

func New(cb Callbacks) *Controller {
	return &Controller{cb: cb}
}

// Snap rounds minutes from midnight to the nearest 15 minute boundary.
func Snap(minutes float64) float64 {
	return math.Round(minutes/layout.SlotMinutes) * layout.SlotMinutes
}

func (c *Controller) State() State { return c.state }

// Outcome is how the last finished drag ended: Committed, Cancelled, or Idle
// if none has finished yet.
func (c *Controller) Outcome() State { return c.outcome }

func (c *Controller) Active() bool { return c.state == Dragging || c.state == Previewing }

// Item is the item being dragged.
func (c *Controller) Item() (schedule.Item, bool) {
	return c.item, c.Active()
}

func (c *Controller) Start(item schedule.Item) error {
	if c.Active() {
		return ErrDragActive
	}
	if _, _, ok := item.Interval(); !ok {
		return ErrNotPlaceable
	}
	if item.ReadOnly() {
		return ErrReadOnly
	}
	c.item = item
	c.candidate = time.Time{}
	c.state = Dragging
	return nil
}

// Move reports the pointer over day at the given minutes from midnight.
// Positions are clamped to the day so the candidate never starts on the next
// one.
func (c *Controller) Move(day time.Time, minutes float64) {
	if !c.Active() {
		return
	}
	minutes = math.Max(0, math.Min(minutes, layout.MinutesPerDay))
	snapped := Snap(minutes)
	if snapped >= layout.MinutesPerDay {
		snapped = layout.MinutesPerDay - layout.SlotMinutes
	}
	day = schedule.StartOfDay(day)
	c.candidate = time.Date(day.Year(), day.Month(), day.Day(), 0, int(snapped), 0, 0, day.Location())
	c.state = Previewing
}

// Nudge shifts the candidate by whole slots, starting from the item's own
// start when no candidate exists yet. Used by keyboard dragging. Like Move,
// it stays within the candidate's day.
func (c *Controller) Nudge(slots int) {
	if !c.Active() {
		return
	}
	from := c.candidate
	if c.state == Dragging {
		from, _, _ = c.item.Interval()
	}
	day := schedule.StartOfDay(from)
	minutes := from.Hour()*60 + from.Minute() + slots*layout.SlotMinutes
	minutes = max(0, min(minutes, layout.MinutesPerDay-layout.SlotMinutes))
	c.candidate = time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, from.Second(), from.Nanosecond(), day.Location())
	c.state = Previewing
}

// Leave reports that the pointer left every droppable region.
func (c *Controller) Leave() {
	if c.state == Previewing {
		c.state = Dragging
		c.candidate = time.Time{}
	}
}

// Preview is the dragged item moved to the current candidate.
func (c *Controller) Preview() (schedule.Item, bool) {
	if c.state != Previewing {
		return schedule.Item{}, false
	}
	return c.item.Reschedule(c.candidate), true
}

// Drop commits the preview through the update callback. Dropping without a
// valid candidate cancels.
func (c *Controller) Drop() (schedule.Item, bool) {
	switch c.state {
	case Previewing:
		moved := c.item.Reschedule(c.candidate)
		c.finish(Committed)
		switch moved.Kind {
		case schedule.KindEvent:
			if c.cb.OnEventUpdate != nil {
				c.cb.OnEventUpdate(moved.Event)
			}
		case schedule.KindTask:
			if c.cb.OnTaskUpdate != nil {
				c.cb.OnTaskUpdate(moved.Task)
			}
		}
		return moved, true
	case Dragging:
		c.finish(Cancelled)
	}
	return schedule.Item{}, false
}

func (c *Controller) Cancel() {
	if c.Active() {
		c.finish(Cancelled)
	}
}

func (c *Controller) finish(outcome State) {
	c.outcome = outcome
	c.state = Idle
	c.item = schedule.Item{}
	c.candidate = time.Time{}
}
