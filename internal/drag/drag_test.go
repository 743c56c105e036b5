package drag

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sadopc/asap/internal/schedule"
)

var day = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h*60+m) * time.Minute) }

type recorder struct {
	events []schedule.Event
	tasks  []schedule.Task
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnEventUpdate: func(e schedule.Event) { r.events = append(r.events, e) },
		OnTaskUpdate:  func(t schedule.Task) { r.tasks = append(r.tasks, t) },
	}
}

func task30() schedule.Item {
	start, end := at(9, 0), at(9, 30)
	return schedule.TaskItem(schedule.Task{ID: 3, Title: "Review", Start: &start, End: &end, Duration: 30})
}

// ============================================================
// Snap
// ============================================================

func TestSnapExamples(t *testing.T) {
	cases := map[float64]float64{
		0:         0,
		7:         0,
		8:         15,
		14*60 + 7: 14 * 60,
		14*60 + 8: 14*60 + 15,
		1439:      1440,
	}
	for in, want := range cases {
		if got := Snap(in); got != want {
			t.Fatalf("Snap(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSnapProperty(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		x := r.Float64() * 1440
		s := Snap(x)
		if math.Mod(s, 15) != 0 {
			t.Fatalf("Snap(%v) = %v is not on the grid", x, s)
		}
		if math.Abs(s-x) > 7.5 {
			t.Fatalf("Snap(%v) = %v is too far", x, s)
		}
	}
}

// ============================================================
// State machine
// ============================================================

func TestDropCommitsSnappedTask(t *testing.T) {
	var rec recorder
	c := New(rec.callbacks())

	if err := c.Start(task30()); err != nil {
		t.Fatal(err)
	}
	if c.State() != Dragging {
		t.Fatalf("state = %v", c.State())
	}

	c.Move(day, 14*60+7)
	if c.State() != Previewing {
		t.Fatalf("state = %v", c.State())
	}
	preview, ok := c.Preview()
	if !ok {
		t.Fatal("expected preview")
	}
	if start, end, _ := preview.Interval(); !start.Equal(at(14, 0)) || !end.Equal(at(14, 30)) {
		t.Fatalf("preview = %v - %v", start, end)
	}

	moved, ok := c.Drop()
	if !ok {
		t.Fatal("drop should commit")
	}
	if c.State() != Idle || c.Outcome() != Committed {
		t.Fatalf("state=%v outcome=%v", c.State(), c.Outcome())
	}
	if len(rec.tasks) != 1 || len(rec.events) != 0 {
		t.Fatalf("callbacks: %d tasks, %d events", len(rec.tasks), len(rec.events))
	}
	got := rec.tasks[0]
	if !got.Start.Equal(at(14, 0)) || !got.End.Equal(at(14, 30)) {
		t.Fatalf("committed %v - %v", got.Start, got.End)
	}
	if got.ID != 3 || moved.ID() != 3 {
		t.Fatal("committed copy must keep identity")
	}
}

func TestEventCallback(t *testing.T) {
	var rec recorder
	c := New(rec.callbacks())
	ev := schedule.EventItem(schedule.Event{ID: 1, Title: "Sync", Start: at(9, 0), End: at(10, 0)})

	c.Start(ev)
	c.Move(day.AddDate(0, 0, 1), 11*60+52)
	c.Drop()

	if len(rec.events) != 1 {
		t.Fatalf("event callbacks = %d", len(rec.events))
	}
	got := rec.events[0]
	if !got.Start.Equal(at(35, 45)) || !got.End.Equal(at(36, 45)) {
		t.Fatalf("committed %v - %v", got.Start, got.End)
	}
}

func TestPreviewFollowsPointer(t *testing.T) {
	c := New(Callbacks{})
	c.Start(task30())
	c.Move(day, 600)
	c.Move(day, 615)
	c.Move(day, 301)
	p, _ := c.Preview()
	if start, _, _ := p.Interval(); !start.Equal(at(5, 0)) {
		t.Fatalf("preview start = %v", start)
	}
}

func TestDropWithoutRegionCancels(t *testing.T) {
	var rec recorder
	c := New(rec.callbacks())
	c.Start(task30())
	c.Move(day, 600)
	c.Leave()

	if c.State() != Dragging {
		t.Fatalf("leave should return to dragging, got %v", c.State())
	}
	if _, ok := c.Drop(); ok {
		t.Fatal("drop outside a region must not commit")
	}
	if c.Outcome() != Cancelled || c.State() != Idle {
		t.Fatalf("state=%v outcome=%v", c.State(), c.Outcome())
	}
	if len(rec.tasks) != 0 {
		t.Fatal("cancelled drag must not call back")
	}
}

func TestCancel(t *testing.T) {
	var rec recorder
	c := New(rec.callbacks())
	c.Start(task30())
	c.Move(day, 700)
	c.Cancel()

	if c.Outcome() != Cancelled || c.Active() {
		t.Fatal("cancel should end the drag")
	}
	if _, ok := c.Preview(); ok {
		t.Fatal("preview should be discarded")
	}
	if len(rec.tasks) != 0 {
		t.Fatal("cancel must not call back")
	}
}

func TestSecondStartRejected(t *testing.T) {
	c := New(Callbacks{})
	c.Start(task30())
	err := c.Start(task30())
	if !errors.Is(err, ErrDragActive) {
		t.Fatalf("err = %v", err)
	}
}

func TestStartRejectsUnplaceableAndOccurrences(t *testing.T) {
	c := New(Callbacks{})
	if err := c.Start(schedule.TaskItem(schedule.Task{ID: 1, Duration: 30})); !errors.Is(err, ErrNotPlaceable) {
		t.Fatalf("err = %v", err)
	}
	occ := schedule.EventItem(schedule.Event{ID: 1, Start: at(9, 0), End: at(10, 0), Occurrence: 2})
	if err := c.Start(occ); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("err = %v", err)
	}
	if c.State() != Idle {
		t.Fatal("rejected start must stay idle")
	}
}

func TestMoveClampsToDay(t *testing.T) {
	c := New(Callbacks{})
	c.Start(task30())
	c.Move(day, 1439)
	p, _ := c.Preview()
	if start, _, _ := p.Interval(); !start.Equal(at(23, 45)) {
		t.Fatalf("start = %v", start)
	}
	c.Move(day, -20)
	p, _ = c.Preview()
	if start, _, _ := p.Interval(); !start.Equal(day) {
		t.Fatalf("start = %v", start)
	}
}

func TestNudge(t *testing.T) {
	var rec recorder
	c := New(rec.callbacks())
	c.Start(task30())
	c.Nudge(2)
	c.Nudge(-1)
	c.Drop()
	if len(rec.tasks) != 1 || !rec.tasks[0].Start.Equal(at(9, 15)) {
		t.Fatalf("tasks = %+v", rec.tasks)
	}
}

func TestNudgeStaysWithinDay(t *testing.T) {
	var rec recorder
	c := New(rec.callbacks())
	late := at(23, 30)
	c.Start(schedule.EventItem(schedule.Event{ID: 1, Start: late, End: late.Add(15 * time.Minute)}))
	c.Nudge(4)
	if p, ok := c.Preview(); !ok || !p.Event.Start.Equal(at(23, 45)) {
		t.Fatalf("preview = %+v", p)
	}

	c.Nudge(-200)
	c.Drop()
	if len(rec.events) != 1 || !rec.events[0].Start.Equal(day) {
		t.Fatalf("events = %+v", rec.events)
	}
}

func TestIdleInputsIgnored(t *testing.T) {
	c := New(Callbacks{})
	c.Move(day, 100)
	c.Nudge(1)
	c.Leave()
	c.Cancel()
	if _, ok := c.Drop(); ok {
		t.Fatal("idle drop must do nothing")
	}
	if c.State() != Idle || c.Outcome() != Idle {
		t.Fatal("idle controller should stay untouched")
	}
}

func TestDurationPreservedProperty(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		d := time.Duration(15+r.Intn(240)) * time.Minute
		start := at(r.Intn(20), r.Intn(60))
		item := schedule.EventItem(schedule.Event{ID: 1, Start: start, End: start.Add(d)})

		var rec recorder
		c := New(rec.callbacks())
		c.Start(item)
		for j := 0; j < 1+r.Intn(5); j++ {
			c.Move(day.AddDate(0, 0, r.Intn(3)), r.Float64()*1500-30)
		}
		c.Drop()
		got := rec.events[0]
		if got.End.Sub(got.Start) != d {
			t.Fatalf("duration %v became %v", d, got.End.Sub(got.Start))
		}
	}
}
