package mutate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/asap/internal/schedule"
)

var errBackend = errors.New("backend said no")

var day = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

func clock(h, m int) time.Time { return day.Add(time.Duration(h*60+m) * time.Minute) }

// fakeAPI answers with the configured hooks; nil hooks echo the input back
// with the next id.
type fakeAPI struct {
	mu     sync.Mutex
	nextID int64
	calls  []string

	createEvent func(schedule.Event) (schedule.Event, error)
	updateEvent func(schedule.Event) error
	deleteEvent func(int64) error
	createTask  func(schedule.Task, bool) (schedule.Task, error)
	updateTask  func(schedule.Task) error
	deleteTask  func(int64) error
	generate    func([]schedule.Event, []schedule.Task) ([]schedule.Event, []schedule.Task, error)
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) id() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID
}

func (f *fakeAPI) CreateEvent(_ context.Context, draft schedule.Event) (schedule.Event, error) {
	f.record("create event " + draft.Title)
	if f.createEvent != nil {
		return f.createEvent(draft)
	}
	draft.ID = f.id()
	draft.TempID = ""
	return draft, nil
}

func (f *fakeAPI) UpdateEvent(_ context.Context, ev schedule.Event) (schedule.Event, error) {
	f.record("update event " + ev.Title)
	if f.updateEvent != nil {
		return ev, f.updateEvent(ev)
	}
	return ev, nil
}

func (f *fakeAPI) DeleteEvent(_ context.Context, id int64) error {
	f.record(fmt.Sprintf("delete event %d", id))
	if f.deleteEvent != nil {
		return f.deleteEvent(id)
	}
	return nil
}

func (f *fakeAPI) CreateTask(_ context.Context, draft schedule.Task, auto bool) (schedule.Task, error) {
	f.record(fmt.Sprintf("create task %s auto=%v", draft.Title, auto))
	if f.createTask != nil {
		return f.createTask(draft, auto)
	}
	draft.ID = f.id()
	draft.TempID = ""
	return draft, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, t schedule.Task) (schedule.Task, error) {
	f.record("update task " + t.Title)
	if f.updateTask != nil {
		return t, f.updateTask(t)
	}
	return t, nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, id int64) error {
	f.record(fmt.Sprintf("delete task %d", id))
	if f.deleteTask != nil {
		return f.deleteTask(id)
	}
	return nil
}

func (f *fakeAPI) GenerateSchedule(_ context.Context, events []schedule.Event, tasks []schedule.Task) ([]schedule.Event, []schedule.Task, error) {
	f.record("generate")
	if f.generate != nil {
		return f.generate(events, tasks)
	}
	return events, tasks, nil
}

type inbox struct {
	mu   sync.Mutex
	msgs []Notification
}

func (b *inbox) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, n)
}

func (b *inbox) count(level Level) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.msgs {
		if m.Level == level {
			n++
		}
	}
	return n
}

func (b *inbox) titles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.msgs {
		out = append(out, m.Title)
	}
	return out
}

func newTestCoordinator(t *testing.T, api *fakeAPI) (*Coordinator, *inbox) {
	t.Helper()
	box := &inbox{}
	n := 0
	c := New(api, box, WithTempIDs(func() string {
		n++
		return fmt.Sprintf("tmp-%d", n)
	}))
	return c, box
}

func seed(t *testing.T, c *Coordinator) {
	t.Helper()
	start, end := clock(13, 0), clock(14, 0)
	err := c.Replace(
		[]schedule.Event{
			{ID: 1, Title: "Standup", Start: clock(9, 0), End: clock(9, 15), CalendarID: 1},
			{ID: 2, Title: "Design review", Start: clock(10, 0), End: clock(11, 0), CalendarID: 1},
			{ID: 3, Title: "Lunch", Start: clock(12, 0), End: clock(13, 0), CalendarID: 2},
		},
		[]schedule.Task{
			{ID: 10, Title: "Write report", Start: &start, End: &end, Duration: 60, Priority: schedule.PriorityHigh, Difficulty: schedule.DifficultyHard},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Create
// ============================================================

func TestCreateThenConfirm(t *testing.T) {
	api := &fakeAPI{createEvent: func(d schedule.Event) (schedule.Event, error) {
		d.ID = 7
		return d, nil
	}}
	c, box := newTestCoordinator(t, api)

	created, err := c.CreateEvent(context.Background(), schedule.Event{Title: "Standup", Start: clock(9, 0), End: clock(9, 30)})
	if err != nil {
		t.Fatal(err)
	}
	events, _ := c.Snapshot()
	if len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
	got := events[0]
	if got.ID != 7 || got.Title != "Standup" || !got.Start.Equal(clock(9, 0)) || !got.End.Equal(clock(9, 30)) {
		t.Fatalf("got %+v", got)
	}
	if got.TempID != "" || created.ID != 7 {
		t.Fatal("placeholder must be replaced by the server object")
	}
	if box.count(LevelSuccess) != 1 || box.count(LevelError) != 0 {
		t.Fatalf("notifications = %v", box.titles())
	}
}

func TestCreateConfirmNoDuplicate(t *testing.T) {
	api := &fakeAPI{createTask: func(d schedule.Task, _ bool) (schedule.Task, error) {
		d.ID = 42
		return d, nil
	}}
	c, _ := newTestCoordinator(t, api)
	seed(t, c)

	if _, err := c.CreateTask(context.Background(), schedule.Task{Title: "Plan", Duration: 30}); err != nil {
		t.Fatal(err)
	}
	_, tasks := c.Snapshot()
	matches := 0
	for _, task := range tasks {
		if task.ID == 42 {
			matches++
		}
		if task.TempID != "" {
			t.Fatalf("temporary entry left behind: %+v", task)
		}
	}
	if matches != 1 || len(tasks) != 2 {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestCreateShowsPlaceholderWhilePending(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &fakeAPI{createEvent: func(d schedule.Event) (schedule.Event, error) {
		close(entered)
		<-release
		d.ID = 5
		return d, nil
	}}
	c, _ := newTestCoordinator(t, api)

	done := make(chan error)
	go func() {
		_, err := c.CreateEvent(context.Background(), schedule.Event{Title: "Retro", Start: clock(16, 0), End: clock(17, 0)})
		done <- err
	}()

	<-entered
	events, _ := c.Snapshot()
	if len(events) != 1 || events[0].TempID != "tmp-1" || events[0].ID != 0 {
		t.Fatalf("placeholder not visible: %+v", events)
	}
	if c.Pending() != 1 {
		t.Fatalf("pending = %d", c.Pending())
	}
	if err := c.Replace(nil, nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("replace during mutation: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	events, _ = c.Snapshot()
	if len(events) != 1 || events[0].ID != 5 {
		t.Fatalf("events = %+v", events)
	}
}

func TestCreateFailureRemovesPlaceholder(t *testing.T) {
	api := &fakeAPI{createEvent: func(schedule.Event) (schedule.Event, error) {
		return schedule.Event{}, errBackend
	}}
	c, box := newTestCoordinator(t, api)
	seed(t, c)
	before, _ := c.Snapshot()

	_, err := c.CreateEvent(context.Background(), schedule.Event{Title: "Retro", Start: clock(16, 0), End: clock(17, 0)})
	if !errors.Is(err, errBackend) {
		t.Fatalf("err = %v", err)
	}
	after, _ := c.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed: %+v", after)
	}
	if box.count(LevelError) != 1 || box.titles()[0] != "Failed to create item" {
		t.Fatalf("notifications = %v", box.titles())
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	api := &fakeAPI{}
	c, box := newTestCoordinator(t, api)

	_, err := c.CreateEvent(context.Background(), schedule.Event{Title: "Broken", Start: clock(10, 0), End: clock(9, 0)})
	var ve *schedule.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(api.callLog()) != 0 || len(box.titles()) != 0 {
		t.Fatal("invalid drafts must not reach the backend or notify")
	}
}

// ============================================================
// Update
// ============================================================

func TestUpdateRollbackIsExact(t *testing.T) {
	api := &fakeAPI{updateEvent: func(schedule.Event) error { return errBackend }}
	c, box := newTestCoordinator(t, api)
	seed(t, c)
	beforeEvents, beforeTasks := c.Snapshot()

	moved := beforeEvents[1]
	moved.Start, moved.End = clock(15, 0), clock(16, 0)
	if err := c.UpdateEvent(context.Background(), moved); !errors.Is(err, errBackend) {
		t.Fatalf("err = %v", err)
	}

	afterEvents, afterTasks := c.Snapshot()
	if !reflect.DeepEqual(beforeEvents, afterEvents) || !reflect.DeepEqual(beforeTasks, afterTasks) {
		t.Fatal("rollback must restore the exact previous state")
	}
	if box.count(LevelError) != 1 || box.count(LevelSuccess) != 0 {
		t.Fatalf("notifications = %v", box.titles())
	}
}

func TestUpdateAppliesBeforeResponse(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{updateTask: func(schedule.Task) error {
		close(entered)
		<-release
		return nil
	}}
	c, box := newTestCoordinator(t, api)
	seed(t, c)

	_, tasks := c.Snapshot()
	task := tasks[0]
	task.Completed = true

	done := make(chan error)
	go func() { done <- c.UpdateTask(context.Background(), task) }()

	<-entered
	if _, now := c.Snapshot(); !now[0].Completed {
		t.Fatal("update should be visible before the backend answers")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if _, now := c.Snapshot(); !now[0].Completed {
		t.Fatal("successful update stays applied")
	}
	if box.count(LevelSuccess) != 1 {
		t.Fatalf("notifications = %v", box.titles())
	}
}

func TestUpdateTaskRollback(t *testing.T) {
	api := &fakeAPI{updateTask: func(schedule.Task) error { return errBackend }}
	c, box := newTestCoordinator(t, api)
	seed(t, c)
	_, before := c.Snapshot()

	changed := before[0]
	s, e := clock(15, 0), clock(16, 0)
	changed.Start, changed.End = &s, &e
	c.UpdateTask(context.Background(), changed)

	_, after := c.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("tasks = %+v", after)
	}
	if box.count(LevelError) != 1 {
		t.Fatalf("notifications = %v", box.titles())
	}
}

func TestUpdateUnknownItem(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestCoordinator(t, api)
	seed(t, c)

	err := c.UpdateEvent(context.Background(), schedule.Event{ID: 99, Title: "x", Start: clock(1, 0), End: clock(2, 0)})
	if !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("err = %v", err)
	}
	if len(api.callLog()) != 0 {
		t.Fatal("unknown items must not reach the backend")
	}
}

func TestUpdatePendingItemRefused(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{createEvent: func(d schedule.Event) (schedule.Event, error) {
		close(entered)
		<-release
		d.ID = 5
		return d, nil
	}}
	c, _ := newTestCoordinator(t, api)

	done := make(chan error)
	go func() {
		_, err := c.CreateEvent(context.Background(), schedule.Event{Title: "Retro", Start: clock(16, 0), End: clock(17, 0)})
		done <- err
	}()
	<-entered

	events, _ := c.Snapshot()
	moved := events[0]
	moved.Start, moved.End = clock(18, 0), clock(19, 0)
	if err := c.UpdateEvent(context.Background(), moved); !errors.Is(err, ErrPending) {
		t.Fatalf("update placeholder: %v", err)
	}
	err := c.UpdateTask(context.Background(), schedule.Task{TempID: "tmp-9", Title: "Draft", Duration: 30})
	if !errors.Is(err, ErrPending) {
		t.Fatalf("update pending task: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := api.callLog(); !reflect.DeepEqual(got, []string{"create event Retro"}) {
		t.Fatalf("calls = %v", got)
	}
	events, _ = c.Snapshot()
	if len(events) != 1 || events[0].ID != 5 || !events[0].Start.Equal(clock(16, 0)) {
		t.Fatalf("events = %+v", events)
	}
}

func TestReplaceSinceRejectsStaleData(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestCoordinator(t, api)
	seed(t, c)

	gen := c.Generation()
	events, tasks := c.Snapshot()
	moved := events[0]
	moved.Start, moved.End = clock(14, 0), clock(14, 15)
	if err := c.UpdateEvent(context.Background(), moved); err != nil {
		t.Fatal(err)
	}
	if c.Generation() == gen {
		t.Fatal("generation did not advance")
	}

	if err := c.ReplaceSince(gen, events, tasks); !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v", err)
	}
	got, _ := c.Snapshot()
	if !got[0].Start.Equal(clock(14, 0)) {
		t.Fatalf("stale data replaced confirmed move: %+v", got[0])
	}

	if err := c.ReplaceSince(c.Generation(), events, tasks); err != nil {
		t.Fatal(err)
	}
	got, _ = c.Snapshot()
	if !got[0].Start.Equal(clock(9, 0)) {
		t.Fatalf("fresh data not adopted: %+v", got[0])
	}
}

// ============================================================
// Delete
// ============================================================

func TestDeleteFailureRestoresPosition(t *testing.T) {
	api := &fakeAPI{deleteEvent: func(int64) error { return errBackend }}
	c, box := newTestCoordinator(t, api)
	seed(t, c)
	before, _ := c.Snapshot()

	if err := c.DeleteEvent(context.Background(), 2); !errors.Is(err, errBackend) {
		t.Fatalf("err = %v", err)
	}
	after, _ := c.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("events = %+v", after)
	}
	if got := box.titles(); len(got) != 1 || got[0] != "Failed to delete event" {
		t.Fatalf("notifications = %v", got)
	}
}

func TestDeleteSuccess(t *testing.T) {
	api := &fakeAPI{}
	c, box := newTestCoordinator(t, api)
	seed(t, c)

	if err := c.DeleteTask(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	if _, tasks := c.Snapshot(); len(tasks) != 0 {
		t.Fatalf("tasks = %+v", tasks)
	}
	if box.count(LevelSuccess) != 1 {
		t.Fatalf("notifications = %v", box.titles())
	}

	if err := c.DeleteItem(context.Background(), schedule.EventItem(schedule.Event{ID: 1})); err != nil {
		t.Fatal(err)
	}
	if events, _ := c.Snapshot(); len(events) != 2 || events[0].ID != 2 {
		t.Fatalf("events = %+v", events)
	}
}

func TestDeleteTaskFailureMessage(t *testing.T) {
	api := &fakeAPI{deleteTask: func(int64) error { return errBackend }}
	c, box := newTestCoordinator(t, api)
	seed(t, c)

	c.DeleteTask(context.Background(), 10)
	if got := box.titles(); len(got) != 1 || got[0] != "Failed to delete task" {
		t.Fatalf("notifications = %v", got)
	}
	if _, tasks := c.Snapshot(); len(tasks) != 1 {
		t.Fatal("task should be back")
	}
}

// ============================================================
// Auto-schedule
// ============================================================

func TestAutoScheduleReplacesState(t *testing.T) {
	placed := clock(15, 0)
	placedEnd := clock(15, 45)
	api := &fakeAPI{}
	api.generate = func(events []schedule.Event, tasks []schedule.Task) ([]schedule.Event, []schedule.Task, error) {
		if len(events) != 3 || len(tasks) != 2 {
			return nil, nil, fmt.Errorf("unexpected input %d/%d", len(events), len(tasks))
		}
		out := append([]schedule.Task(nil), tasks...)
		out[1].Start, out[1].End = &placed, &placedEnd
		return events, out, nil
	}
	c, box := newTestCoordinator(t, api)
	seed(t, c)

	created, err := c.CreateTask(context.Background(), schedule.Task{Title: "Gym", Duration: 45, Auto: true})
	if err != nil {
		t.Fatal(err)
	}
	calls := api.callLog()
	if len(calls) != 2 || calls[0] != "create task Gym auto=true" || calls[1] != "generate" {
		t.Fatalf("calls = %v", calls)
	}
	_, tasks := c.Snapshot()
	if len(tasks) != 2 || tasks[1].ID != created.ID || tasks[1].Start == nil || !tasks[1].Start.Equal(placed) {
		t.Fatalf("tasks = %+v", tasks)
	}
	if got := box.titles(); len(got) != 2 || got[1] != "Schedule generated" {
		t.Fatalf("notifications = %v", got)
	}
}

func TestAutoScheduleFailureKeepsCreatedTask(t *testing.T) {
	api := &fakeAPI{generate: func([]schedule.Event, []schedule.Task) ([]schedule.Event, []schedule.Task, error) {
		return nil, nil, errBackend
	}}
	c, box := newTestCoordinator(t, api)
	seed(t, c)
	beforeEvents, beforeTasks := c.Snapshot()

	created, err := c.CreateTask(context.Background(), schedule.Task{Title: "Gym", Duration: 45, Auto: true})
	if !errors.Is(err, errBackend) {
		t.Fatalf("err = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("the create itself succeeded")
	}

	events, tasks := c.Snapshot()
	if !reflect.DeepEqual(beforeEvents, events) {
		t.Fatal("events must be untouched")
	}
	if !reflect.DeepEqual(beforeTasks, tasks[:len(beforeTasks)]) || len(tasks) != len(beforeTasks)+1 {
		t.Fatalf("tasks = %+v", tasks)
	}
	if box.count(LevelError) != 1 || box.count(LevelSuccess) != 1 {
		t.Fatalf("notifications = %v", box.titles())
	}
}

func TestNonAutoTaskSkipsGeneration(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestCoordinator(t, api)
	c.CreateTask(context.Background(), schedule.Task{Title: "Read", Duration: 20})
	for _, call := range api.callLog() {
		if call == "generate" {
			t.Fatal("generate should only run for auto tasks")
		}
	}
}

// ============================================================
// Serialization and lifecycle
// ============================================================

func TestMutationsOnSameItemAreSerialized(t *testing.T) {
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	var once sync.Once
	api := &fakeAPI{}
	api.updateEvent = func(ev schedule.Event) error {
		if ev.Title == "first" {
			once.Do(func() { close(firstEntered) })
			<-releaseFirst
			return errBackend
		}
		return nil
	}
	c, _ := newTestCoordinator(t, api)
	seed(t, c)
	events, _ := c.Snapshot()

	first, second := events[0], events[0]
	first.Title, second.Title = "first", "second"

	errs := make(chan error, 2)
	go func() { errs <- c.UpdateEvent(context.Background(), first) }()
	<-firstEntered
	go func() { errs <- c.UpdateEvent(context.Background(), second) }()

	// The second update must wait for the first to resolve.
	time.Sleep(20 * time.Millisecond)
	if calls := api.callLog(); len(calls) != 1 {
		t.Fatalf("second update ran concurrently: %v", calls)
	}
	close(releaseFirst)
	<-errs
	<-errs

	now, _ := c.Snapshot()
	if now[0].Title != "second" {
		t.Fatalf("final title = %q", now[0].Title)
	}
	if calls := api.callLog(); len(calls) != 2 || calls[0] != "update event first" || calls[1] != "update event second" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestDifferentItemsDoNotBlock(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	api := &fakeAPI{}
	api.updateEvent = func(ev schedule.Event) error {
		if ev.ID == 1 {
			close(entered)
			<-release
		}
		return nil
	}
	c, _ := newTestCoordinator(t, api)
	seed(t, c)
	events, _ := c.Snapshot()

	done := make(chan error, 1)
	go func() { done <- c.UpdateEvent(context.Background(), events[0]) }()
	<-entered

	if err := c.UpdateEvent(context.Background(), events[1]); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestQueuedMutationHonoursContext(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.deleteEvent = func(int64) error {
		close(entered)
		<-release
		return nil
	}
	c, _ := newTestCoordinator(t, api)
	seed(t, c)

	go c.DeleteEvent(context.Background(), 1)
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.DeleteEvent(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	close(release)
}

func TestClosedCoordinatorIgnoresCompletions(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{updateEvent: func(schedule.Event) error {
		close(entered)
		<-release
		return errBackend
	}}
	c, box := newTestCoordinator(t, api)
	seed(t, c)
	events, _ := c.Snapshot()
	changed := events[0]
	changed.Title = "changed"

	done := make(chan error)
	go func() { done <- c.UpdateEvent(context.Background(), changed) }()
	<-entered
	c.Close()
	close(release)
	<-done

	if len(box.titles()) != 0 {
		t.Fatal("closed coordinator must not notify")
	}
	if err := c.Replace(nil, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v", err)
	}
}

func TestOnChangeFires(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestCoordinator(t, api)
	var mu sync.Mutex
	changes := 0
	c.OnChange(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	c.CreateEvent(context.Background(), schedule.Event{Title: "x", Start: clock(1, 0), End: clock(2, 0)})
	mu.Lock()
	defer mu.Unlock()
	if changes != 2 {
		t.Fatalf("changes = %d, want placeholder + confirm", changes)
	}
}

func TestGenerateOnDemand(t *testing.T) {
	api := &fakeAPI{generate: func(events []schedule.Event, tasks []schedule.Task) ([]schedule.Event, []schedule.Task, error) {
		return events[:1], tasks, nil
	}}
	c, box := newTestCoordinator(t, api)
	seed(t, c)

	if err := c.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if events, _ := c.Snapshot(); len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
	if got := box.titles(); len(got) != 1 || got[0] != "Schedule generated" {
		t.Fatalf("notifications = %v", got)
	}
	if c.Pending() != 0 {
		t.Fatal("generate must not leave work in flight")
	}
}
