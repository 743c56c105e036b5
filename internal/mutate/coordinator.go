// Package mutate applies create/update/delete of events and tasks to local
// state before the backend confirms them, and rolls back when it refuses.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	appLog "github.com/sadopc/asap/internal/log"
	"github.com/sadopc/asap/internal/schedule"
)

var (
	ErrUnknownItem = errors.New("mutate: item not in local state")
	ErrBusy        = errors.New("mutate: mutations in flight")
	ErrClosed      = errors.New("mutate: coordinator closed")
	ErrStale       = errors.New("mutate: data predates a local mutation")
	ErrPending     = errors.New("mutate: item not yet created on the backend")
)

// API is the part of the backend client the coordinator talks to.
type API interface {
	CreateEvent(ctx context.Context, draft schedule.Event) (schedule.Event, error)
	UpdateEvent(ctx context.Context, ev schedule.Event) (schedule.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	CreateTask(ctx context.Context, draft schedule.Task, auto bool) (schedule.Task, error)
	UpdateTask(ctx context.Context, t schedule.Task) (schedule.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	GenerateSchedule(ctx context.Context, events []schedule.Event, tasks []schedule.Task) ([]schedule.Event, []schedule.Task, error)
}

type Coordinator struct {
	api    API
	notify Notifier
	newID  func() string
	queue  *keyedQueue

	mu       sync.RWMutex
	events   []schedule.Event
	tasks    []schedule.Task
	inflight int
	gen      uint64
	closed   bool
	onChange func()
}

type Option func(*Coordinator)

// WithTempIDs overrides how placeholder ids for pending creates are made.
func WithTempIDs(fn func() string) Option {
	return func(c *Coordinator) { c.newID = fn }
}

func New(api API, notifier Notifier, opts ...Option) *Coordinator {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	c := &Coordinator{
		api:    api,
		notify: notifier,
		newID:  func() string { return "tmp-" + uuid.NewString() },
		queue:  newKeyedQueue(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to run after every local state change.
func (c *Coordinator) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Close stops completions of in-flight requests from touching state or
// notifying. Requests themselves are not cancelled.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Snapshot returns copies of the current lists.
func (c *Coordinator) Snapshot() ([]schedule.Event, []schedule.Task) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]schedule.Event(nil), c.events...), append([]schedule.Task(nil), c.tasks...)
}

// Pending reports the number of mutations in flight.
func (c *Coordinator) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight
}

// Generation counts the mutations started so far. Loaders read it before
// fetching and hand it back to ReplaceSince.
func (c *Coordinator) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Replace swaps in freshly loaded lists. It refuses while mutations are in
// flight so a reload cannot clobber optimistic state.
func (c *Coordinator) Replace(events []schedule.Event, tasks []schedule.Task) error {
	return c.replace(nil, events, tasks)
}

// ReplaceSince is Replace for lists fetched after Generation returned gen.
// It returns ErrStale when a mutation started after that point, as the
// lists may not include its result.
func (c *Coordinator) ReplaceSince(gen uint64, events []schedule.Event, tasks []schedule.Task) error {
	return c.replace(&gen, events, tasks)
}

func (c *Coordinator) replace(gen *uint64, events []schedule.Event, tasks []schedule.Task) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.inflight > 0 {
		c.mu.Unlock()
		return ErrBusy
	}
	if gen != nil && *gen != c.gen {
		c.mu.Unlock()
		return ErrStale
	}
	c.events = append([]schedule.Event(nil), events...)
	c.tasks = append([]schedule.Task(nil), tasks...)
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

// apply runs fn under the state lock unless the coordinator is closed.
func (c *Coordinator) apply(fn func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	fn()
	onChange := c.onChange
	c.mu.Unlock()
	if onChange != nil {
		onChange()
	}
	return true
}

func (c *Coordinator) emit(level Level, title, msg string) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}
	c.notify.Notify(Notification{Level: level, Title: title, Message: msg})
}

func (c *Coordinator) begin() {
	c.mu.Lock()
	c.inflight++
	c.gen++
	c.mu.Unlock()
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func indexEvent(list []schedule.Event, key schedule.Key) int {
	for i, e := range list {
		if schedule.EventKey(e) == key {
			return i
		}
	}
	return -1
}

func indexTask(list []schedule.Task, key schedule.Key) int {
	for i, t := range list {
		if schedule.TaskKey(t) == key {
			return i
		}
	}
	return -1
}

// ============================================================
// Events
// ============================================================

// CreateEvent appends a placeholder, creates the event remotely and swaps
// in the server copy, or drops the placeholder on failure.
func (c *Coordinator) CreateEvent(ctx context.Context, draft schedule.Event) (schedule.Event, error) {
	if err := draft.Validate(); err != nil {
		return schedule.Event{}, err
	}
	c.begin()
	defer c.end()

	temp := draft
	temp.ID = 0
	temp.TempID = c.newID()
	tempKey := schedule.EventKey(temp)
	c.apply(func() { c.events = append(c.events, temp) })

	created, err := c.api.CreateEvent(ctx, draft)
	if err != nil {
		appLog.Error("create event failed", err, "title", draft.Title)
		c.apply(func() {
			if i := indexEvent(c.events, tempKey); i >= 0 {
				c.events = append(c.events[:i], c.events[i+1:]...)
			}
		})
		c.emit(LevelError, msgCreateFailed, err.Error())
		return schedule.Event{}, err
	}

	c.apply(func() {
		i := indexEvent(c.events, tempKey)
		if i < 0 {
			i = indexEvent(c.events, schedule.EventKey(created))
		}
		if i >= 0 {
			c.events[i] = created
		} else {
			c.events = append(c.events, created)
		}
	})
	c.emit(LevelSuccess, msgCreated, created.Title)
	return created, nil
}

// UpdateEvent applies ev locally, then remotely; the previous version is
// restored if the backend refuses.
func (c *Coordinator) UpdateEvent(ctx context.Context, ev schedule.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.ID == 0 {
		return fmt.Errorf("update event %q: %w", ev.Title, ErrPending)
	}
	key := schedule.EventKey(ev)
	release, err := c.queue.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	c.begin()
	defer c.end()

	var prev schedule.Event
	found := false
	c.apply(func() {
		if i := indexEvent(c.events, key); i >= 0 {
			prev, found = c.events[i], true
			c.events[i] = ev
		}
	})
	if !found {
		return fmt.Errorf("update event %d: %w", ev.ID, ErrUnknownItem)
	}

	if _, err := c.api.UpdateEvent(ctx, ev); err != nil {
		appLog.Error("update event failed", err, "id", ev.ID)
		c.apply(func() {
			if i := indexEvent(c.events, key); i >= 0 {
				c.events[i] = prev
			}
		})
		c.emit(LevelError, msgUpdateFailed, err.Error())
		return err
	}
	c.emit(LevelSuccess, msgUpdated, ev.Title)
	return nil
}

// DeleteEvent removes the event locally, then remotely; on failure it is
// put back where it was.
func (c *Coordinator) DeleteEvent(ctx context.Context, id int64) error {
	key := schedule.Key{Kind: schedule.KindEvent, ID: id}
	release, err := c.queue.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	c.begin()
	defer c.end()

	var removed schedule.Event
	at := -1
	c.apply(func() {
		if at = indexEvent(c.events, key); at >= 0 {
			removed = c.events[at]
			c.events = append(c.events[:at], c.events[at+1:]...)
		}
	})
	if at < 0 {
		return fmt.Errorf("delete event %d: %w", id, ErrUnknownItem)
	}

	if err := c.api.DeleteEvent(ctx, id); err != nil {
		appLog.Error("delete event failed", err, "id", id)
		c.apply(func() { c.events = insertAt(c.events, at, removed) })
		c.emit(LevelError, fmt.Sprintf(msgDeleteFailedFmt, "event"), err.Error())
		return err
	}
	c.emit(LevelSuccess, msgDeleted, removed.Title)
	return nil
}

// ============================================================
// Tasks
// ============================================================

// CreateTask mirrors CreateEvent. Tasks with Auto set are created with the
// auto flag and then the whole schedule is regenerated by the backend.
func (c *Coordinator) CreateTask(ctx context.Context, draft schedule.Task) (schedule.Task, error) {
	if err := draft.Validate(); err != nil {
		return schedule.Task{}, err
	}
	c.begin()
	defer c.end()

	temp := draft
	temp.ID = 0
	temp.TempID = c.newID()
	tempKey := schedule.TaskKey(temp)
	c.apply(func() { c.tasks = append(c.tasks, temp) })

	created, err := c.api.CreateTask(ctx, draft, draft.Auto)
	if err != nil {
		appLog.Error("create task failed", err, "title", draft.Title)
		c.apply(func() {
			if i := indexTask(c.tasks, tempKey); i >= 0 {
				c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			}
		})
		c.emit(LevelError, msgCreateFailed, err.Error())
		return schedule.Task{}, err
	}

	c.apply(func() {
		i := indexTask(c.tasks, tempKey)
		if i < 0 {
			i = indexTask(c.tasks, schedule.TaskKey(created))
		}
		if i >= 0 {
			c.tasks[i] = created
		} else {
			c.tasks = append(c.tasks, created)
		}
	})
	c.emit(LevelSuccess, msgCreated, created.Title)

	if !draft.Auto {
		return created, nil
	}
	if err := c.regenerate(ctx); err != nil {
		return created, fmt.Errorf("auto-schedule: %w", err)
	}
	return created, nil
}

// Generate asks the backend to place every task again and adopts the
// result.
func (c *Coordinator) Generate(ctx context.Context) error {
	c.begin()
	defer c.end()
	return c.regenerate(ctx)
}

// regenerate replaces local state with the backend's generated schedule.
// On failure local state is left as it is.
func (c *Coordinator) regenerate(ctx context.Context) error {
	events, tasks := c.Snapshot()
	genEvents, genTasks, err := c.api.GenerateSchedule(ctx, events, tasks)
	if err != nil {
		appLog.Error("generate schedule failed", err)
		c.emit(LevelError, msgScheduleFailed, err.Error())
		return err
	}
	c.apply(func() {
		c.events = append([]schedule.Event(nil), genEvents...)
		c.tasks = append([]schedule.Task(nil), genTasks...)
	})
	appLog.Info("schedule generated", "events", len(genEvents), "tasks", len(genTasks))
	c.emit(LevelSuccess, msgScheduled, fmt.Sprintf("%d tasks placed", len(genTasks)))
	return nil
}

func (c *Coordinator) UpdateTask(ctx context.Context, t schedule.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == 0 {
		return fmt.Errorf("update task %q: %w", t.Title, ErrPending)
	}
	key := schedule.TaskKey(t)
	release, err := c.queue.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	c.begin()
	defer c.end()

	var prev schedule.Task
	found := false
	c.apply(func() {
		if i := indexTask(c.tasks, key); i >= 0 {
			prev, found = c.tasks[i], true
			c.tasks[i] = t
		}
	})
	if !found {
		return fmt.Errorf("update task %d: %w", t.ID, ErrUnknownItem)
	}

	if _, err := c.api.UpdateTask(ctx, t); err != nil {
		appLog.Error("update task failed", err, "id", t.ID)
		c.apply(func() {
			if i := indexTask(c.tasks, key); i >= 0 {
				c.tasks[i] = prev
			}
		})
		c.emit(LevelError, msgUpdateFailed, err.Error())
		return err
	}
	c.emit(LevelSuccess, msgUpdated, t.Title)
	return nil
}

func (c *Coordinator) DeleteTask(ctx context.Context, id int64) error {
	key := schedule.Key{Kind: schedule.KindTask, ID: id}
	release, err := c.queue.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	c.begin()
	defer c.end()

	var removed schedule.Task
	at := -1
	c.apply(func() {
		if at = indexTask(c.tasks, key); at >= 0 {
			removed = c.tasks[at]
			c.tasks = append(c.tasks[:at], c.tasks[at+1:]...)
		}
	})
	if at < 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrUnknownItem)
	}

	if err := c.api.DeleteTask(ctx, id); err != nil {
		appLog.Error("delete task failed", err, "id", id)
		c.apply(func() { c.tasks = insertAt(c.tasks, at, removed) })
		c.emit(LevelError, fmt.Sprintf(msgDeleteFailedFmt, "task"), err.Error())
		return err
	}
	c.emit(LevelSuccess, msgDeleted, removed.Title)
	return nil
}

// UpdateItem dispatches on the item kind.
func (c *Coordinator) UpdateItem(ctx context.Context, it schedule.Item) error {
	if it.Kind == schedule.KindTask {
		return c.UpdateTask(ctx, it.Task)
	}
	return c.UpdateEvent(ctx, it.Event)
}

// DeleteItem dispatches on the item kind.
func (c *Coordinator) DeleteItem(ctx context.Context, it schedule.Item) error {
	if it.Kind == schedule.KindTask {
		return c.DeleteTask(ctx, it.Task.ID)
	}
	return c.DeleteEvent(ctx, it.Event.ID)
}

// insertAt puts v back at index i, or at the end if the list shrank.
func insertAt[T any](list []T, i int, v T) []T {
	if i > len(list) {
		i = len(list)
	}
	list = append(list, v)
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}
