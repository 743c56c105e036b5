// Package refresh loads a user's events, tasks and calendars from the
// backend and keeps them current on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	appLog "github.com/sadopc/asap/internal/log"
	"github.com/sadopc/asap/internal/mutate"
	"github.com/sadopc/asap/internal/schedule"
)

// Source is the read side of the backend client.
type Source interface {
	ListEvents(ctx context.Context, userID int64) ([]schedule.Event, error)
	AllTasks(ctx context.Context, userID int64, pageSize int) ([]schedule.Task, error)
	ListCalendars(ctx context.Context, userID int64) ([]schedule.Calendar, error)
}

// Sink receives freshly loaded items. *mutate.Coordinator implements it.
// Generation is read before fetching; ReplaceSince refuses the lists if
// the sink changed locally in the meantime.
type Sink interface {
	Generation() uint64
	ReplaceSince(gen uint64, events []schedule.Event, tasks []schedule.Task) error
}

type Result struct {
	Events    []schedule.Event
	Tasks     []schedule.Task
	Calendars []schedule.Calendar
	// Skipped is set when the sink refused the data because mutations were
	// in flight or started during the fetch.
	Skipped bool
}

type Loader struct {
	src      Source
	sink     Sink
	userID   int64
	pageSize int
}

func NewLoader(src Source, sink Sink, userID int64, pageSize int) *Loader {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Loader{src: src, sink: sink, userID: userID, pageSize: pageSize}
}

// Load fetches the three lists concurrently and hands events and tasks to
// the sink. Any fetch error aborts the whole load.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	var res Result
	gen := l.sink.Generation()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		evs, err := l.src.ListEvents(gctx, l.userID)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		res.Events = evs
		return nil
	})
	g.Go(func() error {
		tasks, err := l.src.AllTasks(gctx, l.userID, l.pageSize)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		res.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		cals, err := l.src.ListCalendars(gctx, l.userID)
		if err != nil {
			return fmt.Errorf("load calendars: %w", err)
		}
		res.Calendars = cals
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if err := l.sink.ReplaceSince(gen, res.Events, res.Tasks); err != nil {
		if !errors.Is(err, mutate.ErrBusy) && !errors.Is(err, mutate.ErrStale) {
			return res, err
		}
		appLog.Debug("refresh skipped", "reason", err)
		res.Skipped = true
	}
	return res, nil
}

// Refresher runs a Loader on a cron schedule.
type Refresher struct {
	loader  *Loader
	cron    *cron.Cron
	timeout time.Duration
	onLoad  func(Result, error)

	mu      sync.Mutex
	running bool
}

// New builds a refresher for a standard five-field cron spec evaluated in
// loc. onLoad, if non-nil, is called after every run.
func New(loader *Loader, spec string, loc *time.Location, timeout time.Duration, onLoad func(Result, error)) (*Refresher, error) {
	if loc == nil {
		loc = time.Local
	}
	r := &Refresher{
		loader:  loader,
		cron:    cron.New(cron.WithLocation(loc)),
		timeout: timeout,
		onLoad:  onLoad,
	}
	if _, err := r.cron.AddFunc(spec, r.Run); err != nil {
		return nil, fmt.Errorf("refresh spec %q: %w", spec, err)
	}
	return r, nil
}

// Run performs one refresh. Overlapping runs are dropped.
func (r *Refresher) Run() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		appLog.Debug("refresh already running")
		return
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res, err := r.loader.Load(ctx)
	if err != nil {
		appLog.Error("refresh failed", err)
	} else {
		appLog.Debug("refreshed", "events", len(res.Events), "tasks", len(res.Tasks), "calendars", len(res.Calendars))
	}
	if r.onLoad != nil {
		r.onLoad(res, err)
	}
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
