package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sadopc/asap/internal/schedule"
)

// ---- users ----

func (c *Client) GetUserByEmail(ctx context.Context, email string) (schedule.User, error) {
	var u schedule.User
	err := c.do(ctx, request{op: "get user", method: http.MethodGet, path: "/users/email/" + url.PathEscape(email), noAuth: true}, &u)
	return u, err
}

func (c *Client) CreateUser(ctx context.Context, u schedule.User) (schedule.User, error) {
	var out schedule.User
	err := c.do(ctx, request{op: "create user", method: http.MethodPost, path: "/users", body: u, noAuth: true}, &out)
	return out, err
}

// ---- events ----

func (c *Client) ListEvents(ctx context.Context, userID int64) ([]schedule.Event, error) {
	var out []schedule.Event
	err := c.do(ctx, request{op: "list events", method: http.MethodGet, path: "/events", query: userQuery(userID)}, &out)
	return out, err
}

func (c *Client) CreateEvent(ctx context.Context, draft schedule.Event) (schedule.Event, error) {
	draft.ID = 0
	var out schedule.Event
	err := c.do(ctx, request{op: "create event", method: http.MethodPost, path: "/events", body: draft}, &out)
	return out, err
}

func (c *Client) UpdateEvent(ctx context.Context, ev schedule.Event) (schedule.Event, error) {
	var out schedule.Event
	err := c.do(ctx, request{op: "update event", method: http.MethodPut, path: idPath("/events", ev.ID), body: ev}, &out)
	return out, err
}

func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete event", method: http.MethodDelete, path: idPath("/events", id, "delete")}, nil)
}

// ---- tasks ----

// TaskPage is one page of GET /tasks.
type TaskPage struct {
	Tasks []schedule.Task `json:"tasks"`
	Total int             `json:"total"`
}

func (c *Client) ListTasks(ctx context.Context, userID int64, limit, offset int) (TaskPage, error) {
	q := userQuery(userID)
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))
	var out TaskPage
	err := c.do(ctx, request{op: "list tasks", method: http.MethodGet, path: "/tasks", query: q}, &out)
	return out, err
}

// AllTasks pages through every task of the user.
func (c *Client) AllTasks(ctx context.Context, userID int64, pageSize int) ([]schedule.Task, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	var all []schedule.Task
	for offset := 0; ; offset += pageSize {
		page, err := c.ListTasks(ctx, userID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Tasks...)
		if len(page.Tasks) == 0 || len(all) >= page.Total {
			return all, nil
		}
	}
}

func (c *Client) CreateTask(ctx context.Context, draft schedule.Task, auto bool) (schedule.Task, error) {
	draft.ID = 0
	var q url.Values
	if auto {
		q = url.Values{"auto": []string{"true"}}
	}
	var out schedule.Task
	err := c.do(ctx, request{op: "create task", method: http.MethodPost, path: "/tasks", query: q, body: draft}, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, t schedule.Task) (schedule.Task, error) {
	var out schedule.Task
	err := c.do(ctx, request{op: "update task", method: http.MethodPut, path: idPath("/tasks", t.ID), body: t}, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete task", method: http.MethodDelete, path: idPath("/tasks", id)}, nil)
}

// ---- calendars ----

func (c *Client) ListCalendars(ctx context.Context, userID int64) ([]schedule.Calendar, error) {
	var out []schedule.Calendar
	err := c.do(ctx, request{op: "list calendars", method: http.MethodGet, path: "/calendars", query: userQuery(userID)}, &out)
	return out, err
}

func (c *Client) CreateCalendar(ctx context.Context, cal schedule.Calendar) (schedule.Calendar, error) {
	cal.ID = 0
	var out schedule.Calendar
	err := c.do(ctx, request{op: "create calendar", method: http.MethodPost, path: "/calendars", body: cal}, &out)
	return out, err
}

func (c *Client) UpdateCalendar(ctx context.Context, cal schedule.Calendar) (schedule.Calendar, error) {
	var out schedule.Calendar
	err := c.do(ctx, request{op: "update calendar", method: http.MethodPut, path: idPath("/calendars", cal.ID), body: cal}, &out)
	return out, err
}

func (c *Client) DeleteCalendar(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete calendar", method: http.MethodDelete, path: idPath("/calendars", id)}, nil)
}

// ---- schedule generation ----

// Plan is the payload and result of schedule generation.
type Plan struct {
	Events []schedule.Event `json:"events"`
	Tasks  []schedule.Task  `json:"tasks"`
}

// GenerateSchedule asks the backend to place auto-schedule tasks. The result
// is trusted as-is.
func (c *Client) GenerateSchedule(ctx context.Context, events []schedule.Event, tasks []schedule.Task) ([]schedule.Event, []schedule.Task, error) {
	in := Plan{Events: events, Tasks: tasks}
	if in.Events == nil {
		in.Events = []schedule.Event{}
	}
	if in.Tasks == nil {
		in.Tasks = []schedule.Task{}
	}
	var out Plan
	if err := c.do(ctx, request{op: "generate schedule", method: http.MethodPost, path: "/schedule/generate", body: in}, &out); err != nil {
		return nil, nil, err
	}
	return out.Events, out.Tasks, nil
}
