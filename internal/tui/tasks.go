package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/asap/internal/api"
	"github.com/sadopc/asap/internal/mutate"
	"github.com/sadopc/asap/internal/schedule"
)

type tasksModel struct {
	backend Backend
	coord   *mutate.Coordinator
	userID  int64
	loc     *time.Location
	now     func() time.Time
	width   int
	height  int

	tasks    []schedule.Task
	total    int
	offset   int
	pageSize int
	cursor   int
	loaded   bool
	err      string

	calendars       []schedule.Calendar
	defaultDuration int
	form            *itemForm
}

func newTasksModel(b Backend, c *mutate.Coordinator, userID int64, loc *time.Location, now func() time.Time, pageSize int) tasksModel {
	if pageSize <= 0 {
		pageSize = 20
	}
	return tasksModel{
		backend:         b,
		coord:           c,
		userID:          userID,
		loc:             loc,
		now:             now,
		pageSize:        pageSize,
		defaultDuration: 60,
		form:            newItemForm(),
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *tasksModel) setCalendars(cals []schedule.Calendar) {
	m.calendars = cals
}

type taskPageMsg struct {
	page   api.TaskPage
	offset int
	err    error
}

func (m tasksModel) refresh() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	b, userID, limit, offset := m.backend, m.userID, m.pageSize, m.offset
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		page, err := b.ListTasks(ctx, userID, limit, offset)
		return taskPageMsg{page: page, offset: offset, err: err}
	}
}

// overlay swaps in the coordinator's copy of every listed task so
// optimistic edits show before the page is fetched again.
func (m *tasksModel) overlay() {
	_, current := m.coord.Snapshot()
	byID := make(map[int64]schedule.Task, len(current))
	for _, t := range current {
		if t.ID != 0 {
			byID[t.ID] = t
		}
	}
	tasks := make([]schedule.Task, len(m.tasks))
	for i, t := range m.tasks {
		if u, ok := byID[t.ID]; ok {
			t = u
		}
		tasks[i] = t
	}
	m.tasks = tasks
}

func (m tasksModel) pages() int {
	return max(1, (m.total+m.pageSize-1)/m.pageSize)
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	switch msg := msg.(type) {
	case taskPageMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.loaded = true
		m.tasks = msg.page.Tasks
		m.total = msg.page.Total
		m.offset = msg.offset
		m.overlay()
		m.cursor = clamp(m.cursor, 0, len(m.tasks)-1)
		return m, nil

	case itemsChangedMsg:
		m.overlay()
		return m, nil
	}

	if m.form.active() {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Prev):
			if m.offset > 0 {
				m.offset = max(0, m.offset-m.pageSize)
				m.cursor = 0
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Next):
			if m.offset+m.pageSize < m.total {
				m.offset += m.pageSize
				m.cursor = 0
				return m, m.refresh()
			}
		case key.Matches(msg, keys.New), key.Matches(msg, keys.NewTask):
			due := schedule.StartOfDay(m.now().In(m.loc)).AddDate(0, 0, 1)
			return m, m.form.openTask(due, m.defaultDuration, m.calendars)
		case key.Matches(msg, keys.Toggle):
			if len(m.tasks) == 0 {
				return m, nil
			}
			t := m.tasks[m.cursor]
			t.Completed = !t.Completed
			return m, updateTaskCmd(m.coord, t)
		case key.Matches(msg, keys.Delete):
			if len(m.tasks) == 0 {
				return m, nil
			}
			t := m.tasks[m.cursor]
			m.tasks = append(m.tasks[:m.cursor:m.cursor], m.tasks[m.cursor+1:]...)
			m.total--
			m.cursor = clamp(m.cursor, 0, len(m.tasks)-1)
			return m, deleteItemCmd(m.coord, schedule.TaskItem(t))
		}
	}
	return m, nil
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	submitted, cmd := m.form.update(msg)
	if !submitted {
		return m, cmd
	}
	t, err := m.form.task.build(m.loc, m.userID)
	if err != nil {
		return m, m.form.reopen(err)
	}
	m.form.close()
	return m, createTaskCmd(m.coord, t)
}

func (m tasksModel) view() string {
	if m.form.active() {
		return m.form.view(m.width)
	}

	w := m.width - 4
	title := titleStyle.Render("Tasks")
	rows := []string{title, ""}

	if m.err != "" {
		rows = append(rows, errorStyle.Render("Could not load tasks: "+m.err), "")
	}
	if len(m.tasks) == 0 {
		msg := "No tasks yet. Press n to create one."
		if !m.loaded {
			msg = "Loading tasks..."
		}
		rows = append(rows, mutedStyle.Render(msg))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-28s %-8s %-8s %-18s %-12s %s", "Title", "Priority", "Effort", "Due", "Scheduled", "Length")))
	now := m.now()
	for i, t := range m.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "○"
		if t.Completed {
			check = successStyle.Render("✓")
		}
		due := "-"
		if !t.DueDate.IsZero() {
			due = humanize.RelTime(t.DueDate, now, "ago", "from now")
		}
		when := "unscheduled"
		if start, _, ok := t.Interval(); ok {
			when = start.In(m.loc).Format("Mon 02 15:04")
		}
		prio := priorityStyle(t.Priority).Render(fmt.Sprintf("%-8s", t.Priority))
		row := fmt.Sprintf("%s%s %s %s %-8s %-18s %-12s %s",
			cursor, check, style.Render(fmt.Sprintf("%-28s", truncate(t.Title, 28))), prio,
			t.Difficulty, truncate(due, 18), when, formatDuration(time.Duration(t.Duration)*time.Minute))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	page := m.offset/m.pageSize + 1
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  Page %d of %d, %s tasks", page, m.pages(), humanize.Comma(int64(m.total)))))
	rows = append(rows, mutedStyle.Render("  n: new  space: done  d: delete  ←/→: page  r: reload"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
