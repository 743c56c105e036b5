package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/asap/internal/api"
	"github.com/sadopc/asap/internal/export"
	"github.com/sadopc/asap/internal/mutate"
	"github.com/sadopc/asap/internal/refresh"
	"github.com/sadopc/asap/internal/schedule"
	"github.com/sadopc/asap/internal/store"
)

// noteTTL is how long a notification stays in the footer.
const noteTTL = 5 * time.Second

// Backend is what the views call directly. Event and task changes go
// through the coordinator instead.
type Backend interface {
	ListTasks(ctx context.Context, userID int64, limit, offset int) (api.TaskPage, error)
	ListCalendars(ctx context.Context, userID int64) ([]schedule.Calendar, error)
	CreateCalendar(ctx context.Context, cal schedule.Calendar) (schedule.Calendar, error)
	UpdateCalendar(ctx context.Context, cal schedule.Calendar) (schedule.Calendar, error)
	DeleteCalendar(ctx context.Context, id int64) error
}

type Options struct {
	Store   *store.Store
	Backend Backend
	Coord   *mutate.Coordinator
	// Loader is used for the first load and manual reloads. Optional.
	Loader   *refresh.Loader
	User     schedule.User
	Location *time.Location
	Now      func() time.Time
}

type note struct {
	n  mutate.Notification
	at time.Time
}

// App is the root Bubble Tea model.
type App struct {
	store   *store.Store
	backend Backend
	coord   *mutate.Coordinator
	loader  *refresh.Loader
	user    schedule.User
	now     func() time.Time
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	loading       bool

	calendars   []schedule.Calendar
	selectedIDs []int64

	sched         scheduleModel
	tasks         tasksModel
	calendarsView calendarsModel
	reports       reportsModel
	settings      settingsModel

	help      help.Model
	status    string
	statusErr bool
	notes     []note
}

func NewApp(opts Options) App {
	h := help.New()
	h.ShowAll = false

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	uid := opts.User.ID
	s := opts.Store

	mode := schedule.ParseMode(settingOr(s, store.SettingDefaultView, "week"))
	weekStart := schedule.ParseWeekStart(settingOr(s, store.SettingWeekStart, "sunday"))
	ids, _ := s.SelectedCalendars()

	a := App{
		store:         s,
		backend:       opts.Backend,
		coord:         opts.Coord,
		loader:        opts.Loader,
		user:          opts.User,
		now:           now,
		activeView:    viewSchedule,
		loading:       opts.Loader != nil,
		selectedIDs:   ids,
		sched:         newScheduleModel(opts.Coord, uid, loc, now, mode, weekStart),
		tasks:         newTasksModel(opts.Backend, opts.Coord, uid, loc, now, s.GetInt(store.SettingTaskPageSize, 20)),
		calendarsView: newCalendarsModel(opts.Backend, s, uid),
		reports:       newReportsModel(opts.Coord, loc, now, weekStart),
		settings:      newSettingsModel(s, opts.User),
		help:          h,
	}
	a.applySettings()
	a.applyCalendars()
	return a
}

func settingOr(s *store.Store, k, fallback string) string {
	v, err := s.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

// applySettings pushes stored preferences into the views.
func (a *App) applySettings() {
	weekStart := schedule.ParseWeekStart(settingOr(a.store, store.SettingWeekStart, "sunday"))
	duration := a.store.GetInt(store.SettingDefaultDuration, 60)
	a.sched.applySettings(a.store.GetInt(store.SettingRowsPerHour, 2), duration, weekStart)
	a.tasks.defaultDuration = duration
	if n := a.store.GetInt(store.SettingTaskPageSize, 20); n > 0 {
		a.tasks.pageSize = n
	}
	a.reports.weekStart = weekStart
}

// applyCalendars pushes the calendar list and selection into the views.
func (a *App) applyCalendars() {
	set := make(schedule.CalendarSet, len(a.selectedIDs))
	for _, id := range a.selectedIDs {
		set[id] = struct{}{}
	}
	a.sched.setCalendars(a.calendars, set)
	a.tasks.setCalendars(a.calendars)
	a.calendarsView.setCalendars(a.calendars, set)
	a.reports.setCalendars(a.calendars, set)
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.load(),
		a.settings.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) load() tea.Cmd {
	if a.loader == nil {
		return nil
	}
	l := a.loader
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		res, err := l.Load(ctx)
		return loadedMsg{res: res, err: err}
	}
}

func (a App) headerHeight() int {
	return lipgloss.Height(a.renderHeader())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - a.headerHeight() - 1
		a.sched.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.calendarsView.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.reports.buildChart()
		return a, nil

	case tea.MouseMsg:
		if a.activeView != viewSchedule || a.exportPicking {
			return a, nil
		}
		msg.Y -= a.headerHeight()
		var cmd tea.Cmd
		a.sched, cmd = a.sched.update(msg)
		return a, cmd

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Refresh):
			a.loading = a.loader != nil
			return a, tea.Batch(a.load(), a.calendarsView.refresh(), a.refreshCurrentView())
		case key.Matches(msg, keys.Back) && len(a.notes) > 0:
			a.notes = a.notes[1:]
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewSchedule
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewCalendars
			return a, a.calendarsView.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		cutoff := a.now().Add(-noteTTL)
		kept := a.notes[:0:0]
		for _, n := range a.notes {
			if n.at.After(cutoff) {
				kept = append(kept, n)
			}
		}
		a.notes = kept
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case notifyMsg:
		a.notes = append(a.notes, note{n: msg.n, at: a.now()})
		if len(a.notes) > 3 {
			a.notes = a.notes[len(a.notes)-3:]
		}
		return a, nil

	case loadedMsg:
		a.loading = false
		if msg.err != nil {
			a.status = fmt.Sprintf("Load failed: %v", msg.err)
			a.statusErr = true
			return a, nil
		}
		a.calendars = msg.res.Calendars
		a.applyCalendars()
		if msg.res.Skipped {
			a.status = "Reload skipped while changes are saving"
		} else {
			a.status = fmt.Sprintf("Loaded %d events, %d tasks", len(msg.res.Events), len(msg.res.Tasks))
		}
		a.statusErr = false
		return a.broadcastItems()

	case itemsChangedMsg:
		return a.broadcastItems()

	case calendarsMsg:
		if msg.err != nil {
			a.status = fmt.Sprintf("Could not load calendars: %v", msg.err)
			a.statusErr = true
			return a, nil
		}
		a.calendars = msg.calendars
		a.applyCalendars()
		return a, nil

	case selectionMsg:
		a.selectedIDs = msg.ids
		a.applyCalendars()
		return a, a.reports.refresh()

	case opDoneMsg:
		if st, ok := opStatus(msg.op, msg.err); ok {
			a.status = st.text
			a.statusErr = st.isError
		}
		if a.tasks.loaded {
			return a, a.tasks.refresh()
		}
		return a, nil

	case settingsSavedMsg:
		a.applySettings()
		a.status = "Settings saved"
		a.statusErr = false
		return a, a.reports.refresh()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case taskPageMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// broadcastItems lets every item view re-read the coordinator.
func (a App) broadcastItems() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.sched, cmd = a.sched.update(itemsChangedMsg{})
	cmds = append(cmds, cmd)
	a.tasks, cmd = a.tasks.update(itemsChangedMsg{})
	cmds = append(cmds, cmd)
	a.reports, cmd = a.reports.update(itemsChangedMsg{})
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewSchedule:
		a.sched, cmd = a.sched.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewCalendars:
		a.calendarsView, cmd = a.calendarsView.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewSchedule:
		return a.sched.capturing()
	case viewTasks:
		return a.tasks.form.active()
	case viewCalendars:
		return a.calendarsView.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTasks:
		return a.tasks.refresh()
	case viewCalendars:
		return a.calendarsView.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewSchedule:
		content = a.sched.view()
	case viewTasks:
		content = a.tasks.view()
	case viewCalendars:
		content = a.calendarsView.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("asap")
	if a.user.Name != "" {
		title += mutedStyle.Render(" · " + a.user.Name)
	}
	if a.loading {
		title += warningStyle.Render(" ⟳")
	}
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	right := ""
	switch {
	case len(a.notes) > 0:
		right = renderNote(a.notes[len(a.notes)-1].n)
		if n := len(a.notes); n > 1 {
			right += mutedStyle.Render(fmt.Sprintf(" (+%d)", n-1))
		}
	case a.status != "":
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		right = style.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func renderNote(n mutate.Notification) string {
	text := n.Title
	if n.Message != "" {
		text += ": " + n.Message
	}
	if n.Level == mutate.LevelError {
		return errorStyle.Render(" ✗ " + text)
	}
	return successStyle.Render(" ✓ " + text)
}

func (a App) renderExportPicker(_ int) string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range export.Formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+strings.ToUpper(string(f))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(export.Formats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(export.Formats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format export.Format) tea.Cmd {
	events, tasks := a.coord.Snapshot()
	data := export.Data{Events: events, Tasks: tasks, Calendars: a.calendars}
	now := a.now()
	return func() tea.Msg {
		home, err := os.UserHomeDir()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		path := filepath.Join(home, fmt.Sprintf("asap-export-%s.%s", now.Format("2006-01-02"), format))
		if err := export.Write(format, data, path); err != nil {
			return statusMsg{text: fmt.Sprintf("%s export error: %v", strings.ToUpper(string(format)), err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
