package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/asap/internal/drag"
	"github.com/sadopc/asap/internal/layout"
	"github.com/sadopc/asap/internal/mutate"
	"github.com/sadopc/asap/internal/schedule"
)

// Grid geometry, in content rows and cells. The title, day header and
// all-day rows sit above the timed grid.
const (
	gridTop = 3
	gutterW = 6
	minColW = 4
)

type scheduleModel struct {
	coord  *mutate.Coordinator
	userID int64
	loc    *time.Location
	now    func() time.Time
	width  int
	height int

	period          schedule.ViewState
	rowsPerHour     int
	defaultDuration int
	scroll          int // first visible grid row
	cursorDay       int // index into period.Days()
	cursor          int // index into the cursor day's items

	calendars []schedule.Calendar
	selected  schedule.CalendarSet
	items     []schedule.Item

	drag    *drag.Controller
	outbox  *[]tea.Cmd
	keyDrag bool
	grab    float64 // minutes between the item start and the pointer
	form    *itemForm
}

func newScheduleModel(c *mutate.Coordinator, userID int64, loc *time.Location, now func() time.Time, mode schedule.Mode, weekStart time.Weekday) scheduleModel {
	outbox := new([]tea.Cmd)
	ctrl := drag.New(drag.Callbacks{
		OnEventUpdate: func(ev schedule.Event) { *outbox = append(*outbox, updateEventCmd(c, ev)) },
		OnTaskUpdate:  func(t schedule.Task) { *outbox = append(*outbox, updateTaskCmd(c, t)) },
	})
	today := now().In(loc)
	s := scheduleModel{
		coord:           c,
		userID:          userID,
		loc:             loc,
		now:             now,
		period:          schedule.NewViewState(mode, today, weekStart),
		rowsPerHour:     2,
		defaultDuration: 60,
		drag:            ctrl,
		outbox:          outbox,
		form:            newItemForm(),
	}
	s.scroll = 8 * s.rowsPerHour
	s.cursorDay = s.dayIndex(today)
	s.refreshItems()
	return s
}

func (s *scheduleModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.clampScroll()
}

func (s *scheduleModel) setCalendars(cals []schedule.Calendar, selected schedule.CalendarSet) {
	s.calendars = cals
	s.selected = selected
	s.clampCursor()
}

// applySettings takes the grid preferences from the settings store.
func (s *scheduleModel) applySettings(rowsPerHour, defaultDuration int, weekStart time.Weekday) {
	switch rowsPerHour {
	case 1, 2, 4:
	default:
		rowsPerHour = 2
	}
	if s.rowsPerHour != rowsPerHour {
		s.scroll = s.scroll * rowsPerHour / s.rowsPerHour
		s.rowsPerHour = rowsPerHour
	}
	if defaultDuration > 0 {
		s.defaultDuration = defaultDuration
	}
	date := s.cursorDate()
	s.period.WeekStart = weekStart
	s.setDate(date)
}

// refreshItems re-reads the coordinator and expands recurrences over the
// visible range.
func (s *scheduleModel) refreshItems() {
	events, tasks := s.coord.Snapshot()
	from, to := s.period.Range()
	s.items = layout.Items(layout.Expand(events, from, to), tasks)
	s.clampCursor()
}

func (s scheduleModel) capturing() bool {
	return s.form.active() || s.drag.Active()
}

// --- geometry ---

func (s scheduleModel) totalRows() int     { return 24 * s.rowsPerHour }
func (s scheduleModel) minutesPerRow() int { return 60 / s.rowsPerHour }

func (s scheduleModel) visibleRows() int {
	return max(1, s.height-gridTop-1)
}

func (s scheduleModel) colWidth() int {
	n := len(s.period.Days())
	if n == 0 {
		return minColW
	}
	return max(minColW, (s.width-gutterW)/n)
}

func (s *scheduleModel) clampScroll() {
	s.scroll = clamp(s.scroll, 0, s.totalRows()-s.visibleRows())
}

// cellAt maps a content position to a day column and minutes from
// midnight.
func (s scheduleModel) cellAt(x, y int) (day int, minutes float64, ok bool) {
	row := y - gridTop
	if row < 0 || row >= s.visibleRows() || x < gutterW {
		return 0, 0, false
	}
	day = (x - gutterW) / s.colWidth()
	if day >= len(s.period.Days()) {
		return 0, 0, false
	}
	return day, float64((s.scroll + row) * s.minutesPerRow()), true
}

// pointFor is the content position of a day column at minutes from
// midnight.
func (s scheduleModel) pointFor(day int, minutes float64) (x, y int) {
	x = gutterW + day*s.colWidth() + 1
	y = gridTop + int(minutes)/s.minutesPerRow() - s.scroll
	return x, y
}

// span is the grid rows [r0, r1) and cells [x0, x1) of a placement,
// relative to its day column.
func (s scheduleModel) span(p layout.Placement) (r0, r1, x0, x1 int) {
	total := float64(s.totalRows())
	r0 = int(p.Top * total)
	r1 = int(math.Ceil(p.Bottom() * total))
	if r1 <= r0 {
		r1 = r0 + 1
	}
	usable := float64(s.colWidth() - 1)
	x0 = int(p.Left * usable)
	x1 = int((p.Left + p.Width) * usable)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	return r0, r1, x0, x1
}

// --- selection ---

func (s scheduleModel) dayIndex(t time.Time) int {
	for i, d := range s.period.Days() {
		if schedule.SameDay(d, t) {
			return i
		}
	}
	return 0
}

func (s scheduleModel) cursorDate() time.Time {
	days := s.period.Days()
	return days[clamp(s.cursorDay, 0, len(days)-1)]
}

func (s *scheduleModel) setDate(t time.Time) {
	s.period = s.period.WithDate(t.In(s.loc))
	s.cursorDay = s.dayIndex(t)
	s.cursor = 0
	s.refreshItems()
}

// dayItems lists the cursor day's items in display order: all-day first,
// then timed by start.
func (s scheduleModel) dayItems() []schedule.Item {
	day := s.cursorDate()
	if s.period.Mode == schedule.ModeMonth {
		for _, c := range layout.Month(s.items, s.period, s.selected) {
			if c.Day.Equal(day) {
				return c.Items
			}
		}
		return nil
	}
	dl := layout.Day(layout.Filter(s.items, day, s.selected), day)
	out := append([]schedule.Item(nil), dl.AllDay...)
	for _, p := range dl.Timed {
		out = append(out, p.Item)
	}
	return out
}

func (s scheduleModel) selectedItem() (schedule.Item, bool) {
	items := s.dayItems()
	if s.cursor < 0 || s.cursor >= len(items) {
		return schedule.Item{}, false
	}
	return items[s.cursor], true
}

func (s *scheduleModel) clampCursor() {
	s.cursor = clamp(s.cursor, 0, len(s.dayItems())-1)
}

// reveal scrolls so the selected item's start is visible.
func (s *scheduleModel) reveal() {
	it, ok := s.selectedItem()
	if !ok || it.AllDay() {
		return
	}
	start, _, _ := it.Interval()
	row := int(layout.MinutesFromMidnight(start, s.loc)) / s.minutesPerRow()
	if row < s.scroll {
		s.scroll = row
	} else if row >= s.scroll+s.visibleRows() {
		s.scroll = row - s.visibleRows() + 1
	}
	s.clampScroll()
}

// --- update ---

// flush hands the commands queued by drag callbacks to the runtime.
func (s scheduleModel) flush() tea.Cmd {
	cmds := *s.outbox
	*s.outbox = nil
	return tea.Batch(cmds...)
}

func (s scheduleModel) update(msg tea.Msg) (scheduleModel, tea.Cmd) {
	if _, ok := msg.(itemsChangedMsg); ok {
		s.refreshItems()
		return s, nil
	}
	if s.form.active() {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		return s.updateMouse(msg)
	case tea.KeyMsg:
		if s.drag.Active() {
			return s.updateKeyDrag(msg)
		}
		return s.updateKeys(msg)
	}
	return s, nil
}

func (s scheduleModel) updateForm(msg tea.Msg) (scheduleModel, tea.Cmd) {
	submitted, cmd := s.form.update(msg)
	if !submitted {
		return s, cmd
	}
	switch s.form.kind {
	case formEvent:
		ev, err := s.form.event.build(s.loc, s.userID)
		if err != nil {
			return s, s.form.reopen(err)
		}
		s.form.close()
		return s, createEventCmd(s.coord, ev)
	default:
		t, err := s.form.task.build(s.loc, s.userID)
		if err != nil {
			return s, s.form.reopen(err)
		}
		s.form.close()
		return s, createTaskCmd(s.coord, t)
	}
}

func (s scheduleModel) updateKeys(msg tea.KeyMsg) (scheduleModel, tea.Cmd) {
	month := s.period.Mode == schedule.ModeMonth
	switch {
	case key.Matches(msg, keys.Prev):
		s.period = s.period.Prev()
		s.cursor = 0
		s.refreshItems()
	case key.Matches(msg, keys.Next):
		s.period = s.period.Next()
		s.cursor = 0
		s.refreshItems()
	case key.Matches(msg, keys.Today):
		s.setDate(s.now())
	case key.Matches(msg, keys.Mode):
		date := s.cursorDate()
		s.period = s.period.WithMode((s.period.Mode + 1) % 3)
		s.setDate(date)
	case key.Matches(msg, keys.Left):
		s.moveCursorDay(-1)
	case key.Matches(msg, keys.Right):
		s.moveCursorDay(1)
	case month && key.Matches(msg, keys.Up):
		s.moveCursorDay(-7)
	case month && key.Matches(msg, keys.Down):
		s.moveCursorDay(7)
	case month && key.Matches(msg, keys.Enter):
		date := s.cursorDate()
		s.period = s.period.WithMode(schedule.ModeDay)
		s.setDate(date)
	case key.Matches(msg, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
		s.reveal()
	case key.Matches(msg, keys.Down):
		if s.cursor < len(s.dayItems())-1 {
			s.cursor++
		}
		s.reveal()
	case key.Matches(msg, keys.ScrollUp):
		s.scroll -= s.rowsPerHour * 2
		s.clampScroll()
	case key.Matches(msg, keys.ScrollDown):
		s.scroll += s.rowsPerHour * 2
		s.clampScroll()
	case key.Matches(msg, keys.New):
		return s, s.form.openEvent(s.newItemStart(), s.defaultDuration, s.calendars)
	case key.Matches(msg, keys.NewTask):
		return s, s.form.openTask(s.cursorDate(), s.defaultDuration, s.calendars)
	case key.Matches(msg, keys.Grab):
		return s.startKeyDrag()
	case key.Matches(msg, keys.Delete):
		it, ok := s.selectedItem()
		if !ok {
			return s, nil
		}
		if it.ReadOnly() || it.Pending() {
			return s, statusCmd("This item cannot be deleted right now", true)
		}
		return s, deleteItemCmd(s.coord, it)
	case key.Matches(msg, keys.Toggle):
		it, ok := s.selectedItem()
		if !ok || it.Kind != schedule.KindTask || it.Pending() {
			return s, nil
		}
		t := it.Task
		t.Completed = !t.Completed
		return s, updateTaskCmd(s.coord, t)
	case key.Matches(msg, keys.Generate):
		return s, tea.Batch(statusCmd("Generating schedule...", false), generateCmd(s.coord))
	}
	return s, nil
}

// moveCursorDay moves the cursor by delta days, paging the view when it
// leaves the visible range.
func (s *scheduleModel) moveCursorDay(delta int) {
	days := s.period.Days()
	next := s.cursorDay + delta
	if next >= 0 && next < len(days) {
		s.cursorDay = next
		s.cursor = 0
		return
	}
	s.setDate(s.cursorDate().AddDate(0, 0, delta))
}

// newItemStart is where a new event on the cursor day begins: the top of
// the visible grid, on the hour.
func (s scheduleModel) newItemStart() time.Time {
	day := s.cursorDate()
	hour := s.scroll / s.rowsPerHour
	if s.period.Mode == schedule.ModeMonth {
		hour = 9
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

func (s scheduleModel) startKeyDrag() (scheduleModel, tea.Cmd) {
	it, ok := s.selectedItem()
	if !ok {
		return s, nil
	}
	if it.Pending() {
		return s, statusCmd("Still saving, try again in a moment", true)
	}
	if it.AllDay() {
		return s, statusCmd("All-day items cannot be moved on the grid", true)
	}
	if err := s.drag.Start(it); err != nil {
		return s, statusCmd(dragError(err), true)
	}
	s.keyDrag = true
	return s, nil
}

func dragError(err error) string {
	switch {
	case errors.Is(err, drag.ErrReadOnly):
		return "Recurring occurrences are read-only; move the first one"
	case errors.Is(err, drag.ErrNotPlaceable):
		return "Unscheduled tasks have no place on the grid"
	}
	return err.Error()
}

func (s scheduleModel) updateKeyDrag(msg tea.KeyMsg) (scheduleModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		s.drag.Cancel()
		s.keyDrag = false
		return s, statusCmd("Move cancelled", false)
	case key.Matches(msg, keys.Enter):
		s.drag.Drop()
		s.keyDrag = false
		return s, s.flush()
	case key.Matches(msg, keys.Up):
		s.drag.Nudge(-1)
	case key.Matches(msg, keys.Down):
		s.drag.Nudge(1)
	case key.Matches(msg, keys.Left):
		s.shiftDragDay(-1)
	case key.Matches(msg, keys.Right):
		s.shiftDragDay(1)
	}
	s.followDrag()
	return s, nil
}

// shiftDragDay moves the drag candidate to the same time delta days away.
func (s *scheduleModel) shiftDragDay(delta int) {
	at, ok := s.dragStart()
	if !ok {
		return
	}
	at = at.In(s.loc)
	day := schedule.StartOfDay(at).AddDate(0, 0, delta)
	s.drag.Move(day, layout.MinutesFromMidnight(at, s.loc))
}

// dragStart is the start of the preview, or of the dragged item when there
// is no candidate yet.
func (s scheduleModel) dragStart() (time.Time, bool) {
	if p, ok := s.drag.Preview(); ok {
		start, _, _ := p.Interval()
		return start, true
	}
	if it, ok := s.drag.Item(); ok {
		start, _, _ := it.Interval()
		return start, true
	}
	return time.Time{}, false
}

// followDrag keeps the preview on screen, paging the view and scrolling
// the grid as needed.
func (s *scheduleModel) followDrag() {
	start, ok := s.dragStart()
	if !ok {
		return
	}
	start = start.In(s.loc)
	from, to := s.period.Range()
	if start.Before(from) || !start.Before(to) {
		s.period = s.period.WithDate(start)
		s.refreshItems()
	}
	s.cursorDay = s.dayIndex(start)
	row := int(layout.MinutesFromMidnight(start, s.loc)) / s.minutesPerRow()
	if row < s.scroll {
		s.scroll = row
	} else if row >= s.scroll+s.visibleRows() {
		s.scroll = row - s.visibleRows() + 1
	}
	s.clampScroll()
}

func (s scheduleModel) updateMouse(msg tea.MouseMsg) (scheduleModel, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		s.scroll -= s.rowsPerHour
		s.clampScroll()
		return s, nil
	case tea.MouseButtonWheelDown:
		s.scroll += s.rowsPerHour
		s.clampScroll()
		return s, nil
	}

	if s.period.Mode == schedule.ModeMonth {
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if i, ok := s.monthCellAt(msg.X, msg.Y); ok {
				s.cursorDay = i
				s.cursor = 0
			}
		}
		return s, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || s.drag.Active() {
			return s, nil
		}
		return s.pressAt(msg.X, msg.Y)
	case tea.MouseActionMotion:
		if !s.drag.Active() || s.keyDrag {
			return s, nil
		}
		day, minutes, ok := s.cellAt(msg.X, msg.Y)
		if !ok {
			s.drag.Leave()
			return s, nil
		}
		s.drag.Move(s.period.Days()[day], minutes-s.grab)
	case tea.MouseActionRelease:
		if !s.drag.Active() || s.keyDrag {
			return s, nil
		}
		s.drag.Drop()
		return s, s.flush()
	}
	return s, nil
}

// pressAt selects the item under the pointer and starts dragging it.
func (s scheduleModel) pressAt(x, y int) (scheduleModel, tea.Cmd) {
	day, minutes, ok := s.cellAt(x, y)
	if !ok {
		return s, nil
	}
	s.cursorDay = day
	s.cursor = 0
	p, idx, ok := s.placementAt(day, x, y)
	if !ok {
		return s, nil
	}
	s.cursor = idx
	if p.Item.Pending() {
		return s, nil
	}
	if err := s.drag.Start(p.Item); err != nil {
		return s, statusCmd(dragError(err), true)
	}
	start, _, _ := p.Item.Interval()
	s.grab = minutes - layout.MinutesFromMidnight(start, s.loc)
	return s, nil
}

// placementAt finds the timed placement drawn under (x, y) in a day
// column. idx is its position in dayItems.
func (s scheduleModel) placementAt(day, x, y int) (layout.Placement, int, bool) {
	d := s.period.Days()[day]
	dl := layout.Day(layout.Filter(s.items, d, s.selected), d)
	row := s.scroll + y - gridTop
	cx := x - gutterW - day*s.colWidth()
	for i, p := range dl.Timed {
		r0, r1, x0, x1 := s.span(p)
		if row >= r0 && row < r1 && cx >= x0 && cx < x1 {
			return p, len(dl.AllDay) + i, true
		}
	}
	return layout.Placement{}, 0, false
}

// --- view ---

func (s scheduleModel) view() string {
	if s.form.active() {
		return s.form.view(s.width)
	}
	if s.period.Mode == schedule.ModeMonth {
		return s.renderMonth()
	}
	days := s.period.Days()
	layouts := layout.View(s.items, s.period, s.selected)

	rows := []string{s.renderTitle(), s.renderDayHeaders(days), s.renderAllDay(layouts)}
	rows = append(rows, s.renderGrid(layouts)...)
	rows = append(rows, mutedStyle.Render("  n: event  t: task  g: move  d: delete  space: done  a: auto-schedule  v: view"))
	return strings.Join(rows, "\n")
}

func (s scheduleModel) periodLabel() string {
	days := s.period.Days()
	switch s.period.Mode {
	case schedule.ModeDay:
		return s.period.Date.Format("Monday, Jan 02 2006")
	case schedule.ModeWeek:
		first, last := days[0], days[len(days)-1]
		return fmt.Sprintf("%s - %s", first.Format("Jan 02"), last.Format("Jan 02, 2006"))
	}
	return s.period.Date.Format("January 2006")
}

func (s scheduleModel) renderTitle() string {
	title := titleStyle.Render(s.periodLabel()) + " " + mutedStyle.Render("["+s.period.Mode.String()+"]")
	if n := s.coord.Pending(); n > 0 {
		title += " " + warningStyle.Render(fmt.Sprintf("saving %d...", n))
	}
	if it, ok := s.drag.Item(); ok {
		moving := "moving " + it.Title()
		if p, ok := s.drag.Preview(); ok {
			start, _, _ := p.Interval()
			moving += " to " + start.In(s.loc).Format("Mon 15:04")
		}
		title += "  " + warningStyle.Render(moving)
	}
	return " " + title
}

func (s scheduleModel) renderDayHeaders(days []time.Time) string {
	w := s.colWidth()
	today := s.now().In(s.loc)
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterW))
	for i, d := range days {
		label := truncate(d.Format("Mon 02"), w-1)
		style := dayHeaderStyle
		switch {
		case schedule.SameDay(d, today):
			style = todayHeaderStyle
		case i == s.cursorDay:
			style = cursorDayStyle
		}
		b.WriteString(style.Width(w - 1).Render(label))
		b.WriteString(" ")
	}
	return b.String()
}

func (s scheduleModel) renderAllDay(layouts []layout.DayLayout) string {
	w := s.colWidth()
	sel, hasSel := s.selectedItem()
	var b strings.Builder
	b.WriteString(gutterStyle.Render(fmt.Sprintf("%-*s", gutterW, "all")))
	for i, dl := range layouts {
		if len(dl.AllDay) == 0 {
			b.WriteString(strings.Repeat(" ", w))
			continue
		}
		first := dl.AllDay[0]
		label := first.Title()
		if n := len(dl.AllDay); n > 1 {
			label = fmt.Sprintf("%s +%d", label, n-1)
		}
		selected := hasSel && i == s.cursorDay && sel.Key() == first.Key()
		style := blockStyle(calendarColor(s.calendars, first.CalendarID()), selected, first.Pending())
		b.WriteString(style.Width(w - 1).Render(truncate(label, w-1)))
		b.WriteString(" ")
	}
	return b.String()
}

type cell struct {
	ch    rune
	style int
}

// canvas is the visible part of the timed grid. Cell styles index into
// styles; 0 is unstyled.
type canvas struct {
	cells  [][]cell
	styles []lipgloss.Style
}

func newCanvas(rows, cols int) *canvas {
	c := &canvas{cells: make([][]cell, rows), styles: []lipgloss.Style{lipgloss.NewStyle()}}
	for r := range c.cells {
		c.cells[r] = make([]cell, cols)
		for x := range c.cells[r] {
			c.cells[r][x] = cell{ch: ' '}
		}
	}
	return c
}

func (c *canvas) style(st lipgloss.Style) int {
	c.styles = append(c.styles, st)
	return len(c.styles) - 1
}

func (c *canvas) set(r, x int, ch rune, style int) {
	if r < 0 || r >= len(c.cells) || x < 0 || x >= len(c.cells[r]) {
		return
	}
	c.cells[r][x] = cell{ch: ch, style: style}
}

// block fills rows [r0, r1) and cells [x0, x1) with style, writing one
// line of text per row from the top.
func (c *canvas) block(r0, r1, x0, x1, style int, lines []string) {
	for r := r0; r < r1; r++ {
		var text []rune
		if i := r - r0; i < len(lines) {
			text = []rune(truncate(lines[i], x1-x0))
		}
		for x := x0; x < x1; x++ {
			ch := ' '
			if i := x - x0; i < len(text) {
				ch = text[i]
			}
			c.set(r, x, ch, style)
		}
	}
}

func (c *canvas) line(r int) string {
	var b strings.Builder
	row := c.cells[r]
	for start := 0; start < len(row); {
		end := start
		var run []rune
		for end < len(row) && row[end].style == row[start].style {
			run = append(run, row[end].ch)
			end++
		}
		if row[start].style == 0 {
			b.WriteString(string(run))
		} else {
			b.WriteString(c.styles[row[start].style].Render(string(run)))
		}
		start = end
	}
	return b.String()
}

func (s scheduleModel) renderGrid(layouts []layout.DayLayout) []string {
	rows := s.visibleRows()
	w := s.colWidth()
	c := newCanvas(rows, w*len(layouts))
	hour := c.style(hourLineStyle)

	for r := 0; r < rows; r++ {
		abs := s.scroll + r
		for d := range layouts {
			base := d * w
			if abs%s.rowsPerHour == 0 {
				for x := base; x < base+w-1; x++ {
					c.set(r, x, '┈', hour)
				}
			}
			c.set(r, base+w-1, '│', hour)
		}
	}

	sel, hasSel := s.selectedItem()
	dragged, dragging := s.drag.Item()
	for d, dl := range layouts {
		base := d * w
		for _, p := range dl.Timed {
			r0, r1, x0, x1 := s.span(p)
			selected := hasSel && d == s.cursorDay && sel.Key() == p.Item.Key()
			faded := p.Item.Pending() || (dragging && dragged.Key() == p.Item.Key() && !p.Item.ReadOnly())
			st := c.style(blockStyle(calendarColor(s.calendars, p.Item.CalendarID()), selected, faded))
			c.block(r0-s.scroll, r1-s.scroll, base+x0, base+x1, st, itemLines(p.Item, s.loc))
		}
	}

	if p, ok := s.drag.Preview(); ok {
		s.drawGhost(c, layouts, p)
	}

	out := make([]string, rows)
	for r := 0; r < rows; r++ {
		abs := s.scroll + r
		gutter := strings.Repeat(" ", gutterW)
		if abs%s.rowsPerHour == 0 {
			gutter = gutterStyle.Render(fmt.Sprintf("%02d:00 ", abs/s.rowsPerHour))
		}
		out[r] = gutter + c.line(r)
	}
	return out
}

// drawGhost outlines where the dragged item would land.
func (s scheduleModel) drawGhost(c *canvas, layouts []layout.DayLayout, preview schedule.Item) {
	start, end, _ := preview.Interval()
	start = start.In(s.loc)
	w := s.colWidth()
	for d, dl := range layouts {
		if !schedule.SameDay(dl.Day, start) {
			continue
		}
		top := layout.MinutesFromMidnight(start, s.loc) / layout.MinutesPerDay
		height := math.Min(end.Sub(start).Minutes()/layout.MinutesPerDay, 1-top)
		r0, r1, x0, x1 := s.span(layout.Placement{Top: top, Height: height, Left: 0, Width: 1})
		st := c.style(ghostStyle)
		label := fmt.Sprintf("> %s %s", formatClock(start), preview.Title())
		c.block(r0-s.scroll, r1-s.scroll, d*w+x0, d*w+x1, st, []string{label})
	}
}

func itemLines(it schedule.Item, loc *time.Location) []string {
	title := it.Title()
	if it.Kind == schedule.KindTask {
		mark := "○ "
		if it.Task.Completed {
			mark = "✓ "
		}
		title = mark + title
	}
	if it.ReadOnly() {
		title = "↻ " + title
	}
	start, end, _ := it.Interval()
	return []string{title, formatClock(start.In(loc)) + "-" + formatClock(end.In(loc))}
}

// --- month ---

func (s scheduleModel) monthGeometry() (cellW, cellH, weeks int) {
	weeks = len(s.period.Days()) / 7
	cellW = max(minColW, s.width/7)
	cellH = max(2, (s.height-3)/max(1, weeks))
	return cellW, cellH, weeks
}

// monthCellAt maps a content position to a day index of the month grid.
func (s scheduleModel) monthCellAt(x, y int) (int, bool) {
	cellW, cellH, weeks := s.monthGeometry()
	row := (y - 2) / cellH
	col := x / cellW
	if y < 2 || row >= weeks || col >= 7 {
		return 0, false
	}
	return row*7 + col, true
}

func (s scheduleModel) renderMonth() string {
	cellW, cellH, weeks := s.monthGeometry()
	cells := layout.Month(s.items, s.period, s.selected)
	today := s.now().In(s.loc)

	var names []string
	for _, d := range cells[:7] {
		names = append(names, dayHeaderStyle.Width(cellW).Render(d.Day.Format("Mon")))
	}
	rows := []string{s.renderTitle(), lipgloss.JoinHorizontal(lipgloss.Top, names...)}

	for wk := 0; wk < weeks; wk++ {
		var cols []string
		for i := wk * 7; i < wk*7+7; i++ {
			cols = append(cols, s.renderMonthCell(cells[i], i == s.cursorDay, schedule.SameDay(cells[i].Day, today), cellW, cellH))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}
	rows = append(rows, mutedStyle.Render("  enter: open day  n: event  t: task  v: view  [/]: month"))
	return strings.Join(rows, "\n")
}

func (s scheduleModel) renderMonthCell(c layout.MonthCell, cursor, today bool, w, h int) string {
	num := c.Day.Format("2")
	style := dayHeaderStyle
	switch {
	case cursor:
		style = cursorDayStyle
	case today:
		style = todayHeaderStyle
	case !c.InMonth:
		style = outsideMonthStyle
	}
	lines := []string{style.Render(num)}
	room := h - 1
	for i, it := range c.Items {
		if i == room-1 && len(c.Items) > room {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d more", len(c.Items)-i)))
			break
		}
		if i >= room {
			break
		}
		label := it.Title()
		if !it.AllDay() {
			start, _, _ := it.Interval()
			label = formatClock(start.In(s.loc)) + " " + label
		}
		dot := lipgloss.NewStyle().Foreground(calendarColor(s.calendars, it.CalendarID())).Render("▌")
		lines = append(lines, dot+truncate(label, w-2))
	}
	return lipgloss.NewStyle().Width(w).Height(h).MaxHeight(h).Render(strings.Join(lines, "\n"))
}
