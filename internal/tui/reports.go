package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/asap/internal/layout"
	"github.com/sadopc/asap/internal/mutate"
	"github.com/sadopc/asap/internal/schedule"
)

type reportMode int

const (
	reportWeek reportMode = iota
	reportMonth
)

// bucket is one bar: a day in week mode, a week in month mode.
type bucket struct {
	label      string
	from       time.Time
	byCalendar map[int64]time.Duration
	items      int
}

func (b bucket) total() time.Duration {
	var sum time.Duration
	for _, d := range b.byCalendar {
		sum += d
	}
	return sum
}

type reportsModel struct {
	coord     *mutate.Coordinator
	loc       *time.Location
	now       func() time.Time
	weekStart time.Weekday
	width     int
	height    int

	mode    reportMode
	offset  int // weeks or months back from the current one
	buckets []bucket

	calendars []schedule.Calendar
	selected  schedule.CalendarSet

	chart barchart.Model
}

func newReportsModel(c *mutate.Coordinator, loc *time.Location, now func() time.Time, weekStart time.Weekday) reportsModel {
	return reportsModel{
		coord:     c,
		loc:       loc,
		now:       now,
		weekStart: weekStart,
		chart:     barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r *reportsModel) setCalendars(cals []schedule.Calendar, selected schedule.CalendarSet) {
	r.calendars = cals
	r.selected = selected
}

type reportsDataMsg struct {
	buckets []bucket
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return reportsDataMsg{buckets: r.compute()}
	}
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	today := schedule.StartOfDay(r.now().In(r.loc))
	switch r.mode {
	case reportMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, r.loc).AddDate(0, -r.offset, 0)
		return first, first.AddDate(0, 1, 0)
	default:
		start := schedule.StartOfWeek(today, r.weekStart).AddDate(0, 0, -7*r.offset)
		return start, start.AddDate(0, 0, 7)
	}
}

// compute totals the scheduled time of the range per calendar.
func (r reportsModel) compute() []bucket {
	from, to := r.dateRange()
	var days []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	events, tasks := r.coord.Snapshot()
	items := layout.Items(layout.Expand(events, from, to), tasks)
	totals := layout.Totals(items, days, r.selected)

	var out []bucket
	for i, t := range totals {
		if r.mode == reportWeek || i%7 == 0 {
			label := t.Day.Format("Mon 02")
			if r.mode == reportMonth {
				label = "wk " + t.Day.Format("02")
			}
			out = append(out, bucket{label: label, from: t.Day, byCalendar: make(map[int64]time.Duration)})
		}
		b := &out[len(out)-1]
		for id, d := range t.ByCalendar {
			b.byCalendar[id] += d
		}
		b.items += len(layout.Day(layout.Filter(items, t.Day, r.selected), t.Day).Timed)
	}
	return out
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.buckets = msg.buckets
		r.buildChart()
		return r, nil

	case itemsChangedMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Prev):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Next):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Mode):
			if r.mode == reportWeek {
				r.mode = reportMonth
			} else {
				r.mode = reportWeek
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

// calendarIDs lists the calendars present in the buckets, in calendar list
// order with unknown ids last.
func (r reportsModel) calendarIDs() []int64 {
	seen := make(map[int64]bool)
	for _, b := range r.buckets {
		for id := range b.byCalendar {
			seen[id] = true
		}
	}
	var ids []int64
	for _, c := range r.calendars {
		if seen[c.ID] {
			ids = append(ids, c.ID)
			delete(seen, c.ID)
		}
	}
	var rest []int64
	for id := range seen {
		rest = append(rest, id)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(ids, rest...)
}

func (r reportsModel) calendarName(id int64) string {
	for _, c := range r.calendars {
		if c.ID == id {
			return c.Name
		}
	}
	return "Other"
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	ids := r.calendarIDs()
	var bars []barchart.BarData
	for _, b := range r.buckets {
		var values []barchart.BarValue
		for _, id := range ids {
			d, ok := b.byCalendar[id]
			if !ok {
				continue
			}
			style := lipgloss.NewStyle().Foreground(calendarColor(r.calendars, id))
			values = append(values, barchart.BarValue{
				Name:  r.calendarName(id),
				Value: d.Hours(),
				Style: style,
			})
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  b.label,
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	weekTab := inactiveTabStyle.Render("Week")
	monthTab := inactiveTabStyle.Render("Month")
	if r.mode == reportWeek {
		weekTab = activeTabStyle.Render("Week")
	} else {
		monthTab = activeTabStyle.Render("Month")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, weekTab, monthTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  v: week/month")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderLegend(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	var total time.Duration
	for _, b := range r.buckets {
		total += b.total()
	}
	if total == 0 {
		return mutedStyle.Render("  Nothing scheduled in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %8s %6s  %s", "Period", "Hours", "Items", "By calendar")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 54))))

	ids := r.calendarIDs()
	for _, b := range r.buckets {
		var parts []string
		for _, id := range ids {
			if d, ok := b.byCalendar[id]; ok && d > 0 {
				dot := lipgloss.NewStyle().Foreground(calendarColor(r.calendars, id)).Render("●")
				parts = append(parts, fmt.Sprintf("%s %s", dot, formatDuration(d)))
			}
		}
		rows = append(rows, fmt.Sprintf("  %-12s %8s %6d  %s", b.label, formatHours(b.total()), b.items, strings.Join(parts, "  ")))
	}
	rows = append(rows, fmt.Sprintf("  %-12s %8s", "Total", formatHours(total)))

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	var items []string
	for _, id := range r.calendarIDs() {
		dot := lipgloss.NewStyle().Foreground(calendarColor(r.calendars, id)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, r.calendarName(id)))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}
