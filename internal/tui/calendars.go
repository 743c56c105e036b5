package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/asap/internal/schedule"
	"github.com/sadopc/asap/internal/store"
)

type calendarsModel struct {
	backend Backend
	store   *store.Store
	userID  int64
	width   int
	height  int

	calendars []schedule.Calendar
	selected  schedule.CalendarSet
	cursor    int

	formActive bool
	form       *huh.Form
	editingID  int64 // 0 while creating

	// Form field pointers (survive value copies)
	formName     *string
	formDesc     *string
	formColor    *string
	formTimezone *string
}

func newCalendarsModel(b Backend, s *store.Store, userID int64) calendarsModel {
	name, desc, color, tz := "", "", calendarColors[0], ""
	return calendarsModel{
		backend:      b,
		store:        s,
		userID:       userID,
		formName:     &name,
		formDesc:     &desc,
		formColor:    &color,
		formTimezone: &tz,
	}
}

func (c *calendarsModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c *calendarsModel) setCalendars(cals []schedule.Calendar, selected schedule.CalendarSet) {
	c.calendars = cals
	c.selected = selected
	c.cursor = clamp(c.cursor, 0, len(cals)-1)
}

func (c calendarsModel) refresh() tea.Cmd {
	if c.backend == nil {
		return nil
	}
	b, userID := c.backend, c.userID
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		cals, err := b.ListCalendars(ctx, userID)
		return calendarsMsg{calendars: cals, err: err}
	}
}

// toggle flips one calendar in the persisted selection. An empty selection
// shows everything, so the first toggle starts from the full list.
func (c calendarsModel) toggle(id int64) tea.Cmd {
	st := c.store
	explicit := len(c.selected) > 0
	all := make([]int64, len(c.calendars))
	for i, cal := range c.calendars {
		all[i] = cal.ID
	}
	return func() tea.Msg {
		if !explicit {
			if err := st.SetSelectedCalendars(all); err != nil {
				return statusMsg{text: fmt.Sprintf("Selection error: %v", err), isError: true}
			}
		}
		ids, err := st.ToggleCalendar(id)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Selection error: %v", err), isError: true}
		}
		return selectionMsg{ids: ids}
	}
}

// save creates or updates the calendar from the form, then reloads the
// list.
func (c calendarsModel) save() tea.Cmd {
	cal := schedule.Calendar{
		ID:          c.editingID,
		UserID:      c.userID,
		Name:        strings.TrimSpace(*c.formName),
		Description: strings.TrimSpace(*c.formDesc),
		Color:       *c.formColor,
		Timezone:    strings.TrimSpace(*c.formTimezone),
	}
	if err := cal.Validate(); err != nil {
		return statusCmd(err.Error(), true)
	}
	b := c.backend
	reload := c.refresh()
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		var err error
		if cal.ID == 0 {
			_, err = b.CreateCalendar(ctx, cal)
		} else {
			_, err = b.UpdateCalendar(ctx, cal)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Failed to save calendar: %v", err), isError: true}
		}
		return reload()
	}
}

func (c calendarsModel) remove(cal schedule.Calendar) tea.Cmd {
	b := c.backend
	reload := c.refresh()
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		if err := b.DeleteCalendar(ctx, cal.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Failed to delete calendar: %v", err), isError: true}
		}
		return reload()
	}
}

func (c calendarsModel) update(msg tea.Msg) (calendarsModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if c.cursor > 0 {
				c.cursor--
			}
		case key.Matches(msg, keys.Down):
			if c.cursor < len(c.calendars)-1 {
				c.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if len(c.calendars) > 0 {
				return c, c.toggle(c.calendars[c.cursor].ID)
			}
		case key.Matches(msg, keys.New):
			return c.showForm(schedule.Calendar{Color: calendarColors[len(c.calendars)%len(calendarColors)]})
		case key.Matches(msg, keys.Enter):
			if len(c.calendars) > 0 {
				return c.showForm(c.calendars[c.cursor])
			}
		case key.Matches(msg, keys.Delete):
			if len(c.calendars) > 0 {
				return c, c.remove(c.calendars[c.cursor])
			}
		}
	}
	return c, nil
}

func (c calendarsModel) showForm(cal schedule.Calendar) (calendarsModel, tea.Cmd) {
	*c.formName = cal.Name
	*c.formDesc = cal.Description
	*c.formColor = cal.Color
	*c.formTimezone = cal.Timezone
	c.editingID = cal.ID

	colorOptions := make([]huh.Option[string], 0, len(calendarColors)+1)
	known := false
	for _, col := range calendarColors {
		colorOptions = append(colorOptions, huh.NewOption(fmt.Sprintf("● %s", col), col))
		known = known || col == cal.Color
	}
	if !known && cal.Color != "" {
		colorOptions = append(colorOptions, huh.NewOption(fmt.Sprintf("● %s", cal.Color), cal.Color))
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Calendar Name").Value(c.formName),
			huh.NewInput().Title("Description").Value(c.formDesc),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(c.formColor),
			huh.NewInput().Title("Timezone").Placeholder("Europe/Istanbul").Value(c.formTimezone),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c calendarsModel) updateForm(msg tea.Msg) (calendarsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		c.form = nil
		return c, c.save()
	}
	return c, cmd
}

func (c calendarsModel) view() string {
	w := c.width - 4
	if c.formActive && c.form != nil {
		title := titleStyle.Render("New Calendar")
		if c.editingID != 0 {
			title = titleStyle.Render("Edit Calendar")
		}
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", c.form.View()))
	}

	title := titleStyle.Render("Calendars")
	if len(c.calendars) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No calendars yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-3s %-24s %-18s %s", "", "", "Name", "Timezone", "Description")))
	for i, cal := range c.calendars {
		dot := lipgloss.NewStyle().Foreground(calendarColor(c.calendars, cal.ID)).Render("●")
		box := "[ ]"
		if c.selected.Has(cal.ID) {
			box = "[x]"
		}
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		tz := cal.Timezone
		if tz == "" {
			tz = "local"
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s %-18s %s",
			cursor, box, dot, style.Render(fmt.Sprintf("%-24s", truncate(cal.Name, 24))), tz, mutedStyle.Render(truncate(cal.Description, 40))))
	}

	rows = append(rows, "")
	shown := "all calendars shown"
	if len(c.selected) > 0 {
		shown = fmt.Sprintf("%d of %d shown", countShown(c.calendars, c.selected), len(c.calendars))
	}
	rows = append(rows, mutedStyle.Render("  "+shown))
	rows = append(rows, mutedStyle.Render("  space: show/hide  n: new  enter: edit  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func countShown(cals []schedule.Calendar, set schedule.CalendarSet) int {
	n := 0
	for _, c := range cals {
		if set.Has(c.ID) {
			n++
		}
	}
	return n
}
