package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/asap/internal/schedule"
	"github.com/sadopc/asap/internal/store"
)

type settingsModel struct {
	store  *store.Store
	user   schedule.User
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	defaultView     *string
	weekStart       *string
	rowsPerHour     *string
	defaultDuration *string
	taskPageSize    *string
}

func newSettingsModel(s *store.Store, user schedule.User) settingsModel {
	dv, ws, rph, dd, ps := "", "", "", "", ""
	return settingsModel{
		store:           s,
		user:            user,
		defaultView:     &dv,
		weekStart:       &ws,
		rowsPerHour:     &rph,
		defaultDuration: &dd,
		taskPageSize:    &ps,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.defaultView = s.getVal(store.SettingDefaultView, "week")
	*s.weekStart = s.getVal(store.SettingWeekStart, "sunday")
	*s.rowsPerHour = s.getVal(store.SettingRowsPerHour, "2")
	*s.defaultDuration = s.getVal(store.SettingDefaultDuration, "60")
	*s.taskPageSize = s.getVal(store.SettingTaskPageSize, "20")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Open schedule in").
				Options(
					huh.NewOption("Day view", "day"),
					huh.NewOption("Week view", "week"),
					huh.NewOption("Month view", "month"),
				).Value(s.defaultView),
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Sunday", "sunday"),
					huh.NewOption("Monday", "monday"),
				).Value(s.weekStart),
			huh.NewSelect[string]().Title("Grid rows per hour").
				Options(
					huh.NewOption("1 (60 min)", "1"),
					huh.NewOption("2 (30 min)", "2"),
					huh.NewOption("4 (15 min)", "4"),
				).Value(s.rowsPerHour),
		).Title("Schedule"),
		huh.NewGroup(
			huh.NewInput().Title("Default length (min)").Validate(validateMinutes).Value(s.defaultDuration),
			huh.NewInput().Title("Tasks per page").Validate(validateMinutes).Value(s.taskPageSize),
		).Title("Items"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, statusCmd(fmt.Sprintf("Settings error: %v", err), true)
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return settingsSavedMsg{} })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	values := []store.Setting{
		{Key: store.SettingDefaultView, Value: *s.defaultView},
		{Key: store.SettingWeekStart, Value: *s.weekStart},
		{Key: store.SettingRowsPerHour, Value: *s.rowsPerHour},
		{Key: store.SettingDefaultDuration, Value: strings.TrimSpace(*s.defaultDuration)},
		{Key: store.SettingTaskPageSize, Value: strings.TrimSpace(*s.taskPageSize)},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	if s.user.Email != "" {
		account := fmt.Sprintf("%s <%s>", s.user.Name, s.user.Email)
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("account"), highlightStyle.Render(account)))
	}

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingDefaultDuration:
		if mins, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", mins)
		}
	case store.SettingRowsPerHour:
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return fmt.Sprintf("%d (%d min rows)", n, 60/n)
		}
	case store.SettingWeekStart, store.SettingDefaultView:
		if v != "" {
			return strings.ToUpper(v[:1]) + v[1:]
		}
	}
	return v
}
