package tui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/asap/internal/schedule"
)

const (
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
	dateTimeLayout = "2006-01-02 15:04"
)

// eventInput is the raw text of the new event form.
type eventInput struct {
	Title       string
	Date        string
	Start       string
	End         string
	Description string
	Location    string
	Frequency   string
	AllDay      bool
	CalendarID  int64
}

// build turns the form text into a draft event in loc.
func (in eventInput) build(loc *time.Location, userID int64) (schedule.Event, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.Date), loc)
	if err != nil {
		return schedule.Event{}, &schedule.ValidationError{Field: "date", Reason: "want YYYY-MM-DD"}
	}
	ev := schedule.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Frequency:   string(schedule.ParseFrequency(in.Frequency)),
		AllDay:      in.AllDay,
		UserID:      userID,
		CalendarID:  in.CalendarID,
	}
	if ev.Frequency == string(schedule.FrequencyNone) {
		ev.Frequency = ""
	}
	if in.AllDay {
		ev.Start = day
		ev.End = day.AddDate(0, 0, 1)
	} else {
		if ev.Start, err = atClock(day, in.Start, "start"); err != nil {
			return schedule.Event{}, err
		}
		if ev.End, err = atClock(day, in.End, "end"); err != nil {
			return schedule.Event{}, err
		}
	}
	return ev, ev.Validate()
}

// taskInput is the raw text of the new task form.
type taskInput struct {
	Title       string
	Duration    string
	Due         string
	Start       string
	Description string
	Priority    string
	Difficulty  string
	CalendarID  int64
	Auto        bool
}

// build turns the form text into a draft task. The due date is the end of
// the given day; an optional start pins the task to the grid.
func (in taskInput) build(loc *time.Location, userID int64) (schedule.Task, error) {
	mins, err := strconv.Atoi(strings.TrimSpace(in.Duration))
	if err != nil {
		return schedule.Task{}, &schedule.ValidationError{Field: "duration", Reason: "want minutes"}
	}
	due, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.Due), loc)
	if err != nil {
		return schedule.Task{}, &schedule.ValidationError{Field: "due", Reason: "want YYYY-MM-DD"}
	}
	t := schedule.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Duration:    mins,
		DueDate:     due.AddDate(0, 0, 1).Add(-time.Minute),
		Priority:    schedule.Priority(in.Priority),
		Difficulty:  schedule.Difficulty(in.Difficulty),
		Auto:        in.Auto,
		Flexible:    in.Auto,
		UserID:      userID,
		CalendarID:  in.CalendarID,
	}
	if s := strings.TrimSpace(in.Start); s != "" {
		start, err := time.ParseInLocation(dateTimeLayout, s, loc)
		if err != nil {
			return schedule.Task{}, &schedule.ValidationError{Field: "start", Reason: "want YYYY-MM-DD HH:MM"}
		}
		end := start.Add(time.Duration(mins) * time.Minute)
		t.Start, t.End = &start, &end
	}
	return t, t.Validate()
}

func atClock(day time.Time, s, field string) (time.Time, error) {
	c, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &schedule.ValidationError{Field: field, Reason: "want HH:MM"}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, day.Location()), nil
}

func validateDate(s string) error {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validateClock(s string) error {
	if _, err := time.Parse(clockLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("use HH:MM")
	}
	return nil
}

func validateOptionalDateTime(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.Parse(dateTimeLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD HH:MM or leave empty")
	}
	return nil
}

func validateMinutes(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("minutes must be a positive number")
	}
	return nil
}

type formKind int

const (
	formEvent formKind = iota
	formTask
)

// itemForm is the new event / new task form shared by the schedule and task
// views. Models hold it by pointer so the bound values survive copies.
type itemForm struct {
	kind  formKind
	form  *huh.Form
	err   string
	event eventInput
	task  taskInput
	cals  []schedule.Calendar
}

func newItemForm() *itemForm { return &itemForm{} }

func (f *itemForm) active() bool { return f.form != nil }

func (f *itemForm) close() {
	f.form = nil
	f.err = ""
}

func (f *itemForm) openEvent(start time.Time, minutes int, cals []schedule.Calendar) tea.Cmd {
	f.kind = formEvent
	f.err = ""
	f.cals = cals
	f.event = eventInput{
		Date:      start.Format(dateLayout),
		Start:     start.Format(clockLayout),
		End:       start.Add(time.Duration(minutes) * time.Minute).Format(clockLayout),
		Frequency: string(schedule.FrequencyNone),
	}
	if len(cals) > 0 {
		f.event.CalendarID = cals[0].ID
	}
	return f.build()
}

func (f *itemForm) openTask(due time.Time, minutes int, cals []schedule.Calendar) tea.Cmd {
	f.kind = formTask
	f.err = ""
	f.cals = cals
	f.task = taskInput{
		Duration:   strconv.Itoa(minutes),
		Due:        due.Format(dateLayout),
		Priority:   string(schedule.PriorityMedium),
		Difficulty: string(schedule.DifficultyMedium),
		Auto:       true,
	}
	if len(cals) > 0 {
		f.task.CalendarID = cals[0].ID
	}
	return f.build()
}

// reopen shows the form again with the previous values and an error line.
func (f *itemForm) reopen(err error) tea.Cmd {
	cmd := f.build()
	f.err = err.Error()
	return cmd
}

func (f *itemForm) build() tea.Cmd {
	var fields []huh.Field
	switch f.kind {
	case formEvent:
		freqOptions := []huh.Option[string]{
			huh.NewOption("Does not repeat", string(schedule.FrequencyNone)),
			huh.NewOption("Daily", string(schedule.FrequencyDaily)),
			huh.NewOption("Weekly", string(schedule.FrequencyWeekly)),
			huh.NewOption("Monthly", string(schedule.FrequencyMonthly)),
			huh.NewOption("Yearly", string(schedule.FrequencyYearly)),
		}
		fields = []huh.Field{
			huh.NewInput().Title("Title").Value(&f.event.Title),
			huh.NewInput().Title("Date").Placeholder(dateLayout).Validate(validateDate).Value(&f.event.Date),
			huh.NewInput().Title("Start").Placeholder("09:00").Validate(validateClock).Value(&f.event.Start),
			huh.NewInput().Title("End").Placeholder("10:00").Validate(validateClock).Value(&f.event.End),
			huh.NewConfirm().Title("All day").Value(&f.event.AllDay),
			huh.NewSelect[string]().Title("Repeats").Options(freqOptions...).Value(&f.event.Frequency),
			huh.NewInput().Title("Location").Value(&f.event.Location),
			huh.NewInput().Title("Description").Value(&f.event.Description),
		}
		if len(f.cals) > 0 {
			fields = append(fields, huh.NewSelect[int64]().Title("Calendar").Options(calendarOptions(f.cals)...).Value(&f.event.CalendarID))
		}
	case formTask:
		prioOptions := make([]huh.Option[string], len(schedule.Priorities))
		for i, p := range schedule.Priorities {
			prioOptions[i] = huh.NewOption(string(p), string(p))
		}
		diffOptions := make([]huh.Option[string], len(schedule.Difficulties))
		for i, d := range schedule.Difficulties {
			diffOptions[i] = huh.NewOption(string(d), string(d))
		}
		fields = []huh.Field{
			huh.NewInput().Title("Title").Value(&f.task.Title),
			huh.NewInput().Title("Duration (min)").Validate(validateMinutes).Value(&f.task.Duration),
			huh.NewInput().Title("Due").Placeholder(dateLayout).Validate(validateDate).Value(&f.task.Due),
			huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(&f.task.Priority),
			huh.NewSelect[string]().Title("Difficulty").Options(diffOptions...).Value(&f.task.Difficulty),
			huh.NewConfirm().Title("Auto-schedule").Value(&f.task.Auto),
			huh.NewInput().Title("Start (optional)").Placeholder(dateTimeLayout).Validate(validateOptionalDateTime).Value(&f.task.Start),
			huh.NewInput().Title("Description").Value(&f.task.Description),
		}
		if len(f.cals) > 0 {
			fields = append(fields, huh.NewSelect[int64]().Title("Calendar").Options(calendarOptions(f.cals)...).Value(&f.task.CalendarID))
		}
	}
	f.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	return f.form.Init()
}

func calendarOptions(cals []schedule.Calendar) []huh.Option[int64] {
	opts := make([]huh.Option[int64], len(cals))
	for i, c := range cals {
		opts[i] = huh.NewOption(c.Name, c.ID)
	}
	return opts
}

// update feeds msg to the form. submitted is true once the user completed
// it; esc or an abort closes it.
func (f *itemForm) update(msg tea.Msg) (submitted bool, cmd tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			f.close()
			return false, nil
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}
	switch f.form.State {
	case huh.StateCompleted:
		return true, cmd
	case huh.StateAborted:
		f.close()
		return false, nil
	}
	return false, cmd
}

func (f *itemForm) view(width int) string {
	title := titleStyle.Render("New Event")
	if f.kind == formTask {
		title = titleStyle.Render("New Task")
	}
	rows := []string{title, ""}
	if f.err != "" {
		rows = append(rows, errorStyle.Render(f.err), "")
	}
	rows = append(rows, f.form.View())
	return panelStyle.Width(width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
