package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/asap/internal/mutate"
	"github.com/sadopc/asap/internal/refresh"
	"github.com/sadopc/asap/internal/schedule"
)

// viewState represents the currently active view.
type viewState int

const (
	viewSchedule viewState = iota
	viewTasks
	viewCalendars
	viewReports
	viewSettings
)

var viewNames = []string{"Schedule", "Tasks", "Calendars", "Reports", "Settings"}

// opTimeout bounds every backend call started from the UI.
const opTimeout = 30 * time.Second

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// itemsChangedMsg means the coordinator's state moved; views re-read it.
type itemsChangedMsg struct{}

type notifyMsg struct {
	n mutate.Notification
}

type loadedMsg struct {
	res refresh.Result
	err error
}

type calendarsMsg struct {
	calendars []schedule.Calendar
	err       error
}

// selectionMsg carries the persisted calendar selection.
type selectionMsg struct {
	ids []int64
}

// opDoneMsg reports the end of a coordinator call started by a view.
type opDoneMsg struct {
	op  string
	err error
}

type settingsSavedMsg struct{}

// ItemsChanged is sent by the program owner when the coordinator reports a
// state change.
func ItemsChanged() tea.Msg { return itemsChangedMsg{} }

// Notify wraps a coordinator notification for the program.
func Notify(n mutate.Notification) tea.Msg { return notifyMsg{n: n} }

// Loaded wraps a background refresh result for the program.
func Loaded(res refresh.Result, err error) tea.Msg { return loadedMsg{res: res, err: err} }

// opStatus turns the errors the coordinator does not notify about into a
// status line. Backend failures already produced a notification.
func opStatus(op string, err error) (statusMsg, bool) {
	var verr *schedule.ValidationError
	switch {
	case err == nil:
		return statusMsg{}, false
	case errors.As(err, &verr):
		return statusMsg{text: verr.Error(), isError: true}, true
	case errors.Is(err, mutate.ErrUnknownItem):
		return statusMsg{text: op + ": item is no longer loaded", isError: true}, true
	case errors.Is(err, mutate.ErrPending):
		return statusMsg{text: op + ": item is still being saved", isError: true}, true
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return statusMsg{text: op + ": timed out", isError: true}, true
	}
	return statusMsg{}, false
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

func formatClock(t time.Time) string {
	return t.Format("15:04")
}

// truncate cuts s to at most w cells, marking the cut with an ellipsis.
func truncate(s string, w int) string {
	r := []rune(s)
	if w <= 0 {
		return ""
	}
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
