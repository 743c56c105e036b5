package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/asap/internal/schedule"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorBg        = lipgloss.Color("#1A1B26")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// calendarColors are offered when creating a calendar and used for
// calendars that carry no color of their own.
var calendarColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	// Schedule grid
	gutterStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	dayHeaderStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Bold(true)

	todayHeaderStyle = lipgloss.NewStyle().
				Foreground(colorBg).
				Background(colorHighlight).
				Bold(true)

	cursorDayStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Underline(true)

	hourLineStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	ghostStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorSubtle).
			Italic(true)

	outsideMonthStyle = lipgloss.NewStyle().
				Foreground(colorSubtle)
)

// calendarColor resolves the display color of a calendar id.
func calendarColor(cals []schedule.Calendar, id int64) lipgloss.Color {
	for i, c := range cals {
		if c.ID != id {
			continue
		}
		if c.Color != "" {
			return lipgloss.Color(c.Color)
		}
		return lipgloss.Color(calendarColors[i%len(calendarColors)])
	}
	return colorSecondary
}

// blockStyle is the fill of an item on the grid.
func blockStyle(color lipgloss.Color, selected, pending bool) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(colorBg).Background(color)
	if selected {
		s = s.Bold(true).Underline(true)
	}
	if pending {
		s = s.Faint(true).Italic(true)
	}
	return s
}

func priorityStyle(p schedule.Priority) lipgloss.Style {
	switch p {
	case schedule.PriorityASAP:
		return errorStyle.Bold(true)
	case schedule.PriorityHigh:
		return warningStyle
	case schedule.PriorityMedium:
		return highlightStyle
	}
	return mutedStyle
}
