package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/asap/internal/mutate"
	"github.com/sadopc/asap/internal/schedule"
)

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func createEventCmd(c *mutate.Coordinator, draft schedule.Event) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		_, err := c.CreateEvent(ctx, draft)
		return opDoneMsg{op: "create event", err: err}
	}
}

func createTaskCmd(c *mutate.Coordinator, draft schedule.Task) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		_, err := c.CreateTask(ctx, draft)
		return opDoneMsg{op: "create task", err: err}
	}
}

func updateEventCmd(c *mutate.Coordinator, ev schedule.Event) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return opDoneMsg{op: "move event", err: c.UpdateEvent(ctx, ev)}
	}
}

func updateTaskCmd(c *mutate.Coordinator, t schedule.Task) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return opDoneMsg{op: "update task", err: c.UpdateTask(ctx, t)}
	}
}

func deleteItemCmd(c *mutate.Coordinator, it schedule.Item) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return opDoneMsg{op: "delete " + string(it.Kind), err: c.DeleteItem(ctx, it)}
	}
}

func generateCmd(c *mutate.Coordinator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		return opDoneMsg{op: "auto-schedule", err: c.Generate(ctx)}
	}
}
