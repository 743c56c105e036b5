package mutate

type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification is a transient, dismissable message for the user.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

const (
	msgCreated         = "Item created"
	msgCreateFailed    = "Failed to create item"
	msgUpdated         = "Item updated"
	msgUpdateFailed    = "Failed to update item"
	msgDeleted         = "Item deleted"
	msgScheduled       = "Schedule generated"
	msgScheduleFailed  = "Failed to generate schedule"
	msgDeleteFailedFmt = "Failed to delete %s"
)
