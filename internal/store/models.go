package store

type Setting struct {
	Key   string
	Value string
}

// Setting keys seeded by the first migration.
const (
	SettingDefaultView     = "default_view"
	SettingWeekStart       = "week_start"
	SettingRowsPerHour     = "rows_per_hour"
	SettingDefaultDuration = "default_duration"
	SettingTaskPageSize    = "task_page_size"
)

// Session keys. The token is stored raw, the user and calendar ids as
// JSON.
const (
	keyToken             = "token"
	keyUser              = "user"
	keySelectedCalendars = "selectedCalendars"
)
