package storage

// Calendar status values. Disabled calendars reject new or edited
// meetings but keep serving reads.
const (
	CalendarEnabled  = "Enabled"
	CalendarDisabled = "Disabled"
)

// Calendar is a topical collection of meetings. Group lists are ordered
// slices in memory; the SQL layer stores them comma-joined.
type Calendar struct {
	Name         string   `json:"name" db:"calendar_name"`
	Contact      string   `json:"contact" db:"calendar_contact"`
	Description  string   `json:"description" db:"calendar_description"`
	EditorGroups []string `json:"editorGroups" db:"-"`
	AdminGroups  []string `json:"adminGroups" db:"-"`
	Status       string   `json:"status" db:"calendar_status"`
}

// Enabled reports whether meetings may be written against the calendar.
func (c Calendar) Enabled() bool {
	return c.Status == CalendarEnabled
}
