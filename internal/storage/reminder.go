package storage

// ReminderOffsets are the allowed lead times, in hours before the
// meeting start, at which a reminder may fire.
var ReminderOffsets = []int{12, 24, 48, 168}

// Reminder is owned by at most one meeting; deleting the owning meeting
// deletes the reminder.
type Reminder struct {
	ID     int64    `json:"id" db:"reminder_id"`
	Offset int      `json:"offset" db:"reminder_offset"`
	From   string   `json:"from" db:"reminder_from"`
	To     []string `json:"to" db:"-"`
	Text   string   `json:"text" db:"reminder_text"`
}

// ValidReminderOffset reports whether hours is one of the allowed
// lead-time offsets.
func ValidReminderOffset(hours int) bool {
	for _, offset := range ReminderOffsets {
		if offset == hours {
			return true
		}
	}
	return false
}
