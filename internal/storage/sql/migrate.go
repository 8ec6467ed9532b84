package sqlstorage

import (
	"context"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS calendars (
		calendar_name VARCHAR(80) PRIMARY KEY,
		calendar_contact VARCHAR(80) NOT NULL DEFAULT '',
		calendar_description VARCHAR(500) NOT NULL DEFAULT '',
		calendar_editor_group VARCHAR(100) NOT NULL DEFAULT '',
		calendar_admin_group VARCHAR(100) NOT NULL DEFAULT '',
		calendar_status VARCHAR(50) NOT NULL DEFAULT 'Enabled'
	)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		reminder_id BIGSERIAL PRIMARY KEY,
		reminder_offset INTEGER NOT NULL,
		reminder_from VARCHAR(500) NOT NULL DEFAULT '',
		reminder_to VARCHAR(500) NOT NULL DEFAULT '',
		reminder_text TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		meeting_id BIGSERIAL PRIMARY KEY,
		meeting_name VARCHAR(200) NOT NULL,
		calendar_name VARCHAR(80) NOT NULL REFERENCES calendars(calendar_name),
		meeting_date DATE NOT NULL,
		meeting_date_end DATE NOT NULL,
		meeting_time_start TIME NOT NULL,
		meeting_time_stop TIME NOT NULL,
		meeting_timezone VARCHAR(100) NOT NULL DEFAULT 'UTC',
		meeting_information TEXT NOT NULL DEFAULT '',
		meeting_location VARCHAR(200) NOT NULL DEFAULT '',
		full_day BOOLEAN NOT NULL DEFAULT FALSE,
		recursion_frequency INTEGER,
		recursion_ends DATE,
		reminder_id BIGINT REFERENCES reminders(reminder_id)
	)`,
	`CREATE TABLE IF NOT EXISTS meetings_managers (
		manager_id BIGSERIAL PRIMARY KEY,
		meeting_id BIGINT NOT NULL REFERENCES meetings(meeting_id),
		username VARCHAR(80) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_calendar_date
		ON meetings(calendar_name, meeting_date)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_managers_username
		ON meetings_managers(username)`,
}

func (s *Storage) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
