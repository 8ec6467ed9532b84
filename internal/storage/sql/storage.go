package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/meetcal/meetcal/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrUniqueViolation = "23505"

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return s.migrate(ctx)
}

func (s *Storage) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddCalendar(ctx context.Context, c *storage.Calendar) error {
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO calendars(calendar_name, calendar_contact, calendar_description, "+
			"calendar_editor_group, calendar_admin_group, calendar_status) "+
			"VALUES($1, $2, $3, $4, $5, $6)",
		c.Name, c.Contact, c.Description,
		joinGroups(c.EditorGroups), joinGroups(c.AdminGroups), c.Status)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("duplicate calendar %q: %w", c.Name, storage.ErrDuplicateCalendar)
	}
	return err
}

func (s *Storage) CalendarByName(ctx context.Context, name string) (storage.Calendar, error) {
	var row calendarRow
	err := s.db.GetContext(
		ctx, &row,
		"SELECT calendar_name, calendar_contact, calendar_description, "+
			"calendar_editor_group, calendar_admin_group, calendar_status "+
			"FROM calendars WHERE calendar_name=$1",
		name)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Calendar{}, fmt.Errorf("calendar %q: %w", name, storage.ErrNotFoundCalendar)
	}
	if err != nil {
		return storage.Calendar{}, err
	}
	return row.calendar(), nil
}

func (s *Storage) ListCalendars(ctx context.Context) ([]storage.Calendar, error) {
	var rows []calendarRow
	err := s.db.SelectContext(
		ctx, &rows,
		"SELECT calendar_name, calendar_contact, calendar_description, "+
			"calendar_editor_group, calendar_admin_group, calendar_status "+
			"FROM calendars ORDER BY calendar_name")
	if err != nil {
		return nil, err
	}
	calendars := make([]storage.Calendar, 0, len(rows))
	for _, row := range rows {
		calendars = append(calendars, row.calendar())
	}
	return calendars, nil
}

func (s *Storage) UpdateCalendar(ctx context.Context, name string, c storage.Calendar) error {
	var found bool
	err := s.db.GetContext(
		ctx, &found,
		"UPDATE calendars SET calendar_contact=$2, calendar_description=$3, "+
			"calendar_editor_group=$4, calendar_admin_group=$5, calendar_status=$6 "+
			"WHERE calendar_name=$1 RETURNING TRUE",
		name, c.Contact, c.Description,
		joinGroups(c.EditorGroups), joinGroups(c.AdminGroups), c.Status)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !found) {
		return fmt.Errorf("failed to update calendar %q: %w", name, storage.ErrNotFoundCalendar)
	}
	return err
}

func (s *Storage) RemoveCalendar(ctx context.Context, name string) error {
	var count int
	if err := s.db.GetContext(
		ctx, &count,
		"SELECT COUNT(*) FROM meetings WHERE calendar_name=$1", name); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("calendar %q: %w", name, storage.ErrCalendarNotEmpty)
	}
	var found bool
	err := s.db.GetContext(ctx, &found,
		"DELETE FROM calendars WHERE calendar_name=$1 RETURNING TRUE", name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to remove calendar %q: %w", name, storage.ErrNotFoundCalendar)
	}
	return err
}

func (s *Storage) AddMeeting(ctx context.Context, m *storage.Meeting) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return addMeetingTx(ctx, tx, m)
	})
}

func (s *Storage) MeetingByID(ctx context.Context, id int64) (storage.Meeting, error) {
	meetings, err := s.selectMeetings(
		ctx, "WHERE m.meeting_id=$1", id)
	if err != nil {
		return storage.Meeting{}, err
	}
	if len(meetings) == 0 {
		return storage.Meeting{}, fmt.Errorf("meeting %d: %w", id, storage.ErrNotFoundMeeting)
	}
	return meetings[0], nil
}

func (s *Storage) UpdateMeeting(ctx context.Context, id int64, m storage.Meeting) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return updateMeetingTx(ctx, tx, id, m)
	})
}

func (s *Storage) RemoveMeeting(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return removeMeetingTx(ctx, tx, id)
	})
}

func (s *Storage) MeetingsByDate(ctx context.Context, calendarName string, start, stop time.Time) ([]storage.Meeting, error) {
	return s.selectMeetings(
		ctx,
		"WHERE m.calendar_name=$1 AND ("+
			"(m.recursion_frequency IS NULL AND m.meeting_date < $3 AND m.meeting_date_end >= $2) OR "+
			"(m.recursion_frequency IS NOT NULL AND m.meeting_date < $3 AND m.recursion_ends >= $2))",
		calendarName, start, stop)
}

func (s *Storage) MeetingsOfManager(ctx context.Context, username string, from time.Time, future bool) ([]storage.Meeting, error) {
	cmp := "<"
	if future {
		cmp = ">="
	}
	return s.selectMeetings(
		ctx,
		"WHERE m.meeting_id IN (SELECT meeting_id FROM meetings_managers WHERE username=$1) "+
			"AND COALESCE(m.recursion_ends, m.meeting_date) "+cmp+" $2",
		username, from)
}

func (s *Storage) MeetingsToRemind(ctx context.Context, offset int, date time.Time) ([]storage.Meeting, error) {
	return s.selectMeetings(
		ctx,
		"JOIN reminders r ON r.reminder_id=m.reminder_id "+
			"WHERE r.reminder_offset=$1 AND ("+
			"(m.recursion_frequency IS NULL AND m.meeting_date = $2) OR "+
			"(m.recursion_frequency IS NOT NULL AND m.meeting_date <= $2 AND m.recursion_ends >= $2))",
		offset, date)
}

// ApplySplit runs every row write of a series split in one transaction;
// a failing part rolls back the whole split.
func (s *Storage) ApplySplit(ctx context.Context, w storage.SplitWrite) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, u := range w.Updates {
			if err := updateMeetingTx(ctx, tx, u.ID, u); err != nil {
				return err
			}
		}
		for _, ins := range w.Inserts {
			if err := addMeetingTx(ctx, tx, ins); err != nil {
				return err
			}
		}
		for _, id := range w.Deletes {
			if err := removeMeetingTx(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Errorf("failed to rollback: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}

func addMeetingTx(ctx context.Context, tx *sqlx.Tx, m *storage.Meeting) error {
	reminderID, err := saveReminderTx(ctx, tx, m.Reminder)
	if err != nil {
		return err
	}
	err = tx.GetContext(
		ctx, &m.ID,
		"INSERT INTO meetings(meeting_name, calendar_name, meeting_date, meeting_date_end, "+
			"meeting_time_start, meeting_time_stop, meeting_timezone, meeting_information, "+
			"meeting_location, full_day, recursion_frequency, recursion_ends, reminder_id) "+
			"VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING meeting_id",
		m.Name, m.CalendarName, m.Date, m.DateEnd,
		m.TimeStart.Format("15:04"), m.TimeStop.Format("15:04"),
		m.Timezone, m.Information, m.Location, m.FullDay,
		nullFrequency(*m), nullEnds(*m), reminderID)
	if err != nil {
		return err
	}
	return saveManagersTx(ctx, tx, m.ID, m.Managers)
}

func updateMeetingTx(ctx context.Context, tx *sqlx.Tx, id int64, m storage.Meeting) error {
	var oldReminderID sql.NullInt64
	err := tx.GetContext(
		ctx, &oldReminderID, "SELECT reminder_id FROM meetings WHERE meeting_id=$1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update meeting %d: %w", id, storage.ErrNotFoundMeeting)
	}
	if err != nil {
		return err
	}
	reminderID, err := saveReminderTx(ctx, tx, m.Reminder)
	if err != nil {
		return err
	}
	var found bool
	err = tx.GetContext(
		ctx, &found,
		"UPDATE meetings SET meeting_name=$2, meeting_date=$3, meeting_date_end=$4, "+
			"meeting_time_start=$5, meeting_time_stop=$6, meeting_timezone=$7, "+
			"meeting_information=$8, meeting_location=$9, full_day=$10, "+
			"recursion_frequency=$11, recursion_ends=$12, reminder_id=$13 "+
			"WHERE meeting_id=$1 RETURNING TRUE",
		id, m.Name, m.Date, m.DateEnd,
		m.TimeStart.Format("15:04"), m.TimeStop.Format("15:04"),
		m.Timezone, m.Information, m.Location, m.FullDay,
		nullFrequency(m), nullEnds(m), reminderID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update meeting %d: %w", id, storage.ErrNotFoundMeeting)
	}
	if err != nil {
		return err
	}
	if err := removeReminderTx(ctx, tx, oldReminderID); err != nil {
		return err
	}
	return saveManagersTx(ctx, tx, id, m.Managers)
}

func removeMeetingTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if _, err := tx.ExecContext(
		ctx, "DELETE FROM meetings_managers WHERE meeting_id=$1", id); err != nil {
		return err
	}
	var reminderID sql.NullInt64
	err := tx.GetContext(ctx, &reminderID,
		"DELETE FROM meetings WHERE meeting_id=$1 RETURNING reminder_id", id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to remove meeting %d: %w", id, storage.ErrNotFoundMeeting)
	}
	if err != nil {
		return err
	}
	return removeReminderTx(ctx, tx, reminderID)
}

// removeReminderTx drops a reminder row once no meeting points at it.
func removeReminderTx(ctx context.Context, tx *sqlx.Tx, id sql.NullInt64) error {
	if !id.Valid {
		return nil
	}
	_, err := tx.ExecContext(ctx, "DELETE FROM reminders WHERE reminder_id=$1", id.Int64)
	return err
}

// saveReminderTx inserts a fresh reminder row for the meeting (reminders
// are owned exclusively by one meeting, split siblings each get their
// own copy) and returns its id, or nil when the meeting has none.
func saveReminderTx(ctx context.Context, tx *sqlx.Tx, r *storage.Reminder) (interface{}, error) {
	if r == nil {
		return nil, nil
	}
	var id int64
	err := tx.GetContext(
		ctx, &id,
		"INSERT INTO reminders(reminder_offset, reminder_from, reminder_to, reminder_text) "+
			"VALUES($1, $2, $3, $4) RETURNING reminder_id",
		r.Offset, r.From, strings.Join(r.To, ","), r.Text)
	if err != nil {
		return nil, err
	}
	r.ID = id
	return id, nil
}

func saveManagersTx(ctx context.Context, tx *sqlx.Tx, meetingID int64, managers []string) error {
	if _, err := tx.ExecContext(
		ctx, "DELETE FROM meetings_managers WHERE meeting_id=$1", meetingID); err != nil {
		return err
	}
	for _, username := range managers {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO meetings_managers(meeting_id, username) VALUES($1, $2)",
			meetingID, username); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) selectMeetings(ctx context.Context, where string, args ...interface{}) ([]storage.Meeting, error) {
	var rows []meetingRow
	err := s.db.SelectContext(
		ctx, &rows,
		"SELECT m.meeting_id, m.meeting_name, m.calendar_name, m.meeting_date, "+
			"m.meeting_date_end, m.meeting_time_start, m.meeting_time_stop, "+
			"m.meeting_timezone, m.meeting_information, m.meeting_location, m.full_day, "+
			"m.recursion_frequency, m.recursion_ends, "+
			"r.reminder_id, r.reminder_offset, r.reminder_from, r.reminder_to, r.reminder_text "+
			"FROM meetings m LEFT JOIN reminders r ON r.reminder_id=m.reminder_id "+
			where+" ORDER BY m.meeting_date, m.meeting_time_start, m.meeting_name",
		args...)
	if err != nil {
		return nil, err
	}
	meetings := make([]storage.Meeting, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		meetings = append(meetings, row.meeting())
		ids = append(ids, row.ID)
	}
	if err := s.attachManagers(ctx, meetings, ids); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (s *Storage) attachManagers(ctx context.Context, meetings []storage.Meeting, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	var rows []struct {
		MeetingID int64  `db:"meeting_id"`
		Username  string `db:"username"`
	}
	err := s.db.SelectContext(
		ctx, &rows,
		"SELECT meeting_id, username FROM meetings_managers WHERE meeting_id = ANY($1) "+
			"ORDER BY manager_id",
		pq.Array(ids))
	if err != nil {
		return err
	}
	byID := make(map[int64][]string, len(meetings))
	for _, row := range rows {
		byID[row.MeetingID] = append(byID[row.MeetingID], row.Username)
	}
	for i := range meetings {
		meetings[i].Managers = byID[meetings[i].ID]
	}
	return nil
}

func nullFrequency(m storage.Meeting) interface{} {
	if !m.Recursive() {
		return nil
	}
	return m.RecursionFrequency
}

func nullEnds(m storage.Meeting) interface{} {
	if !m.Recursive() {
		return nil
	}
	return m.RecursionEnds
}

func joinGroups(groups []string) string {
	return strings.Join(groups, ",")
}

func splitGroups(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	groups := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			groups = append(groups, p)
		}
	}
	return groups
}
