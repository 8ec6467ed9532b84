// Package auth holds the pure permission predicates. Identity and group
// membership come from an external provider; nothing here has side
// effects.
package auth

import (
	"github.com/meetcal/meetcal/internal/storage"
)

// User is the acting user's identity snapshot as supplied by the
// external auth collaborator.
type User struct {
	Username string
	Groups   []string
}

// InGroups reports whether the user belongs to any of the given groups.
func (u User) InGroups(groups []string) bool {
	for _, g := range groups {
		for _, mine := range u.Groups {
			if g == mine {
				return true
			}
		}
	}
	return false
}

// IsAdmin reports whether the user belongs to the site-wide admin group.
func IsAdmin(user User, adminGroup string) bool {
	return adminGroup != "" && user.InGroups([]string{adminGroup})
}

// IsCalendarAdmin reports whether the user may administer the calendar.
func IsCalendarAdmin(user User, cal storage.Calendar) bool {
	return user.InGroups(cal.AdminGroups)
}

// IsCalendarManager reports whether the user may write meetings into the
// calendar. A calendar with no editor groups is open to everyone.
func IsCalendarManager(user User, cal storage.Calendar) bool {
	if len(cal.EditorGroups) == 0 {
		return true
	}
	return user.InGroups(cal.EditorGroups) || IsCalendarAdmin(user, cal)
}

// IsMeetingManager reports whether the user manages the meeting.
// Usernames compare case-sensitively.
func IsMeetingManager(user User, m storage.Meeting) bool {
	return m.HasManager(user.Username)
}
