package domain

import (
	"strings"
	"time"
)

// Punishment actions as stored in the audit log. A removal is its own record
// with a "remove " prefix, never a mutation of the original.
const (
	ActionWarning = "warning"
	ActionMute    = "mute"
	ActionBan     = "ban"

	removedPrefix = "remove "
)

// TimedActions are the actions that carry a duration and an expiry watcher.
// Bans are permanent until explicitly lifted out of band.
var TimedActions = []string{ActionWarning, ActionMute}

func RemovalOf(action string) string {
	return removedPrefix + action
}

func IsRemoval(action string) bool {
	return strings.HasPrefix(action, removedPrefix)
}

// PunishmentRecord is one append-only entry in the moderation audit log.
// Duration is in hours; zero means indefinite.
type PunishmentRecord struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Action      string    `db:"action"`
	ModeratorID string    `db:"moderator_id"`
	Date        time.Time `db:"date"`
	Duration    float64   `db:"duration"`
	Reason      string    `db:"reason"`
}

func (r *PunishmentRecord) Indefinite() bool {
	return r.Duration == 0
}

// ActiveAt reports whether the record's duration window still covers now.
func (r *PunishmentRecord) ActiveAt(now time.Time) bool {
	if r.Indefinite() {
		return true
	}
	return now.Sub(r.Date) < time.Duration(r.Duration*float64(time.Hour))
}
