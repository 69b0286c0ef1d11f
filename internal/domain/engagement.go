// Package domain holds the SingMaster record types, sentinel errors and the
// storage interfaces infrastructure implements. No infrastructure imports.
package domain

import "time"

// ─── Notification Types ─────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyAchievement  NotificationType = "achievement"
	NotifyLevelUp      NotificationType = "level_up"
	NotifyStreak       NotificationType = "streak"
	NotifyDailySummary NotificationType = "daily_summary"
)

// Notification is a user-facing message.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how often notifications are sent.
type NotificationPolicy struct {
	MaxPerDay  int    `json:"max_per_day" toml:"max_per_day" validate:"min=0"`
	QuietStart string `json:"quiet_start" toml:"quiet_start" validate:"omitempty,datetime=15:04"`
	QuietEnd   string `json:"quiet_end" toml:"quiet_end" validate:"omitempty,datetime=15:04"`
}

// DefaultNotificationPolicy allows a few nudges a day outside night hours.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  3,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}
