package engagement

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// NotificationService manages practice notifications.
//   - Daily cap per user (policy.MaxPerDay)
//   - Nothing during quiet hours (policy.QuietStart to QuietEnd)
//   - Only positive events: achievement unlocked, level up, streak milestone
//   - Never "streak at risk" reminders
type NotificationService struct {
	store  domain.NotificationStore
	policy domain.NotificationPolicy
	now    func() time.Time
}

// NewNotificationService creates a notification service with default policy.
func NewNotificationService(store domain.NotificationStore) *NotificationService {
	return NewNotificationServiceWithPolicy(store, domain.DefaultNotificationPolicy())
}

// NewNotificationServiceWithPolicy creates a notification service with custom policy.
func NewNotificationServiceWithPolicy(store domain.NotificationStore, policy domain.NotificationPolicy) *NotificationService {
	return &NotificationService{store: store, policy: policy, now: time.Now}
}

// SetClock overrides the time source (tests).
func (n *NotificationService) SetClock(now func() time.Time) {
	n.now = now
}

// Create stores a notification if policy allows it.
// Returns the notification ID (0 if suppressed by policy) and any error.
func (n *NotificationService) Create(notif domain.Notification) (int64, error) {
	now := n.now()

	todayCount, err := n.store.NotificationCountSince(notif.UserID, CalendarDate(now))
	if err != nil {
		return 0, fmt.Errorf("count today: %w", err)
	}
	if todayCount >= n.policy.MaxPerDay {
		return 0, nil // daily limit reached
	}
	if n.isQuietHour(now) {
		return 0, nil
	}

	notif.CreatedAt = now
	notif.Shown = false

	id, err := n.store.InsertNotification(notif)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

// NotifyAchievements queues one notification per newly unlocked achievement.
// Returns the ids of those not suppressed.
func (n *NotificationService) NotifyAchievements(userID string, unlocked []domain.Achievement) ([]int64, error) {
	var ids []int64
	for _, a := range unlocked {
		id, err := n.Create(domain.Notification{
			UserID: userID,
			Type:   domain.NotifyAchievement,
			Title:  fmt.Sprintf("%s Achievement unlocked: %s", a.Icon, a.Title),
			Body:   a.Description,
		})
		if err != nil {
			return ids, err
		}
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// NotifyLevelUp queues a level-up notification.
func (n *NotificationService) NotifyLevelUp(userID string, level int) (int64, error) {
	return n.Create(domain.Notification{
		UserID: userID,
		Type:   domain.NotifyLevelUp,
		Title:  fmt.Sprintf("Level %d reached", level),
		Body:   "Your voice is getting stronger. Keep singing!",
	})
}

// Pending returns unshown notifications for a user.
func (n *NotificationService) Pending(userID string, limit int) ([]domain.Notification, error) {
	return n.store.ListPendingNotifications(userID, limit)
}

// MarkShown marks a notification as shown.
func (n *NotificationService) MarkShown(id int64) error {
	return n.store.MarkNotificationShown(id)
}

// TodayCount returns how many notifications a user received today.
func (n *NotificationService) TodayCount(userID string) (int, error) {
	return n.store.NotificationCountSince(userID, CalendarDate(n.now()))
}

// Policy returns the current notification policy.
func (n *NotificationService) Policy() domain.NotificationPolicy {
	return n.policy
}

// isQuietHour returns true if the given time falls within quiet hours.
func (n *NotificationService) isQuietHour(t time.Time) bool {
	if n.policy.QuietStart == "" || n.policy.QuietEnd == "" {
		return false
	}
	startHour, startMin := parseHHMM(n.policy.QuietStart)
	endHour, endMin := parseHHMM(n.policy.QuietEnd)

	timeMinutes := t.Hour()*60 + t.Minute()
	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	if startMinutes > endMinutes {
		// Wraps midnight: e.g., 22:00 – 08:00
		return timeMinutes >= startMinutes || timeMinutes < endMinutes
	}
	return timeMinutes >= startMinutes && timeMinutes < endMinutes
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}
