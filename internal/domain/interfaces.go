package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// ProgressStore persists one ProgressState snapshot per user.
// Implemented by infra/sqlite.DB and infra/redisstore.Store.
type ProgressStore interface {
	// LoadProgress returns the stored snapshot, or nil if none exists.
	LoadProgress(ctx context.Context, userID string) (*ProgressState, error)

	// SaveProgress overwrites the snapshot for state.Progress.UserID.
	SaveProgress(ctx context.Context, state ProgressState) error

	// DeleteProgress removes the snapshot. Missing snapshots are not an error.
	DeleteProgress(ctx context.Context, userID string) error

	// Ping checks store connectivity.
	Ping(ctx context.Context) error
}

// AttemptStore records finished practice attempts.
type AttemptStore interface {
	InsertAttempt(ctx context.Context, a PracticeAttempt) error
	ListAttempts(ctx context.Context, userID string, limit int) ([]PracticeAttempt, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	InsertNotification(n Notification) (int64, error)
	NotificationCountSince(userID string, since time.Time) (int, error)
	ListPendingNotifications(userID string, limit int) ([]Notification, error)
	MarkNotificationShown(id int64) error
}
