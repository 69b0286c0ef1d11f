package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "state.db")); os.IsNotExist(err) {
		t.Error("state.db should exist")
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := db.SetEngagement("k", "v"); err != nil {
		t.Fatalf("SetEngagement() error: %v", err)
	}
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	if v, _ := db.GetEngagement("k"); v != "v" {
		t.Errorf("value after reopen = %q", v)
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

// ─── Engagement KV ──────────────────────────────────────────────────────────

func TestEngagement_SetGetUpsert(t *testing.T) {
	db := newTestDB(t)

	if v, err := db.GetEngagement("missing"); err != nil || v != "" {
		t.Fatalf("GetEngagement(missing) = %q, %v", v, err)
	}
	_ = db.SetEngagement("default_user", "a")
	_ = db.SetEngagement("default_user", "b")
	if v, _ := db.GetEngagement("default_user"); v != "b" {
		t.Errorf("value = %q, want b", v)
	}
}

// ─── Progress Snapshots ─────────────────────────────────────────────────────

func sampleState(userID string) domain.ProgressState {
	last := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	best := 85
	return domain.ProgressState{
		Progress: domain.UserProgress{
			UserID:               userID,
			CompletedLessons:     []string{"level_1_1"},
			TotalPracticeSeconds: 300,
			StreakDays:           2,
			LongestStreakDays:    2,
			LastPracticeDate:     &last,
			Experience:           9,
			Achievements:         []domain.Achievement{{ID: "first_lesson", Title: "Beginner"}},
		},
		Levels: []domain.LevelState{
			{LevelID: "level_1_1", IsUnlocked: true, IsCompleted: true, BestScore: &best, Stars: 2},
			{LevelID: "level_1_2", IsUnlocked: true},
		},
		UpdatedAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestProgress_SaveLoad(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SaveProgress(ctx, sampleState("u1")); err != nil {
		t.Fatalf("SaveProgress() error: %v", err)
	}

	got, err := db.LoadProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadProgress() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected snapshot")
	}
	if got.Progress.UserID != "u1" || len(got.Progress.CompletedLessons) != 1 {
		t.Errorf("progress = %+v", got.Progress)
	}
	if got.Progress.LastPracticeDate == nil || !got.Progress.LastPracticeDate.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("last practice date = %v", got.Progress.LastPracticeDate)
	}
	if len(got.Levels) != 2 || got.Levels[0].BestScore == nil || *got.Levels[0].BestScore != 85 {
		t.Errorf("levels = %+v", got.Levels)
	}
}

func TestProgress_LoadMissing(t *testing.T) {
	db := newTestDB(t)
	got, err := db.LoadProgress(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadProgress() error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestProgress_Overwrite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := sampleState("u1")
	_ = db.SaveProgress(ctx, s)
	s.Progress.StreakDays = 9
	_ = db.SaveProgress(ctx, s)

	got, _ := db.LoadProgress(ctx, "u1")
	if got.Progress.StreakDays != 9 {
		t.Errorf("streak = %d, want 9", got.Progress.StreakDays)
	}
	users, _ := db.ListProgressUsers(ctx)
	if len(users) != 1 {
		t.Errorf("users = %v", users)
	}
}

func TestProgress_RejectsEmptyUser(t *testing.T) {
	db := newTestDB(t)
	err := db.SaveProgress(context.Background(), domain.ProgressState{})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestProgress_Delete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_ = db.SaveProgress(ctx, sampleState("u1"))
	if err := db.DeleteProgress(ctx, "u1"); err != nil {
		t.Fatalf("DeleteProgress() error: %v", err)
	}
	if got, _ := db.LoadProgress(ctx, "u1"); got != nil {
		t.Error("snapshot should be gone")
	}
	if err := db.DeleteProgress(ctx, "u1"); err != nil {
		t.Errorf("deleting a missing snapshot should not fail: %v", err)
	}
}

// ─── Practice Attempts ──────────────────────────────────────────────────────

func TestAttempts_InsertList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	for i, score := range []int{55, 72, 91} {
		a := domain.PracticeAttempt{
			ID:        "att-" + string(rune('a'+i)),
			SessionID: "sess",
			UserID:    "u1",
			LevelID:   "level_1_1",
			Score:     domain.ScoreResult{TotalScore: score, Grade: domain.GradeC, Feedback: []domain.ScoreFeedback{}},
			Stars:     i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.InsertAttempt(ctx, a); err != nil {
			t.Fatalf("InsertAttempt() error: %v", err)
		}
	}

	list, err := db.ListAttempts(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListAttempts() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(list))
	}
	if list[0].Score.TotalScore != 91 || list[0].Stars != 3 {
		t.Errorf("newest attempt = %+v", list[0])
	}

	n, err := db.AttemptCount(ctx, "u1", "level_1_1")
	if err != nil || n != 3 {
		t.Errorf("AttemptCount() = %d, %v", n, err)
	}
	if others, _ := db.ListAttempts(ctx, "u2", 10); len(others) != 0 {
		t.Errorf("attempts leaked across users: %v", others)
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func TestNotifications_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	id, err := db.InsertNotification(domain.Notification{
		UserID: "u1", Type: domain.NotifyAchievement, Title: "t", Body: "b", CreatedAt: now,
	})
	if err != nil || id == 0 {
		t.Fatalf("InsertNotification() = %d, %v", id, err)
	}
	_, _ = db.InsertNotification(domain.Notification{
		UserID: "u2", Type: domain.NotifyLevelUp, Title: "t", Body: "b", CreatedAt: now,
	})

	count, _ := db.NotificationCountSince("u1", now.Add(-time.Hour))
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if count, _ := db.NotificationCountSince("u1", now.Add(time.Hour)); count != 0 {
		t.Errorf("count after window = %d, want 0", count)
	}

	pending, _ := db.ListPendingNotifications("u1", 10)
	if len(pending) != 1 || pending[0].Type != domain.NotifyAchievement {
		t.Fatalf("pending = %+v", pending)
	}
	if err := db.MarkNotificationShown(id); err != nil {
		t.Fatalf("MarkNotificationShown() error: %v", err)
	}
	if pending, _ := db.ListPendingNotifications("u1", 10); len(pending) != 0 {
		t.Errorf("expected no pending, got %d", len(pending))
	}
	if err := db.MarkNotificationShown(9999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
