package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shawHuaZe/SingMaster/internal/app/session"
	"github.com/shawHuaZe/SingMaster/internal/content"
	"github.com/shawHuaZe/SingMaster/internal/domain"
	"github.com/shawHuaZe/SingMaster/internal/infra/retry"
	"github.com/shawHuaZe/SingMaster/internal/infra/sqlite"
)

// flakyStore fails saves while down is set.
type flakyStore struct {
	*sqlite.DB
	down atomic.Bool
}

func (f *flakyStore) SaveProgress(ctx context.Context, state domain.ProgressState) error {
	if f.down.Load() {
		return errDown
	}
	return f.DB.SaveProgress(ctx, state)
}

func newRetryService(t *testing.T, maxRetries int) (*session.Service, *flakyStore, *retry.Queue, *clock) {
	t.Helper()
	store := &flakyStore{DB: testDB(t)}
	q := retry.NewQueue(retry.Config{MaxRetries: maxRetries, BaseDelay: time.Second, MaxDelay: 4 * time.Second})
	clk := newClock()
	svc := session.NewService(store, content.Default().AllChapters(),
		session.WithClock(clk.Now),
		session.WithRetryQueue(q))
	return svc, store, q, clk
}

func TestRetry_SavesAfterRecovery(t *testing.T) {
	svc, store, q, clk := newRetryService(t, 3)
	ctx := context.Background()

	store.down.Store(true)
	if _, err := svc.CompleteLesson(ctx, "u1", "level_1_1", 80); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !q.Pending("u1") {
		t.Fatal("failed save should be queued for retry")
	}

	// Not due yet
	if n := svc.RetryFailedSaves(ctx); n != 0 {
		t.Errorf("saved %d before backoff expired", n)
	}

	store.down.Store(false)
	clk.Advance(time.Second)
	if n := svc.RetryFailedSaves(ctx); n != 1 {
		t.Fatalf("RetryFailedSaves() = %d, want 1", n)
	}

	state, err := store.LoadProgress(ctx, "u1")
	if err != nil || state == nil {
		t.Fatalf("LoadProgress() = %v, %v", state, err)
	}
	if len(state.Progress.CompletedLessons) != 1 {
		t.Errorf("stored lessons = %v", state.Progress.CompletedLessons)
	}
	if q.Len() != 0 {
		t.Errorf("queue len = %d, want 0", q.Len())
	}
}

func TestRetry_LaterSaveClearsPending(t *testing.T) {
	svc, store, q, _ := newRetryService(t, 3)
	ctx := context.Background()

	store.down.Store(true)
	_, _ = svc.CompleteLesson(ctx, "u1", "level_1_1", 80)
	store.down.Store(false)

	if _, err := svc.UpdateStreak(ctx, "u1"); err != nil {
		t.Fatalf("UpdateStreak() error: %v", err)
	}
	if q.Pending("u1") {
		t.Error("successful save should clear the pending retry")
	}
}

func TestRetry_GivesUp(t *testing.T) {
	svc, store, q, clk := newRetryService(t, 2)
	ctx := context.Background()

	store.down.Store(true)
	_, _ = svc.CompleteLesson(ctx, "u1", "level_1_1", 80)

	for i := 0; i < 3; i++ {
		clk.Advance(time.Minute)
		if n := svc.RetryFailedSaves(ctx); n != 0 {
			t.Fatalf("round %d saved %d while store is down", i, n)
		}
	}
	if q.Len() != 0 {
		t.Errorf("queue len = %d, want 0 after giving up", q.Len())
	}
	if s := q.Stats(); s.TotalExhausted != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRetry_NoQueue(t *testing.T) {
	svc := newService(t, testDB(t), newClock())
	if n := svc.RetryFailedSaves(context.Background()); n != 0 {
		t.Errorf("RetryFailedSaves() = %d without a queue", n)
	}
}
