package redisstore_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shawHuaZe/SingMaster/internal/domain"
	"github.com/shawHuaZe/SingMaster/internal/infra/redisstore"
)

// These tests need a live Redis; set SINGMASTER_TEST_REDIS=host:port.
func openStore(t *testing.T) *redisstore.Store {
	t.Helper()
	addr := os.Getenv("SINGMASTER_TEST_REDIS")
	if addr == "" {
		t.Skip("SINGMASTER_TEST_REDIS not set")
	}
	s, err := redisstore.Open(context.Background(), redisstore.Options{
		Addr:   addr,
		Prefix: "singmaster-test-" + uuid.NewString() + ":",
		TTL:    time.Minute,
	})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_RequiresAddr(t *testing.T) {
	_, err := redisstore.Open(context.Background(), redisstore.Options{})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestStore_SaveLoadDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if got, err := s.LoadProgress(ctx, "u1"); err != nil || got != nil {
		t.Fatalf("LoadProgress(missing) = %+v, %v", got, err)
	}

	best := 88
	state := domain.ProgressState{
		Progress: domain.UserProgress{UserID: "u1", CompletedLessons: []string{"level_1_1"}, StreakDays: 4},
		Levels:   []domain.LevelState{{LevelID: "level_1_1", IsUnlocked: true, IsCompleted: true, BestScore: &best, Stars: 2}},
	}
	if err := s.SaveProgress(ctx, state); err != nil {
		t.Fatalf("SaveProgress() error: %v", err)
	}
	got, err := s.LoadProgress(ctx, "u1")
	if err != nil || got == nil {
		t.Fatalf("LoadProgress() = %+v, %v", got, err)
	}
	if got.Progress.StreakDays != 4 || *got.Levels[0].BestScore != 88 {
		t.Errorf("loaded = %+v", got)
	}

	if err := s.DeleteProgress(ctx, "u1"); err != nil {
		t.Fatalf("DeleteProgress() error: %v", err)
	}
	if got, _ := s.LoadProgress(ctx, "u1"); got != nil {
		t.Error("snapshot should be gone")
	}
}

func TestStore_RejectsEmptyUser(t *testing.T) {
	s := openStore(t)
	if err := s.SaveProgress(context.Background(), domain.ProgressState{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestStore_Ping(t *testing.T) {
	s := openStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}
