// Package session runs the practice flow on top of the engagement ledger:
// it owns one Ledger per user, persists snapshots through a ProgressStore,
// and drives practice sessions from start to graded completion.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/app/engagement"
	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/domain"
	"github.com/shawHuaZe/SingMaster/internal/infra/metrics"
	"github.com/shawHuaZe/SingMaster/internal/infra/retry"
)

// Service coordinates ledgers, storage, achievements and notifications.
type Service struct {
	store      domain.ProgressStore
	attempts   domain.AttemptStore
	notifier   *engagement.NotificationService
	retries    *retry.Queue
	evaluator  *engagement.Evaluator
	curriculum []domain.Chapter
	ledgerOpts []engagement.LedgerOption

	mu       sync.Mutex
	users    map[string]*userEntry
	sessions map[string]*domain.PracticeSession

	now func() time.Time
	log *zap.Logger
}

// userEntry serializes multi-step flows for one user. Until loaded is set
// the ledger holds defaults and must not be written over the stored snapshot.
type userEntry struct {
	mu     sync.Mutex
	ledger *engagement.Ledger
	loaded bool
}

// Option configures a Service.
type Option func(*Service)

// WithAttemptStore records finished sessions.
func WithAttemptStore(a domain.AttemptStore) Option {
	return func(s *Service) { s.attempts = a }
}

// WithNotifier sends achievement and level-up notifications.
func WithNotifier(n *engagement.NotificationService) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRetryQueue re-saves snapshots whose save failed.
func WithRetryQueue(q *retry.Queue) Option {
	return func(s *Service) { s.retries = q }
}

// WithEvaluator replaces the default achievement evaluator.
func WithEvaluator(e *engagement.Evaluator) Option {
	return func(s *Service) { s.evaluator = e }
}

// WithLedgerOptions passes options to every ledger the service creates.
func WithLedgerOptions(opts ...engagement.LedgerOption) Option {
	return func(s *Service) { s.ledgerOpts = append(s.ledgerOpts, opts...) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a service over store and the given curriculum.
func NewService(store domain.ProgressStore, curriculum []domain.Chapter, opts ...Option) *Service {
	s := &Service{
		store:      store,
		curriculum: domain.CloneChapters(curriculum),
		users:      make(map[string]*userEntry),
		sessions:   make(map[string]*domain.PracticeSession),
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = engagement.NewEvaluator(engagement.WithEvaluatorClock(s.now))
	}
	return s
}

// ─── Views ──────────────────────────────────────────────────────────────────

// Overview is the progress summary shown on the home screen.
type Overview struct {
	Progress          domain.UserProgress `json:"progress"`
	Level             domain.UserLevel    `json:"level"`
	Today             domain.DailyGoal    `json:"today"`
	CurrentChapter    int                 `json:"current_chapter"`
	CurrentLevel      int                 `json:"current_level"`
	AchievementsTotal int                 `json:"achievements_total"`
}

// Completion reports what a completed lesson changed.
type Completion struct {
	LevelID         string               `json:"level_id"`
	Score           int                  `json:"score"`
	Stars           int                  `json:"stars"`
	BestStars       int                  `json:"best_stars"`
	XP              int64                `json:"xp"`
	UserLevel       int                  `json:"user_level"`
	LeveledUp       bool                 `json:"leveled_up"`
	StreakDays      int                  `json:"streak_days"`
	Unlocked        string               `json:"unlocked,omitempty"`
	NewAchievements []domain.Achievement `json:"new_achievements"`
}

// Progress returns the user's progress overview.
func (s *Service) Progress(ctx context.Context, userID string) (Overview, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	chapter, level := u.ledger.Cursor()
	return Overview{
		Progress:          u.ledger.Snapshot(),
		Level:             u.ledger.ExperienceLevel(),
		Today:             u.ledger.TodayProgress(),
		CurrentChapter:    chapter,
		CurrentLevel:      level,
		AchievementsTotal: s.evaluator.TotalCount(),
	}, nil
}

// Chapters returns the curriculum with the user's level state.
func (s *Service) Chapters(ctx context.Context, userID string) ([]domain.Chapter, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ledger.Chapters(), nil
}

// Achievements returns progress toward every catalog achievement.
func (s *Service) Achievements(ctx context.Context, userID string) ([]domain.AchievementProgress, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return s.evaluator.Progress(u.ledger.Snapshot()), nil
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// CompleteLesson records a scored lesson: it completes the level, extends
// the streak, awards XP, merges new achievements and persists the result.
// When only persistence fails the completion is returned together with an
// error wrapping domain.ErrStoreUnavailable.
func (s *Service) CompleteLesson(ctx context.Context, userID, levelID string, score int) (Completion, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return Completion{}, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return s.completeLocked(ctx, u, levelID, score)
}

func (s *Service) completeLocked(ctx context.Context, u *userEntry, levelID string, score int) (Completion, error) {
	led := u.ledger
	userID := led.UserID()

	before := unlockedSet(led.Chapters())
	if err := led.CompleteLesson(levelID, score); err != nil {
		return Completion{}, err
	}
	lv, err := led.Level(levelID)
	if err != nil {
		return Completion{}, err
	}

	c := Completion{
		LevelID:    levelID,
		Score:      score,
		Stars:      grading.StarRating(score, lv.Target),
		BestStars:  lv.Stars,
		XP:         grading.XPForScore(score),
		StreakDays: led.UpdateStreak(s.now()),
	}
	for _, ch := range led.Chapters() {
		for _, l := range ch.Levels {
			if l.IsUnlocked && !before[l.ID] {
				c.Unlocked = l.ID
			}
		}
	}
	if c.UserLevel, c.LeveledUp, err = led.AddExperience(c.XP); err != nil {
		return Completion{}, fmt.Errorf("award xp for %s: %w", levelID, err)
	}

	c.NewAchievements = s.evaluator.Evaluate(led.Snapshot())
	led.MergeAchievements(c.NewAchievements)

	metrics.LessonsCompleted.WithLabelValues(levelID).Inc()
	for _, a := range c.NewAchievements {
		metrics.AchievementsUnlocked.WithLabelValues(a.ID).Inc()
	}
	if c.LeveledUp {
		metrics.LevelUps.Inc()
	}

	s.log.Info("lesson completed",
		zap.String("user_id", userID),
		zap.String("level_id", levelID),
		zap.Int("score", score),
		zap.Int("stars", c.Stars),
		zap.Int("new_achievements", len(c.NewAchievements)))

	s.notify(userID, c)
	return c, s.persist(ctx, u)
}

// UpdateStreak records practice today and returns the streak length.
func (s *Service) UpdateStreak(ctx context.Context, userID string) (int, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return 0, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	days := u.ledger.UpdateStreak(s.now())
	unlocked := s.evaluator.Evaluate(u.ledger.Snapshot())
	if u.ledger.MergeAchievements(unlocked) > 0 {
		s.notify(userID, Completion{NewAchievements: unlocked})
	}
	return days, s.persist(ctx, u)
}

// AddPracticeTime credits extra practice seconds.
func (s *Service) AddPracticeTime(ctx context.Context, userID string, seconds int64) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.ledger.AddPracticeTime(seconds); err != nil {
		return err
	}
	return s.persist(ctx, u)
}

// Reset restores default progress and removes the stored snapshot.
func (s *Service) Reset(ctx context.Context, userID string) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	u.ledger.ResetProgress()
	if err := s.store.DeleteProgress(ctx, userID); err != nil {
		metrics.StoreErrors.WithLabelValues("delete").Inc()
		s.log.Error("delete progress failed", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("delete progress for %s: %w: %w", userID, domain.ErrStoreUnavailable, err)
	}
	u.loaded = true
	s.log.Info("progress reset", zap.String("user_id", userID))
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// user returns the cached entry for userID, loading its snapshot if no
// load has succeeded yet. A failed load leaves default progress in place
// for reads and is tried again on the next access.
func (s *Service) user(ctx context.Context, userID string) (*userEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}

	s.mu.Lock()
	u, ok := s.users[userID]
	if !ok {
		opts := append([]engagement.LedgerOption{
			engagement.WithLedgerClock(s.now),
			engagement.WithLedgerLogger(s.log.Named("ledger")),
		}, s.ledgerOpts...)
		u = &userEntry{ledger: engagement.NewLedger(userID, s.curriculum, opts...)}
		s.users[userID] = u
	}
	s.mu.Unlock()

	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.loaded {
		s.load(ctx, u)
	}
	return u, nil
}

// load restores the stored snapshot into u. Callers hold u.mu.
func (s *Service) load(ctx context.Context, u *userEntry) {
	userID := u.ledger.UserID()
	state, err := s.store.LoadProgress(ctx, userID)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		s.log.Warn("load progress failed, using defaults", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if state != nil {
		u.ledger.Restore(*state)
	}
	u.loaded = true
}

// persist saves u's snapshot. It refuses while the stored snapshot has not
// been loaded so defaults never overwrite real progress.
func (s *Service) persist(ctx context.Context, u *userEntry) error {
	state := u.ledger.State()
	userID := state.Progress.UserID
	if !u.loaded {
		s.log.Warn("save skipped, stored progress not loaded", zap.String("user_id", userID))
		return fmt.Errorf("save progress for %s: %w: stored progress not loaded", userID, domain.ErrStoreUnavailable)
	}
	if err := s.store.SaveProgress(ctx, state); err != nil {
		metrics.StoreErrors.WithLabelValues("save").Inc()
		s.log.Error("save progress failed", zap.String("user_id", userID), zap.Error(err))
		if s.retries != nil {
			s.retries.Schedule(userID, err.Error(), s.now())
		}
		return fmt.Errorf("save progress for %s: %w: %w", userID, domain.ErrStoreUnavailable, err)
	}
	if s.retries != nil {
		s.retries.Remove(userID)
	}
	return nil
}

func (s *Service) notify(userID string, c Completion) {
	if s.notifier == nil {
		return
	}
	if len(c.NewAchievements) > 0 {
		if _, err := s.notifier.NotifyAchievements(userID, c.NewAchievements); err != nil {
			s.log.Warn("achievement notification failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if c.LeveledUp {
		if _, err := s.notifier.NotifyLevelUp(userID, c.UserLevel); err != nil {
			s.log.Warn("level-up notification failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

func unlockedSet(chapters []domain.Chapter) map[string]bool {
	set := make(map[string]bool)
	for _, ch := range chapters {
		for _, lv := range ch.Levels {
			if lv.IsUnlocked {
				set[lv.ID] = true
			}
		}
	}
	return set
}
