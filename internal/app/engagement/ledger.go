package engagement

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// Defaults used when no LedgerOption overrides them.
const (
	DefaultLessonSeconds = 300
	DefaultDailyGoal     = 5
)

// levelRef locates a level inside the chapter slice.
type levelRef struct {
	chapter int
	level   int
}

// Ledger owns one user's progress and curriculum state. Every mutation of
// UserProgress and of the levels' unlock/completion fields goes through it.
// All methods are safe for concurrent use; each runs to completion under a
// single lock.
type Ledger struct {
	mu sync.Mutex

	initial  []domain.Chapter // locked baseline, never mutated
	chapters []domain.Chapter
	order    []levelRef // flattened curriculum order
	index    map[string]levelRef
	progress domain.UserProgress

	lessonSeconds int64
	dailyGoal     int
	now           func() time.Time
	log           *zap.Logger
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLessonSeconds sets the practice time credited per completed lesson.
func WithLessonSeconds(seconds int64) LedgerOption {
	return func(l *Ledger) {
		if seconds >= 0 {
			l.lessonSeconds = seconds
		}
	}
}

// WithDailyGoal sets the number of lessons that make up a daily goal.
func WithDailyGoal(n int) LedgerOption {
	return func(l *Ledger) {
		if n > 0 {
			l.dailyGoal = n
		}
	}
}

// WithLedgerClock overrides the clock used for snapshot timestamps.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithLedgerLogger attaches a logger.
func WithLedgerLogger(log *zap.Logger) LedgerOption {
	return func(l *Ledger) { l.log = log }
}

// NewLedger creates a ledger with default progress for userID. The
// curriculum is copied; only the first level of the first chapter starts
// unlocked.
func NewLedger(userID string, curriculum []domain.Chapter, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		lessonSeconds: DefaultLessonSeconds,
		dailyGoal:     DefaultDailyGoal,
		now:           time.Now,
		log:           zap.NewNop(),
		index:         make(map[string]levelRef),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.initial = domain.CloneChapters(curriculum)
	for ci := range l.initial {
		for li := range l.initial[ci].Levels {
			lv := &l.initial[ci].Levels[li]
			lv.IsUnlocked = false
			lv.IsCompleted = false
			lv.BestScore = nil
			lv.Stars = 0

			ref := levelRef{chapter: ci, level: li}
			l.order = append(l.order, ref)
			if _, dup := l.index[lv.ID]; dup {
				l.log.Warn("duplicate level id in curriculum", zap.String("level_id", lv.ID))
				continue
			}
			l.index[lv.ID] = ref
		}
	}
	if len(l.order) > 0 {
		first := l.order[0]
		l.initial[first.chapter].Levels[first.level].IsUnlocked = true
	}

	l.chapters = domain.CloneChapters(l.initial)
	l.progress = defaultProgress(userID)
	return l
}

func defaultProgress(userID string) domain.UserProgress {
	return domain.UserProgress{
		UserID:           userID,
		CompletedLessons: []string{},
		Achievements:     []domain.Achievement{},
	}
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// CompleteLesson records a finished level: marks it completed, keeps the
// best score and star count, credits lesson time and unlocks the next level.
func (l *Ledger) CompleteLesson(levelID string, score int) error {
	if !grading.Valid(score) {
		return fmt.Errorf("complete %s with score %d: %w", levelID, score, domain.ErrScoreRange)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lv, err := l.levelLocked(levelID)
	if err != nil {
		l.log.Error("complete lesson: unknown level", zap.String("level_id", levelID))
		return err
	}
	if !lv.IsUnlocked {
		return fmt.Errorf("complete %s: %w", levelID, domain.ErrLevelLocked)
	}

	lv.IsCompleted = true
	best := score
	if lv.BestScore != nil && *lv.BestScore > best {
		best = *lv.BestScore
	}
	lv.BestScore = &best
	if stars := grading.StarRating(score, lv.Target); stars > lv.Stars {
		lv.Stars = stars
	}

	if !l.progress.HasCompleted(levelID) {
		l.progress.CompletedLessons = append(l.progress.CompletedLessons, levelID)
	}
	l.progress.TotalPracticeSeconds += l.lessonSeconds

	if next, ok := l.unlockNextLocked(); ok {
		l.log.Debug("level unlocked", zap.String("level_id", next))
	}
	return nil
}

// UnlockNext unlocks the first locked level whose predecessor in curriculum
// order is unlocked. At most one level changes per call. It returns the id of
// the unlocked level, or false when no level was eligible.
func (l *Ledger) UnlockNext() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unlockNextLocked()
}

func (l *Ledger) unlockNextLocked() (string, bool) {
	for i := 1; i < len(l.order); i++ {
		cur := l.at(l.order[i])
		if cur.IsUnlocked {
			continue
		}
		if !l.at(l.order[i-1]).IsUnlocked {
			// A locked level with a locked predecessor: nothing further can
			// be eligible without a gap.
			return "", false
		}
		cur.IsUnlocked = true
		return cur.ID, true
	}
	return "", false
}

// UpdateStreak records practice on today's calendar day and returns the
// resulting streak length.
func (l *Ledger) UpdateStreak(today time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	days, step := NextStreak(l.progress.LastPracticeDate, l.progress.StreakDays, today)
	if step == StreakSameDay {
		return days
	}

	l.progress.StreakDays = days
	if days > l.progress.LongestStreakDays {
		l.progress.LongestStreakDays = days
	}
	date := CalendarDate(today)
	l.progress.LastPracticeDate = &date
	return days
}

// AddPracticeTime adds seconds to the practice accumulator.
func (l *Ledger) AddPracticeTime(seconds int64) error {
	if seconds < 0 {
		return fmt.Errorf("add %ds: %w", seconds, domain.ErrNegativeTime)
	}
	l.mu.Lock()
	l.progress.TotalPracticeSeconds += seconds
	l.mu.Unlock()
	return nil
}

// AddExperience adds XP and reports the new level and whether it rose.
func (l *Ledger) AddExperience(amount int64) (int, bool, error) {
	if amount < 0 {
		return 0, false, fmt.Errorf("xp amount must not be negative, got %d: %w", amount, domain.ErrInvalidArgument)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	oldLevel := LevelForXP(l.progress.Experience)
	l.progress.Experience += amount
	newLevel := LevelForXP(l.progress.Experience)
	return newLevel, newLevel > oldLevel, nil
}

// MergeAchievements appends achievements not already held. Existing entries
// are never replaced. Returns how many were added.
func (l *Ledger) MergeAchievements(achievements []domain.Achievement) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, a := range achievements {
		if l.progress.HasAchievement(a.ID) {
			continue
		}
		l.progress.Achievements = append(l.progress.Achievements, a)
		added++
	}
	return added
}

// ResetProgress restores default progress and the initial locked
// curriculum. The user id is kept.
func (l *Ledger) ResetProgress() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress = defaultProgress(l.progress.UserID)
	l.chapters = domain.CloneChapters(l.initial)
}

// Restore replaces the ledger state with a persisted snapshot. Level states
// for unknown ids are ignored; unlocks are then normalized so the first
// level is open, completed levels are open, and no gaps remain.
func (l *Ledger) Restore(state domain.ProgressState) {
	l.mu.Lock()
	defer l.mu.Unlock()

	userID := l.progress.UserID
	l.progress = state.Progress.Clone()
	l.progress.UserID = userID
	if l.progress.CompletedLessons == nil {
		l.progress.CompletedLessons = []string{}
	}
	if l.progress.Achievements == nil {
		l.progress.Achievements = []domain.Achievement{}
	}
	l.progress.CompletedLessons = dedupe(l.progress.CompletedLessons)

	l.chapters = domain.CloneChapters(l.initial)
	for _, ls := range state.Levels {
		ref, ok := l.index[ls.LevelID]
		if !ok {
			l.log.Warn("restore: unknown level in snapshot", zap.String("level_id", ls.LevelID))
			continue
		}
		lv := l.at(ref)
		lv.IsUnlocked = ls.IsUnlocked || ls.IsCompleted
		lv.IsCompleted = ls.IsCompleted
		if ls.BestScore != nil {
			s := grading.Clamp(*ls.BestScore)
			lv.BestScore = &s
		}
		if ls.Stars >= 0 && ls.Stars <= 3 {
			lv.Stars = ls.Stars
		}
	}
	l.normalizeUnlocksLocked()
}

// normalizeUnlocksLocked closes gaps: every level before the last unlocked
// one becomes unlocked.
func (l *Ledger) normalizeUnlocksLocked() {
	last := 0
	for i, ref := range l.order {
		if l.at(ref).IsUnlocked {
			last = i
		}
	}
	for i := 0; i <= last && i < len(l.order); i++ {
		l.at(l.order[i]).IsUnlocked = true
	}
}

// ─── Reads ──────────────────────────────────────────────────────────────────

// UserID returns the owner of this ledger.
func (l *Ledger) UserID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progress.UserID
}

// Snapshot returns a deep copy of the current progress.
func (l *Ledger) Snapshot() domain.UserProgress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progress.Clone()
}

// Chapters returns a deep copy of the curriculum with current level state.
func (l *Ledger) Chapters() []domain.Chapter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.CloneChapters(l.chapters)
}

// Level returns a copy of one level.
func (l *Ledger) Level(levelID string) (domain.Level, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lv, err := l.levelLocked(levelID)
	if err != nil {
		return domain.Level{}, err
	}
	out := *lv
	if lv.BestScore != nil {
		s := *lv.BestScore
		out.BestScore = &s
	}
	return out, nil
}

// State returns the persistable snapshot: progress plus per-level state.
func (l *Ledger) State() domain.ProgressState {
	l.mu.Lock()
	defer l.mu.Unlock()

	levels := make([]domain.LevelState, 0, len(l.order))
	for _, ref := range l.order {
		lv := l.at(ref)
		ls := domain.LevelState{
			LevelID:     lv.ID,
			IsUnlocked:  lv.IsUnlocked,
			IsCompleted: lv.IsCompleted,
			Stars:       lv.Stars,
		}
		if lv.BestScore != nil {
			s := *lv.BestScore
			ls.BestScore = &s
		}
		levels = append(levels, ls)
	}
	return domain.ProgressState{
		Progress:  l.progress.Clone(),
		Levels:    levels,
		UpdatedAt: l.now(),
	}
}

// Cursor returns the chapter and level index of the first unlocked level
// not yet completed. When every unlocked level is completed it points at
// the last unlocked level.
func (l *Ledger) Cursor() (chapter, level int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var last levelRef
	for _, ref := range l.order {
		lv := l.at(ref)
		if !lv.IsUnlocked {
			break
		}
		if !lv.IsCompleted {
			return ref.chapter, ref.level
		}
		last = ref
	}
	return last.chapter, last.level
}

// TodayProgress reports progress toward the daily lesson goal. Completed
// lessons count in blocks of the goal size.
func (l *Ledger) TodayProgress() domain.DailyGoal {
	l.mu.Lock()
	defer l.mu.Unlock()

	completed := len(l.progress.CompletedLessons) % l.dailyGoal
	return domain.DailyGoal{
		Completed:  completed,
		Target:     l.dailyGoal,
		Percentage: float64(completed) / float64(l.dailyGoal) * 100,
	}
}

// ExperienceLevel returns the experience level for the current XP.
func (l *Ledger) ExperienceLevel() domain.UserLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LevelInfo(l.progress.Experience)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (l *Ledger) at(ref levelRef) *domain.Level {
	return &l.chapters[ref.chapter].Levels[ref.level]
}

func (l *Ledger) levelLocked(levelID string) (*domain.Level, error) {
	ref, ok := l.index[levelID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "level", ID: levelID}
	}
	return l.at(ref), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
