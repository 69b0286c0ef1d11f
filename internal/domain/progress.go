package domain

import "time"

// ─── Progress Types ─────────────────────────────────────────────────────────

// UserProgress is the per-user progress record. Mutated only through the
// engagement ledger; persisted by the host as an opaque snapshot.
type UserProgress struct {
	UserID               string        `json:"user_id"`
	CompletedLessons     []string      `json:"completed_lessons"` // Insertion order, no duplicates
	TotalPracticeSeconds int64         `json:"total_practice_seconds"`
	StreakDays           int           `json:"streak_days"`
	LongestStreakDays    int           `json:"longest_streak_days"`
	LastPracticeDate     *time.Time    `json:"last_practice_date,omitempty"`
	Experience           int64         `json:"experience"`
	Achievements         []Achievement `json:"achievements"`
}

// HasCompleted reports whether levelID is in CompletedLessons.
func (p UserProgress) HasCompleted(levelID string) bool {
	for _, id := range p.CompletedLessons {
		if id == levelID {
			return true
		}
	}
	return false
}

// HasAchievement reports whether the achievement id is already unlocked.
func (p UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of p.
func (p UserProgress) Clone() UserProgress {
	out := p
	out.CompletedLessons = append([]string(nil), p.CompletedLessons...)
	out.Achievements = append([]Achievement(nil), p.Achievements...)
	if p.LastPracticeDate != nil {
		d := *p.LastPracticeDate
		out.LastPracticeDate = &d
	}
	return out
}

// ─── Achievement Types ──────────────────────────────────────────────────────

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatPractice AchievementCategory = "practice"
	CatStreak   AchievementCategory = "streak"
)

// Achievement is an unlocked badge. Append-only, never revoked.
type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// AchievementDef defines a single achievement's unlock rule.
// Metric and Target drive progress display; Predicate decides the unlock.
type AchievementDef struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Category    AchievementCategory     `json:"category"`
	Icon        string                  `json:"icon"`
	Target      int                     `json:"target"`
	Metric      func(UserProgress) int  `json:"-"`
	Predicate   func(UserProgress) bool `json:"-"`
}

// AchievementProgress reports how close a user is to one achievement.
type AchievementProgress struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Icon     string `json:"icon"`
	Current  int    `json:"current"`
	Target   int    `json:"target"`
	Unlocked bool   `json:"unlocked"`
}

// ─── Snapshot Types ─────────────────────────────────────────────────────────

// LevelState is the mutable part of a Level, persisted alongside progress.
type LevelState struct {
	LevelID     string `json:"level_id"`
	IsUnlocked  bool   `json:"is_unlocked"`
	IsCompleted bool   `json:"is_completed"`
	BestScore   *int   `json:"best_score,omitempty"`
	Stars       int    `json:"stars"`
}

// ProgressState is the serialized snapshot a store persists per user.
type ProgressState struct {
	Progress  UserProgress `json:"progress"`
	Levels    []LevelState `json:"levels"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ─── Level / XP Types ───────────────────────────────────────────────────────

// UserLevel represents the singer's experience level.
type UserLevel struct {
	Level       int     `json:"level"`
	CurrentXP   int64   `json:"current_xp"`
	XPToNext    int64   `json:"xp_to_next"`
	ProgressPct float64 `json:"progress_pct"`
}

// DailyGoal reports progress toward the daily lesson target.
type DailyGoal struct {
	Completed  int     `json:"completed"`
	Target     int     `json:"target"`
	Percentage float64 `json:"percentage"`
}
