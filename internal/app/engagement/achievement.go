package engagement

import (
	"time"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// Evaluator decides which achievements a progress snapshot newly earns.
// It is stateless: the caller merges the result back into the ledger.
type Evaluator struct {
	definitions []domain.AchievementDef
	now         func() time.Time
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorClock overrides the UnlockedAt timestamp source.
func WithEvaluatorClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) { e.now = now }
}

// WithDefinitions replaces the achievement catalog.
func WithDefinitions(defs []domain.AchievementDef) EvaluatorOption {
	return func(e *Evaluator) { e.definitions = defs }
}

// NewEvaluator creates an evaluator over the full catalog.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		definitions: AllAchievements(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns achievements whose rule holds for p and that p does not
// already hold. Returns an empty slice when nothing new qualifies.
func (e *Evaluator) Evaluate(p domain.UserProgress) []domain.Achievement {
	now := e.now()
	unlocked := []domain.Achievement{}

	for _, def := range e.definitions {
		if p.HasAchievement(def.ID) {
			continue
		}
		if def.Predicate == nil || !def.Predicate(p) {
			continue
		}
		at := now
		unlocked = append(unlocked, domain.Achievement{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Icon:        def.Icon,
			UnlockedAt:  &at,
		})
	}
	return unlocked
}

// Progress reports the user's standing against every achievement.
func (e *Evaluator) Progress(p domain.UserProgress) []domain.AchievementProgress {
	out := make([]domain.AchievementProgress, 0, len(e.definitions))
	for _, def := range e.definitions {
		current := 0
		if def.Metric != nil {
			current = def.Metric(p)
		}
		out = append(out, domain.AchievementProgress{
			ID:       def.ID,
			Title:    def.Title,
			Icon:     def.Icon,
			Current:  current,
			Target:   def.Target,
			Unlocked: p.HasAchievement(def.ID),
		})
	}
	return out
}

// TotalCount returns the total number of defined achievements.
func (e *Evaluator) TotalCount() int {
	return len(e.definitions)
}

// Definitions returns all achievement definitions (for display).
func (e *Evaluator) Definitions() []domain.AchievementDef {
	return e.definitions
}

// Lookup returns the definition with the given id.
func (e *Evaluator) Lookup(id string) (domain.AchievementDef, bool) {
	for _, def := range e.definitions {
		if def.ID == id {
			return def, true
		}
	}
	return domain.AchievementDef{}, false
}

// ─── Achievement Definitions ────────────────────────────────────────────────
// Two categories: lessons completed and consecutive practice days.

func lessonsCompleted(p domain.UserProgress) int { return len(p.CompletedLessons) }

func streakDays(p domain.UserProgress) int { return p.StreakDays }

// threshold builds a definition that unlocks once metric reaches target.
func threshold(def domain.AchievementDef, metric func(domain.UserProgress) int) domain.AchievementDef {
	target := def.Target
	def.Metric = metric
	def.Predicate = func(p domain.UserProgress) bool { return metric(p) >= target }
	return def
}

// AllAchievements returns the full achievement catalog.
func AllAchievements() []domain.AchievementDef {
	return []domain.AchievementDef{
		// ── Practice ───────────────────────────────────────────────────
		threshold(domain.AchievementDef{
			ID: "first_lesson", Title: "Beginner", Description: "Complete your first level",
			Category: domain.CatPractice, Icon: "🎯", Target: 1,
		}, lessonsCompleted),
		threshold(domain.AchievementDef{
			ID: "ten_lessons", Title: "Finding Your Voice", Description: "Complete 10 levels",
			Category: domain.CatPractice, Icon: "🌟", Target: 10,
		}, lessonsCompleted),
		threshold(domain.AchievementDef{
			ID: "thirty_lessons", Title: "Singing Star", Description: "Complete 30 levels",
			Category: domain.CatPractice, Icon: "🏆", Target: 30,
		}, lessonsCompleted),

		// ── Streaks ────────────────────────────────────────────────────
		threshold(domain.AchievementDef{
			ID: "streak_3", Title: "Warming Up", Description: "Practice 3 days in a row",
			Category: domain.CatStreak, Icon: "🔥", Target: 3,
		}, streakDays),
		threshold(domain.AchievementDef{
			ID: "streak_7", Title: "Week Warrior", Description: "Practice 7 days in a row",
			Category: domain.CatStreak, Icon: "💪", Target: 7,
		}, streakDays),
		threshold(domain.AchievementDef{
			ID: "streak_30", Title: "Vocal Master", Description: "Practice 30 days in a row",
			Category: domain.CatStreak, Icon: "👑", Target: 30,
		}, streakDays),
	}
}
