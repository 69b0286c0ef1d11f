package domain

// ─── Curriculum Types ───────────────────────────────────────────────────────
// Chapters and levels are static content. Only the mutable level fields
// (IsUnlocked, IsCompleted, BestScore, Stars) change at runtime.

// LevelTarget holds the per-level star thresholds (ascending, 0-100).
type LevelTarget struct {
	OneStar   int `json:"one_star" yaml:"one_star" validate:"min=0,max=100"`
	TwoStar   int `json:"two_star" yaml:"two_star" validate:"min=0,max=100,gtefield=OneStar"`
	ThreeStar int `json:"three_star" yaml:"three_star" validate:"min=1,max=100,gtefield=TwoStar"`
}

// PracticeContent describes what the singer practices in a level.
type PracticeContent struct {
	ExerciseText string   `json:"exercise_text" yaml:"exercise_text"`
	Notes        []string `json:"notes,omitempty" yaml:"notes"`
	BPM          int      `json:"bpm,omitempty" yaml:"bpm" validate:"min=0,max=300"`
	DurationSec  int      `json:"duration_sec,omitempty" yaml:"duration_sec" validate:"min=0"`
}

// StepType is the kind of a guided lesson step.
type StepType string

const (
	StepDemonstrate StepType = "demonstrate"
	StepListen      StepType = "listen"
	StepFeedback    StepType = "feedback"
	StepRepeat      StepType = "repeat"
	StepComplete    StepType = "complete"
)

// LessonStep is one step of a guided lesson.
type LessonStep struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Type        StepType `json:"type" yaml:"type" validate:"oneof=demonstrate listen feedback repeat complete"`
	Text        string   `json:"text" yaml:"text"`
	TargetNote  string   `json:"target_note,omitempty" yaml:"target_note"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions"`
	AudioRef    string   `json:"audio_ref,omitempty" yaml:"audio_ref"`
	DurationMS  int      `json:"duration_ms,omitempty" yaml:"duration_ms" validate:"min=0"`
}

// Level is one playable stage of a chapter.
type Level struct {
	ID          string           `json:"id" yaml:"id" validate:"required"`
	Number      int              `json:"number" yaml:"number" validate:"min=1"`
	Course      string           `json:"course,omitempty" yaml:"course"`
	Title       string           `json:"title" yaml:"title"`
	Description string           `json:"description" yaml:"description"`
	Difficulty  string           `json:"difficulty,omitempty" yaml:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Target      LevelTarget      `json:"target" yaml:"target"`
	Practice    *PracticeContent `json:"practice,omitempty" yaml:"practice" validate:"omitempty"`
	Lesson      []LessonStep     `json:"lesson,omitempty" yaml:"lesson" validate:"dive"`
	Tips        []string         `json:"tips,omitempty" yaml:"tips"`

	IsUnlocked  bool `json:"is_unlocked" yaml:"-"`
	IsCompleted bool `json:"is_completed" yaml:"-"`
	BestScore   *int `json:"best_score,omitempty" yaml:"-"`
	Stars       int  `json:"stars" yaml:"-"`
}

// Chapter groups an ordered sequence of levels.
type Chapter struct {
	ID          string  `json:"id" yaml:"id" validate:"required"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Icon        string  `json:"icon,omitempty" yaml:"icon"`
	IslandID    int     `json:"island_id" yaml:"island_id" validate:"min=0"`
	Levels      []Level `json:"levels" yaml:"levels" validate:"min=1,dive"`
}

// Island is a top-level grouping of chapters on the curriculum map.
type Island struct {
	ID           int    `json:"id" yaml:"id" validate:"min=1"`
	Name         string `json:"name" yaml:"name" validate:"required"`
	Icon         string `json:"icon" yaml:"icon"`
	Description  string `json:"description" yaml:"description"`
	ChapterCount int    `json:"chapter_count" yaml:"-"`
}

// CloneChapters deep-copies a curriculum so runtime mutation never leaks
// back into the source content.
func CloneChapters(chapters []Chapter) []Chapter {
	out := make([]Chapter, len(chapters))
	for i, ch := range chapters {
		out[i] = ch
		out[i].Levels = make([]Level, len(ch.Levels))
		for j, lv := range ch.Levels {
			if lv.BestScore != nil {
				score := *lv.BestScore
				lv.BestScore = &score
			}
			out[i].Levels[j] = lv
		}
	}
	return out
}
