package domain

import "time"

// ─── Practice Types ─────────────────────────────────────────────────────────

// PracticeStatus is the lifecycle state of a practice session.
type PracticeStatus string

const (
	PracticeInProgress PracticeStatus = "in_progress"
	PracticeCompleted  PracticeStatus = "completed"
	PracticeAbandoned  PracticeStatus = "abandoned"
)

// PracticeSession is one attempt at a level, from start to score.
type PracticeSession struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	LevelID   string         `json:"level_id"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Status    PracticeStatus `json:"status"`
	StepIndex int            `json:"step_index"`
	Lesson    []LessonStep   `json:"lesson,omitempty"`
	Samples   []PitchSample  `json:"-"`
}

// CurrentStep returns the active guided lesson step, if any.
func (s PracticeSession) CurrentStep() (LessonStep, bool) {
	if s.StepIndex < 0 || s.StepIndex >= len(s.Lesson) {
		return LessonStep{}, false
	}
	return s.Lesson[s.StepIndex], true
}

// PracticeAttempt is the persisted record of a finished session.
type PracticeAttempt struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	UserID      string      `json:"user_id"`
	LevelID     string      `json:"level_id"`
	Score       ScoreResult `json:"score"`
	Stars       int         `json:"stars"`
	SampleCount int         `json:"sample_count"`
	DurationSec int64       `json:"duration_sec"`
	CreatedAt   time.Time   `json:"created_at"`
}
