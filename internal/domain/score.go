package domain

import "time"

// ─── Score Types ────────────────────────────────────────────────────────────

// Grade is the letter grade shown after a practice session.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// FeedbackType categorizes a feedback entry.
type FeedbackType string

const (
	FeedbackPitch      FeedbackType = "pitch"
	FeedbackRhythm     FeedbackType = "rhythm"
	FeedbackStability  FeedbackType = "stability"
	FeedbackExpression FeedbackType = "expression"
)

// ScoreFeedback is a single remark attached to a score.
type ScoreFeedback struct {
	Type       FeedbackType `json:"type"`
	Message    string       `json:"message"`
	Timestamp  time.Time    `json:"timestamp"`
	Note       string       `json:"note,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// ScoreResult is the outcome of one practice session.
type ScoreResult struct {
	TotalScore      int             `json:"total_score"`
	PitchScore      int             `json:"pitch_score"`
	RhythmScore     int             `json:"rhythm_score"`
	StabilityScore  int             `json:"stability_score"`
	ExpressionScore *int            `json:"expression_score,omitempty"`
	Grade           Grade           `json:"grade"`
	Feedback        []ScoreFeedback `json:"feedback"`
}
