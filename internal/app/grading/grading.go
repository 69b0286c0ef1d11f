// Package grading classifies practice scores into letter grades, star
// ratings and experience rewards.
package grading

import (
	"math"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// ─── Grade Bands ────────────────────────────────────────────────────────────

// MinScore and MaxScore bound every score handled by this package.
const (
	MinScore = 0
	MaxScore = 100
)

type band struct {
	min     int
	grade   domain.Grade
	message string
	color   string
}

// bands are ordered from best to worst; the lower bound is inclusive.
var bands = []band{
	{90, domain.GradeS, "Outstanding! A flawless performance!", "#00B894"},
	{80, domain.GradeA, "Great job! Keep it up!", "#FF6B35"},
	{70, domain.GradeB, "Nice work! There is still room to grow.", "#7B2CBF"},
	{60, domain.GradeC, "You passed! More practice will get you there.", "#FDCB6E"},
	{math.MinInt, domain.GradeD, "Don't give up! Try again!", "#D63031"},
}

// LetterGrade maps a 0-100 score to S, A, B, C or D.
func LetterGrade(score int) domain.Grade {
	return bandFor(score).grade
}

// Message returns the encouragement text shown with a grade.
func Message(grade domain.Grade) string {
	for _, b := range bands {
		if b.grade == grade {
			return b.message
		}
	}
	return bands[len(bands)-1].message
}

// Color returns the hex display color for a grade.
func Color(grade domain.Grade) string {
	for _, b := range bands {
		if b.grade == grade {
			return b.color
		}
	}
	return bands[len(bands)-1].color
}

func bandFor(score int) band {
	for _, b := range bands {
		if score >= b.min {
			return b
		}
	}
	return bands[len(bands)-1]
}

// ─── Stars ──────────────────────────────────────────────────────────────────

// StarRating returns 0-3 stars for score against the level's thresholds.
func StarRating(score int, target domain.LevelTarget) int {
	switch {
	case score >= target.ThreeStar:
		return 3
	case score >= target.TwoStar:
		return 2
	case score >= target.OneStar:
		return 1
	default:
		return 0
	}
}

// ─── Results ────────────────────────────────────────────────────────────────

// Scores is the raw outcome a host scorer reports for a session.
// Zero sub-scores are derived from Total.
type Scores struct {
	Total      int                    `json:"total" validate:"min=0,max=100"`
	Pitch      int                    `json:"pitch,omitempty" validate:"min=0,max=100"`
	Rhythm     int                    `json:"rhythm,omitempty" validate:"min=0,max=100"`
	Stability  int                    `json:"stability,omitempty" validate:"min=0,max=100"`
	Expression *int                   `json:"expression,omitempty" validate:"omitempty,min=0,max=100"`
	Feedback   []domain.ScoreFeedback `json:"feedback,omitempty"`
}

// Breakdown splits a total into pitch, rhythm and stability estimates.
func Breakdown(total int) (pitchScore, rhythm, stability int) {
	total = Clamp(total)
	return roundScore(float64(total) * 0.9),
		roundScore(float64(total) * 0.85),
		roundScore(float64(total) * 0.95)
}

// NewResult builds a graded ScoreResult. Every score is clamped to 0-100.
func NewResult(s Scores) domain.ScoreResult {
	total := Clamp(s.Total)
	p, r, st := Clamp(s.Pitch), Clamp(s.Rhythm), Clamp(s.Stability)
	if p == 0 && r == 0 && st == 0 {
		p, r, st = Breakdown(total)
	}

	var expr *int
	if s.Expression != nil {
		v := Clamp(*s.Expression)
		expr = &v
	}

	feedback := s.Feedback
	if feedback == nil {
		feedback = []domain.ScoreFeedback{}
	}

	return domain.ScoreResult{
		TotalScore:      total,
		PitchScore:      p,
		RhythmScore:     r,
		StabilityScore:  st,
		ExpressionScore: expr,
		Grade:           LetterGrade(total),
		Feedback:        feedback,
	}
}

// XPForScore returns the experience reward for a session score.
func XPForScore(score int) int64 {
	return int64(math.Round(float64(Clamp(score)) / 10))
}

// Valid reports whether score lies in 0-100.
func Valid(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// Clamp limits score to 0-100.
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func roundScore(v float64) int {
	return int(math.Round(v))
}
