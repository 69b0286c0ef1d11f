package grading_test

import (
	"testing"

	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/domain"
)

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		score int
		want  domain.Grade
	}{
		{100, domain.GradeS},
		{90, domain.GradeS},
		{89, domain.GradeA},
		{80, domain.GradeA},
		{79, domain.GradeB},
		{70, domain.GradeB},
		{69, domain.GradeC},
		{60, domain.GradeC},
		{59, domain.GradeD},
		{0, domain.GradeD},
		{-10, domain.GradeD},
	}
	for _, tt := range tests {
		if got := grading.LetterGrade(tt.score); got != tt.want {
			t.Errorf("LetterGrade(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestMessageAndColor(t *testing.T) {
	seen := map[string]bool{}
	for _, g := range []domain.Grade{domain.GradeS, domain.GradeA, domain.GradeB, domain.GradeC, domain.GradeD} {
		msg := grading.Message(g)
		if msg == "" {
			t.Errorf("no message for %s", g)
		}
		if seen[msg] {
			t.Errorf("duplicate message for %s", g)
		}
		seen[msg] = true

		if c := grading.Color(g); len(c) != 7 || c[0] != '#' {
			t.Errorf("Color(%s) = %q", g, c)
		}
	}
	if grading.Message("Z") != grading.Message(domain.GradeD) {
		t.Error("unknown grade should fall back to the D message")
	}
}

func TestStarRating(t *testing.T) {
	target := domain.LevelTarget{OneStar: 60, TwoStar: 75, ThreeStar: 90}
	tests := []struct {
		score int
		want  int
	}{
		{0, 0},
		{59, 0},
		{60, 1},
		{74, 1},
		{75, 2},
		{89, 2},
		{90, 3},
		{100, 3},
	}
	for _, tt := range tests {
		if got := grading.StarRating(tt.score, target); got != tt.want {
			t.Errorf("StarRating(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestStarRating_Monotonic(t *testing.T) {
	targets := []domain.LevelTarget{
		{OneStar: 60, TwoStar: 75, ThreeStar: 90},
		{OneStar: 50, TwoStar: 50, ThreeStar: 50},
		{OneStar: 0, TwoStar: 10, ThreeStar: 100},
	}
	for _, target := range targets {
		prev := grading.StarRating(-1, target)
		for score := 0; score <= 101; score++ {
			got := grading.StarRating(score, target)
			if got < prev {
				t.Fatalf("target %+v: stars dropped from %d to %d at score %d", target, prev, got, score)
			}
			prev = got
		}
	}
}

func TestNewResult_DerivesBreakdown(t *testing.T) {
	r := grading.NewResult(grading.Scores{Total: 80})
	if r.TotalScore != 80 || r.Grade != domain.GradeA {
		t.Errorf("result = %+v", r)
	}
	if r.PitchScore != 72 || r.RhythmScore != 68 || r.StabilityScore != 76 {
		t.Errorf("breakdown = %d/%d/%d, want 72/68/76", r.PitchScore, r.RhythmScore, r.StabilityScore)
	}
	if r.ExpressionScore != nil {
		t.Error("expression should stay unset")
	}
	if r.Feedback == nil {
		t.Error("feedback should be an empty slice, not nil")
	}
}

func TestNewResult_ClampsAndKeepsSubScores(t *testing.T) {
	expr := 150
	r := grading.NewResult(grading.Scores{Total: 120, Pitch: 95, Rhythm: -3, Stability: 88, Expression: &expr})
	if r.TotalScore != 100 || r.Grade != domain.GradeS {
		t.Errorf("total = %d grade = %s", r.TotalScore, r.Grade)
	}
	if r.PitchScore != 95 || r.RhythmScore != 0 || r.StabilityScore != 88 {
		t.Errorf("sub-scores = %d/%d/%d", r.PitchScore, r.RhythmScore, r.StabilityScore)
	}
	if r.ExpressionScore == nil || *r.ExpressionScore != 100 {
		t.Errorf("expression = %v", r.ExpressionScore)
	}
}

func TestXPForScore(t *testing.T) {
	tests := []struct {
		score int
		want  int64
	}{
		{0, 0},
		{4, 0},
		{5, 1},
		{85, 9},
		{100, 10},
		{250, 10},
		{-20, 0},
	}
	for _, tt := range tests {
		if got := grading.XPForScore(tt.score); got != tt.want {
			t.Errorf("XPForScore(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestValidAndClamp(t *testing.T) {
	if !grading.Valid(0) || !grading.Valid(100) || grading.Valid(-1) || grading.Valid(101) {
		t.Error("Valid bounds are wrong")
	}
	if grading.Clamp(-5) != 0 || grading.Clamp(105) != 100 || grading.Clamp(42) != 42 {
		t.Error("Clamp bounds are wrong")
	}
}
