// Package metrics provides Prometheus metrics for SingMaster: practice
// sessions, scores, progress events, storage and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Practice ───────────────────────────────────────────────────────────────

// SessionsStarted tracks practice sessions started per level.
var SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "singmaster",
	Name:      "sessions_started_total",
	Help:      "Total practice sessions started.",
}, []string{"level"})

// SessionsActive tracks sessions that have started but not finished.
var SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "singmaster",
	Name:      "sessions_active",
	Help:      "Number of in-progress practice sessions.",
})

// SessionDuration tracks wall-clock session length in seconds.
var SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "singmaster",
	Name:      "session_duration_seconds",
	Help:      "Practice session duration in seconds.",
	Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200},
})

// PitchSamples tracks pitch samples recorded, split by voiced/silent.
var PitchSamples = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "singmaster",
	Name:      "pitch_samples_total",
	Help:      "Total pitch samples recorded.",
}, []string{"kind"})

// ─── Scores ─────────────────────────────────────────────────────────────────

// ScoresGraded tracks graded attempts by letter grade.
var ScoresGraded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "singmaster",
	Name:      "scores_graded_total",
	Help:      "Total graded attempts by letter grade.",
}, []string{"grade"})

// ScoreDistribution tracks total scores.
var ScoreDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "singmaster",
	Name:      "score_total",
	Help:      "Distribution of total attempt scores.",
	Buckets:   []float64{50, 60, 70, 80, 90, 100},
})

// ─── Progress ───────────────────────────────────────────────────────────────

// LessonsCompleted tracks lesson completions per level.
var LessonsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "singmaster",
	Name:      "lessons_completed_total",
	Help:      "Total lesson completions.",
}, []string{"level"})

// AchievementsUnlocked tracks newly unlocked achievements.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "singmaster",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"achievement"})

// LevelUps tracks experience level increases.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "singmaster",
	Name:      "level_ups_total",
	Help:      "Total experience level increases.",
})

// ─── Storage ────────────────────────────────────────────────────────────────

// StoreErrors tracks failed store operations.
var StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "singmaster",
	Name:      "store_errors_total",
	Help:      "Total failed progress store operations.",
}, []string{"op"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "singmaster",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
