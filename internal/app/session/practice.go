package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/app/pitch"
	"github.com/shawHuaZe/SingMaster/internal/domain"
	"github.com/shawHuaZe/SingMaster/internal/infra/metrics"
)

const (
	// finishedRetention is how long ended sessions stay queryable.
	finishedRetention = time.Hour
	// idleTimeout abandons in-progress sessions with no activity for this long.
	idleTimeout = 30 * time.Minute
)

// Outcome is the result of finishing a practice session.
type Outcome struct {
	Session domain.PracticeSession `json:"session"`
	Result  domain.ScoreResult     `json:"result"`
	Completion
}

// ─── Practice Sessions ──────────────────────────────────────────────────────

// Start opens a practice session on an unlocked level.
func (s *Service) Start(ctx context.Context, userID, levelID string) (domain.PracticeSession, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return domain.PracticeSession{}, err
	}
	lv, err := u.ledger.Level(levelID)
	if err != nil {
		return domain.PracticeSession{}, err
	}
	if !lv.IsUnlocked {
		return domain.PracticeSession{}, fmt.Errorf("start %s: %w", levelID, domain.ErrLevelLocked)
	}

	now := s.now()
	sess := &domain.PracticeSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		LevelID:   levelID,
		StartedAt: now,
		Status:    domain.PracticeInProgress,
		Lesson:    append([]domain.LessonStep(nil), lv.Lesson...),
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	metrics.SessionsStarted.WithLabelValues(levelID).Inc()
	metrics.SessionsActive.Inc()
	s.log.Debug("practice started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.String("level_id", levelID))
	return copySession(sess), nil
}

// Session returns a copy of a session, samples included.
func (s *Service) Session(sessionID string) (domain.PracticeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.PracticeSession{}, &domain.NotFoundError{Kind: "session", ID: sessionID}
	}
	return copySession(sess), nil
}

// RecordPitch appends one detector frame to an active session.
func (s *Service) RecordPitch(sessionID string, hz, confidence float64) (domain.PitchSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := pitch.BuildPitchSampleAt(hz, confidence, s.now())
	if err := s.appendLocked(sessionID, sample); err != nil {
		return domain.PitchSample{}, err
	}
	return sample, nil
}

// Follow records every frame the engine emits into the session. It returns
// when the session stops being active, ctx ends or the engine is released.
func (s *Service) Follow(ctx context.Context, sessionID string, e *pitch.Engine) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for sample := range e.Subscribe(ctx) {
		s.mu.Lock()
		err := s.appendLocked(sessionID, sample)
		s.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (s *Service) appendLocked(sessionID string, sample domain.PitchSample) error {
	sess, err := s.activeLocked(sessionID)
	if err != nil {
		return err
	}
	sess.Samples = append(sess.Samples, sample)

	kind := "voiced"
	if sample.Frequency == 0 {
		kind = "silent"
	}
	metrics.PitchSamples.WithLabelValues(kind).Inc()
	return nil
}

// NextStep advances the guided lesson. It returns the new current step, or
// false once the lesson has run past its last step.
func (s *Service) NextStep(sessionID string) (domain.LessonStep, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.activeLocked(sessionID)
	if err != nil {
		return domain.LessonStep{}, false, err
	}
	if sess.StepIndex < len(sess.Lesson) {
		sess.StepIndex++
	}
	step, ok := sess.CurrentStep()
	return step, ok, nil
}

// Finish grades a session and completes its level. A session finishes at
// most once; a persistence failure still finishes it and is returned
// alongside the outcome.
func (s *Service) Finish(ctx context.Context, sessionID string, scores grading.Scores) (Outcome, error) {
	s.mu.Lock()
	sess, err := s.activeLocked(sessionID)
	if err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}
	userID, levelID := sess.UserID, sess.LevelID
	s.mu.Unlock()

	result := grading.NewResult(scores)

	u, err := s.user(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	// Re-check under the user lock so concurrent Finish calls complete once.
	s.mu.Lock()
	if sess.Status != domain.PracticeInProgress {
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("finish %s: %w", sessionID, domain.ErrSessionNotActive)
	}
	s.mu.Unlock()

	completion, err := s.completeLocked(ctx, u, levelID, result.TotalScore)
	if err != nil && !errors.Is(err, domain.ErrStoreUnavailable) {
		return Outcome{}, err
	}
	storeErr := err

	s.mu.Lock()
	ended := s.now()
	sess.EndedAt = &ended
	sess.Status = domain.PracticeCompleted
	out := Outcome{Session: copySession(sess), Result: result, Completion: completion}
	s.mu.Unlock()

	duration := ended.Sub(out.Session.StartedAt)
	metrics.SessionsActive.Dec()
	metrics.SessionDuration.Observe(duration.Seconds())
	metrics.ScoresGraded.WithLabelValues(string(result.Grade)).Inc()
	metrics.ScoreDistribution.Observe(float64(result.TotalScore))

	if s.attempts != nil {
		attempt := domain.PracticeAttempt{
			ID:          uuid.NewString(),
			SessionID:   sessionID,
			UserID:      userID,
			LevelID:     levelID,
			Score:       result,
			Stars:       completion.Stars,
			SampleCount: len(out.Session.Samples),
			DurationSec: int64(duration.Seconds()),
			CreatedAt:   ended,
		}
		if err := s.attempts.InsertAttempt(ctx, attempt); err != nil {
			s.log.Warn("record attempt failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return out, storeErr
}

// Attempts returns a user's recorded attempts, newest first.
func (s *Service) Attempts(ctx context.Context, userID string, limit int) ([]domain.PracticeAttempt, error) {
	if s.attempts == nil {
		return []domain.PracticeAttempt{}, nil
	}
	return s.attempts.ListAttempts(ctx, userID, limit)
}

func (s *Service) activeLocked(sessionID string) (*domain.PracticeSession, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "session", ID: sessionID}
	}
	if sess.Status != domain.PracticeInProgress {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotActive)
	}
	return sess, nil
}

// PruneSessions abandons idle in-progress sessions and drops ended ones past
// retention. Returns how many sessions were abandoned.
func (s *Service) PruneSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(s.now())
}

func (s *Service) pruneLocked(now time.Time) int {
	abandoned := 0
	for id, sess := range s.sessions {
		switch {
		case sess.EndedAt != nil:
			if now.Sub(*sess.EndedAt) > finishedRetention {
				delete(s.sessions, id)
			}
		case now.Sub(lastActivity(sess)) > idleTimeout:
			ended := now
			sess.EndedAt = &ended
			sess.Status = domain.PracticeAbandoned
			metrics.SessionsActive.Dec()
			abandoned++
			s.log.Info("practice abandoned",
				zap.String("session_id", id),
				zap.String("user_id", sess.UserID),
				zap.String("level_id", sess.LevelID))
		}
	}
	return abandoned
}

func lastActivity(sess *domain.PracticeSession) time.Time {
	last := sess.StartedAt
	if n := len(sess.Samples); n > 0 && sess.Samples[n-1].Timestamp.After(last) {
		last = sess.Samples[n-1].Timestamp
	}
	return last
}

func copySession(sess *domain.PracticeSession) domain.PracticeSession {
	out := *sess
	out.Lesson = append([]domain.LessonStep(nil), sess.Lesson...)
	out.Samples = append([]domain.PitchSample(nil), sess.Samples...)
	if sess.EndedAt != nil {
		t := *sess.EndedAt
		out.EndedAt = &t
	}
	return out
}
