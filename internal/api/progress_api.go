package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// ─── Curriculum ─────────────────────────────────────────────────────────────

func (s *Server) handleIslands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"islands": s.content.Islands(),
	})
}

func (s *Server) handleIslandChapters(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "islandID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "island id must be an integer")
		return
	}
	chapters := s.content.ChaptersByIsland(id)
	if chapters == nil {
		chapters = []domain.Chapter{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chapters": chapters,
	})
}

// ─── Progress ───────────────────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ov, err := s.sessions.Progress(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.sessions.Chapters(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chapters": chapters,
	})
}

type completeRequest struct {
	Score *int `json:"score" validate:"required,min=0,max=100"`
}

func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	c, err := s.sessions.CompleteLesson(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "levelID"), *req.Score)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	days, err := s.sessions.UpdateStreak(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"streak_days": days})
}

type practiceTimeRequest struct {
	Seconds int64 `json:"seconds" validate:"min=0"`
}

func (s *Server) handlePracticeTime(w http.ResponseWriter, r *http.Request) {
	var req practiceTimeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	if err := s.sessions.AddPracticeTime(r.Context(), userID, req.Seconds); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.handleProgress(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Reset(r.Context(), chi.URLParam(r, "userID")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.handleProgress(w, r)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.sessions.Achievements(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": list,
	})
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.sessions.Attempts(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.PracticeAttempt{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempts": list,
	})
}

// ─── Practice Sessions ──────────────────────────────────────────────────────

type startRequest struct {
	LevelID string `json:"level_id" validate:"required"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	sess, err := s.sessions.Start(r.Context(), chi.URLParam(r, "userID"), req.LevelID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if s.engine != nil && s.engine.IsActive() {
		ctx := context.WithoutCancel(r.Context())
		go func(id string) {
			err := s.sessions.Follow(ctx, id, s.engine)
			if err != nil && !errors.Is(err, domain.ErrSessionNotActive) {
				s.log.Warn("follow pitch engine stopped", zap.String("session_id", id), zap.Error(err))
			}
		}(sess.ID)
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":      sess,
		"sample_count": len(sess.Samples),
	})
}

type pitchRequest struct {
	Frequency  float64  `json:"frequency" validate:"min=0"`
	Confidence *float64 `json:"confidence" validate:"omitempty,min=0,max=1"`
}

func (s *Server) handleRecordPitch(w http.ResponseWriter, r *http.Request) {
	var req pitchRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	sample, err := s.sessions.RecordPitch(chi.URLParam(r, "sessionID"), req.Frequency, confidence)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (s *Server) handleNextStep(w http.ResponseWriter, r *http.Request) {
	step, ok, err := s.sessions.NextStep(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"done": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"done": false, "step": step})
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	var req grading.Scores
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out, err := s.sessions.Finish(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.notifier.Pending(chi.URLParam(r, "userID"), 20)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": list,
	})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "notification id must be an integer")
		return
	}
	if err := s.notifier.MarkShown(id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
