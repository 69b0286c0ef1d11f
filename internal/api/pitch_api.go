package api

import (
	"net/http"
	"strconv"

	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/app/pitch"
)

// ─── Pitch & Grading Utilities ──────────────────────────────────────────────

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	hz, ok := floatParam(w, r, "hz")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pitch.FrequencyToNote(hz))
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("note")
	octave, err := strconv.Atoi(r.URL.Query().Get("octave"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "octave must be an integer")
		return
	}
	if pitch.NoteIndex(name) < 0 {
		writeError(w, r, http.StatusBadRequest, "bad_request", "unknown note name "+strconv.Quote(name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"note":      name,
		"octave":    octave,
		"frequency": pitch.NoteToFrequency(name, octave),
	})
}

func (s *Server) handleCents(w http.ResponseWriter, r *http.Request) {
	hz, ok := floatParam(w, r, "hz")
	if !ok {
		return
	}
	target, ok := floatParam(w, r, "target")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"hz":     hz,
		"target": target,
		"cents":  pitch.CentsDeviation(hz, target),
	})
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	score, err := strconv.Atoi(r.URL.Query().Get("score"))
	if err != nil || !grading.Valid(score) {
		writeError(w, r, http.StatusBadRequest, "bad_request", "score must be an integer within 0-100")
		return
	}
	grade := grading.LetterGrade(score)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"score":   score,
		"grade":   grade,
		"message": grading.Message(grade),
		"color":   grading.Color(grade),
		"xp":      grading.XPForScore(score),
	})
}

// ─── Pitch Engine ───────────────────────────────────────────────────────────

func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":      s.engine.IsActive(),
		"subscribers": s.engine.Subscribers(),
		"config":      s.engine.Config(),
	})
}

func (s *Server) handleEngineStart(w http.ResponseWriter, r *http.Request) {
	s.engine.Start()
	s.handleEngineStatus(w, r)
}

func (s *Server) handleEngineStop(w http.ResponseWriter, r *http.Request) {
	s.engine.Stop()
	s.handleEngineStatus(w, r)
}

func (s *Server) handleEngineSimulate(w http.ResponseWriter, r *http.Request) {
	hz, ok := floatParam(w, r, "hz")
	if !ok {
		return
	}
	sample, ok := s.engine.Simulate(hz)
	if !ok {
		writeError(w, r, http.StatusConflict, "conflict", "pitch engine is not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sample":   sample,
		"in_range": s.engine.InRange(hz),
	})
}

func floatParam(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", name+" must be a number")
		return 0, false
	}
	return v, true
}
