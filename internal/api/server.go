// Package api provides the local HTTP server for SingMaster: pitch and
// grading utilities, per-user progress, practice sessions and curriculum.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shawHuaZe/SingMaster/internal/app/engagement"
	"github.com/shawHuaZe/SingMaster/internal/app/pitch"
	"github.com/shawHuaZe/SingMaster/internal/app/session"
	"github.com/shawHuaZe/SingMaster/internal/content"
	"github.com/shawHuaZe/SingMaster/internal/domain"
	"github.com/shawHuaZe/SingMaster/internal/health"
)

var validate = validator.New()

// Server is the SingMaster HTTP API server.
type Server struct {
	sessions       *session.Service
	content        *content.Curriculum
	health         *health.Checker
	notifier       *engagement.NotificationService
	engine         *pitch.Engine
	corsOrigins    []string
	metricsEnabled bool
	log            *zap.Logger
}

// NewServer creates a new API server.
func NewServer(sessions *session.Service, cur *content.Curriculum, checker *health.Checker, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		sessions:    sessions,
		content:     cur,
		health:      checker,
		corsOrigins: []string{"*"},
		log:         log,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetNotifier mounts the notification endpoints.
func (s *Server) SetNotifier(n *engagement.NotificationService) { s.notifier = n }

// SetPitchEngine mounts the engine endpoints and lets sessions follow it.
func (s *Server) SetPitchEngine(e *pitch.Engine) { s.engine = e }

// SetCORSOrigins restricts allowed origins. Empty means "*".
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.corsOrigins = origins
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/pitch/note", s.handleNote)
		r.Get("/pitch/frequency", s.handleFrequency)
		r.Get("/pitch/cents", s.handleCents)
		r.Get("/grade", s.handleGrade)

		r.Get("/islands", s.handleIslands)
		r.Get("/islands/{islandID}/chapters", s.handleIslandChapters)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/progress", s.handleProgress)
			r.Get("/chapters", s.handleChapters)
			r.Post("/lessons/{levelID}/complete", s.handleCompleteLesson)
			r.Post("/streak", s.handleStreak)
			r.Post("/practice-time", s.handlePracticeTime)
			r.Post("/reset", s.handleReset)
			r.Get("/achievements", s.handleAchievements)
			r.Get("/attempts", s.handleAttempts)
			r.Post("/sessions", s.handleStartSession)
			if s.notifier != nil {
				r.Get("/notifications", s.handleNotifications)
			}
		})

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/pitch", s.handleRecordPitch)
			r.Post("/next", s.handleNextStep)
			r.Post("/finish", s.handleFinishSession)
		})

		if s.notifier != nil {
			r.Post("/notifications/{id}/shown", s.handleNotificationShown)
		}

		if s.engine != nil {
			r.Get("/engine", s.handleEngineStatus)
			r.Post("/engine/start", s.handleEngineStart)
			r.Post("/engine/stop", s.handleEngineStop)
			r.Post("/engine/simulate", s.handleEngineSimulate)
		}
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	statuses := s.health.RunOnce(r.Context())
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": statuses,
	})
}

// ─── Responses ──────────────────────────────────────────────────────────────

// ErrorResponse is the error envelope every endpoint returns.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the error envelope with an explicit status.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Code:      code,
		Message:   msg,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// writeDomainError maps domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrSessionNotActive):
		writeError(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		s.log.Error("store unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
	}
}

// decodeBody decodes and validates a JSON request body.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(domain.ErrInvalidArgument, errors.New("invalid JSON payload"))
	}
	if err := validate.Struct(v); err != nil {
		return errors.Join(domain.ErrInvalidArgument, err)
	}
	return nil
}

// corsMiddleware adds CORS headers for the configured origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, o := range s.corsOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
