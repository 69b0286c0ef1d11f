package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shawHuaZe/SingMaster/internal/app/engagement"
	"github.com/shawHuaZe/SingMaster/internal/app/pitch"
	"github.com/shawHuaZe/SingMaster/internal/app/session"
	"github.com/shawHuaZe/SingMaster/internal/content"
	"github.com/shawHuaZe/SingMaster/internal/health"
	"github.com/shawHuaZe/SingMaster/internal/infra/sqlite"
)

func noon() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cur := content.Default()
	notifier := engagement.NewNotificationService(db)
	notifier.SetClock(noon)
	svc := session.NewService(db, cur.AllChapters(),
		session.WithClock(noon),
		session.WithAttemptStore(db),
		session.WithNotifier(notifier))

	srv := NewServer(svc, cur, health.NewChecker(db, db, cur, dir), nil)
	srv.SetNotifier(notifier)
	srv.SetPitchEngine(pitch.NewEngine(pitch.DefaultEngineConfig()))
	srv.EnableMetrics()
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
}

// ─── Health & Metrics ───────────────────────────────────────────────────────

func TestAPI_Health(t *testing.T) {
	h := newTestServer(t).Handler()
	w := do(t, h, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string          `json:"status"`
		Checks []health.Status `json:"checks"`
	}
	decode(t, w, &resp)
	if resp.Status != "ok" || len(resp.Checks) != 4 {
		t.Errorf("health = %+v", resp)
	}
}

func TestAPI_Metrics(t *testing.T) {
	h := newTestServer(t).Handler()
	if w := do(t, h, "GET", "/metrics", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

// ─── Pitch & Grading ────────────────────────────────────────────────────────

func TestAPI_Note(t *testing.T) {
	h := newTestServer(t).Handler()

	w := do(t, h, "GET", "/api/pitch/note?hz=440", "")
	var note struct {
		Name   string `json:"name"`
		Octave int    `json:"octave"`
	}
	decode(t, w, &note)
	if note.Name != "A" || note.Octave != 4 {
		t.Errorf("note = %+v", note)
	}

	if w := do(t, h, "GET", "/api/pitch/note?hz=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad hz status = %d", w.Code)
	}
}

func TestAPI_FrequencyAndCents(t *testing.T) {
	h := newTestServer(t).Handler()

	w := do(t, h, "GET", "/api/pitch/frequency?note=a&octave=4", "")
	var freq struct {
		Frequency float64 `json:"frequency"`
	}
	decode(t, w, &freq)
	if freq.Frequency != 440 {
		t.Errorf("frequency = %v", freq.Frequency)
	}
	if w := do(t, h, "GET", "/api/pitch/frequency?note=H&octave=4", ""); w.Code != http.StatusBadRequest {
		t.Errorf("unknown note status = %d", w.Code)
	}

	w = do(t, h, "GET", "/api/pitch/cents?hz=880&target=440", "")
	var cents struct {
		Cents float64 `json:"cents"`
	}
	decode(t, w, &cents)
	if cents.Cents < 1199.999 || cents.Cents > 1200.001 {
		t.Errorf("cents = %v", cents.Cents)
	}
}

func TestAPI_Grade(t *testing.T) {
	h := newTestServer(t).Handler()

	w := do(t, h, "GET", "/api/grade?score=85", "")
	var g struct {
		Grade string `json:"grade"`
		XP    int64  `json:"xp"`
	}
	decode(t, w, &g)
	if g.Grade != "A" || g.XP != 9 {
		t.Errorf("grade = %+v", g)
	}

	w = do(t, h, "GET", "/api/grade?score=101", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var e ErrorResponse
	decode(t, w, &e)
	if e.Code != "bad_request" || e.RequestID == "" {
		t.Errorf("error envelope = %+v", e)
	}
}

// ─── Curriculum & Progress ──────────────────────────────────────────────────

func TestAPI_Islands(t *testing.T) {
	h := newTestServer(t).Handler()

	var resp struct {
		Islands []struct {
			ID           int `json:"id"`
			ChapterCount int `json:"chapter_count"`
		} `json:"islands"`
	}
	decode(t, do(t, h, "GET", "/api/islands", ""), &resp)
	if len(resp.Islands) != 4 || resp.Islands[0].ChapterCount != 3 {
		t.Errorf("islands = %+v", resp.Islands)
	}

	var chapters struct {
		Chapters []json.RawMessage `json:"chapters"`
	}
	decode(t, do(t, h, "GET", "/api/islands/2/chapters", ""), &chapters)
	if chapters.Chapters == nil || len(chapters.Chapters) != 0 {
		t.Errorf("island 2 chapters = %v", chapters.Chapters)
	}
}

func TestAPI_CompleteLessonFlow(t *testing.T) {
	h := newTestServer(t).Handler()

	w := do(t, h, "POST", "/api/users/u1/lessons/level_1_1/complete", `{"score": 85}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var c session.Completion
	decode(t, w, &c)
	if c.Stars != 2 || c.Unlocked != "level_1_2" || len(c.NewAchievements) != 1 {
		t.Errorf("completion = %+v", c)
	}

	var ov session.Overview
	decode(t, do(t, h, "GET", "/api/users/u1/progress", ""), &ov)
	if len(ov.Progress.CompletedLessons) != 1 || ov.Progress.StreakDays != 1 || ov.CurrentLevel != 1 {
		t.Errorf("overview = %+v", ov)
	}

	var notes struct {
		Notifications []struct {
			ID int64 `json:"id"`
		} `json:"notifications"`
	}
	decode(t, do(t, h, "GET", "/api/users/u1/notifications", ""), &notes)
	if len(notes.Notifications) != 1 {
		t.Fatalf("notifications = %+v", notes)
	}
	if w := do(t, h, "POST", "/api/notifications/999/shown", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown notification status = %d", w.Code)
	}
}

func TestAPI_CompleteLessonErrors(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"missing score", "/api/users/u1/lessons/level_1_1/complete", `{}`, http.StatusBadRequest},
		{"score out of range", "/api/users/u1/lessons/level_1_1/complete", `{"score": 120}`, http.StatusBadRequest},
		{"bad json", "/api/users/u1/lessons/level_1_1/complete", `{`, http.StatusBadRequest},
		{"unknown level", "/api/users/u1/lessons/level_9_9/complete", `{"score": 80}`, http.StatusNotFound},
		{"locked level", "/api/users/u1/lessons/level_1_3/complete", `{"score": 80}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, h, "POST", tt.path, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAPI_StreakPracticeTimeReset(t *testing.T) {
	h := newTestServer(t).Handler()

	var streak struct {
		StreakDays int `json:"streak_days"`
	}
	decode(t, do(t, h, "POST", "/api/users/u1/streak", ""), &streak)
	if streak.StreakDays != 1 {
		t.Errorf("streak = %d", streak.StreakDays)
	}

	var ov session.Overview
	decode(t, do(t, h, "POST", "/api/users/u1/practice-time", `{"seconds": 90}`), &ov)
	if ov.Progress.TotalPracticeSeconds != 90 {
		t.Errorf("practice seconds = %d", ov.Progress.TotalPracticeSeconds)
	}
	if w := do(t, h, "POST", "/api/users/u1/practice-time", `{"seconds": -1}`); w.Code != http.StatusBadRequest {
		t.Errorf("negative seconds status = %d", w.Code)
	}

	decode(t, do(t, h, "POST", "/api/users/u1/reset", ""), &ov)
	if ov.Progress.TotalPracticeSeconds != 0 || ov.Progress.StreakDays != 0 {
		t.Errorf("after reset = %+v", ov.Progress)
	}
}

func TestAPI_Achievements(t *testing.T) {
	h := newTestServer(t).Handler()

	var resp struct {
		Achievements []struct {
			ID     string `json:"id"`
			Target int    `json:"target"`
		} `json:"achievements"`
	}
	decode(t, do(t, h, "GET", "/api/users/u1/achievements", ""), &resp)
	if len(resp.Achievements) != 6 {
		t.Errorf("achievements = %d, want 6", len(resp.Achievements))
	}
}

// ─── Practice Sessions ──────────────────────────────────────────────────────

func TestAPI_SessionFlow(t *testing.T) {
	h := newTestServer(t).Handler()

	w := do(t, h, "POST", "/api/users/u1/sessions", `{"level_id": "level_1_1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", w.Code, w.Body.String())
	}
	var sess struct {
		ID string `json:"id"`
	}
	decode(t, w, &sess)

	if w := do(t, h, "POST", "/api/sessions/"+sess.ID+"/pitch", `{"frequency": 440, "confidence": 0.8}`); w.Code != http.StatusOK {
		t.Errorf("pitch status = %d", w.Code)
	}
	if w := do(t, h, "POST", "/api/sessions/"+sess.ID+"/pitch", `{"frequency": 440, "confidence": 2}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad confidence status = %d", w.Code)
	}

	var next struct {
		Done bool `json:"done"`
		Step struct {
			Type string `json:"type"`
		} `json:"step"`
	}
	decode(t, do(t, h, "POST", "/api/sessions/"+sess.ID+"/next", ""), &next)
	if next.Done || next.Step.Type != "listen" {
		t.Errorf("next = %+v", next)
	}

	var got struct {
		SampleCount int `json:"sample_count"`
	}
	decode(t, do(t, h, "GET", "/api/sessions/"+sess.ID, ""), &got)
	if got.SampleCount != 1 {
		t.Errorf("sample count = %d", got.SampleCount)
	}

	w = do(t, h, "POST", "/api/sessions/"+sess.ID+"/finish", `{"total": 92}`)
	if w.Code != http.StatusOK {
		t.Fatalf("finish status = %d, body %s", w.Code, w.Body.String())
	}
	var out session.Outcome
	decode(t, w, &out)
	if out.Result.Grade != "S" || out.Stars != 3 {
		t.Errorf("outcome = %+v", out)
	}

	if w := do(t, h, "POST", "/api/sessions/"+sess.ID+"/finish", `{"total": 92}`); w.Code != http.StatusConflict {
		t.Errorf("second finish status = %d", w.Code)
	}

	var attempts struct {
		Attempts []json.RawMessage `json:"attempts"`
	}
	decode(t, do(t, h, "GET", "/api/users/u1/attempts", ""), &attempts)
	if len(attempts.Attempts) != 1 {
		t.Errorf("attempts = %d", len(attempts.Attempts))
	}
}

func TestAPI_SessionErrors(t *testing.T) {
	h := newTestServer(t).Handler()

	if w := do(t, h, "POST", "/api/users/u1/sessions", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing level status = %d", w.Code)
	}
	if w := do(t, h, "POST", "/api/sessions/nope/pitch", `{"frequency": 440}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d", w.Code)
	}
}

// ─── Pitch Engine ───────────────────────────────────────────────────────────

func TestAPI_Engine(t *testing.T) {
	h := newTestServer(t).Handler()

	if w := do(t, h, "POST", "/api/engine/simulate?hz=440", ""); w.Code != http.StatusConflict {
		t.Errorf("simulate while stopped status = %d", w.Code)
	}

	var status struct {
		Active bool `json:"active"`
	}
	decode(t, do(t, h, "POST", "/api/engine/start", ""), &status)
	if !status.Active {
		t.Error("engine should be active after start")
	}

	var sim struct {
		InRange bool `json:"in_range"`
	}
	decode(t, do(t, h, "POST", "/api/engine/simulate?hz=50", ""), &sim)
	if sim.InRange {
		t.Error("50 Hz should be outside the vocal range")
	}

	decode(t, do(t, h, "POST", "/api/engine/stop", ""), &status)
	if status.Active {
		t.Error("engine should be stopped")
	}
}

func TestAPI_CORS(t *testing.T) {
	srv := newTestServer(t)
	srv.SetCORSOrigins([]string{"http://localhost:3000"})
	h := srv.Handler()

	req := httptest.NewRequest("OPTIONS", "/api/islands", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest("GET", "/api/islands", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow origin for unknown site = %q", got)
	}
}
