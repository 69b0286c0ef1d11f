package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// ─── Practice Attempts ──────────────────────────────────────────────────────

// InsertAttempt records a finished practice session.
func (d *DB) InsertAttempt(ctx context.Context, a domain.PracticeAttempt) error {
	score, err := json.Marshal(a.Score)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO practice_attempts
			(id, session_id, user_id, level_id, total_score, grade, stars, score_json, sample_count, duration_sec, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.UserID, a.LevelID,
		a.Score.TotalScore, string(a.Score.Grade), a.Stars, string(score),
		a.SampleCount, a.DurationSec, a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt %s: %w", a.ID, err)
	}
	return nil
}

// ListAttempts returns a user's attempts, newest first.
func (d *DB) ListAttempts(ctx context.Context, userID string, limit int) ([]domain.PracticeAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, session_id, user_id, level_id, stars, score_json, sample_count, duration_sec, created_at
		 FROM practice_attempts WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.PracticeAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// AttemptCount returns how many attempts a user has made at a level.
func (d *DB) AttemptCount(ctx context.Context, userID, levelID string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM practice_attempts WHERE user_id = ? AND level_id = ?`,
		userID, levelID,
	).Scan(&count)
	return count, err
}

func scanAttempt(s scanner) (*domain.PracticeAttempt, error) {
	var a domain.PracticeAttempt
	var score string
	var createdAt int64
	err := s.Scan(&a.ID, &a.SessionID, &a.UserID, &a.LevelID, &a.Stars,
		&score, &a.SampleCount, &a.DurationSec, &createdAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(score), &a.Score); err != nil {
		return nil, fmt.Errorf("decode score for %s: %w", a.ID, err)
	}
	a.CreatedAt = unixOrZero(createdAt)
	return &a, nil
}
