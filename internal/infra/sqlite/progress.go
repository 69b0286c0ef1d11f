package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// ─── Progress Snapshots ─────────────────────────────────────────────────────

// LoadProgress returns the stored snapshot for userID, or nil if none exists.
func (d *DB) LoadProgress(ctx context.Context, userID string) (*domain.ProgressState, error) {
	var raw string
	err := d.db.QueryRowContext(ctx,
		`SELECT state FROM progress_snapshots WHERE user_id = ?`, userID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", userID, err)
	}

	var state domain.ProgressState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", userID, err)
	}
	return &state, nil
}

// SaveProgress overwrites the snapshot for state.Progress.UserID.
func (d *DB) SaveProgress(ctx context.Context, state domain.ProgressState) error {
	if state.Progress.UserID == "" {
		return fmt.Errorf("save progress: empty user id: %w", domain.ErrInvalidArgument)
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO progress_snapshots (user_id, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at`,
		state.Progress.UserID, string(raw), state.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save progress %s: %w", state.Progress.UserID, err)
	}
	return nil
}

// DeleteProgress removes the snapshot. Missing snapshots are not an error.
func (d *DB) DeleteProgress(ctx context.Context, userID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM progress_snapshots WHERE user_id = ?`, userID)
	return err
}

// ListProgressUsers returns every user id with a stored snapshot, most
// recently updated first.
func (d *DB) ListProgressUsers(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT user_id FROM progress_snapshots ORDER BY updated_at DESC, user_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
