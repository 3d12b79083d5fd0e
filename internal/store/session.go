package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Session is a persisted camera session.
type Session struct {
	ID        string       `db:"id" json:"id"`
	CameraID  int          `db:"camera_id" json:"cameraId"`
	StartedAt time.Time    `db:"started_at" json:"startedAt"`
	EndedAt   sql.NullTime `db:"ended_at" json:"-"`
	EndReason string       `db:"end_reason" json:"endReason,omitempty"`
}

// Active reports whether the session has not been ended.
func (s *Session) Active() bool {
	return !s.EndedAt.Valid
}

// SessionRepository reads and writes sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, sess *Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, camera_id, started_at, end_reason) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.CameraID, sess.StartedAt.UTC(), sess.EndReason,
	)
	return err
}

// End marks a session finished with reason.
func (r *SessionRepository) End(ctx context.Context, id, reason string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, end_reason = ? WHERE id = ?`,
		at.UTC(), reason, id,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := r.db.GetContext(ctx, &sess,
		`SELECT id, camera_id, started_at, ended_at, end_reason FROM sessions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// List returns up to limit sessions, newest first.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]*Session, error) {
	sessions := []*Session{}
	err := r.db.SelectContext(ctx, &sessions,
		`SELECT id, camera_id, started_at, ended_at, end_reason
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
