package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Event is a persisted gesture event.
type Event struct {
	ID           string    `db:"id" json:"id"`
	SessionID    string    `db:"session_id" json:"sessionId"`
	Label        string    `db:"label" json:"label"`
	Confidence   float64   `db:"confidence" json:"confidence"`
	TipX         float64   `db:"tip_x" json:"tipX"`
	TipY         float64   `db:"tip_y" json:"tipY"`
	MouseEnabled bool      `db:"mouse_enabled" json:"mouseEnabled"`
	OccurredAt   time.Time `db:"occurred_at" json:"occurredAt"`
}

// LabelCount is the number of events recorded for one label.
type LabelCount struct {
	Label string `db:"label" json:"label"`
	Count int    `db:"count" json:"count"`
}

// EventRepository reads and writes gesture events.
type EventRepository struct {
	db *sqlx.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

const eventColumns = `id, session_id, label, confidence, tip_x, tip_y, mouse_enabled, occurred_at`

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, e *Event) error {
	e.OccurredAt = e.OccurredAt.UTC()
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO gesture_events (`+eventColumns+`)
		 VALUES (:id, :session_id, :label, :confidence, :tip_x, :tip_y, :mouse_enabled, :occurred_at)`,
		e,
	)
	return err
}

// Recent returns up to limit events across all sessions, newest first.
func (r *EventRepository) Recent(ctx context.Context, limit int) ([]*Event, error) {
	events := []*Event{}
	err := r.db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+` FROM gesture_events ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListBySession returns the events of one session in emission order.
func (r *EventRepository) ListBySession(ctx context.Context, sessionID string) ([]*Event, error) {
	events := []*Event{}
	err := r.db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+` FROM gesture_events WHERE session_id = ? ORDER BY occurred_at`, sessionID)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CountByLabel returns per-label totals, most frequent first.
func (r *EventRepository) CountByLabel(ctx context.Context) ([]LabelCount, error) {
	counts := []LabelCount{}
	err := r.db.SelectContext(ctx, &counts,
		`SELECT label, COUNT(*) AS count FROM gesture_events GROUP BY label ORDER BY count DESC, label`)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
