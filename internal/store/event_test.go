package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedSession(t *testing.T, s *Store) string {
	t.Helper()

	id := uuid.NewString()
	if err := s.Sessions().Create(context.Background(), &Session{ID: id, StartedAt: time.Now()}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return id
}

func TestEventRepository_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sessionID := seedSession(t, s)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []*Event{
		{Label: "Thumbs Up", Confidence: 92},
		{Label: "Point", Confidence: 87, TipX: 0.5, TipY: 0.25, MouseEnabled: true},
		{Label: "Thumbs Up", Confidence: 92},
	}
	for i, e := range events {
		e.ID = uuid.NewString()
		e.SessionID = sessionID
		e.OccurredAt = base.Add(time.Duration(i) * time.Second)
		if err := s.Events().Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := s.Events().ListBySession(ctx, sessionID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListBySession() returned %d events, want 3", len(got))
	}
	if got[1].Label != "Point" || got[1].TipX != 0.5 || got[1].TipY != 0.25 || !got[1].MouseEnabled {
		t.Errorf("unexpected point event: %+v", got[1])
	}
	if !got[0].OccurredAt.Equal(base) {
		t.Errorf("OccurredAt = %v, want %v", got[0].OccurredAt, base)
	}

	recent, err := s.Events().Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 || recent[0].ID != events[2].ID {
		t.Errorf("Recent() should return newest first, got %d events", len(recent))
	}
}

func TestEventRepository_CountByLabel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sessionID := seedSession(t, s)

	for _, label := range []string{"Fist", "Point", "Fist", "Fist", "Point", "Open Hand"} {
		e := &Event{ID: uuid.NewString(), SessionID: sessionID, Label: label, OccurredAt: time.Now()}
		if err := s.Events().Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := s.Events().CountByLabel(ctx)
	if err != nil {
		t.Fatalf("CountByLabel() error = %v", err)
	}

	want := []LabelCount{{"Fist", 3}, {"Point", 2}, {"Open Hand", 1}}
	if len(counts) != len(want) {
		t.Fatalf("CountByLabel() = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %v, want %v", i, counts[i], want[i])
		}
	}
}

func TestEventRepository_RequiresSession(t *testing.T) {
	s := newTestStore(t)

	e := &Event{ID: uuid.NewString(), SessionID: "nope", Label: "Fist", OccurredAt: time.Now()}
	if err := s.Events().Create(context.Background(), e); err == nil {
		t.Error("expected foreign key violation for unknown session")
	}
}
