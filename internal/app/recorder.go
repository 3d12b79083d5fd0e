package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

const recordTimeout = 2 * time.Second

// Recorder persists session lifecycle and gesture events.
type Recorder struct {
	store    *store.Store
	cameraID int
	log      *logrus.Entry
}

// NewRecorder creates a Recorder writing to st.
func NewRecorder(st *store.Store, cameraID int, log *logrus.Entry) *Recorder {
	return &Recorder{store: st, cameraID: cameraID, log: log}
}

// SessionStarted implements session.Listener.
func (r *Recorder) SessionStarted(id string, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	sess := &store.Session{ID: id, CameraID: r.cameraID, StartedAt: at}
	if err := r.store.Sessions().Create(ctx, sess); err != nil {
		r.log.WithError(err).WithField("session", id).Warn("failed to record session start")
	}
}

// GestureEmitted implements session.Listener.
func (r *Recorder) GestureEmitted(sessionID string, ev gesture.Event, mouseEnabled bool) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	e := &store.Event{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		Label:        string(ev.Label),
		Confidence:   ev.Confidence,
		MouseEnabled: mouseEnabled,
		OccurredAt:   ev.At,
	}
	if tip, err := ev.Pose.Point(detector.IndexTip); err == nil {
		e.TipX, e.TipY = tip.X, tip.Y
	}

	if err := r.store.Events().Create(ctx, e); err != nil {
		r.log.WithError(err).WithField("session", sessionID).Warn("failed to record gesture")
	}
}

// SessionEnded implements session.Listener.
func (r *Recorder) SessionEnded(id, reason string, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.store.Sessions().End(ctx, id, reason, at); err != nil {
		r.log.WithError(err).WithField("session", id).Warn("failed to record session end")
	}
}
