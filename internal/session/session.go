// Package session runs the camera → detector → classifier → gate → dispatcher
// loop on a single background worker and publishes its latest state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/overlay"
)

// ErrCameraUnavailable is returned by Start when the camera cannot be acquired.
var ErrCameraUnavailable = errors.New("camera unavailable")

// NoGesture is the label shown while nothing has been emitted.
const NoGesture = "No gesture detected"

// ReasonStopped is the end reason of a session stopped on request.
const ReasonStopped = "stopped"

// Dispatcher performs the side effect of an emitted event.
type Dispatcher interface {
	Dispatch(ev gesture.Event, mouseEnabled bool) error
}

// Listener observes session lifecycle and emitted events. Calls happen on
// the worker goroutine and must not block for long or call Start or Stop.
type Listener interface {
	SessionStarted(id string, at time.Time)
	GestureEmitted(sessionID string, ev gesture.Event, mouseEnabled bool)
	SessionEnded(id, reason string, at time.Time)
}

// MouseListener is implemented by listeners that track the mouse control
// flag. MouseChanged runs on the goroutine that changed the flag.
type MouseListener interface {
	MouseChanged(enabled bool)
}

// Options tunes a Session.
type Options struct {
	Mirror        bool
	Cooldown      time.Duration
	DisplayWidth  int
	DisplayHeight int
	// Clock overrides time.Now.
	Clock func() time.Time
}

// Snapshot is the published state of the session.
type Snapshot struct {
	SessionID    string    `json:"sessionId,omitempty"`
	Running      bool      `json:"running"`
	Label        string    `json:"label"`
	Confidence   float64   `json:"confidence"`
	MouseEnabled bool      `json:"mouseEnabled"`
	FPS          float64   `json:"fps"`
	Hands        int       `json:"hands"`
	LastEventAt  *time.Time `json:"lastEventAt,omitempty"`
	LastError    string    `json:"lastError,omitempty"`
}

// run is one Start..Stop cycle.
type run struct {
	id     string
	gate   *gesture.Gate
	cancel context.CancelFunc
	ending chan struct{} // closed when the worker starts tearing down
	done   chan struct{}
}

// Session owns the camera while running. Start and Stop may be called from
// any goroutine; all frame processing happens on one worker.
type Session struct {
	camera     capture.Camera
	detector   detector.Detector
	dispatcher Dispatcher
	opts       Options
	log        *logrus.Entry

	ctl       sync.Mutex // serializes Start and Stop
	mu        sync.Mutex
	current   *run
	listeners []Listener

	mouse    atomic.Bool
	snapshot atomic.Pointer[Snapshot]
	frame    atomic.Pointer[[]byte]
}

// New creates an idle session.
func New(camera capture.Camera, det detector.Detector, dispatcher Dispatcher, opts Options, log *logrus.Entry) *Session {
	if opts.Cooldown <= 0 {
		opts.Cooldown = gesture.DefaultCooldown
	}
	if opts.DisplayWidth <= 0 || opts.DisplayHeight <= 0 {
		opts.DisplayWidth, opts.DisplayHeight = overlay.MaxWidth, overlay.MaxHeight
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Session{
		camera:     camera,
		detector:   det,
		dispatcher: dispatcher,
		opts:       opts,
		log:        log,
	}
	s.snapshot.Store(&Snapshot{Label: NoGesture})
	return s
}

// AddListener registers l for subsequent sessions.
func (s *Session) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Session) listenerList() []Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Listener(nil), s.listeners...)
}

// Start acquires the camera and launches the worker. Starting a running
// session is a no-op.
func (s *Session) Start() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if r := s.currentRun(); r != nil {
		select {
		case <-r.ending:
			<-r.done
		default:
			return nil
		}
	}

	if err := s.camera.Open(); err != nil {
		s.log.WithError(err).Error("failed to open camera")
		s.publish(func(snap *Snapshot) { snap.LastError = err.Error() })
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:     uuid.NewString(),
		gate:   gesture.NewGate(s.opts.Cooldown),
		cancel: cancel,
		ending: make(chan struct{}),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.current = r
	s.mu.Unlock()

	now := s.opts.Clock()
	s.snapshot.Store(&Snapshot{SessionID: r.id, Running: true, Label: NoGesture})
	for _, l := range s.listenerList() {
		l.SessionStarted(r.id, now)
	}
	s.log.WithField("session", r.id).Info("session started")

	go s.work(ctx, r)
	return nil
}

// Stop ends the running session and waits for the worker to release the
// camera. Stopping an idle session is a no-op.
func (s *Session) Stop() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	r := s.currentRun()
	if r == nil {
		return
	}

	r.cancel()
	<-r.done
}

// Running reports whether a worker is active.
func (s *Session) Running() bool {
	return s.currentRun() != nil
}

func (s *Session) currentRun() *run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ToggleMouse flips mouse control and returns the new value.
func (s *Session) ToggleMouse() bool {
	for {
		old := s.mouse.Load()
		if s.mouse.CompareAndSwap(old, !old) {
			if !old {
				s.log.Info("mouse control enabled, point with your index finger to move the cursor")
			} else {
				s.log.Info("mouse control disabled")
			}
			s.notifyMouse(!old)
			return !old
		}
	}
}

// SetMouse sets mouse control explicitly.
func (s *Session) SetMouse(enabled bool) {
	if s.mouse.Swap(enabled) != enabled {
		s.notifyMouse(enabled)
	}
}

func (s *Session) notifyMouse(enabled bool) {
	for _, l := range s.listenerList() {
		if ml, ok := l.(MouseListener); ok {
			ml.MouseChanged(enabled)
		}
	}
}

// MouseEnabled reports the mouse control flag.
func (s *Session) MouseEnabled() bool {
	return s.mouse.Load()
}

// Snapshot returns the latest published state.
func (s *Session) Snapshot() Snapshot {
	snap := *s.snapshot.Load()
	snap.MouseEnabled = s.mouse.Load()
	return snap
}

// Frame returns the latest annotated JPEG, or nil when none is available.
func (s *Session) Frame() []byte {
	if p := s.frame.Load(); p != nil {
		return *p
	}
	return nil
}

// publish applies fn to a copy of the current snapshot and stores it.
func (s *Session) publish(fn func(*Snapshot)) {
	snap := *s.snapshot.Load()
	fn(&snap)
	s.snapshot.Store(&snap)
}

func (s *Session) work(ctx context.Context, r *run) {
	log := s.log.WithField("session", r.id)
	reason := ReasonStopped

	defer func() {
		s.finish(r, reason)
		close(r.done)
	}()

	fps := newFPSCounter(s.opts.Clock())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := s.camera.ReadFrame()
		if err != nil {
			reason = fmt.Sprintf("camera read failed: %v", err)
			log.WithError(err).Warn("camera read failed, ending session")
			return
		}

		err = s.process(r, frame, log)
		frame.Close()
		if err != nil {
			reason = err.Error()
			log.WithError(err).Error("frame processing failed, ending session")
			return
		}

		if rate, ok := fps.tick(s.opts.Clock()); ok {
			s.publish(func(snap *Snapshot) { snap.FPS = rate })
		}
	}
}

// process runs one frame through detection, classification and the gate.
// A non-nil error is fatal to the session.
func (s *Session) process(r *run, frame *gocv.Mat, log *logrus.Entry) error {
	if s.opts.Mirror {
		capture.Mirror(frame)
	}

	hands, err := s.detector.Detect(frame)
	if errors.Is(err, detector.ErrServiceDown) {
		return err
	}
	if err != nil {
		log.WithError(err).Warn("hand detection failed, skipping frame")
		return nil
	}

	for i := range hands {
		pose := &hands[i]

		c, _, err := gesture.Recognize(pose)
		if err != nil {
			return fmt.Errorf("recognize hand %d: %w", i, err)
		}
		overlay.DrawHand(frame, pose)

		ev, ok := r.gate.Offer(c, pose, s.opts.Clock())
		if !ok {
			continue
		}
		s.emit(r, ev, log)
	}

	snap := s.Snapshot()
	if snap.Label != NoGesture {
		overlay.DrawLabel(frame, fmt.Sprintf("%s %.0f%%", snap.Label, snap.Confidence))
	}

	if data, err := overlay.Encode(*frame, s.opts.DisplayWidth, s.opts.DisplayHeight); err != nil {
		log.WithError(err).Debug("frame encode failed")
	} else {
		s.frame.Store(&data)
	}

	s.publish(func(snap *Snapshot) { snap.Hands = len(hands) })
	return nil
}

func (s *Session) emit(r *run, ev gesture.Event, log *logrus.Entry) {
	mouse := s.mouse.Load()

	log.WithFields(logrus.Fields{
		"gesture":    ev.Label,
		"confidence": ev.Confidence,
		"mouse":      mouse,
	}).Info("gesture detected")

	s.publish(func(snap *Snapshot) {
		snap.Label = string(ev.Label)
		snap.Confidence = ev.Confidence
		at := ev.At
		snap.LastEventAt = &at
	})

	if err := s.dispatcher.Dispatch(ev, mouse); err != nil {
		log.WithError(err).WithField("gesture", ev.Label).Warn("action failed")
	}

	for _, l := range s.listenerList() {
		l.GestureEmitted(r.id, ev, mouse)
	}
}

// finish releases the camera and returns the published state to idle.
// Listeners hear SessionEnded before the run is released, so a Start that
// races with teardown waits and its SessionStarted comes after.
func (s *Session) finish(r *run, reason string) {
	close(r.ending)

	if err := s.camera.Close(); err != nil {
		s.log.WithError(err).Warn("failed to close camera")
	}
	r.gate.Reset()
	r.cancel()

	snap := &Snapshot{Label: NoGesture}
	if reason != ReasonStopped {
		snap.LastError = reason
	}
	s.snapshot.Store(snap)
	s.frame.Store(nil)

	at := s.opts.Clock()
	for _, l := range s.listenerList() {
		l.SessionEnded(r.id, reason, at)
	}
	s.log.WithFields(logrus.Fields{"session": r.id, "reason": reason}).Info("session ended")

	s.mu.Lock()
	if s.current == r {
		s.current = nil
	}
	s.mu.Unlock()
}
