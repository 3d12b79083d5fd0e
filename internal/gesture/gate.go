package gesture

import (
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultCooldown is the minimum time between two emitted events.
const DefaultCooldown = time.Second

// GateState is the phase of the event gate.
type GateState int

const (
	// Idle means no emission inside the current cooldown window.
	Idle GateState = iota
	// Cooling means the last emission is younger than the cooldown.
	Cooling
)

func (s GateState) String() string {
	if s == Cooling {
		return "cooling"
	}
	return "idle"
}

// Event is a gesture that passed the gate.
type Event struct {
	Label      Label              `json:"label"`
	Confidence float64            `json:"confidence"`
	Pose       *detector.HandPose `json:"-"`
	At         time.Time          `json:"at"`
}

// Gate throttles per-frame classifications into at most one event per
// cooldown window. Held and repeated gestures are throttled alike.
type Gate struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     time.Time
	emitted  bool
}

// NewGate creates a gate. A non-positive cooldown selects DefaultCooldown.
func NewGate(cooldown time.Duration) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{cooldown: cooldown}
}

// Cooldown returns the configured window.
func (g *Gate) Cooldown() time.Duration {
	return g.cooldown
}

// Offer feeds one classification observed at now.
//
// Unknown classifications are dropped without touching gate state. A known
// classification is emitted when no event has been emitted yet or at least
// one cooldown has passed since the last one; otherwise it is suppressed and
// the window is not re-armed.
func (g *Gate) Offer(c Classification, pose *detector.HandPose, now time.Time) (Event, bool) {
	if !c.Known() {
		return Event{}, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.emitted && now.Sub(g.last) < g.cooldown {
		return Event{}, false
	}

	g.last = now
	g.emitted = true

	return Event{
		Label:      c.Label,
		Confidence: c.Confidence,
		Pose:       pose,
		At:         now,
	}, true
}

// Reset returns the gate to Idle and forgets the last emission.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = time.Time{}
	g.emitted = false
}

// LastEmission returns the time of the last emitted event, if any.
func (g *Gate) LastEmission() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.emitted
}

// StateAt reports the gate phase as seen at now.
func (g *Gate) StateAt(now time.Time) GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.emitted && now.Sub(g.last) < g.cooldown {
		return Cooling
	}
	return Idle
}
