// Package gesture turns hand poses into static gesture classifications and
// rate-limited gesture events.
package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrPointCount is returned when a pose does not carry exactly
// detector.NumLandmarks points. It indicates a provider/core mismatch.
var ErrPointCount = errors.New("hand pose has unexpected point count")

// Finger indexes a digit within FingerStates.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	numFingers
)

var fingerNames = [numFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= numFingers {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// tipIDs are the landmark indices of each fingertip, thumb first.
var tipIDs = [numFingers]int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// FingerStates holds one extended flag per digit, ordered thumb, index,
// middle, ring, pinky.
type FingerStates [numFingers]bool

// Extended reports whether digit f is extended.
func (s FingerStates) Extended(f Finger) bool {
	return s[f]
}

// Count returns the number of extended digits.
func (s FingerStates) Count() int {
	n := 0
	for _, up := range s {
		if up {
			n++
		}
	}
	return n
}

// All reports whether every digit is extended.
func (s FingerStates) All() bool { return s.Count() == int(numFingers) }

// None reports whether no digit is extended.
func (s FingerStates) None() bool { return s.Count() == 0 }

// Only reports whether exactly the given digits are extended.
func (s FingerStates) Only(fingers ...Finger) bool {
	var want FingerStates
	for _, f := range fingers {
		want[f] = true
	}
	return s == want
}

// ExtractFingerStates decides for each digit whether it is extended.
//
// A digit is extended when its tip is strictly higher on screen (smaller y)
// than its reference joint: landmark 3 for the thumb, tip-2 for the others.
// The test assumes an upright hand facing the camera; rotated hands are
// misread.
func ExtractFingerStates(pose *detector.HandPose) (FingerStates, error) {
	var states FingerStates

	if pose == nil {
		return states, fmt.Errorf("%w: nil pose", ErrPointCount)
	}
	if len(pose.Points) != detector.NumLandmarks {
		return states, fmt.Errorf("%w: got %d, want %d", ErrPointCount, len(pose.Points), detector.NumLandmarks)
	}

	p := pose.Points

	states[Thumb] = p[detector.ThumbTip].Y < p[detector.ThumbIP].Y

	for f := Index; f < numFingers; f++ {
		tip := tipIDs[f]
		states[f] = p[tip].Y < p[tip-2].Y
	}

	return states, nil
}
