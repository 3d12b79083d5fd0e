package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandPose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandPose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandPose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

func newPose() HandPose {
	return HandPose{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}
}

// ThumbsUpLandmarks returns a preset pose with the thumb raised and the other
// fingers curled.
func ThumbsUpLandmarks() HandPose {
	p := newPose()

	p.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	p.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	p.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	p.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	p.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Curled: tips sit below their PIP joints.
	p.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	p.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	p.Points[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	p.Points[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	p.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	p.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	p.Points[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	p.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	p.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	p.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	p.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	p.Points[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	p.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	p.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	p.Points[PinkyDIP] = Point3D{X: 0.37, Y: 0.72, Z: -0.04}
	p.Points[PinkyTip] = Point3D{X: 0.35, Y: 0.74, Z: -0.02}

	return p
}

// OpenPalmLandmarks returns a preset upright pose with every digit extended.
func OpenPalmLandmarks() HandPose {
	p := newPose()

	p.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	p.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	p.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	p.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	p.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	p.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	p.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	p.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	p.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	p.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	p.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	p.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	p.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	p.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	p.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	p.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	p.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	p.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	p.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	p.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	p.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return p
}

// PointingLandmarks returns an upright pose with only the index finger raised.
// The index tip sits at (tipX, tipY).
func PointingLandmarks(tipX, tipY float64) HandPose {
	p := ThumbsUpLandmarks()

	// Fold the thumb across the palm.
	p.Points[ThumbIP] = Point3D{X: 0.54, Y: 0.66, Z: -0.02}
	p.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.69, Z: -0.03}

	p.Points[IndexPIP] = Point3D{X: tipX, Y: tipY + 0.2, Z: 0.0}
	p.Points[IndexDIP] = Point3D{X: tipX, Y: tipY + 0.1, Z: 0.0}
	p.Points[IndexTip] = Point3D{X: tipX, Y: tipY, Z: 0.0}

	return p
}
