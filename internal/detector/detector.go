package detector

import "gocv.io/x/gocv"

// Detector defines the interface for landmark provider implementations.
type Detector interface {
	// Detect analyzes a video frame and returns one HandPose per detected hand.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandPose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands limits the number of concurrently tracked hands.
	MaxHands int `validate:"min=1,max=2"`

	// MinConfidence gates initial acquisition of a hand (0.0-1.0).
	MinConfidence float64 `validate:"gte=0,lte=1"`

	// MinTrackingConf gates continued tracking of an acquired hand (0.0-1.0).
	MinTrackingConf float64 `validate:"gte=0,lte=1"`
}

// DefaultConfig returns the detection settings the dashboard ships with.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
	}
}
