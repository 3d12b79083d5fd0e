package gesture

import (
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func TestClassify_DecisionTable(t *testing.T) {
	tests := []struct {
		name   string
		states FingerStates
		want   Classification
	}{
		{"all extended", FingerStates{true, true, true, true, true}, Classification{OpenHand, 90.0}},
		{"none extended", FingerStates{}, Classification{Fist, 85.0}},
		{"index and middle", FingerStates{false, true, true, false, false}, Classification{PeaceSign, 88.0}},
		{"thumb only", FingerStates{true, false, false, false, false}, Classification{ThumbsUp, 92.0}},
		{"index only", FingerStates{false, true, false, false, false}, Classification{Point, 87.0}},
		{"peace with thumb", FingerStates{true, true, true, false, false}, Classification{Unknown, 0.0}},
		{"four fingers no thumb", FingerStates{false, true, true, true, true}, Classification{Unknown, 0.0}},
		{"pinky only", FingerStates{false, false, false, false, true}, Classification{Unknown, 0.0}},
		{"thumb and pinky", FingerStates{true, false, false, false, true}, Classification{Unknown, 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.states, nil)
			if got != tt.want {
				t.Errorf("Classify(%v) = %+v, want %+v", tt.states, got, tt.want)
			}
		})
	}
}

func TestClassify_StopIsUnreachable(t *testing.T) {
	// Every one of the 32 finger states must map to something other than Stop.
	for mask := 0; mask < 1<<numFingers; mask++ {
		var s FingerStates
		for f := Thumb; f < numFingers; f++ {
			s[f] = mask&(1<<f) != 0
		}
		if got := Classify(s, nil); got.Label == Stop {
			t.Errorf("Classify(%v) returned Stop", s)
		}
	}
}

func TestClassify_PeaceSignIgnoresPoints(t *testing.T) {
	states := FingerStates{false, true, true, false, false}
	poses := []*detector.HandPose{
		nil,
		{Points: make([]detector.Point3D, detector.NumLandmarks)},
		func() *detector.HandPose { p := detector.OpenPalmLandmarks(); return &p }(),
	}

	for i, pose := range poses {
		got := Classify(states, pose)
		if got.Label != PeaceSign || got.Confidence != PeaceSignConfidence {
			t.Errorf("pose %d: Classify() = %+v, want Peace Sign at 88", i, got)
		}
	}
}

func TestClassify_OnlyKnownLabels(t *testing.T) {
	known := make(map[Label]bool, len(Labels))
	for _, l := range Labels {
		known[l] = true
	}
	for mask := 0; mask < 1<<numFingers; mask++ {
		var s FingerStates
		for f := Thumb; f < numFingers; f++ {
			s[f] = mask&(1<<f) != 0
		}
		c := Classify(s, nil)
		if !known[c.Label] {
			t.Errorf("Classify(%v) produced unlisted label %q", s, c.Label)
		}
		if c.Confidence < 0 || c.Confidence > 100 {
			t.Errorf("Classify(%v) confidence %f out of range", s, c.Confidence)
		}
	}
}

func TestRecognize(t *testing.T) {
	t.Run("open palm", func(t *testing.T) {
		pose := detector.OpenPalmLandmarks()
		c, states, err := Recognize(&pose)
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if !states.All() {
			t.Errorf("expected all fingers extended, got %v", states)
		}
		if c.Label != OpenHand || c.Confidence != 90.0 {
			t.Errorf("Recognize() = %+v, want Open Hand at 90", c)
		}
	})

	t.Run("curled hand is a fist", func(t *testing.T) {
		c, _, err := Recognize(poseWith())
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if c.Label != Fist || c.Confidence != 85.0 {
			t.Errorf("Recognize() = %+v, want Fist at 85", c)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		pose := detector.ThumbsUpLandmarks()
		first, _, err := Recognize(&pose)
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		second, _, err := Recognize(&pose)
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if first != second {
			t.Errorf("Recognize() not idempotent: %+v vs %+v", first, second)
		}
		if first.Label != ThumbsUp {
			t.Errorf("Recognize() = %+v, want Thumbs Up", first)
		}
	})

	t.Run("malformed pose", func(t *testing.T) {
		c, _, err := Recognize(&detector.HandPose{Points: make([]detector.Point3D, 5)})
		if !errors.Is(err, ErrPointCount) {
			t.Fatalf("expected ErrPointCount, got %v", err)
		}
		if c.Known() {
			t.Errorf("malformed pose should not classify, got %+v", c)
		}
	})
}
