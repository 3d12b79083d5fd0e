package gesture

import "github.com/ayusman/mudra/internal/detector"

// Label names a recognized static gesture.
type Label string

const (
	OpenHand  Label = "Open Hand"
	Fist      Label = "Fist"
	PeaceSign Label = "Peace Sign"
	ThumbsUp  Label = "Thumbs Up"
	Point     Label = "Point"
	Stop      Label = "Stop"
	Unknown   Label = "Unknown"
)

// Labels lists every label the classifier can produce, in rule order.
var Labels = []Label{OpenHand, Fist, PeaceSign, ThumbsUp, Point, Stop, Unknown}

// Per-rule confidences. These are fixed constants attached to each rule,
// not scores measured from landmark quality.
const (
	OpenHandConfidence  = 90.0
	FistConfidence      = 85.0
	PeaceSignConfidence = 88.0
	ThumbsUpConfidence  = 92.0
	PointConfidence     = 87.0
	StopConfidence      = 90.0
	UnknownConfidence   = 0.0
)

// Classification is the per-frame result of the classifier.
type Classification struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"` // percent, 0-100
}

// Known reports whether the classification names a real gesture.
func (c Classification) Known() bool {
	return c.Label != Unknown && c.Label != ""
}

// Classify maps finger states to a gesture. Rules are evaluated in order and
// the first match wins.
//
// pose is reserved for geometric tie-breaks and is not read by the current
// rules.
//
// The Stop rule matches the same "no digit extended" state as Fist and can
// never be reached. It is kept so that a palm-orientation predicate can be
// slotted in without reordering the table.
func Classify(states FingerStates, pose *detector.HandPose) Classification {
	switch {
	case states.All():
		return Classification{Label: OpenHand, Confidence: OpenHandConfidence}
	case states.None():
		return Classification{Label: Fist, Confidence: FistConfidence}
	case states.Only(Index, Middle):
		return Classification{Label: PeaceSign, Confidence: PeaceSignConfidence}
	case states.Only(Thumb):
		return Classification{Label: ThumbsUp, Confidence: ThumbsUpConfidence}
	case states.Only(Index):
		return Classification{Label: Point, Confidence: PointConfidence}
	case states.None():
		return Classification{Label: Stop, Confidence: StopConfidence}
	default:
		return Classification{Label: Unknown, Confidence: UnknownConfidence}
	}
}

// Recognize extracts finger states from pose and classifies them.
// It fails only when the pose is malformed.
func Recognize(pose *detector.HandPose) (Classification, FingerStates, error) {
	states, err := ExtractFingerStates(pose)
	if err != nil {
		return Classification{Label: Unknown}, states, err
	}
	return Classify(states, pose), states, nil
}
