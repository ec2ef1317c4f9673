// Package gesture turns per-frame hand landmarks into a stable open/closed
// control signal.
package gesture

import "github.com/ayusman/giftwrap/internal/detector"

// Gesture is the per-frame classification of a single hand.
type Gesture int

const (
	// None means no hand was classified this frame.
	None Gesture = iota
	// Open is a spread hand ("unwrap").
	Open
	// Closed is a fist ("wrap").
	Closed
)

// String returns the lower-case name of the gesture.
func (g Gesture) String() string {
	switch g {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "none"
	}
}

// OpenThreshold is the number of extended fingers (thumb excluded) needed
// for a hand to count as Open. Loose fists still read as Closed.
const OpenThreshold = 3

// finger pairs a fingertip landmark with its PIP joint.
type finger struct {
	tip, pip int
}

var fingers = [...]finger{
	{detector.IndexTip, detector.IndexPIP},
	{detector.MiddleTip, detector.MiddlePIP},
	{detector.RingTip, detector.RingPIP},
	{detector.PinkyTip, detector.PinkyPIP},
}

// ExtendedFingers counts the fingers whose tip lies farther from the wrist
// than their PIP joint, measured in the image plane. The thumb is ignored.
func ExtendedFingers(hand *detector.HandLandmarks) int {
	if hand == nil {
		return 0
	}

	wrist := hand.Points[detector.Wrist]
	count := 0
	for _, f := range fingers {
		tip := detector.PlanarDistance(wrist, hand.Points[f.tip])
		pip := detector.PlanarDistance(wrist, hand.Points[f.pip])
		if tip > pip {
			count++
		}
	}
	return count
}

// Classify returns Open when at least OpenThreshold fingers are extended,
// Closed otherwise. A nil hand yields None.
func Classify(hand *detector.HandLandmarks) Gesture {
	if hand == nil {
		return None
	}
	if ExtendedFingers(hand) >= OpenThreshold {
		return Open
	}
	return Closed
}
