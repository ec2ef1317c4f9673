// Package detector provides the hand landmark source used by the gesture subsystem.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedHand is returned when the landmark source delivers a hand
// without the full set of 21 landmarks.
var ErrMalformedHand = errors.New("malformed hand landmarks")

// Point3D represents a normalized landmark position. X and Y are in image
// space ([0,1] across the frame), Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlanarDistance returns the Euclidean distance between a and b in the image
// plane, ignoring depth.
func PlanarDistance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// NewHandLandmarks builds a HandLandmarks from a point slice as delivered by
// the landmark source. It returns ErrMalformedHand unless exactly
// NumLandmarks finite points are present.
func NewHandLandmarks(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	lm := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}

	if len(points) != NumLandmarks {
		return lm, fmt.Errorf("%w: got %d points, want %d", ErrMalformedHand, len(points), NumLandmarks)
	}

	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return lm, fmt.Errorf("%w: point %d is not finite", ErrMalformedHand, i)
		}
		lm.Points[i] = p
	}

	return lm, nil
}
