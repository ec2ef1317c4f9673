// Package testdata holds recorded landmark-service responses for tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ayusman/giftwrap/internal/detector"
)

//go:embed hands/*.json
var handsFS embed.FS

// Fixture names.
const (
	OpenPalm     = "open_palm"
	Fist         = "fist"
	ThreeFingers = "three_fingers"
	TwoFingers   = "two_fingers"
	NoHand       = "no_hand"
	Malformed    = "malformed"
)

type response struct {
	Hands []struct {
		Points     []detector.Point3D `json:"points"`
		Handedness string             `json:"handedness"`
		Score      float64            `json:"score"`
	} `json:"hands"`
}

// Raw returns the fixture's JSON as the landmark service would print it.
func Raw(name string) ([]byte, error) {
	data, err := handsFS.ReadFile("hands/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load hands %s: %w", name, err)
	}
	return data, nil
}

// LoadHands decodes a fixture. Hands with the wrong number of points are
// rejected with detector.ErrMalformedHand.
func LoadHands(name string) ([]detector.HandLandmarks, error) {
	data, err := Raw(name)
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode hands %s: %w", name, err)
	}

	hands := make([]detector.HandLandmarks, 0, len(resp.Hands))
	for i, h := range resp.Hands {
		lm, err := detector.NewHandLandmarks(h.Points, h.Handedness, h.Score)
		if err != nil {
			return nil, fmt.Errorf("hands %s[%d]: %w", name, i, err)
		}
		hands = append(hands, lm)
	}
	return hands, nil
}

// MustLoadHands is LoadHands for test setup; it panics on error.
func MustLoadHands(name string) []detector.HandLandmarks {
	hands, err := LoadHands(name)
	if err != nil {
		panic(err)
	}
	return hands
}

// Sequence concatenates fixtures into a per-frame detector sequence, each
// repeated n times.
func Sequence(n int, names ...string) [][]detector.HandLandmarks {
	var frames [][]detector.HandLandmarks
	for _, name := range names {
		hands := MustLoadHands(name)
		for i := 0; i < n; i++ {
			frames = append(frames, hands)
		}
	}
	return frames
}
