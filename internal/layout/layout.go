// Package layout generates the two static configurations of every instanced
// ensemble: a random spherical scatter and the tree shape.
package layout

import (
	"math"
	"math/rand/v2"

	"cogentcore.org/core/math32"
)

// GoldenAngle is the angular step between consecutive ornaments, in radians.
const GoldenAngle = 2.39996

// Instance counts of the two ensembles.
const (
	GiftCount     = 200
	OrnamentCount = 700
)

// Params controls the tree geometry.
type Params struct {
	TreeHeight    float32 `toml:"tree_height" json:"treeHeight"`
	BaseRadius    float32 `toml:"base_radius" json:"baseRadius"`
	ScatterRadius float32 `toml:"scatter_radius" json:"scatterRadius"`
	Gifts         int     `toml:"gifts" json:"gifts"`
	Ornaments     int     `toml:"ornaments" json:"ornaments"`
}

// DefaultParams returns the standard tree.
func DefaultParams() Params {
	return Params{
		TreeHeight:    11,
		BaseRadius:    5,
		ScatterRadius: 30,
		Gifts:         GiftCount,
		Ornaments:     OrnamentCount,
	}
}

// Instance is the immutable record of one rendered object.
type Instance struct {
	Scatter   math32.Vector3
	Assembled math32.Vector3
	// Rotation is an XYZ Euler seed.
	Rotation math32.Vector3
	Scale    float32
	Color    RGB
	Phase    float32
}

// Scatter returns a point on the sphere of the given radius, uniformly
// distributed over its surface.
func Scatter(rng *rand.Rand, radius float32) math32.Vector3 {
	theta := rng.Float64() * 2 * math.Pi
	phi := math.Acos(rng.Float64()*2 - 1)
	r := float64(radius)
	return math32.Vec3(
		float32(r*math.Sin(phi)*math.Cos(theta)),
		float32(r*math.Sin(phi)*math.Sin(theta)),
		float32(r*math.Cos(phi)),
	)
}

// treeY maps the normalized height t (0 at the apex) onto the tree.
func treeY(p Params, t float32) float32 {
	return (1-t)*p.TreeHeight - p.TreeHeight/2 + 2
}

func uniform(rng *rand.Rand) float32 {
	return rng.Float32()
}

// Gifts lays out the gift boxes. Samples are biased toward the base and the
// inside of the tree; the scatter is smaller and sunk downward.
func Gifts(rng *rand.Rand, p Params) []Instance {
	out := make([]Instance, p.Gifts)
	for i := range out {
		t := math32.Sqrt(uniform(rng))
		rMax := t * p.BaseRadius
		r := rMax * (0.5 + uniform(rng)*0.5)
		theta := uniform(rng) * 2 * math32.Pi

		scatter := Scatter(rng, p.ScatterRadius*0.7)
		scatter.Y -= 8

		out[i] = Instance{
			Assembled: math32.Vec3(r*math32.Cos(theta), treeY(p, t), r*math32.Sin(theta)),
			Scatter:   scatter,
			Rotation: math32.Vec3(
				uniform(rng)*math32.Pi,
				uniform(rng)*math32.Pi,
				uniform(rng)*math32.Pi,
			),
			Scale: 0.5 + uniform(rng)*0.7,
			Color: GiftPalette.Jittered(rng, 0.1),
			Phase: uniform(rng),
		}
	}
	return out
}

// Ornaments lays out the baubles on a golden-angle spiral whose radius grows
// linearly from the apex, with up to ±0.25 of radial jitter.
func Ornaments(rng *rand.Rand, p Params) []Instance {
	out := make([]Instance, p.Ornaments)
	n := float32(p.Ornaments)
	for i := range out {
		t := float32(i) / n
		r := t*p.BaseRadius + (uniform(rng)-0.5)*0.5
		theta := OrnamentAngle(i)

		out[i] = Instance{
			Assembled: math32.Vec3(r*math32.Cos(theta), treeY(p, t), r*math32.Sin(theta)),
			Scatter:   Scatter(rng, p.ScatterRadius),
			Scale:     0.2 + uniform(rng)*0.4,
			Color:     OrnamentPalette.Pick(rng),
			Phase:     uniform(rng) * math32.Pi,
		}
	}
	return out
}

// OrnamentAngle returns the spiral angle of ornament i.
func OrnamentAngle(i int) float32 {
	return float32(float64(i) * GoldenAngle)
}

// Colors extracts the color channel of an ensemble.
func Colors(instances []Instance) []RGB {
	out := make([]RGB, len(instances))
	for i, in := range instances {
		out[i] = in.Color
	}
	return out
}
