package morph

import (
	"cogentcore.org/core/math32"
)

// Topper targets and start position.
const (
	topperLift       = 2.8
	topperHiddenY    = 15
	topperStartY     = 10
	topperScale      = 1.5
	topperSpin       = 0.01
	topperSwayAmount = 0.1
)

// Topper is the star on top of the tree. It smooths its height and scale
// on their own instead of following a progress value.
type Topper struct {
	treeHeight float32
	rate       float64

	y     float32
	scale float32
	rotY  float32
}

// NewTopper creates a hidden topper above the tree.
func NewTopper(treeHeight float32, rate float64) *Topper {
	if !validRate(rate) {
		panic("morph: topper rate outside (0, 1]")
	}
	return &Topper{
		treeHeight: treeHeight,
		rate:       rate,
		y:          topperStartY,
	}
}

// SetRate changes the smoothing rate. Invalid rates are ignored.
func (t *Topper) SetRate(rate float64) bool {
	if !validRate(rate) {
		return false
	}
	t.rate = rate
	return true
}

// Rate returns the smoothing rate.
func (t *Topper) Rate() float64 { return t.rate }

// Targets returns the height and scale the topper eases toward.
func (t *Topper) Targets(assembled bool) (y, scale float32) {
	if assembled {
		return t.treeHeight/2 + topperLift, topperScale
	}
	return topperHiddenY, 0
}

// Advance moves one step toward the targets.
func (t *Topper) Advance(assembled bool) {
	ty, ts := t.Targets(assembled)
	t.y = math32.Lerp(t.y, ty, float32(t.rate))
	t.scale = math32.Lerp(t.scale, ts, float32(t.rate))
	t.rotY -= topperSpin
}

// Pose returns the current position, rotation and scale.
func (t *Topper) Pose(elapsed float32) (pos, rot math32.Vector3, scale float32) {
	pos = math32.Vec3(0, t.y, 0)
	rot = math32.Vec3(0, t.rotY, math32.Sin(elapsed)*topperSwayAmount)
	return pos, rot, t.scale
}

// Transform returns the topper matrix.
func (t *Topper) Transform(elapsed float32) math32.Matrix4 {
	pos, rot, s := t.Pose(elapsed)
	var m math32.Matrix4
	m.SetTransform(pos, math32.NewQuatEuler(rot), math32.Vec3(s, s, s))
	return m
}
