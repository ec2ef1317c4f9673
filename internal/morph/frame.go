package morph

import (
	"cogentcore.org/core/math32"

	"github.com/ayusman/giftwrap/internal/layout"
)

// Frame is everything a renderer needs for one displayed frame.
// Matrices are column-major, one per instance. The Gifts and Baubles slices
// belong to the Scene and are overwritten by the next Step; renderers that
// keep a frame must copy them.
type Frame struct {
	Seq       uint64
	Elapsed   float32
	Assembled bool

	GiftProgress   float64
	BaubleProgress float64

	Gifts   []math32.Matrix4
	Baubles []math32.Matrix4
	Topper  math32.Matrix4
	// Tree is the group transform applied on top of every ensemble.
	Tree math32.Matrix4

	AutoRotateSpeed float32
}

// EnsembleColors is the once-per-session color channel of one ensemble.
type EnsembleColors struct {
	Name   string       `json:"name"`
	Colors []layout.RGB `json:"colors"`
}

// Renderer consumes frames. Init is called once with the colors before the
// first Render.
type Renderer interface {
	Init(colors []EnsembleColors) error
	Render(frame *Frame) error
}

// Translation returns the position encoded in a transform matrix.
func Translation(m math32.Matrix4) math32.Vector3 {
	return math32.Vec3(m[12], m[13], m[14])
}
