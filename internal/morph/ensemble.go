// Package morph animates the instanced ensembles between their scattered
// and assembled layouts.
package morph

import (
	"fmt"

	"cogentcore.org/core/math32"

	"github.com/ayusman/giftwrap/internal/layout"
)

// SettleEpsilon is the distance from 0 or 1 at which progress counts as settled.
const SettleEpsilon = 1e-3

// Kind selects the per-instance motion of an ensemble.
type Kind int

const (
	// KindGifts tumbles boxes on X and Z and spins them slowly on Y.
	KindGifts Kind = iota
	// KindBaubles rolls spheres on X and spins them on Y.
	KindBaubles
)

func (k Kind) String() string {
	switch k {
	case KindGifts:
		return "gifts"
	case KindBaubles:
		return "baubles"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// motion holds the idle animation constants of a kind.
type motion struct {
	bobSpeed        float32
	bobAmplitude    float32
	bobFade         float64
	tumbleThreshold float64
}

var motions = map[Kind]motion{
	KindGifts:   {bobSpeed: 0.5, bobAmplitude: 0.03, bobFade: 0.1, tumbleThreshold: 0.9},
	KindBaubles: {bobSpeed: 1, bobAmplitude: 0.05, bobFade: 0.01, tumbleThreshold: 0.99},
}

// Ease maps linear progress onto a smoothstep curve.
func Ease(p float64) float64 {
	return p * p * (3 - 2*p)
}

// Ensemble is one instanced population driven by a single progress value.
type Ensemble struct {
	kind      Kind
	instances []layout.Instance
	motion    motion

	rate     float64
	progress float64

	// tumble only advances while progress is below the tumble threshold.
	tumble float32
}

// NewEnsemble creates an ensemble settled at the given state. It panics if
// rate is outside (0, 1] or kind is unknown.
func NewEnsemble(kind Kind, instances []layout.Instance, rate float64, assembled bool) *Ensemble {
	m, ok := motions[kind]
	if !ok {
		panic(fmt.Sprintf("morph: unknown ensemble kind %d", kind))
	}
	if !validRate(rate) {
		panic(fmt.Sprintf("morph: %s rate %v outside (0, 1]", kind, rate))
	}
	e := &Ensemble{
		kind:      kind,
		instances: instances,
		motion:    m,
		rate:      rate,
	}
	if assembled {
		e.progress = 1
	}
	return e
}

func validRate(rate float64) bool {
	return rate > 0 && rate <= 1
}

// Kind returns the ensemble kind.
func (e *Ensemble) Kind() Kind { return e.kind }

// Len returns the number of instances.
func (e *Ensemble) Len() int { return len(e.instances) }

// Progress returns the current morph progress in [0, 1].
func (e *Ensemble) Progress() float64 { return e.progress }

// Rate returns the smoothing rate.
func (e *Ensemble) Rate() float64 { return e.rate }

// SetRate changes the smoothing rate. Invalid rates are ignored.
func (e *Ensemble) SetRate(rate float64) bool {
	if !validRate(rate) {
		return false
	}
	e.rate = rate
	return true
}

// Settled reports whether progress is within SettleEpsilon of 0 or 1.
func (e *Ensemble) Settled() bool {
	return e.progress <= SettleEpsilon || e.progress >= 1-SettleEpsilon
}

// Tumbling reports whether the off-axis rotation is still running.
func (e *Ensemble) Tumbling() bool {
	return e.progress < e.motion.tumbleThreshold
}

// Advance moves progress one step toward the target and runs the tumble
// clock for delta seconds if still tumbling.
func (e *Ensemble) Advance(assembled bool, delta float32) {
	target := 0.0
	if assembled {
		target = 1
	}
	e.progress += (target - e.progress) * e.rate
	e.progress = min(max(e.progress, 0), 1)

	if e.Tumbling() {
		e.tumble += delta
	}
}

// bobFactor fades the idle bob out near both endpoints.
func (e *Ensemble) bobFactor() float32 {
	edge := min(e.progress, 1-e.progress)
	return float32(min(max(edge/e.motion.bobFade, 0), 1))
}

// Pose returns position, Euler rotation and uniform scale of instance i at
// the current progress.
func (e *Ensemble) Pose(i int, elapsed float32) (pos, rot math32.Vector3, scale float32) {
	in := &e.instances[i]
	m := e.motion

	pos = in.Scatter.Lerp(in.Assembled, float32(Ease(e.progress)))
	pos.Y += math32.Sin(elapsed*m.bobSpeed+in.Phase) * m.bobAmplitude * e.bobFactor()

	switch e.kind {
	case KindGifts:
		rot = math32.Vec3(
			in.Rotation.X+e.tumble*0.2,
			in.Rotation.Y+elapsed*0.1,
			in.Rotation.Z+e.tumble*0.2,
		)
	case KindBaubles:
		rot = math32.Vec3(e.tumble*0.5, in.Phase+elapsed*0.5, 0)
	}
	return pos, rot, in.Scale
}

// Transforms writes the instance matrices into dst, growing it if needed,
// and returns it.
func (e *Ensemble) Transforms(dst []math32.Matrix4, elapsed float32) []math32.Matrix4 {
	if cap(dst) < len(e.instances) {
		dst = make([]math32.Matrix4, len(e.instances))
	}
	dst = dst[:len(e.instances)]
	for i := range e.instances {
		pos, rot, s := e.Pose(i, elapsed)
		dst[i].SetTransform(pos, math32.NewQuatEuler(rot), math32.Vec3(s, s, s))
	}
	return dst
}

// Colors returns the per-instance colors.
func (e *Ensemble) Colors() []layout.RGB {
	return layout.Colors(e.instances)
}
