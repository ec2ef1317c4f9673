package morph

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"cogentcore.org/core/math32"

	"github.com/ayusman/giftwrap/internal/assembly"
	"github.com/ayusman/giftwrap/internal/layout"
)

// Rates are the smoothing factors per ensemble. They are tuning knobs, not
// invariants; each must be in (0, 1].
type Rates struct {
	Gifts   float64 `toml:"gift_rate" json:"giftRate"`
	Baubles float64 `toml:"bauble_rate" json:"baubleRate"`
	Topper  float64 `toml:"topper_rate" json:"topperRate"`
}

// BaseRate is the bauble rate; gifts run at 60% of it.
const BaseRate = 0.08

// DefaultRates returns the standard pacing.
func DefaultRates() Rates {
	return Rates{
		Gifts:   BaseRate * 0.6,
		Baubles: BaseRate,
		Topper:  0.04,
	}
}

// Validate checks every rate is in (0, 1].
func (r Rates) Validate() error {
	for name, v := range map[string]float64{"gift": r.Gifts, "bauble": r.Baubles, "topper": r.Topper} {
		if !validRate(v) {
			return fmt.Errorf("%s rate %v outside (0, 1]", name, v)
		}
	}
	return nil
}

// Tree group placement and spin.
const (
	treeOffsetY = -2
	treeSpin    = 0.001
)

// Auto-rotate speeds handed to the renderer.
const (
	AutoRotateAssembled = 0.5
	AutoRotateScattered = 0.1
)

// Scene owns every ensemble and advances them together from one read of
// the assembly state.
type Scene struct {
	mu sync.Mutex

	state   *assembly.State
	gifts   *Ensemble
	baubles *Ensemble
	topper  *Topper

	// Matrix buffers reused by every Step.
	giftBuf   []math32.Matrix4
	baubleBuf []math32.Matrix4

	treeRotY    float32
	lastElapsed float32
	started     bool
	seq         uint64
}

// NewScene lays out both ensembles with rng and settles them at the
// current state.
func NewScene(state *assembly.State, params layout.Params, rates Rates, rng *rand.Rand) *Scene {
	if state == nil {
		panic("morph: nil assembly state")
	}
	if err := rates.Validate(); err != nil {
		panic("morph: " + err.Error())
	}

	assembled := state.Assembled()
	return &Scene{
		state:   state,
		gifts:   NewEnsemble(KindGifts, layout.Gifts(rng, params), rates.Gifts, assembled),
		baubles: NewEnsemble(KindBaubles, layout.Ornaments(rng, params), rates.Baubles, assembled),
		topper:  NewTopper(params.TreeHeight, rates.Topper),
	}
}

// Gifts returns the gift ensemble.
func (s *Scene) Gifts() *Ensemble { return s.gifts }

// Baubles returns the ornament ensemble.
func (s *Scene) Baubles() *Ensemble { return s.baubles }

// Topper returns the topper.
func (s *Scene) Topper() *Topper { return s.topper }

// Rates returns the current smoothing rates.
func (s *Scene) Rates() Rates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Rates{
		Gifts:   s.gifts.Rate(),
		Baubles: s.baubles.Rate(),
		Topper:  s.topper.Rate(),
	}
}

// SetRates applies new rates from the next step on.
func (s *Scene) SetRates(r Rates) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gifts.SetRate(r.Gifts)
	s.baubles.SetRate(r.Baubles)
	s.topper.SetRate(r.Topper)
	return nil
}

// Colors returns the per-instance colors of every ensemble.
func (s *Scene) Colors() []EnsembleColors {
	return []EnsembleColors{
		{Name: s.gifts.Kind().String(), Colors: s.gifts.Colors()},
		{Name: s.baubles.Kind().String(), Colors: s.baubles.Colors()},
	}
}

// Step advances every ensemble by one frame. elapsed is the time in seconds
// since the animation began; it must not decrease.
func (s *Scene) Step(elapsed float32) *Frame {
	assembled := s.state.Assembled()

	s.mu.Lock()
	defer s.mu.Unlock()

	delta := float32(0)
	if s.started {
		delta = max(elapsed-s.lastElapsed, 0)
	}
	s.lastElapsed = elapsed
	s.started = true
	s.seq++

	s.gifts.Advance(assembled, delta)
	s.baubles.Advance(assembled, delta)
	s.topper.Advance(assembled)
	s.treeRotY += treeSpin

	s.giftBuf = s.gifts.Transforms(s.giftBuf, elapsed)
	s.baubleBuf = s.baubles.Transforms(s.baubleBuf, elapsed)

	f := &Frame{
		Seq:            s.seq,
		Elapsed:        elapsed,
		Assembled:      assembled,
		GiftProgress:   s.gifts.Progress(),
		BaubleProgress: s.baubles.Progress(),
		Gifts:          s.giftBuf,
		Baubles:        s.baubleBuf,
		Topper:         s.topper.Transform(elapsed),
	}
	f.Tree.SetTransform(
		math32.Vec3(0, treeOffsetY, 0),
		math32.NewQuatEuler(math32.Vec3(0, s.treeRotY, 0)),
		math32.Vec3(1, 1, 1),
	)
	f.AutoRotateSpeed = AutoRotateScattered
	if assembled {
		f.AutoRotateSpeed = AutoRotateAssembled
	}
	return f
}
