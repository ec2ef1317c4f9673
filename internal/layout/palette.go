package layout

import (
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a linear 0..1 color triple as consumed by the renderer.
type RGB struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

func fromColorful(c colorful.Color) RGB {
	c = c.Clamped()
	return RGB{R: float32(c.R), G: float32(c.G), B: float32(c.B)}
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Clamped().Hex()
}

// Palette is a fixed set of colors to draw instances from.
type Palette []colorful.Color

// MustPalette parses hex colors and panics on bad input.
func MustPalette(hexes ...string) Palette {
	p := make(Palette, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic("layout: bad palette color " + h)
		}
		p[i] = c
	}
	return p
}

// Named palette colors.
const (
	Ruby         = "#a00000"
	EmeraldDeep  = "#104030"
	EmeraldLight = "#206040"
	Gold         = "#cda434"
	Silver       = "#a9a9a9"
	RoyalBlue    = "#002060"
	DeepPurple   = "#400060"
)

var (
	// GiftPalette colors the wrapping paper.
	GiftPalette = MustPalette(Ruby, EmeraldDeep, Gold, RoyalBlue, DeepPurple)
	// OrnamentPalette colors the baubles.
	OrnamentPalette = MustPalette(Gold, Ruby, EmeraldLight, Silver, RoyalBlue)
)

// Pick returns a uniformly random palette entry.
func (p Palette) Pick(rng *rand.Rand) RGB {
	return fromColorful(p[rng.IntN(len(p))])
}

// Jittered picks a color and offsets its saturation and lightness by up to
// ±spread/2 each.
func (p Palette) Jittered(rng *rand.Rand, spread float64) RGB {
	c := p[rng.IntN(len(p))]
	h, s, l := c.Hsl()
	s = clamp01(s + (rng.Float64()-0.5)*spread)
	l = clamp01(l + (rng.Float64()-0.5)*spread)
	return fromColorful(colorful.Hsl(h, s, l))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
