// Package preview draws the scene in a terminal. It is a morph.Renderer
// backed by tcell and projects every instance onto a character grid.
package preview

import (
	"fmt"
	"sync"

	"cogentcore.org/core/math32"
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/giftwrap/internal/morph"
)

// Canvas is the part of tcell.Screen the renderer draws on.
type Canvas interface {
	Size() (width, height int)
	Clear()
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Show()
}

// Glyphs for each kind of object.
const (
	GiftRune   = '■'
	BaubleRune = '●'
	TopperRune = '★'
)

// cellAspect is the height of a terminal cell relative to its width.
const cellAspect = 2

var (
	topperStyle = tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 215, 0)).Bold(true)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// Renderer projects frames orthographically from the front.
type Renderer struct {
	canvas Canvas
	span   float32

	mu      sync.Mutex
	gifts   []tcell.Style
	baubles []tcell.Style
	status  string
	depth   []float32
}

// New creates a renderer whose vertical view covers span world units
// centered on the origin.
func New(canvas Canvas, span float32) *Renderer {
	if span <= 0 {
		span = 20
	}
	return &Renderer{canvas: canvas, span: span}
}

// Init converts the ensemble colors to terminal styles.
func (r *Renderer) Init(colors []morph.EnsembleColors) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ens := range colors {
		styles := make([]tcell.Style, len(ens.Colors))
		for i, c := range ens.Colors {
			rr, g, b := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Clamped().RGB255()
			styles[i] = tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(rr), int32(g), int32(b)))
		}
		switch ens.Name {
		case morph.KindGifts.String():
			r.gifts = styles
		case morph.KindBaubles.String():
			r.baubles = styles
		default:
			return fmt.Errorf("unknown ensemble %q", ens.Name)
		}
	}
	return nil
}

// SetStatus sets the text shown on the bottom line.
func (r *Renderer) SetStatus(s string) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// Render draws f and shows it.
func (r *Renderer) Render(f *morph.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.canvas.Size()
	if w <= 0 || h <= 1 {
		return nil
	}
	rows := h - 1 // last line is the status bar
	if cap(r.depth) < w*rows {
		r.depth = make([]float32, w*rows)
	}
	r.depth = r.depth[:w*rows]
	for i := range r.depth {
		r.depth[i] = math32.Inf(-1)
	}

	r.canvas.Clear()
	p := projection{w: w, h: rows, scale: float32(rows) / r.span, tree: &f.Tree}

	for i := range f.Baubles {
		r.plot(p, f.Baubles[i], BaubleRune, styleAt(r.baubles, i))
	}
	for i := range f.Gifts {
		r.plot(p, f.Gifts[i], GiftRune, styleAt(r.gifts, i))
	}
	if scaleOf(f.Topper) > 0.1 {
		r.plot(p, f.Topper, TopperRune, topperStyle)
	}

	r.drawStatus(w, h-1, f.Assembled)
	r.canvas.Show()
	return nil
}

// scaleOf returns the length of the Y basis column.
func scaleOf(m math32.Matrix4) float32 {
	return math32.Vec3(m[4], m[5], m[6]).Length()
}

func styleAt(styles []tcell.Style, i int) tcell.Style {
	if i < len(styles) {
		return styles[i]
	}
	return tcell.StyleDefault
}

type projection struct {
	w, h  int
	scale float32
	tree  *math32.Matrix4
}

// cell maps an instance transform to a grid cell and its depth.
func (p projection) cell(m math32.Matrix4) (x, y int, z float32, ok bool) {
	pos := math32.Vec4(m[12], m[13], m[14], 1).MulMatrix4(p.tree)
	x = p.w/2 + int(math32.Round(pos.X*p.scale*cellAspect))
	y = p.h/2 - int(math32.Round(pos.Y*p.scale))
	if x < 0 || x >= p.w || y < 0 || y >= p.h {
		return 0, 0, 0, false
	}
	return x, y, pos.Z, true
}

func (r *Renderer) plot(p projection, m math32.Matrix4, ch rune, style tcell.Style) {
	x, y, z, ok := p.cell(m)
	if !ok {
		return
	}
	i := y*p.w + x
	if z < r.depth[i] {
		return
	}
	r.depth[i] = z
	r.canvas.SetContent(x, y, ch, nil, style)
}

func (r *Renderer) drawStatus(w, y int, assembled bool) {
	label := "scattered"
	if assembled {
		label = "assembled"
	}
	text := []rune(fmt.Sprintf(" %s | %s | space: toggle  g: gestures  q: quit ", label, r.status))
	for x := 0; x < w; x++ {
		ch := ' '
		if x < len(text) {
			ch = text[x]
		}
		r.canvas.SetContent(x, y, ch, nil, statusStyle)
	}
}
