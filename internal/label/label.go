// Package label draws the short centered captions painted on page
// placeholders and error tiles.
//
// Text is measured with HarfBuzz shaping from go-text/typesetting and drawn
// with golang.org/x/image/font/opentype, both using the embedded Go Regular
// font.
package label

import (
	"bytes"
	"image"
	"image/color"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Renderer draws labels. The zero value is not usable; call New or use
// Default. Renderer is safe for concurrent use.
type Renderer struct {
	mu     sync.Mutex
	shaper shaping.HarfbuzzShaper
	gtFont *gtfont.Font
	otFont *opentype.Font
	faces  map[float64]font.Face
}

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
	defaultErr      error
)

// Default returns the shared Renderer for Go Regular.
func Default() (*Renderer, error) {
	defaultOnce.Do(func() {
		defaultRenderer, defaultErr = New(goregular.TTF)
	})
	return defaultRenderer, defaultErr
}

// New parses ttf for both shaping and drawing.
func New(ttf []byte) (*Renderer, error) {
	gtFace, err := gtfont.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return nil, err
	}
	otFont, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		gtFont: gtFace.Font,
		otFont: otFont,
		faces:  make(map[float64]font.Face),
	}, nil
}

// Measure returns the shaped advance width of text at size pixels.
func (r *Renderer) Measure(text string, size float64) float64 {
	if text == "" || size <= 0 {
		return 0
	}
	runes := []rune(text)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gtfont.NewFace(r.gtFont),
		Size:      fixed.Int26_6(size * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
	return float64(out.Advance) / 64
}

// face returns a cached opentype face. Must be called with mu held.
func (r *Renderer) face(size float64) (font.Face, error) {
	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.otFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	r.faces[size] = f
	return f, nil
}

// Draw paints text centered in box. Nothing is written outside the
// intersection of box and clip.
func (r *Renderer) Draw(dst draw.Image, box, clip image.Rectangle, text string, size float64, c color.Color) error {
	area := box.Intersect(clip)
	if text == "" || area.Empty() {
		return nil
	}
	width := r.Measure(text, size)

	r.mu.Lock()
	defer r.mu.Unlock()

	face, err := r.face(size)
	if err != nil {
		return err
	}
	m := face.Metrics()
	ascent, descent := float64(m.Ascent)/64, float64(m.Descent)/64

	x := float64(box.Min.X) + (float64(box.Dx())-width)/2
	y := float64(box.Min.Y) + (float64(box.Dy())+ascent-descent)/2

	d := &font.Drawer{
		Dst:  clipped{dst, area},
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(text)
	return nil
}

// clipped restricts writes to a rectangle of the underlying image.
type clipped struct {
	draw.Image
	r image.Rectangle
}

func (c clipped) Bounds() image.Rectangle { return c.Image.Bounds().Intersect(c.r) }

func (c clipped) Set(x, y int, col color.Color) {
	if image.Pt(x, y).In(c.r) {
		c.Image.Set(x, y, col)
	}
}
