package document

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Transform returns src scaled by scaleX and scaleY and rotated clockwise by
// rotation degrees, resampled with interp (draw.CatmullRom when nil). The
// result is translated so that its bounds start at the origin.
//
// Transform returns src itself when the transform is the identity.
func Transform(src *image.RGBA, scaleX, scaleY, rotation float64, interp draw.Interpolator) (*image.RGBA, error) {
	if !validScale(scaleX) || !validScale(scaleY) || math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return nil, ErrInvalidScale
	}
	if interp == nil {
		interp = draw.CatmullRom
	}

	sin, cos := rotationTerms(rotation)
	if sin == 0 && cos == 1 && scaleX == 1 && scaleY == 1 {
		return src, nil
	}

	sb := src.Bounds()
	w, h := float64(sb.Dx()), float64(sb.Dy())

	// Axis-aligned result: plain resampling is faster and exact.
	if sin == 0 && cos == 1 {
		dst := image.NewRGBA(image.Rect(0, 0, roundDim(w*scaleX), roundDim(h*scaleY)))
		interp.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
		return dst, nil
	}

	// Source point (x, y) maps to (a*x + b*y + c, d*x + e*y + f).
	a, b := scaleX*cos, -scaleY*sin
	d, e := scaleX*sin, scaleY*cos

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		x := a*p[0] + b*p[1]
		y := d*p[0] + e*p[1]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	dst := image.NewRGBA(image.Rect(0, 0, roundDim(maxX-minX), roundDim(maxY-minY)))
	s2d := f64.Aff3{
		a, b, -minX - a*float64(sb.Min.X) - b*float64(sb.Min.Y),
		d, e, -minY - d*float64(sb.Min.X) - e*float64(sb.Min.Y),
	}
	interp.Transform(dst, s2d, src, sb, draw.Src, nil)
	return dst, nil
}

// rotationTerms returns sin and cos of a clockwise rotation in degrees,
// snapped to exact values for multiples of 90.
func rotationTerms(deg float64) (sin, cos float64) {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	switch deg {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	rad := deg * math.Pi / 180
	return math.Sin(rad), math.Cos(rad)
}

func validScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0)
}

func roundDim(v float64) int {
	return max(int(math.Round(v)), 1)
}
