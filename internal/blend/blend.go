// Package blend implements per-pixel compositing for the layer compositor,
// following the W3C Compositing and Blending Level 1 specification.
//
// All operators here are separable: they act on each color channel
// independently, on straight (non-premultiplied) float channels in [0, 1].
package blend

import "math"

// RGBA is a straight-alpha color with float channels in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Op is a compositing operator.
type Op int

// Operators. SourceOver is plain alpha compositing; the rest mix a
// separable blend function into source-over per the W3C formula.
const (
	SourceOver Op = iota
	Multiply
	Screen
	Overlay
	SoftLight
	HardLight
	ColorDodge
	ColorBurn
	Darken
	Lighten
)

// Blend composites src over dst using the operator. For an operator with a
// blend function B, the effective source channel is
//
//	(1 - Da)*Cs + Da*B(Cs, Cd)
//
// which is then alpha-composited source-over. SourceOver and unknown
// operators skip the mix step.
func Blend(src, dst RGBA, op Op) RGBA {
	fn := blendFunc(op)
	if fn != nil && dst.A > 0 {
		src = RGBA{
			R: (1-dst.A)*src.R + dst.A*fn(src.R, dst.R),
			G: (1-dst.A)*src.G + dst.A*fn(src.G, dst.G),
			B: (1-dst.A)*src.B + dst.A*fn(src.B, dst.B),
			A: src.A,
		}
	}
	return sourceOver(src, dst)
}

// sourceOver blends source over destination using straight-alpha
// compositing.
func sourceOver(src, dst RGBA) RGBA {
	srcA := src.A
	dstA := dst.A
	invSrcA := 1.0 - srcA

	outA := srcA + dstA*invSrcA
	if outA == 0 {
		return RGBA{}
	}

	return RGBA{
		R: (src.R*srcA + dst.R*dstA*invSrcA) / outA,
		G: (src.G*srcA + dst.G*dstA*invSrcA) / outA,
		B: (src.B*srcA + dst.B*dstA*invSrcA) / outA,
		A: outA,
	}
}

// blendFunc returns the per-channel blend function for op, or nil when the
// operator is plain source-over.
func blendFunc(op Op) func(s, d float64) float64 {
	switch op {
	case Multiply:
		return func(s, d float64) float64 { return s * d }
	case Screen:
		return screen
	case Overlay:
		// Overlay is HardLight with source and destination swapped.
		return func(s, d float64) float64 { return hardLight(d, s) }
	case SoftLight:
		return softLight
	case HardLight:
		return hardLight
	case ColorDodge:
		return colorDodge
	case ColorBurn:
		return colorBurn
	case Darken:
		return math.Min
	case Lighten:
		return math.Max
	default:
		return nil
	}
}

func screen(s, d float64) float64 {
	return s + d - s*d
}

func hardLight(s, d float64) float64 {
	if s <= 0.5 {
		return 2 * s * d
	}
	return screen(2*s-1, d)
}

func softLight(s, d float64) float64 {
	if s <= 0.5 {
		return d - (1-2*s)*d*(1-d)
	}
	var dd float64
	if d <= 0.25 {
		dd = ((16*d-12)*d + 4) * d
	} else {
		dd = math.Sqrt(d)
	}
	return d + (2*s-1)*(dd-d)
}

func colorDodge(s, d float64) float64 {
	if d == 0 {
		return 0
	}
	if s == 1 {
		return 1
	}
	return math.Min(1, d/(1-s))
}

func colorBurn(s, d float64) float64 {
	if d == 1 {
		return 1
	}
	if s == 0 {
		return 0
	}
	return 1 - math.Min(1, (1-d)/s)
}
