package ink

import "math"

// Point is one normalized input sample on the canvas: a position with the
// pen state that produced it. Positions are in canvas units (the input
// adaptation layer has already applied the screen-to-canvas transform).
//
// Points are immutable by convention: smoothing and prediction produce new
// Points rather than mutating existing ones.
type Point struct {
	X, Y float64

	// Pressure is in [0, 1]. A negative value marks the sample as coming
	// from a device without pressure support; Normalize resolves it.
	Pressure float64

	// TiltX and TiltY are the pen tilt components in [-1, 1].
	// They are meaningful only when HasTilt is true.
	TiltX, TiltY float64
	HasTilt      bool

	// Timestamp is the sample time in milliseconds. Monotonic per stroke.
	Timestamp int64
}

// Pt is a convenience constructor for a position-only sample.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y, Pressure: -1}
}

// Normalize resolves optional fields so downstream stages can assume a
// fully-populated sample: missing pressure (negative or NaN) becomes 0.5,
// present pressure is clamped to [0, 1], and tilt components are clamped
// to [-1, 1]. This is the single defaulting step at the pipeline entry.
func (p Point) Normalize() Point {
	switch {
	case math.IsNaN(p.Pressure), p.Pressure < 0:
		p.Pressure = 0.5
	case p.Pressure > 1:
		p.Pressure = 1
	}
	if p.HasTilt {
		p.TiltX = clampF(p.TiltX, -1, 1)
		p.TiltY = clampF(p.TiltY, -1, 1)
	} else {
		p.TiltX, p.TiltY = 0, 0
	}
	return p
}

// Add returns the sample translated by the vector (q.X, q.Y).
func (p Point) Add(q Point) Point {
	p.X += q.X
	p.Y += q.Y
	return p
}

// Sub returns the position difference p-q as a position-only point.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the position scaled by a scalar.
func (p Point) Mul(s float64) Point {
	p.X *= s
	p.Y *= s
	return p
}

// Length returns the length of the position treated as a vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance between two sample positions.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Lerp interpolates the full sample between p and q: position, pressure,
// tilt, and timestamp all blend linearly. t=0 returns p, t=1 returns q.
func (p Point) Lerp(q Point, t float64) Point {
	out := Point{
		X:         p.X + (q.X-p.X)*t,
		Y:         p.Y + (q.Y-p.Y)*t,
		Pressure:  p.Pressure + (q.Pressure-p.Pressure)*t,
		Timestamp: p.Timestamp + int64(float64(q.Timestamp-p.Timestamp)*t),
	}
	if p.HasTilt || q.HasTilt {
		out.HasTilt = true
		out.TiltX = p.TiltX + (q.TiltX-p.TiltX)*t
		out.TiltY = p.TiltY + (q.TiltY-p.TiltY)*t
	}
	return out
}

// Velocity returns the speed from p to q in canvas units per millisecond,
// scaled by 100 so typical drag speeds land in a useful 0..400 range.
// Zero or reversed timestamps yield 0.
func (p Point) Velocity(q Point) float64 {
	dt := q.Timestamp - p.Timestamp
	if dt <= 0 {
		return 0
	}
	return p.Distance(q) / float64(dt) * 100
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
