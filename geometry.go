package ink

import "math"

// perpendicularDistance returns the distance from p to the chord through
// a and b. When the chord is degenerate (a == b) it falls back to the
// point-to-point distance.
func perpendicularDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return p.Distance(a)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / length
}

// Simplify reduces a point sequence with recursive Douglas-Peucker line
// simplification, then re-inserts any removed point whose pressure differs
// from both retained neighbors by a combined delta above 0.3. Pressure
// spikes are perceptually important even when geometrically redundant.
//
// The result is ordered by timestamp. A tolerance <= 0 or fewer than three
// points returns the input unchanged.
func Simplify(points []Point, tolerance float64) []Point {
	if tolerance <= 0 || len(points) < 3 {
		return points
	}

	kept := make([]bool, len(points))
	douglasPeucker(points, 0, len(points)-1, tolerance, kept)

	// Pressure-change preservation: walk the removed points against their
	// immediate neighbors. Building the result in input order keeps it
	// sorted by timestamp, and the input is never written to.
	out := make([]Point, 0, len(points))
	for i, p := range points {
		if kept[i] {
			out = append(out, p)
			continue
		}
		prev := points[i-1]
		next := points[i+1]
		delta := math.Abs(p.Pressure-prev.Pressure) + math.Abs(p.Pressure-next.Pressure)
		if delta > 0.3 {
			out = append(out, p)
		}
	}
	return out
}

// douglasPeucker marks the endpoints of points[first:last+1] as kept and
// recursively retains the point of maximum perpendicular deviation from
// the chord while it exceeds tolerance.
func douglasPeucker(points []Point, first, last int, tolerance float64, kept []bool) {
	kept[first] = true
	kept[last] = true
	if last-first < 2 {
		return
	}

	maxDist := 0.0
	maxIdx := first
	for i := first + 1; i < last; i++ {
		if d := perpendicularDistance(points[i], points[first], points[last]); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= tolerance {
		return
	}
	douglasPeucker(points, first, maxIdx, tolerance, kept)
	douglasPeucker(points, maxIdx, last, tolerance, kept)
}

// Decimate reduces points to at most max+1 samples by fixed-stride
// sampling. The final point is always retained so the stroke keeps its
// true endpoint. max <= 0 or an already-small input returns the input.
func Decimate(points []Point, max int) []Point {
	if max <= 0 || len(points) <= max {
		return points
	}
	stride := float64(len(points)) / float64(max)
	out := make([]Point, 0, max+1)
	for i := 0.0; int(i) < len(points); i += stride {
		out = append(out, points[int(i)])
	}
	if last := points[len(points)-1]; out[len(out)-1].Timestamp != last.Timestamp {
		out = append(out, last)
	}
	return out
}

// CatmullRom evaluates the centripetal-free (uniform) Catmull-Rom spline
// through p1..p2 with p0 and p3 as neighbor controls, at t in [0, 1].
// Pressure and timestamp interpolate linearly between p1 and p2.
func CatmullRom(p0, p1, p2, p3 Point, t float64) Point {
	t2 := t * t
	t3 := t2 * t

	x := 0.5 * ((2 * p1.X) +
		(-p0.X+p2.X)*t +
		(2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 +
		(-p0.X+3*p1.X-3*p2.X+p3.X)*t3)
	y := 0.5 * ((2 * p1.Y) +
		(-p0.Y+p2.Y)*t +
		(2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 +
		(-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3)

	out := p1.Lerp(p2, t)
	out.X = x
	out.Y = y
	return out
}

// SmoothStroke fits a smooth path through the captured samples. factor in
// [0, 1] controls how strongly raw positions are pulled toward the
// Catmull-Rom fit; 0 returns the input unchanged. Endpoints never move.
func SmoothStroke(points []Point, factor float64) []Point {
	if factor <= 0 || len(points) < 3 {
		return points
	}
	factor = clampF(factor, 0, 1)

	out := make([]Point, len(points))
	copy(out, points)
	for i := 1; i < len(points)-1; i++ {
		p0 := points[maxInt(i-2, 0)]
		fit := CatmullRom(p0, points[i-1], points[i+1], points[minInt(i+2, len(points)-1)], 0.5)
		out[i].X = points[i].X + (fit.X-points[i].X)*factor
		out[i].Y = points[i].Y + (fit.Y-points[i].Y)*factor
	}
	return out
}

// QuadraticMidpoints converts a polyline into quadratic segment anchors the
// way canvas renderers draw smooth strokes: each returned triple is
// (control, endpoint) where endpoints are consecutive midpoints and the
// original samples act as controls. Used when replaying a frozen stroke.
func QuadraticMidpoints(points []Point) (controls, ends []Point) {
	if len(points) < 3 {
		return nil, nil
	}
	controls = make([]Point, 0, len(points)-2)
	ends = make([]Point, 0, len(points)-2)
	for i := 1; i < len(points)-1; i++ {
		controls = append(controls, points[i])
		ends = append(ends, points[i].Lerp(points[i+1], 0.5))
	}
	return controls, ends
}

// QuadraticPoint evaluates the quadratic Bézier from a to b with control
// c at t in [0, 1]. Pressure and timestamp interpolate linearly between
// the endpoints.
func QuadraticPoint(a, c, b Point, t float64) Point {
	u := 1 - t
	out := a.Lerp(b, t)
	out.X = u*u*a.X + 2*u*t*c.X + t*t*b.X
	out.Y = u*u*a.Y + 2*u*t*c.Y + t*t*b.Y
	return out
}

// PathLength returns the total polyline length of the samples.
func PathLength(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i-1].Distance(points[i])
	}
	return total
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
