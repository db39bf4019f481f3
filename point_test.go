package ink

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Point
		want Point
	}{
		{
			name: "missing pressure defaults to mid",
			in:   Pt(3, 4),
			want: Point{X: 3, Y: 4, Pressure: 0.5},
		},
		{
			name: "nan pressure defaults to mid",
			in:   Point{Pressure: math.NaN()},
			want: Point{Pressure: 0.5},
		},
		{
			name: "overrange pressure clamps",
			in:   Point{Pressure: 1.4},
			want: Point{Pressure: 1},
		},
		{
			name: "valid pressure passes through",
			in:   Point{Pressure: 0.73},
			want: Point{Pressure: 0.73},
		},
		{
			name: "tilt clamps when present",
			in:   Point{Pressure: 0.5, TiltX: 1.5, TiltY: -2, HasTilt: true},
			want: Point{Pressure: 0.5, TiltX: 1, TiltY: -1, HasTilt: true},
		},
		{
			name: "tilt zeroed when absent",
			in:   Point{Pressure: 0.5, TiltX: 0.4, TiltY: 0.4},
			want: Point{Pressure: 0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDistanceAndLength(t *testing.T) {
	if got := Pt(0, 0).Distance(Pt(3, 4)); got != 5 {
		t.Errorf("Distance = %v, want 5", got)
	}
	if got := Pt(3, 4).Length(); got != 5 {
		t.Errorf("Length = %v, want 5", got)
	}
}

func TestLerpBlendsWholeSample(t *testing.T) {
	p := Point{X: 0, Y: 0, Pressure: 0.2, Timestamp: 0}
	q := Point{X: 10, Y: 20, Pressure: 0.8, Timestamp: 16, TiltX: 0.4, HasTilt: true}

	mid := p.Lerp(q, 0.5)
	if mid.X != 5 || mid.Y != 10 {
		t.Errorf("position = (%v, %v)", mid.X, mid.Y)
	}
	if math.Abs(mid.Pressure-0.5) > 1e-9 {
		t.Errorf("pressure = %v, want 0.5", mid.Pressure)
	}
	if mid.Timestamp != 8 {
		t.Errorf("timestamp = %d, want 8", mid.Timestamp)
	}
	if !mid.HasTilt || math.Abs(mid.TiltX-0.2) > 1e-9 {
		t.Errorf("tilt = %v, want 0.2", mid.TiltX)
	}

	start := p.Lerp(q, 0)
	if start.X != p.X || start.Y != p.Y || start.Pressure != p.Pressure {
		t.Errorf("Lerp(0) = %+v, want p", start)
	}
}

func TestVelocity(t *testing.T) {
	tests := []struct {
		name string
		p, q Point
		want float64
	}{
		{
			name: "unit speed",
			p:    Point{X: 0, Timestamp: 0},
			q:    Point{X: 16, Timestamp: 16},
			want: 100,
		},
		{
			name: "zero dt",
			p:    Point{X: 0, Timestamp: 8},
			q:    Point{X: 50, Timestamp: 8},
			want: 0,
		},
		{
			name: "reversed timestamps",
			p:    Point{X: 0, Timestamp: 16},
			q:    Point{X: 50, Timestamp: 0},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Velocity(tt.q); got != tt.want {
				t.Errorf("Velocity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVectorOps(t *testing.T) {
	p := Pt(2, 3)
	if got := p.Add(Pt(1, -1)); got.X != 3 || got.Y != 2 {
		t.Errorf("Add = (%v, %v)", got.X, got.Y)
	}
	if got := p.Sub(Pt(1, 1)); got.X != 1 || got.Y != 2 {
		t.Errorf("Sub = (%v, %v)", got.X, got.Y)
	}
	if got := p.Mul(2); got.X != 4 || got.Y != 6 {
		t.Errorf("Mul = (%v, %v)", got.X, got.Y)
	}
}

func TestRectOps(t *testing.T) {
	r := NewRect(Pt(10, 0), Pt(0, 10)) // corners normalize
	if r.Min.X != 0 || r.Max.X != 10 {
		t.Fatalf("NewRect not normalized: %+v", r)
	}
	if r.Width() != 10 || r.Height() != 10 {
		t.Errorf("size = %v×%v", r.Width(), r.Height())
	}

	if !r.Union(Rect{}).Contains(Pt(5, 5)) {
		t.Error("union with empty lost area")
	}
	u := r.Union(NewRect(Pt(20, 20), Pt(30, 30)))
	if u.Max.X != 30 || u.Max.Y != 30 {
		t.Errorf("union = %+v", u)
	}

	if !r.Intersects(NewRect(Pt(5, 5), Pt(15, 15))) {
		t.Error("overlapping rects reported disjoint")
	}
	if r.Intersects(NewRect(Pt(20, 20), Pt(30, 30))) {
		t.Error("disjoint rects reported overlapping")
	}
	if (Rect{}).Intersects(r) {
		t.Error("empty rect intersects")
	}

	p := r.Pad(2)
	if p.Min.X != -2 || p.Max.Y != 12 {
		t.Errorf("pad = %+v", p)
	}
}
