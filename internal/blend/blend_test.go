package blend

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < epsilon }

func TestSourceOver(t *testing.T) {
	tests := []struct {
		name     string
		src, dst RGBA
		want     RGBA
	}{
		{
			name: "opaque source wins",
			src:  RGBA{R: 1, A: 1},
			dst:  RGBA{B: 1, A: 1},
			want: RGBA{R: 1, A: 1},
		},
		{
			name: "transparent source keeps destination",
			src:  RGBA{R: 1, A: 0},
			dst:  RGBA{B: 1, A: 1},
			want: RGBA{B: 1, A: 1},
		},
		{
			name: "half over opaque mixes",
			src:  RGBA{R: 1, A: 0.5},
			dst:  RGBA{B: 1, A: 1},
			want: RGBA{R: 0.5, B: 0.5, A: 1},
		},
		{
			name: "both transparent",
			src:  RGBA{},
			dst:  RGBA{},
			want: RGBA{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Blend(tt.src, tt.dst, SourceOver)
			if !near(got.R, tt.want.R) || !near(got.G, tt.want.G) ||
				!near(got.B, tt.want.B) || !near(got.A, tt.want.A) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSourceOverAlphaAccumulates(t *testing.T) {
	got := Blend(RGBA{R: 1, A: 0.5}, RGBA{R: 1, A: 0.5}, SourceOver)
	if !near(got.A, 0.75) {
		t.Errorf("alpha = %v, want 0.75", got.A)
	}
}

// Blend functions on opaque channels, checked against the W3C separable
// formulas.
func TestBlendFunctions(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		s, d float64
		want float64
	}{
		{"multiply", Multiply, 0.5, 0.5, 0.25},
		{"multiply by one", Multiply, 1, 0.3, 0.3},
		{"screen", Screen, 0.5, 0.5, 0.75},
		{"screen with black", Screen, 0, 0.3, 0.3},
		{"overlay dark", Overlay, 0.5, 0.25, 0.25},
		{"overlay light", Overlay, 0.25, 0.75, 0.625},
		{"hard light low source", HardLight, 0.25, 0.5, 0.25},
		{"hard light high source", HardLight, 0.75, 0.5, 0.75},
		{"soft light low", SoftLight, 0.25, 0.5, 0.375},
		{"soft light neutral", SoftLight, 0.5, 0.7, 0.7},
		{"color dodge", ColorDodge, 0.5, 0.25, 0.5},
		{"color dodge black dst", ColorDodge, 0.8, 0, 0},
		{"color dodge white src", ColorDodge, 1, 0.5, 1},
		{"color burn", ColorBurn, 0.5, 0.75, 0.5},
		{"color burn white dst", ColorBurn, 0.3, 1, 1},
		{"color burn black src", ColorBurn, 0, 0.5, 0},
		{"darken", Darken, 0.3, 0.7, 0.3},
		{"lighten", Lighten, 0.3, 0.7, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := RGBA{R: tt.s, G: tt.s, B: tt.s, A: 1}
			dst := RGBA{R: tt.d, G: tt.d, B: tt.d, A: 1}
			got := Blend(src, dst, tt.op)
			if !near(got.R, tt.want) {
				t.Errorf("R = %v, want %v", got.R, tt.want)
			}
		})
	}
}

// Against a transparent destination every operator degrades to plain
// source-over, so stamps on empty layers keep their color.
func TestBlendOnTransparentDestination(t *testing.T) {
	src := RGBA{R: 0.8, G: 0.2, B: 0.4, A: 1}
	for _, op := range []Op{Multiply, Screen, Overlay, SoftLight, HardLight, ColorDodge, ColorBurn, Darken, Lighten} {
		got := Blend(src, RGBA{}, op)
		if !near(got.R, src.R) || !near(got.A, 1) {
			t.Errorf("op %d on transparent dst = %+v, want source", op, got)
		}
	}
}

func TestBlendSemiTransparentDestinationWeighting(t *testing.T) {
	// Da = 0.5: the blended channel is halfway between plain source and
	// the full blend result, per (1-Da)*Cs + Da*B(Cs,Cd).
	src := RGBA{R: 0.5, A: 1}
	dst := RGBA{R: 0.5, A: 0.5}
	got := Blend(src, dst, Multiply)
	if !near(got.R, (0.5*0.5 + 0.5*0.25)) {
		t.Errorf("R = %v, want 0.375", got.R)
	}
}
