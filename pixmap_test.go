package ink

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/ink/internal/blend"
)

func TestPixmapRoundTrip(t *testing.T) {
	p := NewPixmap(8, 8)
	if w, h := p.Size(); w != 8 || h != 8 {
		t.Fatalf("size = %dx%d", w, h)
	}

	in := blend.RGBA{R: 0.2, G: 0.4, B: 0.8, A: 0.5}
	p.set(3, 4, in)
	got := p.at(3, 4)
	if math.Abs(got.A-in.A) > 0.01 {
		t.Errorf("alpha = %v, want %v", got.A, in.A)
	}
	if math.Abs(got.B-in.B) > 0.02 {
		t.Errorf("blue = %v, want %v (straight alpha preserved)", got.B, in.B)
	}

	// Out-of-bounds access is transparent and silent.
	p.set(-1, 0, in)
	p.set(8, 8, in)
	if p.at(-1, 0).A != 0 || p.at(100, 100).A != 0 {
		t.Error("out-of-bounds read not transparent")
	}
}

func TestPixmapClearRect(t *testing.T) {
	p := NewPixmap(16, 16)
	p.Fill(MustHex("#ff0000"))

	p.ClearRect(NewRect(Pt(4, 4), Pt(8, 8)))
	if p.at(6, 6).A != 0 {
		t.Error("cleared pixel still set")
	}
	if p.at(12, 12).A == 0 {
		t.Error("pixel outside the cleared rect lost")
	}

	p.Clear()
	if p.at(12, 12).A != 0 {
		t.Error("full clear left pixels")
	}
}

func TestPixmapCloneIsDeep(t *testing.T) {
	p := NewPixmap(8, 8)
	p.Fill(MustHex("#00ff00"))

	c := p.Clone()
	p.Clear()
	if c.at(4, 4).A == 0 {
		t.Error("clone shares the original's buffer")
	}
}

func TestPixmapSavePNG(t *testing.T) {
	p := NewPixmap(4, 4)
	p.Fill(MustHex("#112233"))

	path := filepath.Join(t.TempDir(), "out.png")
	if err := p.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Errorf("png not written: %v", err)
	}
}
