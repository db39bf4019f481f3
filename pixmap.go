package ink

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/gogpu/ink/internal/blend"
)

// Pixmap is the software Surface: a rectangular pixel buffer backed by a
// standard image.RGBA so scanline rasterizers can draw into it directly.
// Channels are stored premultiplied, per image.RGBA convention.
type Pixmap struct {
	width  int
	height int
	img    *image.RGBA
}

// NewPixmap creates a transparent pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size implements Surface.
func (p *Pixmap) Size() (w, h int) { return p.width, p.height }

// Image implements Surface.
func (p *Pixmap) Image() *image.RGBA { return p.img }

// Clear implements Surface.
func (p *Pixmap) Clear() {
	pix := p.img.Pix
	for i := range pix {
		pix[i] = 0
	}
}

// ClearRect zeroes only the pixels inside r, clipped to the pixmap.
func (p *Pixmap) ClearRect(r Rect) {
	x0, y0, x1, y1 := p.clip(r)
	for y := y0; y < y1; y++ {
		row := p.img.Pix[p.img.PixOffset(x0, y):p.img.PixOffset(x1, y)]
		for i := range row {
			row[i] = 0
		}
	}
}

// Fill floods the pixmap with a color.
func (p *Pixmap) Fill(c Color) {
	n := c.NRGBA()
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			p.img.SetRGBA(x, y, premultiply(n))
		}
	}
}

// at returns the straight-alpha float color at (x, y). Out-of-bounds
// reads are transparent.
func (p *Pixmap) at(x, y int) blend.RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return blend.RGBA{}
	}
	c := p.img.RGBAAt(x, y)
	if c.A == 0 {
		return blend.RGBA{}
	}
	a := float64(c.A) / 255
	return blend.RGBA{
		R: float64(c.R) / 255 / a,
		G: float64(c.G) / 255 / a,
		B: float64(c.B) / 255 / a,
		A: a,
	}
}

// set writes a straight-alpha float color at (x, y), premultiplying.
func (p *Pixmap) set(x, y int, c blend.RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	p.img.SetRGBA(x, y, color.RGBA{
		R: uint8(clampF(c.R*c.A, 0, 1)*255 + 0.5),
		G: uint8(clampF(c.G*c.A, 0, 1)*255 + 0.5),
		B: uint8(clampF(c.B*c.A, 0, 1)*255 + 0.5),
		A: uint8(clampF(c.A, 0, 1)*255 + 0.5),
	})
}

// clip converts a canvas Rect to integer pixel bounds inside the pixmap.
func (p *Pixmap) clip(r Rect) (x0, y0, x1, y1 int) {
	x0 = maxInt(int(r.Min.X), 0)
	y0 = maxInt(int(r.Min.Y), 0)
	x1 = minInt(int(r.Max.X)+1, p.width)
	y1 = minInt(int(r.Max.Y)+1, p.height)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return x0, y0, x1, y1
}

// Clone returns a deep copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	cp := NewPixmap(p.width, p.height)
	copy(cp.img.Pix, p.img.Pix)
	return cp
}

// SavePNG writes the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, p.img)
}

func premultiply(c color.NRGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}
