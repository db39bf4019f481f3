package ink

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/ink/cache"
	"github.com/gogpu/ink/internal/blend"
)

// RenderQuality is the rasterizer's cost tier, set by the performance
// controller. Lower tiers walk stroke segments more coarsely.
type RenderQuality int

// Quality tiers.
const (
	QualityHigh RenderQuality = iota
	QualityMedium
	QualityLow
)

// stampStep returns the segment-walk step as a fraction of stamp spacing.
// The walk is finer than the spacing so the gate, not the walk, controls
// stamp placement.
func (q RenderQuality) stampStep() float64 {
	switch q {
	case QualityLow:
		return 1.0
	case QualityMedium:
		return 0.5
	default:
		return 0.25
	}
}

// textureSize is the side of procedural stamp textures.
const textureSize = 64

// Rasterizer paints brush stamps onto layer surfaces and tracks the dirty
// region the compositor needs to re-merge. It holds only non-owning
// references to the surfaces it paints; ownership stays with the Document.
type Rasterizer struct {
	engine   *DynamicsEngine
	viewport Rect
	dirty    Rect
	scratch  *Pixmap

	// quality and texQuality are written by the performance sampler's
	// goroutine while the drawing path reads them, so both are atomic.
	quality    atomic.Int32
	texQuality atomic.Uint64

	// textures caches procedural stamp textures keyed by name. Owned
	// here; the optimizer shrinks it under memory pressure.
	textures *cache.Cache[string, *Pixmap]

	log *slog.Logger
}

// NewRasterizer creates a rasterizer for surfaces of width×height pixels.
// The viewport starts covering the whole canvas.
func NewRasterizer(engine *DynamicsEngine, width, height int, log *slog.Logger) *Rasterizer {
	if log == nil {
		log = Logger()
	}
	r := &Rasterizer{
		engine:   engine,
		viewport: NewRect(Pt(0, 0), Pt(float64(width), float64(height))),
		scratch:  NewPixmap(width, height),
		textures: cache.New[string, *Pixmap](16),
		log:      log,
	}
	r.texQuality.Store(math.Float64bits(1))
	return r
}

// SetViewport restricts painting and culling to the visible canvas region.
func (r *Rasterizer) SetViewport(v Rect) { r.viewport = v }

// SetQuality selects the cost tier.
func (r *Rasterizer) SetQuality(q RenderQuality) { r.quality.Store(int32(q)) }

// Quality reports the current cost tier.
func (r *Rasterizer) Quality() RenderQuality { return RenderQuality(r.quality.Load()) }

// SetTextureQuality scales stamp-texture fidelity, clamped to [0.5, 1].
func (r *Rasterizer) SetTextureQuality(q float64) {
	r.texQuality.Store(math.Float64bits(clampF(q, 0.5, 1)))
}

// TextureQuality reports the current stamp-texture fidelity.
func (r *Rasterizer) TextureQuality() float64 {
	return math.Float64frombits(r.texQuality.Load())
}

// Textures exposes the stamp-texture cache for capacity control.
func (r *Rasterizer) Textures() *cache.Cache[string, *Pixmap] { return r.textures }

// TakeDirty returns the accumulated dirty region and resets it.
func (r *Rasterizer) TakeDirty() Rect {
	d := r.dirty
	r.dirty = Rect{}
	return d
}

// PaintPoint places the opening stamp of a stroke at p. The gate's
// initial state guarantees the first point of a stroke always stamps.
func (r *Rasterizer) PaintPoint(dst Surface, s *Stroke, b *Brush, p Point, gate *StampGate) Rect {
	p = p.Normalize()
	d := r.engine.Compute(b, p, nil, 0)
	var painted Rect
	if gate.ShouldStamp(p, d.Spacing) {
		painted = r.stamp(dst, s, b, p, d)
	}
	r.dirty = r.dirty.Union(painted)
	return painted
}

// PaintSegment paints the stroke segment from→to incrementally: it walks
// the segment at a quality-dependent step, interpolating tapered stamps
// between the endpoint dynamics, and stamps wherever the spacing gate
// fires. It returns the segment's dirty rect, padded by half the stamp
// width.
func (r *Rasterizer) PaintSegment(dst Surface, s *Stroke, b *Brush, from, to Point, gate *StampGate) Rect {
	from = from.Normalize()
	to = to.Normalize()

	velocity := from.Velocity(to)
	dFrom := r.engine.Compute(b, from, nil, velocity)
	dTo := r.engine.Compute(b, to, &from, velocity)

	dist := from.Distance(to)
	if dist == 0 {
		return Rect{}
	}

	step := math.Max(dFrom.Spacing, 0.5) * r.Quality().stampStep()
	steps := maxInt(int(math.Ceil(dist/step)), 1)

	var painted Rect
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := from.Lerp(to, t)

		d := dTo
		d.Size = dFrom.Size + (dTo.Size-dFrom.Size)*t
		d.Opacity = dFrom.Opacity + (dTo.Opacity-dFrom.Opacity)*t
		d.Spacing = b.Settings.Spacing * d.Size

		if gate.ShouldStamp(p, d.Spacing) {
			painted = painted.Union(r.stamp(dst, s, b, p, d))
		}
	}

	r.dirty = r.dirty.Union(painted)
	return painted
}

// Replay re-renders a frozen stroke in full from its point list, used
// after layer changes or undo. The whole stroke is skipped when its
// padded bounds miss the viewport.
func (r *Rasterizer) Replay(dst Surface, s *Stroke, b *Brush) {
	if len(s.Points) == 0 {
		return
	}
	if !s.Bounds().Intersects(r.viewport) {
		return
	}

	pts := SmoothStroke(s.Points, s.Smoothing)

	var gate StampGate
	r.PaintPoint(dst, s, b, pts[0], &gate)
	if len(pts) < 3 {
		for i := 1; i < len(pts); i++ {
			r.PaintSegment(dst, s, b, pts[i-1], pts[i], &gate)
		}
		return
	}

	// Redraw through quadratic midpoint anchors, the curve the live path
	// approximates sample by sample, flattening each quadratic in four
	// steps.
	controls, ends := QuadraticMidpoints(pts)
	prev := pts[0]
	for i := range controls {
		a := prev
		for _, t := range [...]float64{0.25, 0.5, 0.75, 1} {
			q := QuadraticPoint(a, controls[i], ends[i], t)
			r.PaintSegment(dst, s, b, prev, q, &gate)
			prev = q
		}
	}
	r.PaintSegment(dst, s, b, prev, pts[len(pts)-1], &gate)
}

// stamp renders one brush impression centered at p plus the jitter and
// scatter offsets, and returns its dirty rect.
func (r *Rasterizer) stamp(dst Surface, s *Stroke, b *Brush, p Point, d Dynamics) Rect {
	cx := p.X + d.JitterX + d.ScatterX
	cy := p.Y + d.JitterY + d.ScatterY
	radius := d.Size / 2
	if radius <= 0 || d.Opacity <= 0 {
		return Rect{}
	}

	bounds := NewRect(Pt(cx-radius, cy-radius), Pt(cx+radius, cy+radius))
	if !bounds.Intersects(r.viewport) {
		return Rect{}
	}

	switch {
	case b.IsEraser:
		r.erase(dst, cx, cy, radius, d.Opacity)
	case s.BlendMode == BlendNormal:
		r.fillStamp(dst.Image(), b, cx, cy, radius, d.Opacity, s.Color)
	default:
		// Blended stamps render into the scratch surface first, then
		// composite through the stroke's operator.
		region := bounds.Pad(2)
		r.scratch.ClearRect(region)
		r.fillStamp(r.scratch.Image(), b, cx, cy, radius, d.Opacity, s.Color)
		r.compositeScratch(dst, region, s.BlendMode)
	}

	return bounds.Pad(1)
}

// fillStamp scans one anti-aliased circular stamp into img. Hard plain
// stamps use a solid color; softness and texture go through a rasterx
// color function, so the scanner resolves per-pixel color while keeping
// exact coverage at the rim.
func (r *Rasterizer) fillStamp(img *image.RGBA, b *Brush, cx, cy, radius, opacity float64, col Color) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())

	base := col.NRGBA()
	alpha := opacity * col.Alpha()
	hardness := b.Settings.Hardness

	if hardness >= 0.95 && b.Settings.Texture == "" {
		scanner.SetColor(rasterx.ApplyOpacity(base, alpha))
	} else {
		var tex *Pixmap
		if b.Settings.Texture != "" {
			tex = r.texture(b.Settings.Texture)
		}
		hardRadius := radius * hardness
		scanner.SetColor(rasterx.ColorFunc(func(x, y int) color.Color {
			a := alpha
			dist := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if dist > hardRadius && radius > hardRadius {
				t := (dist - hardRadius) / (radius - hardRadius)
				a *= (1 - t) * (1 - t)
			}
			if tex != nil {
				sample := tex.img.RGBAAt(((x%textureSize)+textureSize)%textureSize, ((y%textureSize)+textureSize)%textureSize)
				a *= float64(sample.A) / 255
			}
			return rasterx.ApplyOpacity(base, a)
		}))
	}

	filler := rasterx.NewFiller(w, h, scanner)
	rasterx.AddCircle(cx, cy, radius, filler)
	filler.Draw()
	filler.Clear()
}

// compositeScratch merges the scratch region onto dst through the blend
// operator.
func (r *Rasterizer) compositeScratch(dst Surface, region Rect, mode BlendMode) {
	op := mode.op()
	target := pixmapOf(dst)
	x0, y0, x1, y1 := target.clip(region)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			src := r.scratch.at(x, y)
			if src.A == 0 {
				continue
			}
			target.set(x, y, blend.Blend(src, target.at(x, y), op))
		}
	}
}

// erase reduces destination alpha inside the stamp circle
// (destination-out). Strength follows the computed stamp opacity.
func (r *Rasterizer) erase(dst Surface, cx, cy, radius, strength float64) {
	target := pixmapOf(dst)
	w, h := target.Size()
	x0 := maxInt(int(cx-radius), 0)
	y0 := maxInt(int(cy-radius), 0)
	x1 := minInt(int(cx+radius)+1, w)
	y1 := minInt(int(cy+radius)+1, h)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dist := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if dist > radius {
				continue
			}
			// Feather the last pixel of the rim.
			cover := clampF(radius-dist, 0, 1)
			c := target.at(x, y)
			c.A *= 1 - strength*cover
			target.set(x, y, c)
		}
	}
}

// texture returns the cached procedural texture for a name at the current
// texture quality, generating a tileable value-noise alpha tile on first
// use.
func (r *Rasterizer) texture(name string) *Pixmap {
	q := r.TextureQuality()
	key := fmt.Sprintf("%s@%.2f", name, q)
	return r.textures.GetOrCreate(key, func() *Pixmap {
		r.log.Debug("raster: generating stamp texture", "name", name, "quality", q)
		tex := generateTexture(name)
		if q < 1 {
			tex = downsampleTexture(tex, q)
		}
		return tex
	})
}

// downsampleTexture resamples the tile through a reduced intermediate, so
// lower quality trades grain detail for cheaper generation while keeping
// the tile size.
func downsampleTexture(tex *Pixmap, q float64) *Pixmap {
	side := maxInt(int(float64(textureSize)*q), 1)
	small := image.NewRGBA(image.Rect(0, 0, side, side))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), tex.img, tex.img.Bounds(), xdraw.Src, nil)

	out := NewPixmap(textureSize, textureSize)
	xdraw.ApproxBiLinear.Scale(out.img, out.img.Bounds(), small, small.Bounds(), xdraw.Src, nil)
	return out
}

// generateTexture builds a 64×64 alpha tile from hash noise seeded by the
// texture name, so the same name always yields the same grain.
func generateTexture(name string) *Pixmap {
	seed := uint32(2166136261)
	for i := 0; i < len(name); i++ {
		seed = (seed ^ uint32(name[i])) * 16777619
	}

	tex := NewPixmap(textureSize, textureSize)
	for y := 0; y < textureSize; y++ {
		for x := 0; x < textureSize; x++ {
			h := seed
			h ^= uint32(x) * 374761393
			h ^= uint32(y) * 668265263
			h = (h ^ (h >> 13)) * 1274126177
			h ^= h >> 16
			// Bias toward opaque so grain darkens rather than dissolves.
			a := 0.55 + 0.45*float64(h%1000)/999
			tex.set(x, y, blend.RGBA{R: 1, G: 1, B: 1, A: a})
		}
	}
	return tex
}

// pixmapOf adapts any Surface to Pixmap pixel access by wrapping its
// image buffer.
func pixmapOf(s Surface) *Pixmap {
	if p, ok := s.(*Pixmap); ok {
		return p
	}
	w, h := s.Size()
	return &Pixmap{width: w, height: h, img: s.Image()}
}
