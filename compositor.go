package ink

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/ink/cache"
	"github.com/gogpu/ink/internal/blend"
)

// strokeTile is one stroke rendered in isolation, cropped to its bounds.
type strokeTile struct {
	origin Point // canvas position of the tile's top-left pixel
	pix    *Pixmap
}

// Compositor merges the document's visible layers bottom-to-top into the
// display surface, honoring each layer's opacity and blend mode. Repeated
// composite requests within one frame collapse into a single pass via the
// schedule guard.
type Compositor struct {
	mu      sync.Mutex
	doc     *Document
	raster  *Rasterizer
	brushes *BrushRegistry
	display *Pixmap

	// pending is the schedule-if-not-already-pending guard; at most one
	// full composite runs per display refresh tick.
	pending atomic.Bool

	// strokes caches isolated stroke renders for layer rebuilds. The
	// optimizer halves its capacity under memory pressure.
	strokes *cache.Cache[string, *strokeTile]

	log *slog.Logger
}

// NewCompositor creates a compositor over the document.
func NewCompositor(doc *Document, raster *Rasterizer, brushes *BrushRegistry, log *slog.Logger) *Compositor {
	if log == nil {
		log = Logger()
	}
	w, h := doc.Size()
	return &Compositor{
		doc:     doc,
		raster:  raster,
		brushes: brushes,
		display: NewPixmap(w, h),
		strokes: cache.New[string, *strokeTile](32),
		log:     log,
	}
}

// Display returns the composited display surface.
func (c *Compositor) Display() *Pixmap { return c.display }

// strokeCache exposes the rendered-stroke cache for capacity control.
func (c *Compositor) strokeCache() *cache.Cache[string, *strokeTile] { return c.strokes }

// Schedule requests a full composite on the next frame tick. It reports
// whether this call armed the guard; repeated requests within one frame
// collapse to a single composite.
func (c *Compositor) Schedule() bool {
	return c.pending.CompareAndSwap(false, true)
}

// CompositeIfScheduled runs a full composite only when one is pending.
// The frame tick calls this once per display refresh.
func (c *Compositor) CompositeIfScheduled() *Pixmap {
	if !c.pending.CompareAndSwap(true, false) {
		return c.display
	}
	return c.Composite()
}

// Composite merges every visible layer into the display surface and
// clears any pending schedule.
func (c *Compositor) Composite() *Pixmap {
	c.pending.Store(false)
	w, h := c.doc.Size()
	return c.compositeRegion(NewRect(Pt(0, 0), Pt(float64(w), float64(h))))
}

// CompositeDirty re-merges only the rasterizer's accumulated dirty
// region, reusing the rest of the display. An empty dirty region is a
// no-op.
func (c *Compositor) CompositeDirty() *Pixmap {
	dirty := c.raster.TakeDirty()
	if dirty.Empty() {
		return c.display
	}
	return c.compositeRegion(dirty)
}

func (c *Compositor) compositeRegion(region Rect) *Pixmap {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display.ClearRect(region)
	x0, y0, x1, y1 := c.display.clip(region)

	for _, layer := range c.doc.Layers() {
		if !layer.Visible || layer.Opacity <= 0 {
			continue
		}
		mergeLayer(c.display, layer.Surface(), layer.Mode.op(), layer.Opacity, x0, y0, x1, y1)
	}

	c.log.Debug("compositor: merged region",
		"x0", x0, "y0", y0, "x1", x1, "y1", y1)
	return c.display
}

// mergeLayer composites src over dst within the pixel window, scaling
// source alpha by the layer opacity.
func mergeLayer(dst, src *Pixmap, op blend.Op, opacity float64, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			s := src.at(x, y)
			if s.A == 0 {
				continue
			}
			s.A *= opacity
			dst.set(x, y, blend.Blend(s, dst.at(x, y), op))
		}
	}
}

// RebuildLayer re-renders a layer's surface from its stroke list, used
// after cancellation, undo, or stroke edits. Cached stroke tiles are
// blitted; uncached strokes are replayed and cached. Unknown ids report
// false.
func (c *Compositor) RebuildLayer(id string) bool {
	layer, ok := c.doc.Layer(id)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	surface := layer.Surface()
	surface.Clear()
	for _, s := range layer.Strokes() {
		tile, ok := c.strokes.Get(s.ID)
		if !ok {
			tile = c.renderTile(s)
			if tile == nil {
				continue
			}
			c.strokes.Set(s.ID, tile)
		}
		blitTile(surface, tile)
	}
	return true
}

// InvalidateStroke drops a stroke's cached tile, forcing a re-render on
// the next rebuild.
func (c *Compositor) InvalidateStroke(id string) { c.strokes.Delete(id) }

// renderTile replays one stroke in isolation and crops the result to the
// stroke's padded bounds. Strokes whose brush no longer exists render
// with the pencil.
func (c *Compositor) renderTile(s *Stroke) *strokeTile {
	if len(s.Points) == 0 {
		return nil
	}
	b, ok := c.brushes.Get(s.BrushID)
	if !ok {
		c.log.Warn("compositor: stroke references unknown brush", "brush", s.BrushID)
		b, _ = c.brushes.Get("builtin.pencil")
	}

	w, h := c.doc.Size()
	full := NewPixmap(w, h)
	c.raster.Replay(full, s, b)
	c.raster.TakeDirty() // replay bookkeeping stays local to the tile

	bounds := s.Bounds()
	x0, y0, x1, y1 := full.clip(bounds)
	if x1 <= x0 || y1 <= y0 {
		return nil
	}
	tile := NewPixmap(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		srcOff := full.img.PixOffset(x0, y)
		dstOff := tile.img.PixOffset(0, y-y0)
		copy(tile.img.Pix[dstOff:dstOff+(x1-x0)*4], full.img.Pix[srcOff:srcOff+(x1-x0)*4])
	}
	return &strokeTile{origin: Pt(float64(x0), float64(y0)), pix: tile}
}

// blitTile source-over composites a stroke tile onto the layer surface at
// its origin.
func blitTile(dst *Pixmap, tile *strokeTile) {
	ox, oy := int(tile.origin.X), int(tile.origin.Y)
	tw, th := tile.pix.Size()
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			s := tile.pix.at(x, y)
			if s.A == 0 {
				continue
			}
			dst.set(ox+x, oy+y, blend.Blend(s, dst.at(ox+x, oy+y), blend.SourceOver))
		}
	}
}
