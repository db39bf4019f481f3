package ink

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Stroke is one finished or in-progress pen mark: an ordered point
// sequence plus the resolved rendering parameters captured when it was
// drawn. Points are append-only during capture and frozen at completion.
type Stroke struct {
	ID        string    `json:"id"`
	Points    []Point   `json:"points"`
	BrushID   string    `json:"brushId"`
	Color     Color     `json:"color"`
	Size      float64   `json:"size"`
	Opacity   float64   `json:"opacity"`
	BlendMode BlendMode `json:"blendMode"`
	Smoothing float64   `json:"smoothing"`

	frozen bool
}

// Append adds a captured point. It is a no-op once the stroke is frozen.
func (s *Stroke) Append(p Point) {
	if s.frozen {
		return
	}
	s.Points = append(s.Points, p)
}

// Freeze marks the stroke complete. Frozen strokes reject further points.
func (s *Stroke) Freeze() { s.frozen = true }

// Frozen reports whether the stroke has been completed.
func (s *Stroke) Frozen() bool { return s.frozen }

// Bounds returns the stroke's bounding box padded by half its width, the
// region a renderer must consider dirty when the stroke changes.
func (s *Stroke) Bounds() Rect {
	if len(s.Points) == 0 {
		return Rect{}
	}
	// Accumulate min/max directly: single-point rects have no area, so
	// Union would treat them as identity and drop them.
	r := NewRect(s.Points[0], s.Points[0])
	for _, p := range s.Points[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r.Pad(s.Size / 2)
}

// Layer is one compositing plane: an ordered stroke list, its backing
// pixel surface, and the metadata the compositor reads. Layers are owned
// by the Document; external code mutates them only through Document
// methods.
type Layer struct {
	ID      string
	Name    string
	Opacity float64
	Mode    BlendMode
	Visible bool
	Locked  bool

	// Order is the stacking position; layers paint in ascending order.
	Order int

	strokes []*Stroke
	surface *Pixmap
}

// Strokes returns the layer's strokes in paint order. The slice is a
// copy; the strokes are shared.
func (l *Layer) Strokes() []*Stroke {
	return append([]*Stroke(nil), l.strokes...)
}

// Surface returns the layer's backing pixmap.
func (l *Layer) Surface() *Pixmap { return l.surface }

// Document is the in-memory model of the canvas: the layer stack and the
// strokes attached to it. It owns both exclusively. A document always
// holds at least one layer.
type Document struct {
	mu     sync.Mutex
	width  int
	height int
	layers []*Layer // sorted by Order ascending
	active string
	bus    *Bus
}

// NewDocument creates a document of the given pixel size with one
// background layer, which starts active.
func NewDocument(width, height int, bus *Bus) *Document {
	d := &Document{width: width, height: height, bus: bus}
	base := d.newLayer("Background", 0)
	d.layers = []*Layer{base}
	d.active = base.ID
	return d
}

// Size returns the document's pixel dimensions.
func (d *Document) Size() (w, h int) { return d.width, d.height }

func (d *Document) newLayer(name string, order int) *Layer {
	return &Layer{
		ID:      uuid.NewString(),
		Name:    name,
		Opacity: 1,
		Visible: true,
		Order:   order,
		surface: NewPixmap(d.width, d.height),
	}
}

// AddLayer creates a new empty layer above the current top and returns it.
func (d *Document) AddLayer(name string) *Layer {
	d.mu.Lock()
	top := d.layers[len(d.layers)-1].Order
	l := d.newLayer(name, top+1)
	d.layers = append(d.layers, l)
	d.mu.Unlock()

	d.bus.Publish(LayerChangedEvent{LayerID: l.ID})
	return l
}

// RemoveLayer deletes a layer. Removing the sole remaining layer, or an
// unknown id, is a no-op reporting false. If the active layer is removed
// the layer below it (or the new bottom) becomes active.
func (d *Document) RemoveLayer(id string) bool {
	d.mu.Lock()
	if len(d.layers) <= 1 {
		d.mu.Unlock()
		return false
	}
	idx := d.indexLocked(id)
	if idx < 0 {
		d.mu.Unlock()
		return false
	}
	d.layers = append(d.layers[:idx], d.layers[idx+1:]...)
	if d.active == id {
		d.active = d.layers[maxInt(idx-1, 0)].ID
	}
	d.mu.Unlock()

	d.bus.Publish(LayerChangedEvent{LayerID: id})
	return true
}

// Layer returns the layer with the given id, or false when unknown.
func (d *Document) Layer(id string) (*Layer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.indexLocked(id)
	if idx < 0 {
		return nil, false
	}
	return d.layers[idx], true
}

// Layers returns the layer stack bottom-to-top.
func (d *Document) Layers() []*Layer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Layer(nil), d.layers...)
}

// Active returns the active layer.
func (d *Document) Active() *Layer {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.indexLocked(d.active)
	return d.layers[idx]
}

// SetActive selects the drawing target layer. Unknown ids report false.
func (d *Document) SetActive(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexLocked(id) < 0 {
		return false
	}
	d.active = id
	return true
}

// SetVisible toggles a layer's visibility. Unknown ids report false.
func (d *Document) SetVisible(id string, visible bool) bool {
	return d.mutate(id, func(l *Layer) { l.Visible = visible })
}

// SetLocked toggles a layer's lock. Locked layers reject new strokes.
func (d *Document) SetLocked(id string, locked bool) bool {
	return d.mutate(id, func(l *Layer) { l.Locked = locked })
}

// SetOpacity sets a layer's compositing opacity, clamped to [0, 1].
func (d *Document) SetOpacity(id string, opacity float64) bool {
	return d.mutate(id, func(l *Layer) { l.Opacity = clampF(opacity, 0, 1) })
}

// SetBlendMode sets a layer's compositing mode.
func (d *Document) SetBlendMode(id string, mode BlendMode) bool {
	return d.mutate(id, func(l *Layer) { l.Mode = mode })
}

// Reorder moves a layer to a new stacking order and re-sorts the stack.
// Unknown ids report false.
func (d *Document) Reorder(id string, order int) bool {
	d.mu.Lock()
	idx := d.indexLocked(id)
	if idx < 0 {
		d.mu.Unlock()
		return false
	}
	d.layers[idx].Order = order
	sort.SliceStable(d.layers, func(i, j int) bool {
		return d.layers[i].Order < d.layers[j].Order
	})
	d.mu.Unlock()

	d.bus.Publish(LayerChangedEvent{LayerID: id})
	return true
}

// AttachStroke appends a frozen stroke to a layer. Unfrozen strokes,
// locked layers, and unknown ids report false.
func (d *Document) AttachStroke(layerID string, s *Stroke) bool {
	if s == nil || !s.Frozen() {
		return false
	}
	d.mu.Lock()
	idx := d.indexLocked(layerID)
	if idx < 0 || d.layers[idx].Locked {
		d.mu.Unlock()
		return false
	}
	d.layers[idx].strokes = append(d.layers[idx].strokes, s)
	d.mu.Unlock()
	return true
}

// mutate runs fn on a layer under the lock and publishes a layer change.
func (d *Document) mutate(id string, fn func(*Layer)) bool {
	d.mu.Lock()
	idx := d.indexLocked(id)
	if idx < 0 {
		d.mu.Unlock()
		return false
	}
	fn(d.layers[idx])
	d.mu.Unlock()

	d.bus.Publish(LayerChangedEvent{LayerID: id})
	return true
}

func (d *Document) indexLocked(id string) int {
	for i, l := range d.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// NewStroke creates an in-progress stroke capturing the current brush and
// color state.
func NewStroke(b *Brush, c Color) *Stroke {
	return &Stroke{
		ID:        uuid.NewString(),
		BrushID:   b.ID,
		Color:     c,
		Size:      b.Settings.Size,
		Opacity:   b.Settings.Opacity,
		BlendMode: b.BlendMode,
		Smoothing: b.Settings.Smoothing,
	}
}
