package ink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// BrushCategory groups brushes by the kind of mark they make.
type BrushCategory int

// Brush categories.
const (
	CategoryPencil BrushCategory = iota
	CategoryInk
	CategoryPaint
	CategoryAirbrush
	CategoryMarker
	CategoryTexture
	CategoryEraser
)

var categoryNames = map[BrushCategory]string{
	CategoryPencil:   "pencil",
	CategoryInk:      "ink",
	CategoryPaint:    "paint",
	CategoryAirbrush: "airbrush",
	CategoryMarker:   "marker",
	CategoryTexture:  "texture",
	CategoryEraser:   "eraser",
}

// String returns the category's wire name.
func (c BrushCategory) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "pencil"
}

// MarshalText implements encoding.TextMarshaler.
func (c BrushCategory) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names map to
// pencil.
func (c *BrushCategory) UnmarshalText(text []byte) error {
	name := string(text)
	for cat, s := range categoryNames {
		if s == name {
			*c = cat
			return nil
		}
	}
	*c = CategoryPencil
	return nil
}

// PressureCurve is a cubic Bézier response curve over pressure: four
// control values c0..c3 with domain and range [0, 1]. Curves with fewer
// than four control values pass pressure through unmodified.
type PressureCurve []float64

// LinearPressure is the identity-like cubic curve.
var LinearPressure = PressureCurve{0, 0, 1, 1}

// Apply maps raw pressure t through the curve:
//
//	(1-t)³c0 + 3(1-t)²t·c1 + 3(1-t)t²·c2 + t³c3
//
// Control values are clamped to [0, 1] before evaluation.
func (pc PressureCurve) Apply(t float64) float64 {
	if len(pc) < 4 {
		return t
	}
	t = clampF(t, 0, 1)
	c0 := clampF(pc[0], 0, 1)
	c1 := clampF(pc[1], 0, 1)
	c2 := clampF(pc[2], 0, 1)
	c3 := clampF(pc[3], 0, 1)

	u := 1 - t
	return u*u*u*c0 + 3*u*u*t*c1 + 3*u*t*t*c2 + t*t*t*c3
}

// BrushSettings is the tunable part of a brush definition. Sizes are in
// canvas units; every other field is a unitless factor in [0, 1] except
// Spacing, which is relative to the current stamp size.
type BrushSettings struct {
	Size    float64 `json:"size"`
	MinSize float64 `json:"minSize"`
	MaxSize float64 `json:"maxSize"`

	Opacity  float64 `json:"opacity"`
	Flow     float64 `json:"flow"`
	Hardness float64 `json:"hardness"`

	// Spacing is the stamp interval as a fraction of stamp size.
	Spacing   float64 `json:"spacing"`
	Smoothing float64 `json:"smoothing"`

	PressureSensitivity float64 `json:"pressureSensitivity"`
	TiltSensitivity     float64 `json:"tiltSensitivity"`
	VelocitySensitivity float64 `json:"velocitySensitivity"`

	Jitter  float64 `json:"jitter"`
	Scatter float64 `json:"scatter"`

	// Texture names an optional stamp texture owned by the rasterizer's
	// texture cache.
	Texture string `json:"texture,omitempty"`

	// Wetness and Mixing apply to paint/watercolor brushes only.
	Wetness float64 `json:"wetness,omitempty"`
	Mixing  float64 `json:"mixing,omitempty"`
}

// clamped returns the settings with every invariant enforced:
// minSize <= size <= maxSize and all factors in [0, 1].
func (s BrushSettings) clamped() BrushSettings {
	if s.MinSize < 0 {
		s.MinSize = 0
	}
	if s.MaxSize < s.MinSize {
		s.MaxSize = s.MinSize
	}
	s.Size = clampF(s.Size, s.MinSize, s.MaxSize)
	s.Opacity = clampF(s.Opacity, 0, 1)
	s.Flow = clampF(s.Flow, 0, 1)
	s.Hardness = clampF(s.Hardness, 0, 1)
	s.Spacing = clampF(s.Spacing, 0.01, 2)
	s.Smoothing = clampF(s.Smoothing, 0, 1)
	s.PressureSensitivity = clampF(s.PressureSensitivity, 0, 1)
	s.TiltSensitivity = clampF(s.TiltSensitivity, 0, 1)
	s.VelocitySensitivity = clampF(s.VelocitySensitivity, 0, 1)
	s.Jitter = clampF(s.Jitter, 0, 1)
	s.Scatter = clampF(s.Scatter, 0, 1)
	s.Wetness = clampF(s.Wetness, 0, 1)
	s.Mixing = clampF(s.Mixing, 0, 1)
	return s
}

// Brush is a named, versioned brush definition. Built-in brushes are
// immutable templates; custom brushes are derived copies with a generated
// identifier, persisted independently through the Store.
type Brush struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Version  int           `json:"version"`
	Category BrushCategory `json:"category"`

	Settings BrushSettings `json:"settings"`
	Curve    PressureCurve `json:"pressureCurve,omitempty"`

	TiltSupport     bool `json:"tiltSupport"`
	VelocitySupport bool `json:"velocitySupport"`
	Customizable    bool `json:"customizable"`
	IsEraser        bool `json:"isEraser"`

	BlendMode BlendMode `json:"blendMode"`
}

// Clone returns a deep copy of the brush.
func (b *Brush) Clone() *Brush {
	cp := *b
	cp.Curve = append(PressureCurve(nil), b.Curve...)
	return &cp
}

// ErrUnknownBrush is returned when an operation references a brush id that
// is not registered.
var ErrUnknownBrush = errors.New("ink: unknown brush")

// BrushRegistry owns the brush set: immutable built-in templates plus
// user-derived custom brushes. All access goes through its methods.
type BrushRegistry struct {
	mu      sync.RWMutex
	brushes map[string]*Brush // built-ins and customs
	customs map[string]bool
	active  string

	store   Store
	bus     *Bus
	log     *slog.Logger
	pending *sync.WaitGroup
}

// NewBrushRegistry creates a registry seeded with the built-in brush set,
// with the pencil active. store and bus may be nil.
func NewBrushRegistry(store Store, bus *Bus, log *slog.Logger, pending *sync.WaitGroup) *BrushRegistry {
	if log == nil {
		log = Logger()
	}
	r := &BrushRegistry{
		brushes: make(map[string]*Brush),
		customs: make(map[string]bool),
		store:   store,
		bus:     bus,
		log:     log,
		pending: pending,
	}
	for _, b := range builtinBrushes() {
		r.brushes[b.ID] = b
	}
	r.active = "builtin.pencil"
	return r
}

// Load restores custom brushes from the Store. Invalid entries are
// skipped; load failure leaves only the built-ins.
func (r *BrushRegistry) Load(ctx context.Context) {
	var customs []*Brush
	if !loadJSON(ctx, r.log, r.store, storeKeyBrushes, &customs) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range customs {
		if b == nil || b.ID == "" || b.Name == "" {
			continue
		}
		b.Settings = b.Settings.clamped()
		r.brushes[b.ID] = b
		r.customs[b.ID] = true
	}
}

// Get returns a copy of the brush, or false when the id is unknown.
func (r *BrushRegistry) Get(id string) (*Brush, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brushes[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// Active returns a copy of the active brush.
func (r *BrushRegistry) Active() *Brush {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.brushes[r.active].Clone()
}

// Select makes the brush with the given id active and publishes a
// brush:selected event. Unknown ids report false and leave the selection
// unchanged.
func (r *BrushRegistry) Select(id string) bool {
	r.mu.Lock()
	b, ok := r.brushes[id]
	if ok {
		r.active = id
	}
	r.mu.Unlock()

	if ok {
		r.bus.Publish(BrushSelectedEvent{Brush: b.Clone()})
	}
	return ok
}

// Customize derives a new custom brush from a base brush, applying mutate
// to a copy of its settings. The derived brush gets a generated id, is
// marked non-built-in, and is persisted asynchronously. A missing base is
// a caller error and fails loudly.
func (r *BrushRegistry) Customize(baseID, name string, mutate func(*BrushSettings)) (*Brush, error) {
	r.mu.Lock()
	base, ok := r.brushes[baseID]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: customize base %q", ErrUnknownBrush, baseID)
	}

	derived := base.Clone()
	derived.ID = uuid.NewString()
	derived.Name = name
	derived.Customizable = true
	if mutate != nil {
		mutate(&derived.Settings)
	}
	derived.Settings = derived.Settings.clamped()

	r.brushes[derived.ID] = derived
	r.customs[derived.ID] = true
	r.mu.Unlock()

	r.saveCustoms()
	return derived.Clone(), nil
}

// Remove deletes a custom brush. Built-ins and unknown ids report false.
// Removing the active brush falls back to the pencil.
func (r *BrushRegistry) Remove(id string) bool {
	r.mu.Lock()
	if !r.customs[id] {
		r.mu.Unlock()
		return false
	}
	delete(r.brushes, id)
	delete(r.customs, id)
	if r.active == id {
		r.active = "builtin.pencil"
	}
	r.mu.Unlock()

	r.saveCustoms()
	return true
}

// List returns copies of all registered brushes in unspecified order.
func (r *BrushRegistry) List() []*Brush {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Brush, 0, len(r.brushes))
	for _, b := range r.brushes {
		out = append(out, b.Clone())
	}
	return out
}

func (r *BrushRegistry) saveCustoms() {
	r.mu.RLock()
	customs := make([]*Brush, 0, len(r.customs))
	for id := range r.customs {
		customs = append(customs, r.brushes[id])
	}
	r.mu.RUnlock()
	saveAsync(r.pending, r.log, r.store, storeKeyBrushes, customs)
}

// builtinBrushes returns the immutable template set, one per category.
func builtinBrushes() []*Brush {
	return []*Brush{
		{
			ID: "builtin.pencil", Name: "Pencil", Version: 1, Category: CategoryPencil,
			Settings: BrushSettings{
				Size: 4, MinSize: 0.5, MaxSize: 24,
				Opacity: 1, Flow: 1, Hardness: 0.9,
				Spacing: 0.08, Smoothing: 0.3,
				PressureSensitivity: 0.9, TiltSensitivity: 0.6,
			},
			Curve:       PressureCurve{0, 0.1, 0.9, 1},
			TiltSupport: true, Customizable: true,
		},
		{
			ID: "builtin.ink", Name: "Ink Pen", Version: 1, Category: CategoryInk,
			Settings: BrushSettings{
				Size: 6, MinSize: 1, MaxSize: 32,
				Opacity: 1, Flow: 1, Hardness: 1,
				Spacing: 0.05, Smoothing: 0.5,
				PressureSensitivity: 0.8, VelocitySensitivity: 0.4,
			},
			Curve:           PressureCurve{0, 0, 1, 1},
			VelocitySupport: true, Customizable: true,
		},
		{
			ID: "builtin.watercolor", Name: "Watercolor", Version: 1, Category: CategoryPaint,
			Settings: BrushSettings{
				Size: 24, MinSize: 4, MaxSize: 96,
				Opacity: 0.55, Flow: 0.6, Hardness: 0.2,
				Spacing: 0.12, Smoothing: 0.4,
				PressureSensitivity: 0.7, TiltSensitivity: 0.8,
				Wetness: 0.8, Mixing: 0.6,
			},
			Curve:       PressureCurve{0.05, 0.3, 0.7, 0.95},
			TiltSupport: true, Customizable: true,
			BlendMode: BlendMultiply,
		},
		{
			ID: "builtin.airbrush", Name: "Airbrush", Version: 1, Category: CategoryAirbrush,
			Settings: BrushSettings{
				Size: 32, MinSize: 8, MaxSize: 128,
				Opacity: 0.35, Flow: 0.3, Hardness: 0,
				Spacing: 0.04, Smoothing: 0.2,
				PressureSensitivity: 1, Scatter: 0.25,
			},
			Curve:        PressureCurve{0, 0.2, 0.8, 1},
			Customizable: true,
		},
		{
			ID: "builtin.marker", Name: "Marker", Version: 1, Category: CategoryMarker,
			Settings: BrushSettings{
				Size: 14, MinSize: 6, MaxSize: 48,
				Opacity: 0.8, Flow: 1, Hardness: 0.7,
				Spacing: 0.1, Smoothing: 0.35,
				PressureSensitivity: 0.3,
			},
			Curve:        PressureCurve{0.2, 0.4, 0.6, 0.8},
			Customizable: true,
		},
		{
			ID: "builtin.charcoal", Name: "Charcoal", Version: 1, Category: CategoryTexture,
			Settings: BrushSettings{
				Size: 18, MinSize: 4, MaxSize: 64,
				Opacity: 0.9, Flow: 0.85, Hardness: 0.4,
				Spacing: 0.15, Smoothing: 0.25,
				PressureSensitivity: 0.85, TiltSensitivity: 0.9,
				Jitter: 0.2, Texture: "charcoal",
			},
			Curve:       PressureCurve{0, 0.15, 0.85, 1},
			TiltSupport: true, Customizable: true,
		},
		{
			ID: "builtin.eraser", Name: "Eraser", Version: 1, Category: CategoryEraser,
			Settings: BrushSettings{
				Size: 20, MinSize: 2, MaxSize: 128,
				Opacity: 1, Flow: 1, Hardness: 0.8,
				Spacing: 0.1, Smoothing: 0.3,
				PressureSensitivity: 0.5,
			},
			Curve:    PressureCurve{0, 0, 1, 1},
			IsEraser: true,
		},
	}
}
