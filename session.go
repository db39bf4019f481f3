package ink

import (
	"log/slog"
	"sync"
)

// StrokeState is the per-stroke capture state.
type StrokeState int

// Stroke capture states.
const (
	StateIdle StrokeState = iota
	StateDrawing
	StateFinalizing
)

// String returns a human-readable state name.
func (s StrokeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// Session runs the stroke capture state machine: Idle → Drawing →
// Finalizing → Idle. Pointer events are processed in arrival order on one
// logical goroutine; only one stroke may be active at a time, and a
// pointer-down while already drawing is ignored (multi-touch
// disambiguation belongs to an external gesture recognizer).
type Session struct {
	mu    sync.Mutex
	state StrokeState

	doc        *Document
	raster     *Rasterizer
	compositor *Compositor
	brushes    *BrushRegistry
	colors     *ColorState
	optimizer  *Optimizer
	bus        *Bus
	log        *slog.Logger

	stroke *Stroke
	brush  *Brush // snapshot taken at pointer-down
	gate   StampGate
	last   Point
}

// NewSession wires the capture pipeline.
func NewSession(doc *Document, raster *Rasterizer, compositor *Compositor,
	brushes *BrushRegistry, colors *ColorState, optimizer *Optimizer,
	bus *Bus, log *slog.Logger) *Session {
	if log == nil {
		log = Logger()
	}
	return &Session{
		doc:        doc,
		raster:     raster,
		compositor: compositor,
		brushes:    brushes,
		colors:     colors,
		optimizer:  optimizer,
		bus:        bus,
		log:        log,
	}
}

// State returns the current capture state.
func (s *Session) State() StrokeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin handles pointer-down: it opens a stroke with the active brush and
// color on the active layer and paints the opening stamp. Ignored while a
// stroke is already active; a locked active layer also rejects the
// stroke. Reports whether a stroke was started.
func (s *Session) Begin(p Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return false
	}
	layer := s.doc.Active()
	if layer.Locked {
		s.log.Debug("session: pointer-down on locked layer", "layer", layer.ID)
		return false
	}

	p = p.Normalize()
	s.brush = s.brushes.Active()
	s.stroke = NewStroke(s.brush, s.colors.Current())
	s.stroke.Smoothing *= s.optimizer.Settings().SmoothingFidelity
	s.stroke.Append(p)
	s.last = p
	s.gate.Reset()
	s.state = StateDrawing

	s.raster.PaintPoint(layer.Surface(), s.stroke, s.brush, p, &s.gate)
	s.bus.Publish(StrokeStartEvent{StrokeID: s.stroke.ID})
	return true
}

// Move handles pointer-move: it smooths and appends the sample, paints
// the new segment incrementally, and publishes a stroke update. Ignored
// outside the Drawing state.
func (s *Session) Move(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDrawing {
		return
	}
	p = p.Normalize()

	settings := s.optimizer.Settings()
	if settings.CoalescingEnabled && s.last.Distance(p) < coalesceDistance {
		// Merge near-duplicate samples: average pressure into the last
		// captured point instead of appending a new one.
		n := len(s.stroke.Points)
		s.stroke.Points[n-1].Pressure = (s.stroke.Points[n-1].Pressure + p.Pressure) / 2
		s.last = s.stroke.Points[n-1]
		return
	}

	// Exponential position smoothing toward the raw sample; the brush's
	// smoothing factor (scaled by the optimizer) sets the pull.
	if sm := s.stroke.Smoothing; sm > 0 {
		p.X = s.last.X + (p.X-s.last.X)*(1-sm*0.5)
		p.Y = s.last.Y + (p.Y-s.last.Y)*(1-sm*0.5)
	}

	s.stroke.Append(p)
	s.raster.PaintSegment(s.doc.Active().Surface(), s.stroke, s.brush, s.last, p, &s.gate)
	s.last = p

	s.bus.Publish(StrokeUpdateEvent{StrokeID: s.stroke.ID, Points: len(s.stroke.Points)})
}

// End handles pointer-up: the final sample is painted, the stroke is
// simplified per the current optimization level, frozen, attached to the
// active layer, and a full composite is scheduled. Ignored outside the
// Drawing state.
func (s *Session) End(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDrawing {
		return
	}
	s.state = StateFinalizing

	p = p.Normalize()
	if s.last.Distance(p) > 0 {
		s.stroke.Append(p)
		s.raster.PaintSegment(s.doc.Active().Surface(), s.stroke, s.brush, s.last, p, &s.gate)
	}

	s.stroke.Points = s.optimizer.SimplifyStroke(s.stroke.Points)
	s.stroke.Freeze()

	layer := s.doc.Active()
	if !s.doc.AttachStroke(layer.ID, s.stroke) {
		s.log.Warn("session: could not attach stroke", "layer", layer.ID)
	}
	s.compositor.Schedule()
	s.bus.Publish(StrokeEndEvent{StrokeID: s.stroke.ID, LayerID: layer.ID})

	s.reset()
}

// Cancel discards the in-progress stroke without persisting it, for
// gestures reinterpreted mid-stroke (e.g. as a pan). The active layer is
// rebuilt from its stored strokes to remove the provisional paint.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDrawing {
		return
	}
	id := s.stroke.ID
	layer := s.doc.Active()
	s.reset()

	s.compositor.RebuildLayer(layer.ID)
	s.compositor.Schedule()
	s.bus.Publish(StrokeEndEvent{StrokeID: id, Cancelled: true})
}

// reset clears stroke-tracking state back to Idle. Caller holds the lock.
func (s *Session) reset() {
	s.stroke = nil
	s.brush = nil
	s.gate.Reset()
	s.state = StateIdle
}
