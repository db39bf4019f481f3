package ink

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Engine aggregates the drawing core: document, brush registry, color
// state, dynamics, rasterizer, compositor, optimizer, and the capture
// session, all explicitly constructed and wired. Create one per canvas;
// there are no process-wide singletons, so tests instantiate isolated
// engines per case.
type Engine struct {
	doc        *Document
	brushes    *BrushRegistry
	colors     *ColorState
	dynamics   *DynamicsEngine
	raster     *Rasterizer
	compositor *Compositor
	optimizer  *Optimizer
	session    *Session
	bus        *Bus
	store      Store
	log        *slog.Logger

	// pending tracks fire-and-forget persistence writes so Close can
	// drain them.
	pending sync.WaitGroup

	closeOnce sync.Once
}

// NewEngine creates a fully wired engine for a width×height canvas and
// loads persisted brushes and palettes. The returned engine is running;
// release it with Close.
func NewEngine(width, height int, opts ...Option) (*Engine, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ink: invalid canvas size %dx%d", width, height)
	}

	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	if o.bus == nil {
		o.bus = NewBus()
	}
	if o.store == nil {
		o.store = NewMemStore()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tier := o.tier
	if !o.tierSet {
		tier = DetectDeviceTier()
	}

	e := &Engine{bus: o.bus, store: o.store, log: o.logger}

	e.doc = NewDocument(width, height, e.bus)
	e.brushes = NewBrushRegistry(e.store, e.bus, e.log, &e.pending)
	e.colors = NewColorState(e.store, e.bus, e.log, &e.pending)
	e.dynamics = NewDynamicsEngine(o.rng)
	e.raster = NewRasterizer(e.dynamics, width, height, e.log)
	if o.viewport != nil {
		e.raster.SetViewport(*o.viewport)
	}
	e.compositor = NewCompositor(e.doc, e.raster, e.brushes, e.log)
	e.optimizer = NewOptimizer(tier, e.bus, e.log)
	e.optimizer.attach(e.raster, e.compositor.strokeCache())
	e.session = NewSession(e.doc, e.raster, e.compositor, e.brushes, e.colors, e.optimizer, e.bus, e.log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.brushes.Load(ctx)
	e.colors.Load(ctx)

	if o.sampling {
		e.optimizer.Start()
	}

	e.log.Info("engine: created", "width", width, "height", height, "tier", int(tier))
	return e, nil
}

// Close stops the optimizer's sampling loop and drains pending
// persistence writes.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.optimizer.Close()
		e.pending.Wait()
		e.log.Info("engine: closed")
	})
}

// Session returns the stroke capture session.
func (e *Engine) Session() *Session { return e.session }

// Document returns the layer/stroke store.
func (e *Engine) Document() *Document { return e.doc }

// Brushes returns the brush registry.
func (e *Engine) Brushes() *BrushRegistry { return e.brushes }

// Colors returns the color state.
func (e *Engine) Colors() *ColorState { return e.colors }

// Dynamics returns the dynamics engine.
func (e *Engine) Dynamics() *DynamicsEngine { return e.dynamics }

// Rasterizer returns the stamp rasterizer.
func (e *Engine) Rasterizer() *Rasterizer { return e.raster }

// Compositor returns the layer compositor.
func (e *Engine) Compositor() *Compositor { return e.compositor }

// Optimizer returns the performance controller.
func (e *Engine) Optimizer() *Optimizer { return e.optimizer }

// Bus returns the event bus.
func (e *Engine) Bus() *Bus { return e.bus }

// FrameTick drives one display refresh: it feeds the measured frame time
// to the optimizer and runs a composite if one is scheduled, returning
// the display surface.
func (e *Engine) FrameTick(frameTime time.Duration) *Pixmap {
	e.optimizer.RecordFrame(frameTime)
	return e.compositor.CompositeIfScheduled()
}

// MemoryPressure forwards an external low-memory signal to the optimizer.
func (e *Engine) MemoryPressure() { e.optimizer.OnMemoryPressure() }

// EnterBackground degrades rendering while the app is not visible.
func (e *Engine) EnterBackground() { e.optimizer.EnterBackground() }

// EnterForeground restores quality after the app becomes visible again.
func (e *Engine) EnterForeground() { e.optimizer.EnterForeground() }
