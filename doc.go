// Package ink is the rendering core of a pressure-sensitive drawing
// application: it turns raw touch/pen samples into persisted vector strokes
// and composites them into a layered raster image at interactive rates.
//
// # Overview
//
// The pipeline runs input sample → Optimizer (coalesce/predict/throttle) →
// DynamicsEngine (pressure/tilt/velocity-driven stamp parameters) →
// Rasterizer (paint the stamp onto the active layer's pixmap, record the
// dirty region) → Compositor (merge visible layers into the display surface
// on the next frame tick).
//
// # Quick Start
//
//	import "github.com/gogpu/ink"
//
//	eng, _ := ink.NewEngine(800, 600)
//	defer eng.Close()
//
//	s := eng.Session()
//	s.Begin(ink.Point{X: 10, Y: 10, Pressure: 0.3, Timestamp: 0})
//	s.Move(ink.Point{X: 60, Y: 40, Pressure: 0.8, Timestamp: 8})
//	s.End(ink.Point{X: 120, Y: 50, Pressure: 0.2, Timestamp: 16})
//
//	frame := eng.Compositor().Composite()
//	_ = frame.SavePNG("out.png")
//
// # Architecture
//
// The library is organized into:
//   - Public API: Engine, Session, DynamicsEngine, Optimizer, Compositor,
//     Document, Brush, Color
//   - Internal: blend (per-pixel compositing)
//   - cache: generic LRU used for dynamics defaults and rendered strokes
//
// Rasterization of individual stamps is delegated to srwiley/rasterx; the
// compositor is written against the Surface contract, not a concrete
// graphics backend, so a GPU-backed surface can be injected.
//
// By default ink produces no log output. Call SetLogger to enable logging.
package ink
