package ink

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/gogpu/ink/cache"
)

// Dynamics is the per-sample rendering state derived for one stamp: size,
// opacity, and offsets driven by pressure, tilt, and velocity. It is
// recomputed for every input sample and never persisted.
type Dynamics struct {
	Size    float64
	Opacity float64

	// Spacing is the absolute stamp interval in canvas units
	// (relative brush spacing × size).
	Spacing float64

	JitterX, JitterY   float64
	ScatterX, ScatterY float64

	Pressure      float64 // after the pressure curve
	Velocity      float64
	TiltAngle     float64 // radians
	TiltMagnitude float64
}

// velocityKnee is the speed at which velocity sensitivity saturates.
const velocityKnee = 200.0

// DynamicsEngine maps brush definitions and input samples to Dynamics.
// The random source drives jitter and scatter; inject a seeded source for
// reproducible output in tests.
type DynamicsEngine struct {
	mu  sync.Mutex
	rng *rand.Rand

	// defaults caches the no-pointer-context dynamics per brush, keyed by
	// id and version so customization invalidates naturally.
	defaults *cache.Cache[string, Dynamics]
}

// NewDynamicsEngine creates an engine. A nil rng gets a fixed-seed source;
// production callers pass a time-seeded one through WithRand.
func NewDynamicsEngine(rng *rand.Rand) *DynamicsEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &DynamicsEngine{
		rng:      rng,
		defaults: cache.New[string, Dynamics](64),
	}
}

// Compute derives the stamp parameters for one sample. prev may be nil on
// the first sample of a stroke. velocity is in the units produced by
// Point.Velocity; pass 0 when unknown.
func (e *DynamicsEngine) Compute(b *Brush, p Point, prev *Point, velocity float64) Dynamics {
	p = p.Normalize()
	s := b.Settings

	mapped := b.Curve.Apply(p.Pressure)

	var tiltAngle, tiltMag float64
	if p.HasTilt {
		tiltAngle = math.Atan2(p.TiltY, p.TiltX)
		tiltMag = math.Min(1, math.Hypot(p.TiltX, p.TiltY))
	}

	// Size: pressure interpolates between MinSize and the configured size,
	// weighted by sensitivity; tilt and velocity shave it down further.
	factor := (1 - s.PressureSensitivity) + s.PressureSensitivity*mapped
	size := s.MinSize + (s.Size-s.MinSize)*factor

	if b.TiltSupport && p.HasTilt {
		size *= 1 - s.TiltSensitivity*0.5*tiltMag
	}
	if b.VelocitySupport && velocity > 0 {
		size *= 1 - s.VelocitySensitivity*math.Min(velocity/velocityKnee, 1)
	}
	size = clampF(size, s.MinSize, s.MaxSize)

	opacity := s.Opacity
	if s.Flow < 1 {
		opacity *= s.Flow * mapped
	}

	d := Dynamics{
		Size:          size,
		Opacity:       clampF(opacity, 0, 1),
		Spacing:       s.Spacing * size,
		Pressure:      mapped,
		Velocity:      velocity,
		TiltAngle:     tiltAngle,
		TiltMagnitude: tiltMag,
	}

	if s.Jitter > 0 || s.Scatter > 0 {
		e.mu.Lock()
		if s.Jitter > 0 {
			d.JitterX = (e.rng.Float64() - 0.5) * s.Jitter * size
			d.JitterY = (e.rng.Float64() - 0.5) * s.Jitter * size
		}
		if s.Scatter > 0 {
			angle := e.rng.Float64() * 2 * math.Pi
			radius := e.rng.Float64() * s.Scatter * size
			d.ScatterX = math.Cos(angle) * radius
			d.ScatterY = math.Sin(angle) * radius
		}
		e.mu.Unlock()
	}

	return d
}

// Defaults returns the cached dynamics for a brush with no live pointer
// context: mid pressure, no tilt, no motion, offsets zeroed.
func (e *DynamicsEngine) Defaults(b *Brush) Dynamics {
	key := fmt.Sprintf("%s@%d", b.ID, b.Version)
	return e.defaults.GetOrCreate(key, func() Dynamics {
		noJitter := b.Clone()
		noJitter.Settings.Jitter = 0
		noJitter.Settings.Scatter = 0
		return e.Compute(noJitter, Point{Pressure: 0.5}, nil, 0)
	})
}

// StampGate is the spacing state machine deciding where stamps land along
// a stroke: the first point always stamps, and after that a new stamp is
// placed only once the pen has travelled the current spacing from the
// last stamp.
type StampGate struct {
	last    Point
	started bool
}

// ShouldStamp reports whether a stamp belongs at p given the current
// absolute spacing, and records p as the last stamp point when it does.
func (g *StampGate) ShouldStamp(p Point, spacing float64) bool {
	if !g.started {
		g.started = true
		g.last = p
		return true
	}
	if g.last.Distance(p) < spacing {
		return false
	}
	g.last = p
	return true
}

// Reset returns the gate to its initial always-stamp state. Called when a
// stroke ends.
func (g *StampGate) Reset() {
	*g = StampGate{}
}
