package ink

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// OptimizationLevel is a discrete tier of rendering-cost reduction.
type OptimizationLevel int

// Optimization levels.
const (
	OptimizeNone OptimizationLevel = iota
	OptimizeMild
	OptimizeAggressive
)

// DeviceTier is a coarse hardware class used to pick the starting
// resolution bounds.
type DeviceTier int

// Device tiers.
const (
	TierLow DeviceTier = iota
	TierMid
	TierHigh
)

// DetectDeviceTier classifies the host by logical CPU count. It is a
// heuristic; embedders with better platform signals pass an explicit tier
// through WithDeviceTier.
func DetectDeviceTier() DeviceTier {
	switch cpus := runtime.NumCPU(); {
	case cpus >= 8:
		return TierHigh
	case cpus >= 4:
		return TierMid
	default:
		return TierLow
	}
}

// OptimizerSettings is the cost bundle fixed by an optimization level.
type OptimizerSettings struct {
	// StrokeBatchSize is how many queued input samples are processed per
	// frame before yielding.
	StrokeBatchSize int

	// MaxPointsPerStroke caps stored points; longer strokes get decimated.
	MaxPointsPerStroke int

	// SimplificationTolerance is the Douglas-Peucker tolerance in canvas
	// units applied when a stroke is finalized.
	SimplificationTolerance float64

	// Quality is the rasterizer cost tier.
	Quality RenderQuality

	// TextureQuality scales stamp-texture fidelity, [0.5, 1].
	TextureQuality float64

	// SmoothingFidelity scales the brush smoothing factor, [0, 1].
	SmoothingFidelity float64

	// PressureSampling keeps every Nth pressure reading; intermediate
	// samples reuse the previous reading.
	PressureSampling int

	// PredictionEnabled extrapolates the next sample to hide latency.
	PredictionEnabled bool

	// CoalescingEnabled merges near-duplicate samples before processing.
	CoalescingEnabled bool
}

// simplificationThreshold is the per-level tolerance unit: effective
// tolerance is threshold × level.
const simplificationThreshold = 1.0

// levelSettings fixes the bundle for each level.
var levelSettings = [3]OptimizerSettings{
	OptimizeNone: {
		StrokeBatchSize:         64,
		MaxPointsPerStroke:      2048,
		SimplificationTolerance: 0,
		Quality:                 QualityHigh,
		TextureQuality:          1,
		SmoothingFidelity:       1,
		PressureSampling:        1,
		PredictionEnabled:       true,
		CoalescingEnabled:       false,
	},
	OptimizeMild: {
		StrokeBatchSize:         32,
		MaxPointsPerStroke:      1024,
		SimplificationTolerance: simplificationThreshold * 1,
		Quality:                 QualityMedium,
		TextureQuality:          0.8,
		SmoothingFidelity:       0.7,
		PressureSampling:        2,
		PredictionEnabled:       true,
		CoalescingEnabled:       true,
	},
	OptimizeAggressive: {
		StrokeBatchSize:         16,
		MaxPointsPerStroke:      512,
		SimplificationTolerance: simplificationThreshold * 2,
		Quality:                 QualityLow,
		TextureQuality:          0.5,
		SmoothingFidelity:       0.4,
		PressureSampling:        4,
		PredictionEnabled:       false,
		CoalescingEnabled:       true,
	},
}

// Frame-budget constants at the 60 FPS target.
const (
	defaultTargetFPS = 60
	lowFPSThreshold  = 50.0 // escalate below this
	highFPSThreshold = 58.0 // candidate for de-escalation above this
	recoverFPS       = 55.0 // foreground settle recovery threshold

	sampleWindow      = time.Second
	escalationLockout = time.Second
	foregroundSettle  = 2 * time.Second

	coalesceDistance = 2.0 // pixels
	predictAheadMS   = 8.0

	defaultMinPixelRatio = 0.75
)

// Optimizer keeps the frame budget by degrading rendering cost when
// measured frame time exceeds the target and restoring quality when
// headroom returns. It samples FPS over one-second windows on its own
// timer; the drawing path only reads its published settings and tolerates
// values one window stale.
type Optimizer struct {
	mu sync.Mutex

	level          OptimizationLevel
	targetFrame    time.Duration
	lastEscalation time.Time
	foregroundAt   time.Time
	background     bool

	// Current window accumulation.
	windowStart  time.Time
	windowFrames int
	windowTotal  time.Duration

	// rollingAvg is an exponential moving average of frame time.
	rollingAvg time.Duration

	pixelRatio    float64
	minPixelRatio float64
	maxPixelRatio float64

	textureQuality float64

	now         func() time.Time
	bus         *Bus
	log         *slog.Logger
	raster      *Rasterizer
	strokeCache capacitySetter

	stop chan struct{}
	done chan struct{}
}

// capacitySetter is the slice of the cache API the optimizer drives.
type capacitySetter interface {
	Capacity() int
	SetCapacity(int)
}

// NewOptimizer creates an optimizer at level 0. The device tier sets the
// pixel-ratio ceiling. bus may be nil.
func NewOptimizer(tier DeviceTier, bus *Bus, log *slog.Logger) *Optimizer {
	if log == nil {
		log = Logger()
	}
	maxRatio := 2.0
	switch tier {
	case TierLow:
		maxRatio = 1.0
	case TierMid:
		maxRatio = 1.5
	}
	o := &Optimizer{
		targetFrame:    time.Second / defaultTargetFPS,
		pixelRatio:     maxRatio,
		minPixelRatio:  defaultMinPixelRatio,
		maxPixelRatio:  maxRatio,
		textureQuality: 1,
		now:            time.Now,
		bus:            bus,
		log:            log,
	}
	o.windowStart = o.now()
	return o
}

// setClock injects a fake clock for tests.
func (o *Optimizer) setClock(now func() time.Time) {
	o.mu.Lock()
	o.now = now
	o.windowStart = now()
	o.mu.Unlock()
}

// attach wires the components whose cost knobs the optimizer turns.
func (o *Optimizer) attach(r *Rasterizer, strokeCache capacitySetter) {
	o.mu.Lock()
	o.raster = r
	o.strokeCache = strokeCache
	o.mu.Unlock()
}

// Start launches the periodic one-second sampling loop. Stop it with
// Close. Calling Start twice is a caller error.
func (o *Optimizer) Start() {
	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go func() {
		defer close(o.done)
		ticker := time.NewTicker(sampleWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				o.Sample()
			case <-o.stop:
				return
			}
		}
	}()
}

// Close stops the sampling loop. Safe to call when Start was never called.
func (o *Optimizer) Close() {
	if o.stop == nil {
		return
	}
	close(o.stop)
	<-o.done
	o.stop = nil
}

// RecordFrame feeds one measured frame time into the current window and
// the rolling average.
func (o *Optimizer) RecordFrame(frameTime time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.windowFrames++
	o.windowTotal += frameTime
	if o.rollingAvg == 0 {
		o.rollingAvg = frameTime
	} else {
		// EMA with α = 1/8.
		o.rollingAvg += (frameTime - o.rollingAvg) / 8
	}
}

// Level returns the current optimization level.
func (o *Optimizer) Level() OptimizationLevel {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// Settings returns the cost bundle for the current level, with texture
// quality adjusted for memory pressure and smoothing scaled in.
func (o *Optimizer) Settings() OptimizerSettings {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := levelSettings[o.level]
	if o.textureQuality < s.TextureQuality {
		s.TextureQuality = o.textureQuality
	}
	return s
}

// PixelRatio returns the current dynamic-resolution multiplier.
func (o *Optimizer) PixelRatio() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pixelRatio
}

// Sample closes the current window and applies level and resolution
// transitions. The periodic loop calls this every second; tests call it
// directly after feeding synthetic frames.
func (o *Optimizer) Sample() {
	o.mu.Lock()

	if o.windowFrames == 0 {
		o.windowStart = o.now()
		o.mu.Unlock()
		return
	}

	avg := o.windowTotal / time.Duration(o.windowFrames)
	fps := float64(time.Second) / float64(avg)
	o.windowFrames = 0
	o.windowTotal = 0
	o.windowStart = o.now()

	changed := false
	switch {
	case fps < lowFPSThreshold && !o.background:
		// Lockout prevents oscillating escalation.
		if o.level < OptimizeAggressive && o.now().Sub(o.lastEscalation) >= escalationLockout {
			o.level++
			o.lastEscalation = o.now()
			changed = true
			if o.level == OptimizeAggressive {
				o.pixelRatio = o.minPixelRatio
				o.halveStrokeCacheLocked()
			}
		}
	case fps > highFPSThreshold && o.level > OptimizeNone:
		if float64(o.rollingAvg) < float64(o.targetFrame)*0.7 {
			o.level--
			changed = true
		}
	}

	// Foreground settle: after the delay, drop straight to level 0 once
	// FPS has recovered.
	if !o.foregroundAt.IsZero() && o.now().Sub(o.foregroundAt) >= foregroundSettle {
		if fps > recoverFPS && o.level > OptimizeNone {
			o.level = OptimizeNone
			changed = true
		}
		o.foregroundAt = time.Time{}
	}

	o.updatePixelRatioLocked(avg)
	o.applyLocked()

	level := o.level
	ratio := o.pixelRatio
	bus := o.bus
	log := o.log
	o.mu.Unlock()

	if changed {
		log.Info("optimizer: level change", "level", int(level), "fps", fps, "pixelRatio", ratio)
		bus.Publish(PerformanceEvent{Level: level, FPS: fps, PixelRatio: ratio})
	}
}

// updatePixelRatioLocked steps dynamic resolution by 0.5 against the
// rolling average: reduce when frames run over 1.5× target, raise when
// under 0.8×.
func (o *Optimizer) updatePixelRatioLocked(avg time.Duration) {
	if o.background {
		return
	}
	switch {
	case float64(avg) > float64(o.targetFrame)*1.5 && o.pixelRatio > o.minPixelRatio:
		o.pixelRatio = clampF(o.pixelRatio-0.5, o.minPixelRatio, o.maxPixelRatio)
	case float64(avg) < float64(o.targetFrame)*0.8 && o.pixelRatio < o.maxPixelRatio:
		o.pixelRatio = clampF(o.pixelRatio+0.5, o.minPixelRatio, o.maxPixelRatio)
	}
}

// applyLocked pushes the current bundle into the attached components.
func (o *Optimizer) applyLocked() {
	if o.raster == nil {
		return
	}
	s := levelSettings[o.level]
	o.raster.SetQuality(s.Quality)
	tq := s.TextureQuality
	if o.textureQuality < tq {
		tq = o.textureQuality
	}
	o.raster.SetTextureQuality(tq)
}

func (o *Optimizer) halveStrokeCacheLocked() {
	if o.strokeCache != nil {
		o.strokeCache.SetCapacity(maxInt(o.strokeCache.Capacity()/2, 1))
	}
}

// OnMemoryPressure reacts to an external low-memory signal: immediately
// force aggressive optimization, halve the stroke-cache limit, and knock
// texture quality down 20% (floor 0.5). The drawing path never hard-fails.
func (o *Optimizer) OnMemoryPressure() {
	o.mu.Lock()
	o.level = OptimizeAggressive
	o.lastEscalation = o.now()
	o.halveStrokeCacheLocked()
	o.textureQuality = clampF(o.textureQuality*0.8, 0.5, 1)
	o.applyLocked()
	level := o.level
	ratio := o.pixelRatio
	texQuality := o.textureQuality
	o.mu.Unlock()

	o.log.Warn("optimizer: memory pressure", "textureQuality", texQuality)
	o.bus.Publish(PerformanceEvent{Level: level, PixelRatio: ratio})
}

// EnterBackground forces aggressive optimization and minimum resolution
// while the app is not visible.
func (o *Optimizer) EnterBackground() {
	o.mu.Lock()
	o.background = true
	o.level = OptimizeAggressive
	o.pixelRatio = o.minPixelRatio
	o.applyLocked()
	o.mu.Unlock()
}

// EnterForeground restores dynamic resolution and arms the settle timer;
// once FPS recovers the sampler returns to level 0.
func (o *Optimizer) EnterForeground() {
	o.mu.Lock()
	o.background = false
	o.foregroundAt = o.now()
	o.mu.Unlock()
}

// SimplifyStroke applies the level's geometry reduction to a finalized
// stroke: Douglas-Peucker at tolerance threshold×level with pressure-
// change preservation, then uniform decimation past the point cap.
func (o *Optimizer) SimplifyStroke(points []Point) []Point {
	s := o.Settings()
	tolerance := simplificationThreshold * float64(o.Level())
	out := Simplify(points, tolerance)
	if len(out) > s.MaxPointsPerStroke {
		out = Decimate(out, s.MaxPointsPerStroke)
	}
	return out
}

// Predict extrapolates the next sample ~8ms ahead along the last delta,
// scaled by velocity, to hide input latency. Returns false when
// prediction is disabled or the samples cannot support it.
func (o *Optimizer) Predict(prev, cur Point) (Point, bool) {
	if !o.Settings().PredictionEnabled {
		return Point{}, false
	}
	dt := cur.Timestamp - prev.Timestamp
	if dt <= 0 {
		return Point{}, false
	}
	scale := predictAheadMS / float64(dt)
	out := cur
	out.X += (cur.X - prev.X) * scale
	out.Y += (cur.Y - prev.Y) * scale
	out.Timestamp = cur.Timestamp + int64(predictAheadMS)
	return out, true
}

// Coalesce merges consecutive samples closer together than 2 pixels,
// averaging their pressure, to cut redundant processing. Disabled levels
// return the input unchanged.
func (o *Optimizer) Coalesce(points []Point) []Point {
	if !o.Settings().CoalescingEnabled || len(points) < 2 {
		return points
	}
	out := make([]Point, 1, len(points))
	out[0] = points[0]
	for _, p := range points[1:] {
		last := &out[len(out)-1]
		if last.Distance(p) < coalesceDistance {
			last.Pressure = (last.Pressure + p.Pressure) / 2
			last.Timestamp = p.Timestamp
			continue
		}
		out = append(out, p)
	}
	return out
}
