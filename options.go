package ink

import (
	"log/slog"
	"math/rand"
)

// Option configures an Engine during creation.
//
// Example:
//
//	eng, err := ink.NewEngine(800, 600,
//	    ink.WithLogger(slog.Default()),
//	    ink.WithStore(myKVStore),
//	)
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	logger   *slog.Logger
	bus      *Bus
	store    Store
	rng      *rand.Rand
	tier     DeviceTier
	tierSet  bool
	viewport *Rect
	sampling bool
}

func defaultEngineOptions() engineOptions {
	return engineOptions{sampling: true}
}

// WithLogger sets the engine's logger. By default the engine uses the
// package logger configured via SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithBus injects an event bus shared with the embedding application. By
// default the engine creates its own.
func WithBus(b *Bus) Option {
	return func(o *engineOptions) { o.bus = b }
}

// WithStore injects the persistence collaborator for custom brushes,
// color history, and palettes. By default an in-memory store is used.
func WithStore(s Store) Option {
	return func(o *engineOptions) { o.store = s }
}

// WithRand injects the random source driving brush jitter and scatter.
// Tests pass a seeded source for reproducible strokes.
func WithRand(rng *rand.Rand) Option {
	return func(o *engineOptions) { o.rng = rng }
}

// WithDeviceTier overrides hardware-tier detection, which otherwise
// classifies the host by CPU count.
func WithDeviceTier(t DeviceTier) Option {
	return func(o *engineOptions) {
		o.tier = t
		o.tierSet = true
	}
}

// WithViewport restricts painting and culling to a visible sub-region of
// the canvas. By default the whole canvas is visible.
func WithViewport(v Rect) Option {
	return func(o *engineOptions) { o.viewport = &v }
}

// WithoutSampling disables the optimizer's periodic FPS sampling loop.
// Tests drive Optimizer.Sample directly instead.
func WithoutSampling() Option {
	return func(o *engineOptions) { o.sampling = false }
}
