package ink

import "sync"

// Topic identifies an event stream on the Bus.
type Topic int

// Bus topics.
const (
	TopicBrushSelected Topic = iota
	TopicColorChanged
	TopicStrokeStart
	TopicStrokeUpdate
	TopicStrokeEnd
	TopicLayerChanged
	TopicPaletteChanged
	TopicPerformance
)

// String returns a human-readable topic name.
func (t Topic) String() string {
	switch t {
	case TopicBrushSelected:
		return "brush:selected"
	case TopicColorChanged:
		return "color:changed"
	case TopicStrokeStart:
		return "stroke:start"
	case TopicStrokeUpdate:
		return "stroke:update"
	case TopicStrokeEnd:
		return "stroke:end"
	case TopicLayerChanged:
		return "layer:changed"
	case TopicPaletteChanged:
		return "palette:changed"
	case TopicPerformance:
		return "performance"
	default:
		return "unknown"
	}
}

// Event is the payload published on the Bus. This is a sealed interface —
// only types in this package implement it, so every topic has exactly one
// payload shape and subscribers can type-switch safely.
type Event interface {
	// Topic returns the stream this event belongs to.
	Topic() Topic
}

// BrushSelectedEvent announces the active brush changing.
type BrushSelectedEvent struct{ Brush *Brush }

// ColorChangedEvent announces the active color changing.
type ColorChangedEvent struct{ Color Color }

// StrokeStartEvent announces a stroke entering the Drawing state.
type StrokeStartEvent struct{ StrokeID string }

// StrokeUpdateEvent announces points appended to the active stroke.
type StrokeUpdateEvent struct {
	StrokeID string
	Points   int // total points captured so far
}

// StrokeEndEvent announces a stroke being finalized onto a layer, or
// cancelled (LayerID empty).
type StrokeEndEvent struct {
	StrokeID  string
	LayerID   string
	Cancelled bool
}

// LayerChangedEvent announces a structural layer change (add, remove,
// reorder, visibility).
type LayerChangedEvent struct{ LayerID string }

// PaletteChangedEvent announces palette or color-history mutation.
type PaletteChangedEvent struct{ Palette string }

// PerformanceEvent announces an optimization-level transition.
type PerformanceEvent struct {
	Level      OptimizationLevel
	FPS        float64
	PixelRatio float64
}

// Topic implementations for the sealed Event interface.
func (BrushSelectedEvent) Topic() Topic  { return TopicBrushSelected }
func (ColorChangedEvent) Topic() Topic   { return TopicColorChanged }
func (StrokeStartEvent) Topic() Topic    { return TopicStrokeStart }
func (StrokeUpdateEvent) Topic() Topic   { return TopicStrokeUpdate }
func (StrokeEndEvent) Topic() Topic      { return TopicStrokeEnd }
func (LayerChangedEvent) Topic() Topic   { return TopicLayerChanged }
func (PaletteChangedEvent) Topic() Topic { return TopicPaletteChanged }
func (PerformanceEvent) Topic() Topic    { return TopicPerformance }

// Bus is a synchronous publish/subscribe fan-out for core state changes.
// The core publishes; external UI subscribes. Handlers run on the
// publisher's goroutine, so they must be cheap and must not re-enter the
// publishing component.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Topic]map[int]func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]func(Event))}
}

// Subscribe registers fn for a topic and returns an unsubscribe handle.
// Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(topic Topic, fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]func(Event))
	}
	b.subs[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish delivers e to every subscriber of its topic. A nil Bus drops
// events, so components may hold an optional bus without nil checks.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.subs[e.Topic()]))
	for _, fn := range b.subs[e.Topic()] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
}
