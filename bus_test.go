package ink

import "testing"

func TestBusDeliversToTopicSubscribers(t *testing.T) {
	b := NewBus()

	var got []string
	b.Subscribe(TopicBrushSelected, func(e Event) {
		got = append(got, e.(BrushSelectedEvent).Brush.ID)
	})
	b.Subscribe(TopicColorChanged, func(e Event) {
		t.Error("event delivered to the wrong topic")
	})

	b.Publish(BrushSelectedEvent{Brush: &Brush{ID: "builtin.ink"}})
	b.Publish(BrushSelectedEvent{Brush: &Brush{ID: "builtin.marker"}})

	if len(got) != 2 || got[0] != "builtin.ink" || got[1] != "builtin.marker" {
		t.Errorf("delivered %v", got)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()

	n := 0
	unsub := b.Subscribe(TopicStrokeStart, func(Event) { n++ })
	b.Publish(StrokeStartEvent{StrokeID: "a"})
	unsub()
	b.Publish(StrokeStartEvent{StrokeID: "b"})
	unsub() // second call is a no-op

	if n != 1 {
		t.Errorf("handler ran %d times, want 1", n)
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	b := NewBus()

	a, c := 0, 0
	b.Subscribe(TopicPerformance, func(Event) { a++ })
	b.Subscribe(TopicPerformance, func(Event) { c++ })
	b.Publish(PerformanceEvent{Level: OptimizeMild, FPS: 45})

	if a != 1 || c != 1 {
		t.Errorf("deliveries = %d, %d, want 1 each", a, c)
	}
}

func TestNilBusDropsEvents(t *testing.T) {
	var b *Bus
	b.Publish(ColorChangedEvent{}) // must not panic
}

func TestTopicStrings(t *testing.T) {
	tests := []struct {
		topic Topic
		want  string
	}{
		{TopicBrushSelected, "brush:selected"},
		{TopicStrokeEnd, "stroke:end"},
		{TopicPerformance, "performance"},
	}
	for _, tt := range tests {
		if got := tt.topic.String(); got != tt.want {
			t.Errorf("Topic(%d).String() = %q, want %q", tt.topic, got, tt.want)
		}
	}
}
