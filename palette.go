package ink

import (
	"context"
	"log/slog"
	"sync"
)

// History capacities. Both lists deduplicate by hex value and evict the
// oldest entry on overflow.
const (
	historyCapacity = 50
	recentsCapacity = 20
)

// Palette is a named, ordered color list.
type Palette struct {
	Name   string  `json:"name"`
	Colors []Color `json:"colors"`
}

// ColorState owns the color side of the application: the current color,
// the usage history and recents lists, and named palettes. It is the only
// writer of those collections; external code reads copies through its
// methods.
type ColorState struct {
	mu       sync.Mutex
	current  Color
	history  []Color // most-recent-first
	recents  []Color // most-recent-first
	palettes map[string]*Palette

	store   Store
	bus     *Bus
	log     *slog.Logger
	pending *sync.WaitGroup
}

// NewColorState creates a ColorState with black as the current color.
// store and bus may be nil.
func NewColorState(store Store, bus *Bus, log *slog.Logger, pending *sync.WaitGroup) *ColorState {
	if log == nil {
		log = Logger()
	}
	return &ColorState{
		current:  NewColorRGB(0, 0, 0, 1),
		palettes: make(map[string]*Palette),
		store:    store,
		bus:      bus,
		log:      log,
		pending:  pending,
	}
}

// Load restores history, recents, and palettes from the Store. Missing or
// unreadable keys leave the defaults in place.
func (cs *ColorState) Load(ctx context.Context) {
	var history, recents []Color
	var palettes []Palette

	okH := loadJSON(ctx, cs.log, cs.store, storeKeyHistory, &history)
	okR := loadJSON(ctx, cs.log, cs.store, storeKeyRecents, &recents)
	okP := loadJSON(ctx, cs.log, cs.store, storeKeyPalettes, &palettes)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if okH {
		cs.history = truncateColors(history, historyCapacity)
	}
	if okR {
		cs.recents = truncateColors(recents, recentsCapacity)
	}
	if okP {
		for i := range palettes {
			p := palettes[i]
			cs.palettes[p.Name] = &p
		}
	}
}

// Current returns the active color.
func (cs *ColorState) Current() Color {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.current
}

// SetCurrent makes c the active color, records it in history and recents,
// publishes a color:changed event, and persists the lists asynchronously.
func (cs *ColorState) SetCurrent(c Color) {
	cs.mu.Lock()
	cs.current = c
	cs.history = pushDedup(cs.history, c, historyCapacity)
	cs.recents = pushDedup(cs.recents, c, recentsCapacity)
	history := append([]Color(nil), cs.history...)
	recents := append([]Color(nil), cs.recents...)
	cs.mu.Unlock()

	cs.bus.Publish(ColorChangedEvent{Color: c})
	saveAsync(cs.pending, cs.log, cs.store, storeKeyHistory, history)
	saveAsync(cs.pending, cs.log, cs.store, storeKeyRecents, recents)
}

// History returns a copy of the usage history, most recent first.
func (cs *ColorState) History() []Color {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]Color(nil), cs.history...)
}

// Recents returns a copy of the recents list, most recent first.
func (cs *ColorState) Recents() []Color {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]Color(nil), cs.recents...)
}

// Harmonies returns the harmony set for the current color.
func (cs *ColorState) Harmonies(kind HarmonyKind) []Color {
	return Harmony(cs.Current(), kind)
}

// AddPalette registers or replaces a named palette and persists the
// palette set asynchronously.
func (cs *ColorState) AddPalette(p Palette) {
	cs.mu.Lock()
	cp := p
	cp.Colors = append([]Color(nil), p.Colors...)
	cs.palettes[p.Name] = &cp
	cs.mu.Unlock()

	cs.bus.Publish(PaletteChangedEvent{Palette: p.Name})
	cs.savePalettes()
}

// Palette returns a copy of the named palette, or false when unknown.
func (cs *ColorState) Palette(name string) (Palette, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	p, ok := cs.palettes[name]
	if !ok {
		return Palette{}, false
	}
	return Palette{Name: p.Name, Colors: append([]Color(nil), p.Colors...)}, true
}

// RemovePalette deletes a palette. Unknown names report false.
func (cs *ColorState) RemovePalette(name string) bool {
	cs.mu.Lock()
	_, ok := cs.palettes[name]
	delete(cs.palettes, name)
	cs.mu.Unlock()

	if ok {
		cs.bus.Publish(PaletteChangedEvent{Palette: name})
		cs.savePalettes()
	}
	return ok
}

// AddToPalette appends a color to an existing palette. Unknown names
// report false.
func (cs *ColorState) AddToPalette(name string, c Color) bool {
	cs.mu.Lock()
	p, ok := cs.palettes[name]
	if ok {
		p.Colors = append(p.Colors, c)
	}
	cs.mu.Unlock()

	if ok {
		cs.bus.Publish(PaletteChangedEvent{Palette: name})
		cs.savePalettes()
	}
	return ok
}

func (cs *ColorState) savePalettes() {
	cs.mu.Lock()
	all := make([]Palette, 0, len(cs.palettes))
	for _, p := range cs.palettes {
		all = append(all, Palette{Name: p.Name, Colors: append([]Color(nil), p.Colors...)})
	}
	cs.mu.Unlock()
	saveAsync(cs.pending, cs.log, cs.store, storeKeyPalettes, all)
}

// pushDedup prepends c, removing any earlier entry with the same hex and
// evicting the oldest entry past cap.
func pushDedup(list []Color, c Color, capacity int) []Color {
	hex := c.Hex()
	out := make([]Color, 0, minInt(len(list)+1, capacity))
	out = append(out, c)
	for _, old := range list {
		if old.Hex() == hex {
			continue
		}
		if len(out) == capacity {
			break
		}
		out = append(out, old)
	}
	return out
}

func truncateColors(list []Color, capacity int) []Color {
	if len(list) > capacity {
		list = list[:capacity]
	}
	return list
}
