package ink

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func testColorState() (*ColorState, *sync.WaitGroup) {
	var wg sync.WaitGroup
	return NewColorState(NewMemStore(), NewBus(), nil, &wg), &wg
}

func TestColorStateDefaultsToBlack(t *testing.T) {
	cs, _ := testColorState()
	if got := cs.Current().Hex(); got != "#000000" {
		t.Errorf("initial color = %q", got)
	}
	if len(cs.History()) != 0 || len(cs.Recents()) != 0 {
		t.Error("new state has non-empty history")
	}
}

func TestSetCurrentRecordsHistory(t *testing.T) {
	cs, _ := testColorState()

	cs.SetCurrent(MustHex("#ff0000"))
	cs.SetCurrent(MustHex("#00ff00"))
	cs.SetCurrent(MustHex("#ff0000")) // repeat moves to front, no duplicate

	h := cs.History()
	if len(h) != 2 {
		t.Fatalf("history length = %d, want 2", len(h))
	}
	if h[0].Hex() != "#ff0000" || h[1].Hex() != "#00ff00" {
		t.Errorf("history order = %q, %q", h[0].Hex(), h[1].Hex())
	}
	if cs.Current().Hex() != "#ff0000" {
		t.Error("current not updated")
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	cs, _ := testColorState()

	for i := 0; i <= historyCapacity; i++ {
		cs.SetCurrent(NewColorRGB(i%256, (i*3)%256, (i*7)%256, 1))
	}
	h := cs.History()
	if len(h) != historyCapacity {
		t.Fatalf("history length = %d, want %d", len(h), historyCapacity)
	}
	first := NewColorRGB(0, 0, 0, 1).Hex()
	for _, c := range h {
		if c.Hex() == first {
			t.Error("oldest entry not evicted")
		}
	}
}

func TestRecentsCapSmallerThanHistory(t *testing.T) {
	cs, _ := testColorState()

	for i := 0; i < 30; i++ {
		cs.SetCurrent(NewColorRGB(10+i, 0, 0, 1))
	}
	if got := len(cs.Recents()); got != recentsCapacity {
		t.Errorf("recents length = %d, want %d", got, recentsCapacity)
	}
	if got := len(cs.History()); got != 30 {
		t.Errorf("history length = %d, want 30", got)
	}
}

func TestPaletteCRUD(t *testing.T) {
	cs, _ := testColorState()

	cs.AddPalette(Palette{Name: "Warm", Colors: []Color{MustHex("#ff0000"), MustHex("#ff8800")}})

	p, ok := cs.Palette("Warm")
	if !ok || len(p.Colors) != 2 {
		t.Fatalf("palette = %+v, %v", p, ok)
	}

	// The returned copy does not alias internal state.
	p.Colors[0] = MustHex("#000000")
	again, _ := cs.Palette("Warm")
	if again.Colors[0].Hex() != "#ff0000" {
		t.Error("palette copy aliases internal state")
	}

	if !cs.AddToPalette("Warm", MustHex("#ffcc00")) {
		t.Error("AddToPalette failed")
	}
	p, _ = cs.Palette("Warm")
	if len(p.Colors) != 3 {
		t.Errorf("palette size = %d after append", len(p.Colors))
	}
	if cs.AddToPalette("Cool", MustHex("#0000ff")) {
		t.Error("AddToPalette accepted unknown palette")
	}

	if !cs.RemovePalette("Warm") {
		t.Error("RemovePalette failed")
	}
	if cs.RemovePalette("Warm") {
		t.Error("removed a palette twice")
	}
}

func TestColorStatePersistsAcrossLoad(t *testing.T) {
	var wg sync.WaitGroup
	store := NewMemStore()

	first := NewColorState(store, nil, nil, &wg)
	first.SetCurrent(MustHex("#123456"))
	first.AddPalette(Palette{Name: "Mine", Colors: []Color{MustHex("#abcdef")}})
	wg.Wait()

	second := NewColorState(store, nil, nil, &wg)
	second.Load(context.Background())

	if h := second.History(); len(h) != 1 || h[0].Hex() != "#123456" {
		t.Errorf("reloaded history = %v", h)
	}
	p, ok := second.Palette("Mine")
	if !ok || p.Colors[0].Hex() != "#abcdef" {
		t.Errorf("reloaded palette = %+v, %v", p, ok)
	}
}

func TestLoadTruncatesOversizedLists(t *testing.T) {
	var wg sync.WaitGroup
	store := NewMemStore()

	big := make([]Color, recentsCapacity+10)
	for i := range big {
		big[i] = NewColorRGB(i, 0, 0, 1)
	}
	saveAsync(&wg, Logger(), store, storeKeyRecents, big)
	wg.Wait()

	cs := NewColorState(store, nil, nil, &wg)
	cs.Load(context.Background())
	if got := len(cs.Recents()); got != recentsCapacity {
		t.Errorf("loaded recents length = %d, want %d", got, recentsCapacity)
	}
}

func TestHarmoniesTrackCurrent(t *testing.T) {
	cs, _ := testColorState()
	cs.SetCurrent(NewColorHSB(30, 1, 1, 1))

	got := cs.Harmonies(HarmonyComplementary)
	if len(got) != 1 {
		t.Fatalf("complementary returned %d colors", len(got))
	}
	h, _, _ := got[0].HSB()
	if h != 210 {
		t.Errorf("complementary hue = %v, want 210", h)
	}
}

func TestPushDedupOrdering(t *testing.T) {
	var list []Color
	for _, hex := range []string{"#111111", "#222222", "#333333", "#222222"} {
		list = pushDedup(list, MustHex(hex), 10)
	}
	got := make([]string, len(list))
	for i, c := range list {
		got[i] = c.Hex()
	}
	want := []string{"#222222", "#333333", "#111111"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
