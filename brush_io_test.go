package ink

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestBrushExportImportRoundTrip(t *testing.T) {
	r := NewBrushRegistry(nil, nil, nil, nil)
	original, _ := r.Get("builtin.watercolor")

	data, err := ExportBrush(original)
	if err != nil {
		t.Fatal(err)
	}
	imported, err := r.ImportBrush(data)
	if err != nil {
		t.Fatal(err)
	}

	if imported.ID == original.ID {
		t.Error("import reused the exported id instead of generating one")
	}

	// Everything except identity and the customizable flag must survive.
	diff := cmp.Diff(original, imported,
		cmpopts.IgnoreFields(Brush{}, "ID", "Customizable"),
	)
	if diff != "" {
		t.Errorf("round trip mismatch (-exported +imported):\n%s", diff)
	}

	// The imported brush must be registered and selectable.
	if !r.Select(imported.ID) {
		t.Error("imported brush not selectable")
	}
}

func TestImportBrushRejectsMalformed(t *testing.T) {
	r := NewBrushRegistry(nil, nil, nil, nil)
	before := len(r.List())

	tests := []struct {
		name string
		data string
	}{
		{"not json", "not json at all"},
		{"missing id", `{"name":"X","settings":{"size":4}}`},
		{"missing name", `{"id":"a","settings":{"size":4}}`},
		{"missing settings", `{"id":"a","name":"X"}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ImportBrush([]byte(tt.data))
			if !errors.Is(err, ErrInvalidBrushData) {
				t.Fatalf("err = %v, want ErrInvalidBrushData", err)
			}
		})
	}

	// No partial state committed.
	if got := len(r.List()); got != before {
		t.Errorf("registry grew from %d to %d on failed imports", before, got)
	}
}

func TestExportNilBrush(t *testing.T) {
	if _, err := ExportBrush(nil); !errors.Is(err, ErrInvalidBrushData) {
		t.Errorf("err = %v, want ErrInvalidBrushData", err)
	}
}
