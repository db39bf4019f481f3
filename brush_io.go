package ink

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidBrushData is returned when an imported brush payload is
// malformed or missing required fields.
var ErrInvalidBrushData = errors.New("ink: invalid brush data")

// ExportBrush serializes a brush to its textual interchange form. The
// payload carries every settings field, so a re-import reproduces an
// equivalent brush.
func ExportBrush(b *Brush) ([]byte, error) {
	if b == nil {
		return nil, ErrInvalidBrushData
	}
	return json.MarshalIndent(b, "", "  ")
}

// ImportBrush parses an exported brush payload and registers it as a
// custom brush with a freshly generated identifier. Payloads missing id,
// name, or settings fail with ErrInvalidBrushData and commit nothing.
func (r *BrushRegistry) ImportBrush(data []byte) (*Brush, error) {
	var raw struct {
		ID       string           `json:"id"`
		Name     string           `json:"name"`
		Settings *json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBrushData, err)
	}
	if raw.ID == "" || raw.Name == "" || raw.Settings == nil {
		return nil, fmt.Errorf("%w: missing id, name, or settings", ErrInvalidBrushData)
	}

	var b Brush
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBrushData, err)
	}
	b.ID = uuid.NewString()
	b.Customizable = true
	b.Settings = b.Settings.clamped()

	r.mu.Lock()
	r.brushes[b.ID] = &b
	r.customs[b.ID] = true
	r.mu.Unlock()

	r.saveCustoms()
	return b.Clone(), nil
}
