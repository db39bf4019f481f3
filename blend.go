package ink

import "github.com/gogpu/ink/internal/blend"

// BlendMode selects how painted color composites onto what is below it,
// for both strokes and whole layers. The set mirrors the W3C separable
// blend modes the application exposes.
type BlendMode int

// Blend modes.
const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendSoftLight
	BlendHardLight
	BlendColorDodge
	BlendColorBurn
	BlendDarken
	BlendLighten
)

var blendNames = map[BlendMode]string{
	BlendNormal:     "normal",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendOverlay:    "overlay",
	BlendSoftLight:  "soft-light",
	BlendHardLight:  "hard-light",
	BlendColorDodge: "color-dodge",
	BlendColorBurn:  "color-burn",
	BlendDarken:     "darken",
	BlendLighten:    "lighten",
}

// String returns the mode's wire name ("normal", "multiply", ...).
func (m BlendMode) String() string {
	if s, ok := blendNames[m]; ok {
		return s
	}
	return "normal"
}

// ParseBlendMode resolves a wire name to a BlendMode. Unknown names fall
// back to BlendNormal rather than failing — a stroke with a stale mode id
// must still paint.
func ParseBlendMode(name string) BlendMode {
	for m, s := range blendNames {
		if s == name {
			return m
		}
	}
	return BlendNormal
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	*m = ParseBlendMode(string(text))
	return nil
}

// op maps the public mode onto the compositing backend's operator.
func (m BlendMode) op() blend.Op {
	switch m {
	case BlendMultiply:
		return blend.Multiply
	case BlendScreen:
		return blend.Screen
	case BlendOverlay:
		return blend.Overlay
	case BlendSoftLight:
		return blend.SoftLight
	case BlendHardLight:
		return blend.HardLight
	case BlendColorDodge:
		return blend.ColorDodge
	case BlendColorBurn:
		return blend.ColorBurn
	case BlendDarken:
		return blend.Darken
	case BlendLighten:
		return blend.Lighten
	default:
		return blend.SourceOver
	}
}
