package ink

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Color is the canonical paint color. It carries every representation the
// application works in — 6-digit hex, 8-bit RGB, HSB, and alpha — and keeps
// them mutually consistent: all construction goes through the conversion
// functions, so no representation is independently authoritative.
type Color struct {
	r, g, b int     // [0, 255]
	h       float64 // hue, [0, 360)
	s, v    float64 // saturation / brightness, [0, 1]
	a       float64 // alpha, [0, 1]
}

// NewColorRGB creates a Color from 8-bit channels. Values are clamped to
// [0, 255] and alpha to [0, 1].
func NewColorRGB(r, g, b int, alpha float64) Color {
	r, g, b = clamp255i(r), clamp255i(g), clamp255i(b)
	h, s, v := rgbToHSB(r, g, b)
	return Color{r: r, g: g, b: b, h: h, s: s, v: v, a: clampF(alpha, 0, 1)}
}

// NewColorHSB creates a Color from hue (degrees, wrapped into [0, 360)),
// saturation and brightness (clamped to [0, 1]), and alpha.
func NewColorHSB(h, s, v, alpha float64) Color {
	h = wrapHue(h)
	s = clampF(s, 0, 1)
	v = clampF(v, 0, 1)
	r, g, b := hsbToRGB(h, s, v)
	return Color{r: r, g: g, b: b, h: h, s: s, v: v, a: clampF(alpha, 0, 1)}
}

// ParseHex creates a Color from a hex string. Accepts "RRGGBB" and the
// 3-digit shorthand "RGB" (expanded by digit duplication), with an optional
// '#' prefix, in either case. Alpha is 1.
func ParseHex(hex string) (Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("ink: invalid hex color %q", hex)
	}
	var r, g, b int
	if _, err := fmt.Sscanf(strings.ToLower(s), "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("ink: invalid hex color %q", hex)
	}
	return NewColorRGB(r, g, b, 1), nil
}

// MustHex is ParseHex for compile-time constants; it panics on bad input.
func MustHex(hex string) Color {
	c, err := ParseHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// RGB returns the 8-bit channels.
func (c Color) RGB() (r, g, b int) { return c.r, c.g, c.b }

// HSB returns hue in degrees [0, 360) and saturation/brightness in [0, 1].
func (c Color) HSB() (h, s, v float64) { return c.h, c.s, c.v }

// Alpha returns the alpha component in [0, 1].
func (c Color) Alpha() float64 { return c.a }

// Hex returns the normalized lowercase 6-digit hex form, '#'-prefixed.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// WithAlpha returns the color with a different alpha, clamped to [0, 1].
func (c Color) WithAlpha(alpha float64) Color {
	c.a = clampF(alpha, 0, 1)
	return c
}

// RotateHue returns the color with hue rotated by deg degrees, preserving
// saturation, brightness, and alpha. Used by harmony generation.
func (c Color) RotateHue(deg float64) Color {
	return NewColorHSB(c.h+deg, c.s, c.v, c.a)
}

// NRGBA converts to the standard library's non-premultiplied color, scaling
// alpha into the byte range.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(c.r),
		G: uint8(c.g),
		B: uint8(c.b),
		A: uint8(math.Round(c.a * 255)),
	}
}

// colorJSON is the serialized color form: normalized hex plus alpha.
type colorJSON struct {
	Hex   string  `json:"hex"`
	Alpha float64 `json:"alpha"`
}

// MarshalJSON implements json.Marshaler.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(colorJSON{Hex: c.Hex(), Alpha: c.a})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Color) UnmarshalJSON(data []byte) error {
	var j colorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	parsed, err := ParseHex(j.Hex)
	if err != nil {
		return err
	}
	*c = parsed.WithAlpha(j.Alpha)
	return nil
}

// rgbToHSB converts 8-bit RGB to hue/saturation/brightness using the
// standard max/min hexagonal-sector algorithm.
func rgbToHSB(ri, gi, bi int) (h, s, v float64) {
	r := float64(ri) / 255
	g := float64(gi) / 255
	b := float64(bi) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max
	if max > 0 {
		s = delta / max
	}
	if delta == 0 {
		return 0, s, v
	}

	switch max {
	case r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	return wrapHue(h), s, v
}

// hsbToRGB converts hue/saturation/brightness back to 8-bit RGB, walking
// the six 60° hue sectors.
func hsbToRGB(h, s, v float64) (int, int, int) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return int(math.Round((r + m) * 255)),
		int(math.Round((g + m) * 255)),
		int(math.Round((b + m) * 255))
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func clamp255i(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
