package ink

// HarmonyKind selects a color-harmony rule: a set of hue rotations applied
// to a base color. All rotations preserve the base color's saturation,
// brightness, and alpha.
type HarmonyKind int

// Harmony kinds.
const (
	HarmonyComplementary HarmonyKind = iota
	HarmonyAnalogous
	HarmonyTriadic
	HarmonyTetradic
	HarmonySplitComplementary
)

// String returns a human-readable name for the harmony kind.
func (k HarmonyKind) String() string {
	switch k {
	case HarmonyComplementary:
		return "complementary"
	case HarmonyAnalogous:
		return "analogous"
	case HarmonyTriadic:
		return "triadic"
	case HarmonyTetradic:
		return "tetradic"
	case HarmonySplitComplementary:
		return "split-complementary"
	default:
		return "unknown"
	}
}

// harmonyRotations maps each kind to its hue offsets in degrees.
var harmonyRotations = map[HarmonyKind][]float64{
	HarmonyComplementary:      {180},
	HarmonyAnalogous:          {-30, 30},
	HarmonyTriadic:            {120, 240},
	HarmonyTetradic:           {90, 180, 270},
	HarmonySplitComplementary: {150, 210},
}

// Harmony returns the companion colors for base under the given rule. The
// base color itself is not included. An unknown kind returns nil.
func Harmony(base Color, kind HarmonyKind) []Color {
	rotations, ok := harmonyRotations[kind]
	if !ok {
		return nil
	}
	out := make([]Color, len(rotations))
	for i, deg := range rotations {
		out[i] = base.RotateHue(deg)
	}
	return out
}
