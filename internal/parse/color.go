package parse

import (
	"math"
	"strconv"
	"strings"
)

// RGBA is a parsed filament color.
type RGBA struct {
	R, G, B, A uint8
}

// Named colors that show up as free-text color fields in sliced files and
// spool presets. Values are the swatch colors the slicer ships with.
var namedColors = map[string]RGBA{
	"black":   {0x00, 0x00, 0x00, 0xFF},
	"white":   {0xFF, 0xFF, 0xFF, 0xFF},
	"red":     {0xFF, 0x00, 0x00, 0xFF},
	"green":   {0x00, 0xAE, 0x42, 0xFF},
	"blue":    {0x00, 0x4B, 0xDA, 0xFF},
	"yellow":  {0xF4, 0xEE, 0x2A, 0xFF},
	"orange":  {0xFF, 0x6A, 0x13, 0xFF},
	"purple":  {0x5E, 0x43, 0xB7, 0xFF},
	"pink":    {0xF5, 0x54, 0x7C, 0xFF},
	"gray":    {0x8E, 0x90, 0x89, 0xFF},
	"grey":    {0x8E, 0x90, 0x89, 0xFF},
	"silver":  {0xA6, 0xA9, 0xAA, 0xFF},
	"gold":    {0xE4, 0xBD, 0x68, 0xFF},
	"brown":   {0x9D, 0x43, 0x2C, 0xFF},
	"cyan":    {0x0E, 0xE2, 0xA0, 0xFF},
	"natural": {0xFF, 0xFF, 0xFF, 0x00},
}

// ParseColor parses a raw color string into RGBA. Accepted forms are
// "#RRGGBB", "RRGGBB", "#RRGGBBAA", "RRGGBBAA" and the named colors above.
func ParseColor(raw string) (RGBA, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return RGBA{}, false
	}

	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, true
	}

	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGBA{}, false
	}

	if len(s) == 6 {
		return RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xFF}, true
	}
	return RGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}

// Normalize canonicalizes a color string for equality comparison. Parseable
// colors become upper-case "RRGGBBAA" hex; everything else is compared as
// trimmed lower-case text.
func Normalize(raw string) string {
	if c, ok := ParseColor(raw); ok {
		const hex = "0123456789ABCDEF"
		b := []byte{
			hex[c.R>>4], hex[c.R&0xF],
			hex[c.G>>4], hex[c.G&0xF],
			hex[c.B>>4], hex[c.B&0xF],
			hex[c.A>>4], hex[c.A&0xF],
		}
		return string(b)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// Equal reports whether two raw color strings denote the same color.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Distance is the Euclidean distance between two colors in RGB space.
// Alpha is ignored; translucent variants of the same pigment should compare
// as close.
func Distance(a, b RGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Similar reports whether two raw color strings are perceptually close
// enough to substitute for one another. Unparseable colors are never
// similar, only equal.
func Similar(a, b string, threshold float64) bool {
	ca, okA := ParseColor(a)
	cb, okB := ParseColor(b)
	if !okA || !okB {
		return false
	}
	return Distance(ca, cb) <= threshold
}

// DefaultColorDistance is the similarity threshold used when no explicit
// tuning is configured.
const DefaultColorDistance = 60.0

// ColorName returns a display label for a raw color string: the nearest
// named color for parseable values, or the raw text as-is.
func ColorName(raw string) string {
	c, ok := ParseColor(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}

	best := ""
	bestDist := math.MaxFloat64
	for name, swatch := range namedColors {
		if name == "grey" || name == "natural" {
			continue
		}
		if d := Distance(c, swatch); d < bestDist {
			best = name
			bestDist = d
		}
	}
	return best
}
