package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const defaultEffectColor = "rgb(0, 0, 0)"

// CSSColor formats c as rgb(r, g, b). Components all at or below 1 are read as
// fractions; anything else is clamped to [0,255].
func CSSColor(c RGB) string {
	r, g, b := to255(c)
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}

func to255(c RGB) (int, int, int) {
	scale := 1.0
	if c.R <= 1 && c.G <= 1 && c.B <= 1 {
		scale = 255
	}
	conv := func(v float64) int {
		return int(clamp(math.Round(v*scale), 0, 255))
	}
	return conv(c.R), conv(c.G), conv(c.B)
}

// ParseColor normalizes an effect colour from any of the shapes a source may use: an
// RGB value, a map with r/g/b keys, a Photoshop RGBC descriptor with "Rd  "/"Grn "/"Bl  "
// keys, or a hex string. Anything unreadable is black.
func ParseColor(v any) string {
	switch c := v.(type) {
	case RGB:
		return CSSColor(c)
	case *RGB:
		if c != nil {
			return CSSColor(*c)
		}
	case map[string]any:
		if rgb, ok := rgbFromMap(c); ok {
			return CSSColor(rgb)
		}
	case string:
		return hexColor(c)
	}
	return defaultEffectColor
}

var rgbKeySets = [][3]string{
	{"r", "g", "b"},
	{"Rd  ", "Grn ", "Bl  "},
	{"red", "green", "blue"},
}

func rgbFromMap(m map[string]any) (RGB, bool) {
	for _, keys := range rgbKeySets {
		r, okR := number(m[keys[0]])
		g, okG := number(m[keys[1]])
		b, okB := number(m[keys[2]])
		if okR && okG && okB {
			return RGB{R: r, G: g, B: b}, true
		}
	}
	return RGB{}, false
}

func hexColor(s string) string {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return defaultEffectColor
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return defaultEffectColor
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", v>>16&0xff, v>>8&0xff, v&0xff)
}

// number reads a numeric value from the loosely typed maps produced by descriptors
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case map[string]any:
		// unit value {id, unit, value}
		switch f := n["value"].(type) {
		case float64:
			return f, true
		case float32:
			return float64(f), true
		}
	}
	return 0, false
}
