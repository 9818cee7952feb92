package importer

import (
	"strings"
)

var alignments = map[string]string{
	"left":          "left",
	"center":        "center",
	"centre":        "center",
	"middle":        "center",
	"right":         "right",
	"justify":       "justify",
	"justifyleft":   "left",
	"justifycenter": "center",
	"justifyright":  "right",
	"justifyall":    "justify",
	"0":             "left",
	"1":             "center",
	"2":             "right",
	"3":             "justify",
}

// MapAlignment maps a source alignment name or legacy numeric code to a text align
// value. Unknown values are left aligned.
func MapAlignment(s string) string {
	if a, ok := alignments[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a
	}
	return "left"
}

var blendModes = map[string]string{
	"normal":      "normal",
	"multiply":    "multiply",
	"screen":      "screen",
	"overlay":     "overlay",
	"soft_light":  "soft-light",
	"hard_light":  "hard-light",
	"color_dodge": "color-dodge",
	"color_burn":  "color-burn",
	"darken":      "darken",
	"lighten":     "lighten",
	"difference":  "difference",
	"exclusion":   "exclusion",
}

// MapBlendMode maps a layer blend mode to the editor's vocabulary. Snake case, camel
// case and kebab case spellings are accepted; anything else is normal.
func MapBlendMode(mode string) string {
	if m, ok := blendModes[normalizeBlendName(mode)]; ok {
		return m
	}
	return "normal"
}

func normalizeBlendName(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
