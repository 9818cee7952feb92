package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/Mark24Code/psdimport/internal/document"
)

// effectSource returns a layer's effects block from one place, or nil
type effectSource func(*RawLayer) map[string]any

var effectSources = []effectSource{
	func(l *RawLayer) map[string]any { return l.Effects },
	func(l *RawLayer) map[string]any { return l.LayerEffects },
	additionalEffects,
}

func additionalEffects(l *RawLayer) map[string]any {
	for _, info := range l.AdditionalInfo {
		if info.Key == "lfx2" || info.Key == "leff" || info.Signature == "lfx2" {
			return info.Data
		}
	}
	return nil
}

// Each effect kind may appear under a friendly name or its descriptor key
var (
	strokeKeys       = []string{"stroke", "frameFX", "FrFX"}
	outerGlowKeys    = []string{"outerGlow", "outerGlowEffect", "OrGl"}
	colorOverlayKeys = []string{"colorOverlay", "solidFill", "SoFi"}
	dropShadowKeys   = []string{"dropShadow", "DrSh"}
	innerShadowKeys  = []string{"innerShadow", "IrSh"}
	bevelKeys        = []string{"bevelEmboss", "ebbl"}
)

// enumNames maps descriptor enum values to readable names
var enumNames = map[string]string{
	// stroke position
	"OutF": "outside",
	"InsF": "inside",
	"CtrF": "center",
	// blend modes
	"Nrml": "normal",
	"Dslv": "dissolve",
	"Drkn": "darken",
	"Mltp": "multiply",
	"CBrn": "colorBurn",
	"Lghn": "lighten",
	"Scrn": "screen",
	"CDdg": "colorDodge",
	"Ovrl": "overlay",
	"SftL": "softLight",
	"HrdL": "hardLight",
	"Dfrn": "difference",
	"Xclu": "exclusion",
	"H   ": "hue",
	"Strt": "saturation",
	"Clr ": "color",
	"Lmns": "luminosity",
	// bevel style and technique
	"OtrB": "outerBevel",
	"InrB": "innerBevel",
	"Embs": "emboss",
	"PlEb": "pillowEmboss",
	"SfBL": "smooth",
	"PrBL": "chiselHard",
	"Slmt": "chiselSoft",
}

// ParseEffects collects the layer style effects of l. Each effect gets a record unless
// it is missing or explicitly disabled; missing fields take their defaults.
func ParseEffects(l *RawLayer) document.EffectSet {
	var fx document.EffectSet

	block := effectsBlock(l)
	if block == nil {
		return fx
	}

	if b := subBlock(block, strokeKeys); b != nil {
		fx.Stroke = &document.Stroke{
			Size:     numField(b, 1, "size", "strokeWidth", "Sz  "),
			Color:    colorField(b, "color", "strokeColor", "Clr "),
			Position: strField(b, "outside", "position", "strokePosition", "Styl"),
			Opacity:  numField(b, 100, "opacity", "strokeOpacity", "Opct"),
		}
	}
	if b := subBlock(block, outerGlowKeys); b != nil {
		fx.OuterGlow = &document.Glow{
			Color:     colorField(b, "color", "Clr "),
			Opacity:   numField(b, 75, "opacity", "Opct"),
			Blur:      numField(b, 5, "blur", "size"),
			Spread:    numField(b, 0, "spread", "Ckmt"),
			BlendMode: strField(b, "normal", "blendMode", "Md  "),
		}
	}
	if b := subBlock(block, colorOverlayKeys); b != nil {
		fx.ColorOverlay = &document.ColorOverlay{
			Color:     colorField(b, "color", "Clr "),
			Opacity:   numField(b, 100, "opacity", "Opct"),
			BlendMode: strField(b, "normal", "blendMode", "Md  "),
		}
	}
	if b := subBlock(block, dropShadowKeys); b != nil {
		fx.DropShadow = &document.Shadow{
			Color:    colorField(b, "color", "Clr "),
			Opacity:  numField(b, 75, "opacity", "Opct"),
			Distance: numField(b, 5, "distance", "Dstn"),
			Angle:    numField(b, 120, "angle", "lagl"),
			Blur:     numField(b, 5, "blur", "size"),
			Spread:   numField(b, 0, "spread", "Ckmt"),
		}
	}
	if b := subBlock(block, innerShadowKeys); b != nil {
		fx.InnerShadow = &document.InnerShadow{
			Color:    colorField(b, "color", "Clr "),
			Opacity:  numField(b, 75, "opacity", "Opct"),
			Distance: numField(b, 5, "distance", "Dstn"),
			Angle:    numField(b, 120, "angle", "lagl"),
			Blur:     numField(b, 5, "blur", "size"),
			Choke:    numField(b, 0, "choke", "Ckmt"),
		}
	}
	if b := subBlock(block, bevelKeys); b != nil {
		fx.BevelEmboss = &document.Bevel{
			Style:         strField(b, "innerBevel", "style", "bvlS"),
			Technique:     strField(b, "smooth", "technique", "bvlT"),
			Depth:         numField(b, 100, "depth", "srgR"),
			Size:          numField(b, 5, "size", "blur"),
			Soften:        numField(b, 0, "soften", "Sftn"),
			Angle:         numField(b, 120, "angle", "lagl"),
			Altitude:      numField(b, 30, "altitude", "Lald"),
			HighlightMode: strField(b, "screen", "highlightMode", "hglM"),
			ShadowMode:    strField(b, "multiply", "shadowMode", "sdwM"),
		}
	}

	fx.HasEffects = fx.Stroke != nil || fx.OuterGlow != nil || fx.ColorOverlay != nil ||
		fx.DropShadow != nil || fx.InnerShadow != nil || fx.BevelEmboss != nil
	return fx
}

func effectsBlock(l *RawLayer) map[string]any {
	for _, src := range effectSources {
		if b := src(l); len(b) > 0 {
			return b
		}
	}
	return nil
}

// subBlock returns the first enabled sub-block found under keys
func subBlock(block map[string]any, keys []string) map[string]any {
	for _, k := range keys {
		b, ok := block[k].(map[string]any)
		if !ok {
			continue
		}
		for _, flag := range []string{"enabled", "enab"} {
			if on, ok := b[flag].(bool); ok && !on {
				return nil
			}
		}
		return b
	}
	return nil
}

// numField returns the first non-zero number under keys, or def
func numField(b map[string]any, def float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := number(b[k]); ok && v != 0 && !math.IsNaN(v) {
			return v
		}
	}
	return def
}

// strField returns the first non-empty string or descriptor enum under keys, or def
func strField(b map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		switch v := b[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if code, ok := v["value"].(string); ok && code != "" {
				if name, ok := enumNames[code]; ok {
					return name
				}
				return strings.TrimSpace(code)
			}
		}
	}
	return def
}

func colorField(b map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := b[k]; ok && v != nil {
			return ParseColor(v)
		}
	}
	return defaultEffectColor
}

// maxStrokeGrid bounds the text-shadow outline emitted for wide strokes
const maxStrokeGrid = 10

// CSSEffects renders fx as CSS declarations joined by "; ". Empty when fx has no effects.
func CSSEffects(fx document.EffectSet) string {
	var styles []string

	if s := fx.Stroke; s != nil {
		size := s.Size
		if size <= 0 {
			size = 1
		}
		styles = append(styles,
			"-webkit-text-stroke: "+px(size)+" "+s.Color,
			"-webkit-text-stroke-width: "+px(size),
			"-webkit-text-stroke-color: "+s.Color,
		)
		var offsets []string
		grid := math.Min(size, maxStrokeGrid)
		for x := -grid; x <= grid; x++ {
			for y := -grid; y <= grid; y++ {
				if x != 0 || y != 0 {
					offsets = append(offsets, px(x)+" "+px(y)+" 0 "+s.Color)
				}
			}
		}
		if len(offsets) > 0 {
			styles = append(styles, "text-shadow: "+strings.Join(offsets, ", "))
		}
	}

	if g := fx.OuterGlow; g != nil {
		styles = append(styles,
			"text-shadow: 0 0 "+px(g.Blur)+" "+g.Color+", 0 0 "+px(g.Blur*2)+" "+g.Color,
			"filter: drop-shadow(0 0 "+px(g.Blur)+" "+g.Color+")",
		)
	}

	if o := fx.ColorOverlay; o != nil {
		styles = append(styles, "color: "+o.Color+" !important")
		if alpha := o.Opacity / 100; alpha < 1 {
			styles = append(styles, "opacity: "+num(alpha))
		}
	}

	if d := fx.DropShadow; d != nil {
		dx, dy := offset(d.Angle, d.Distance)
		shadow := px(dx) + " " + px(dy) + " " + px(d.Blur) + " " + d.Color
		styles = append(styles, "text-shadow: "+shadow, "filter: drop-shadow("+shadow+")")
	}

	if in := fx.InnerShadow; in != nil {
		dx, dy := offset(in.Angle, in.Distance)
		styles = append(styles, "text-shadow: inset "+px(dx)+" "+px(dy)+" "+px(in.Blur)+" "+in.Color)
	}

	return strings.Join(styles, "; ")
}

func offset(angleDeg, distance float64) (float64, float64) {
	rad := angleDeg * math.Pi / 180
	return math.Cos(rad) * distance, math.Sin(rad) * distance
}

func num(v float64) string {
	r := round(v, 3)
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func px(v float64) string {
	return num(v) + "px"
}
