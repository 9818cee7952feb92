package importer

import (
	"math"
)

// Font size sources recorded on text elements
const (
	FontSizeImplied = "impliedPx"
	FontSizePtToPx  = "ptToPx"
)

const (
	defaultFontSizePt = 16.0
	defaultLineHeight = 1.2
)

// PtToPx converts points to CSS pixels
func PtToPx(pt float64) float64 {
	return pt * 96 / 72
}

// ResolveFontSize returns the element font size in pixels and the path it came from.
// A positive implied pixel size wins; otherwise the point size (16 when absent) is
// converted.
func ResolveFontSize(impliedPx, pt float64) (float64, string) {
	if impliedPx > 0 {
		return math.Max(1, round(impliedPx, 2)), FontSizeImplied
	}
	if pt <= 0 {
		pt = defaultFontSizePt
	}
	return math.Max(1, round(PtToPx(pt), 2)), FontSizePtToPx
}

// LetterSpacing converts tracking in thousandths of an em to em, clamped to [-0.5, 2]
func LetterSpacing(tracking float64) float64 {
	return clamp(round(tracking/1000, 3), -0.5, 2)
}

// LineHeight converts leading in points to a ratio of fontPx, clamped to [0.8, 3].
// Non-positive leading yields the default ratio.
func LineHeight(leadingPt, fontPx float64) float64 {
	if leadingPt <= 0 || fontPx <= 0 {
		return defaultLineHeight
	}
	return clamp(round(PtToPx(leadingPt)/fontPx, 3), 0.8, 3)
}

// ScaleFromStyle combines the horizontal and vertical scale percentages with the column
// magnitudes of a [xx xy yx yy ...] transform
func ScaleFromStyle(hPct, vPct float64, transform []float64) (float64, float64) {
	sx, sy := 1.0, 1.0
	if hPct > 0 && !math.IsInf(hPct, 0) {
		sx = hPct / 100
	}
	if vPct > 0 && !math.IsInf(vPct, 0) {
		sy = vPct / 100
	}
	if len(transform) >= 4 {
		if m := math.Hypot(transform[0], transform[1]); m > 0 {
			sx *= m
		}
		if m := math.Hypot(transform[2], transform[3]); m > 0 {
			sy *= m
		}
	}
	return sx, sy
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
