package importer

import (
	"math"

	"github.com/Mark24Code/psdimport/internal/document"
)

// FitRatio is the uniform scale that fits a src-sized document inside dst
func FitRatio(srcW, srcH, dstW, dstH float64) float64 {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return 1
	}
	return math.Min(dstW/srcW, dstH/srcH)
}

// ScaleElement multiplies the element geometry, font size, stroke, corner radius and
// effect magnitudes by ratio
func ScaleElement(e *document.Element, ratio float64) {
	e.X *= ratio
	e.Y *= ratio
	e.Width *= ratio
	e.Height *= ratio
	e.FontSize *= ratio
	e.StrokeWidth *= ratio
	e.CornerRadius *= ratio

	if e.Effects != nil {
		e.Effects.Scale(ratio)
		if _, ok := e.Custom["cssEffects"]; ok {
			e.Custom = e.Custom.With("cssEffects", CSSEffects(*e.Effects))
		}
	}
}
