package importer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/Mark24Code/psdimport/internal/document"
)

// Placeholder rectangle style for layers without pixels
const (
	placeholderFill   = "rgba(200, 200, 200, 0.3)"
	placeholderStroke = "#ccc"
)

// Mapper converts flattened layers into document elements
type Mapper struct {
	// RasterizeText emits text layers that carry pixels as images
	RasterizeText bool
	Raster        RasterOptions
	// EnhanceThreshold super-samples bitmaps smaller than this on either side; 0 disables
	EnhanceThreshold int
	Fonts            *FontCache
	Logger           *slog.Logger
	NewID            func() string
}

func (m *Mapper) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *Mapper) newID() string {
	if m.NewID == nil {
		return uuid.NewString()
	}
	return m.NewID()
}

func (m *Mapper) fonts() *FontCache {
	if m.Fonts == nil {
		m.Fonts = NewFontCache(nil, m.Logger)
	}
	return m.Fonts
}

// MapLayer converts one layer. A nil element with a nil error means the layer has
// nothing to import. Panics while mapping are returned as errors.
func (m *Mapper) MapLayer(ctx context.Context, fl FlatLayer) (el *document.Element, err error) {
	defer func() {
		if r := recover(); r != nil {
			el, err = nil, fmt.Errorf("map layer %q: %v", fl.Layer.Name, r)
		}
	}()

	l := &fl.Layer
	if l.Hidden && l.Text == nil && !l.HasRaster() && len(l.Children) == 0 {
		m.logger().Debug("hidden empty layer skipped", "layer", l.Name)
		return nil, nil
	}

	rawW := math.Abs(l.Right - l.Left)
	rawH := math.Abs(l.Bottom - l.Top)
	nativeW, nativeH := nativeSize(l)
	w, h := rawW, rawH
	if w <= 0 {
		w = float64(nativeW)
	}
	if h <= 0 {
		h = float64(nativeH)
	}

	name := l.Name
	if name == "" {
		name = "Layer"
	}
	base := document.Element{
		ID:        m.newID(),
		Name:      name,
		X:         l.Left,
		Y:         l.Top,
		Width:     math.Max(1, w),
		Height:    math.Max(1, h),
		Opacity:   fl.Opacity,
		Visible:   fl.Visible,
		BlendMode: MapBlendMode(fl.BlendMode),
	}

	if l.HasText() {
		return m.mapText(ctx, l, base)
	}
	if !l.HasRaster() && (rawW <= 0 || rawH <= 0) {
		m.logger().Debug("layer without content skipped", "layer", l.Name)
		return nil, nil
	}
	return m.mapRaster(l, base)
}

func nativeSize(l *RawLayer) (int, int) {
	switch {
	case l.Canvas != nil:
		b := l.Canvas.Bounds()
		return b.Dx(), b.Dy()
	case l.Pixels.usable():
		return l.Pixels.Width, l.Pixels.Height
	}
	return 0, 0
}

func (m *Mapper) mapRaster(l *RawLayer, el document.Element) (*document.Element, error) {
	if !l.HasRaster() {
		el.Type = document.TypeRect
		el.Fill = placeholderFill
		el.Stroke = placeholderStroke
		el.StrokeWidth = 1
		el.Custom = document.Metadata{}.
			With("isPlaceholder", true).
			With("psdLayer", true)
		return &el, nil
	}

	img := LayerToCanvas(l, m.Raster)
	src, err := m.encode(img)
	if err != nil {
		return nil, fmt.Errorf("encode layer %q: %w", l.Name, err)
	}
	b := img.Bounds()
	el.Type = document.TypeImage
	el.Src = src
	el.Custom = document.Metadata{}.
		With("highQuality", true).
		With("originalDimensions", map[string]int{"width": b.Dx(), "height": b.Dy()}).
		With("psdImageLayer", true)
	return &el, nil
}

func (m *Mapper) encode(img *image.NRGBA) (string, error) {
	if m.EnhanceThreshold > 0 {
		img = Enhance(img, m.EnhanceThreshold)
	}
	return EncodeDataURL(img)
}

func (m *Mapper) mapText(ctx context.Context, l *RawLayer, el document.Element) (*document.Element, error) {
	text := l.Text.Text

	if m.RasterizeText {
		if !l.HasRaster() {
			m.logger().Debug("text layer has no pixels, rasterized as placeholder", "layer", l.Name)
		}
		src, err := m.encode(LayerToCanvas(l, m.Raster))
		if err != nil {
			return nil, fmt.Errorf("encode text layer %q: %w", l.Name, err)
		}
		el.Type = document.TypeImage
		el.Src = src
		el.Custom = document.Metadata{}.
			With("fromTextLayer", true).
			With("originalText", text).
			With("rasterized", true).
			With("placeholderBitmap", !l.HasRaster())
		return &el, nil
	}

	style := ResolveTextStyle(l.Text)
	engine := engineStyle(l.Text.Engine)
	if engine == nil {
		engine = &TextStyle{}
	}
	fx := ParseEffects(l)

	el.Type = document.TypeText
	el.Text = text
	custom := document.Metadata{
		"fromPSD":       true,
		"fromTextLayer": true,
		"originalText":  text,
		"rasterized":    false,
		"psdTextLayer":  true,
	}.Merge(document.Metadata{
		"psdPrecision":     true,
		"originalFontSize": style.FontSize,
		"originalFontName": style.FontName,
		"originalColor":    style.FillColor,
		"renderingMode":    "precise",
	})

	if fx.HasEffects {
		el.Effects = &fx
		if css := CSSEffects(fx); css != "" {
			custom = custom.With("cssEffects", css)
		}
	}

	// font size
	implied := firstPositive(style.ImpliedFontSize, engine.ImpliedFontSize)
	pt := firstPositive(style.FontSize, engine.FontSize, defaultFontSizePt)
	size, source := ResolveFontSize(implied, pt)
	custom = custom.Merge(document.Metadata{
		"originalFontSizePt": pt,
		"originalFontSizePx": size,
		"fontSizeSource":     source,
	})

	if style.FontName != "" {
		el.FontFamily = m.fonts().Family(style.FontName)
		if ok, err := m.fonts().Ensure(ctx, style.FontName); err != nil || !ok {
			m.logger().Debug("font not found locally, using fallback", "font", style.FontName, "family", el.FontFamily)
		}
		custom = custom.With("fontOptimized", true)
	} else {
		el.FontFamily = "Arial, sans-serif"
	}

	el.Fill = "rgb(0, 0, 0)"
	if style.FillColor != nil {
		r, g, b := to255(*style.FillColor)
		el.Fill = fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
		custom = custom.
			With("preciseColor", map[string]int{"r": r, "g": g, "b": b}).
			With("originalColorSource", "psd")
	}

	el.Align = MapAlignment(style.Alignment)

	lowerFont := strings.ToLower(style.FontName)
	el.FontWeight = "normal"
	if style.FauxBold || strings.Contains(lowerFont, "bold") {
		el.FontWeight = "bold"
	}
	el.FontStyle = "normal"
	if style.FauxItalic || strings.Contains(lowerFont, "italic") {
		el.FontStyle = "italic"
	}
	el.TextDecoration = textDecoration(style)

	// tracking is resolved before the horizontal scale so the scale applies to it
	if style.Tracking != nil {
		el.LetterSpacing = LetterSpacing(*style.Tracking)
	}

	sx, sy := ScaleFromStyle(
		firstPositive(style.HorizontalScale, engine.HorizontalScale),
		firstPositive(style.VerticalScale, engine.VerticalScale),
		textTransform(l.Text, style),
	)
	if source == FontSizePtToPx {
		if sy != 1 {
			before := size
			size = math.Max(1, round(size*sy, 2))
			custom = custom.With("appliedScaleY", sy).With("fontSizeBeforeScale", before)
		}
		if sx != 1 && style.Tracking != nil {
			el.LetterSpacing = clamp(round(el.LetterSpacing*sx, 3), -0.5, 2)
			custom = custom.With("appliedScaleX", sx)
		}
	}
	el.FontSize = size
	el.LineHeight = LineHeight(style.Leading, size)

	var leading, tracking any
	if style.Leading > 0 {
		leading = style.Leading
	}
	if style.Tracking != nil {
		tracking = *style.Tracking
	}
	el.Custom = custom.Merge(document.Metadata{
		"originalLeadingPt":             leading,
		"originalTrackingThousandthsEm": tracking,
		"preciseMetrics": map[string]any{
			"lineHeight":        el.LineHeight,
			"letterSpacing":     el.LetterSpacing,
			"calculationMethod": "strict-pt-to-px",
		},
		"cssClass": "psd-precision-text",
	})
	return &el, nil
}

func textDecoration(s *TextStyle) string {
	var d []string
	if s.Underline {
		d = append(d, "underline")
	}
	if s.Strikethrough {
		d = append(d, "line-through")
	}
	if len(d) == 0 {
		return "none"
	}
	return strings.Join(d, " ")
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 && !math.IsInf(v, 0) {
			return v
		}
	}
	return 0
}
