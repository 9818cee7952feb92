package importer

// styleExtractor returns a style from one source, or nil when the source has none
type styleExtractor func(*TextPayload) *TextStyle

// styleChain lists the style sources of a text payload in priority order
var styleChain = []styleExtractor{
	fromStyleRanges,
	fromRuns,
	fromDefaultStyle,
	fromEngineData,
}

func fromStyleRanges(t *TextPayload) *TextStyle {
	if len(t.StyleRanges) > 0 {
		return t.StyleRanges[0].Style
	}
	return nil
}

func fromRuns(t *TextPayload) *TextStyle {
	if len(t.Runs) > 0 {
		return t.Runs[0].Style
	}
	return nil
}

func fromDefaultStyle(t *TextPayload) *TextStyle {
	return t.Style
}

func fromEngineData(t *TextPayload) *TextStyle {
	return engineStyle(t.Engine)
}

// DefaultTextStyle is used when a text layer carries no style at all
func DefaultTextStyle() *TextStyle {
	return &TextStyle{FontSize: defaultFontSizePt, FontName: "Arial", FillColor: &RGB{}}
}

// ResolveTextStyle returns the first style found along the chain, or the default
func ResolveTextStyle(t *TextPayload) *TextStyle {
	if t != nil {
		for _, extract := range styleChain {
			if s := extract(t); s != nil {
				return s
			}
		}
	}
	return DefaultTextStyle()
}

// textTransform picks the transform used for scale decomposition: the engine's, then
// the payload's, then the style's own
func textTransform(t *TextPayload, s *TextStyle) []float64 {
	if t != nil && t.Engine != nil {
		if m := engineTransform(t); len(m) >= 4 {
			return m
		}
	}
	if t != nil && len(t.Transform) >= 4 {
		return t.Transform
	}
	return s.Transform
}

func engineTransform(t *TextPayload) []float64 {
	raw, _ := t.Engine.Lookup("Transform").([]any)
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}
