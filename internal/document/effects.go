package document

// EffectSet holds the layer style effects of an element. A nil slot means the effect is
// absent or disabled.
type EffectSet struct {
	Stroke       *Stroke       `json:"stroke"`
	OuterGlow    *Glow         `json:"outerGlow"`
	ColorOverlay *ColorOverlay `json:"colorOverlay"`
	DropShadow   *Shadow       `json:"dropShadow"`
	InnerShadow  *InnerShadow  `json:"innerShadow"`
	BevelEmboss  *Bevel        `json:"bevelEmboss"`
	HasEffects   bool          `json:"hasEffects"`
}

// Stroke outlines the layer content. Opacity is a percentage.
type Stroke struct {
	Size     float64 `json:"size"`
	Color    string  `json:"color"`
	Position string  `json:"position"`
	Opacity  float64 `json:"opacity"`
}

type Glow struct {
	Color     string  `json:"color"`
	Opacity   float64 `json:"opacity"`
	Blur      float64 `json:"blur"`
	Spread    float64 `json:"spread"`
	BlendMode string  `json:"blendMode"`
}

type ColorOverlay struct {
	Color     string  `json:"color"`
	Opacity   float64 `json:"opacity"`
	BlendMode string  `json:"blendMode"`
}

// Shadow is a drop shadow. Angle is in degrees.
type Shadow struct {
	Color    string  `json:"color"`
	Opacity  float64 `json:"opacity"`
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
	Blur     float64 `json:"blur"`
	Spread   float64 `json:"spread"`
}

type InnerShadow struct {
	Color    string  `json:"color"`
	Opacity  float64 `json:"opacity"`
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
	Blur     float64 `json:"blur"`
	Choke    float64 `json:"choke"`
}

type Bevel struct {
	Style         string  `json:"style"`
	Technique     string  `json:"technique"`
	Depth         float64 `json:"depth"`
	Size          float64 `json:"size"`
	Soften        float64 `json:"soften"`
	Angle         float64 `json:"angle"`
	Altitude      float64 `json:"altitude"`
	HighlightMode string  `json:"highlightMode"`
	ShadowMode    string  `json:"shadowMode"`
}

// Scale multiplies every size-like magnitude by ratio. Angles, opacities and the bevel
// altitude are left alone.
func (s *EffectSet) Scale(ratio float64) {
	if s == nil {
		return
	}
	if s.Stroke != nil {
		s.Stroke.Size *= ratio
	}
	if s.OuterGlow != nil {
		s.OuterGlow.Blur *= ratio
		s.OuterGlow.Spread *= ratio
	}
	if s.DropShadow != nil {
		s.DropShadow.Distance *= ratio
		s.DropShadow.Blur *= ratio
		s.DropShadow.Spread *= ratio
	}
	if s.InnerShadow != nil {
		s.InnerShadow.Distance *= ratio
		s.InnerShadow.Blur *= ratio
	}
	if s.BevelEmboss != nil {
		s.BevelEmboss.Depth *= ratio
		s.BevelEmboss.Size *= ratio
	}
}
