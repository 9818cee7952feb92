package importer

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark24Code/psdimport/internal/document"
	"github.com/Mark24Code/psdimport/internal/psdtest"
)

func TestParseEffectsDefaults(t *testing.T) {
	l := &RawLayer{Effects: map[string]any{
		"stroke":      map[string]any{"enabled": true},
		"outerGlow":   map[string]any{},
		"dropShadow":  map[string]any{"enabled": false},
		"bevelEmboss": map[string]any{"enabled": true},
	}}

	fx := ParseEffects(l)
	require.True(t, fx.HasEffects)

	require.NotNil(t, fx.Stroke)
	assert.Equal(t, document.Stroke{Size: 1, Color: "rgb(0, 0, 0)", Position: "outside", Opacity: 100}, *fx.Stroke)

	require.NotNil(t, fx.OuterGlow)
	assert.Equal(t, document.Glow{Color: "rgb(0, 0, 0)", Opacity: 75, Blur: 5, Spread: 0, BlendMode: "normal"}, *fx.OuterGlow)

	assert.Nil(t, fx.DropShadow)
	assert.Nil(t, fx.InnerShadow)
	assert.Nil(t, fx.ColorOverlay)

	require.NotNil(t, fx.BevelEmboss)
	assert.Equal(t, "innerBevel", fx.BevelEmboss.Style)
	assert.Equal(t, "smooth", fx.BevelEmboss.Technique)
	assert.Equal(t, 100.0, fx.BevelEmboss.Depth)
	assert.Equal(t, 30.0, fx.BevelEmboss.Altitude)
	assert.Equal(t, "screen", fx.BevelEmboss.HighlightMode)
	assert.Equal(t, "multiply", fx.BevelEmboss.ShadowMode)
}

func TestParseEffectsNone(t *testing.T) {
	fx := ParseEffects(&RawLayer{})
	assert.False(t, fx.HasEffects)
	assert.Nil(t, fx.Stroke)
	assert.Empty(t, CSSEffects(fx))
}

func TestParseEffectsSourceOrder(t *testing.T) {
	l := &RawLayer{
		LayerEffects: map[string]any{"colorOverlay": map[string]any{"color": "#00ff00"}},
		AdditionalInfo: []AdditionalInfo{
			{Key: "lfx2", Data: map[string]any{"SoFi": map[string]any{"Clr ": "#ff0000"}}},
		},
	}
	fx := ParseEffects(l)
	require.NotNil(t, fx.ColorOverlay)
	assert.Equal(t, "rgb(0, 255, 0)", fx.ColorOverlay.Color)

	l.LayerEffects = nil
	fx = ParseEffects(l)
	require.NotNil(t, fx.ColorOverlay)
	assert.Equal(t, "rgb(255, 0, 0)", fx.ColorOverlay.Color)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected string
	}{
		{"fractions", RGB{R: 1, G: 0, B: 0.5}, "rgb(255, 0, 128)"},
		{"bytes", &RGB{R: 10, G: 20, B: 300}, "rgb(10, 20, 255)"},
		{"rgb map", map[string]any{"r": 0.0, "g": 128.0, "b": 255.0}, "rgb(0, 128, 255)"},
		{"descriptor", map[string]any{"class": "RGBC", "Rd  ": 12.0, "Grn ": 34.0, "Bl  ": 56.0}, "rgb(12, 34, 56)"},
		{"long hex", "#336699", "rgb(51, 102, 153)"},
		{"short hex", "#fff", "rgb(255, 255, 255)"},
		{"bad hex", "#zzzzzz", "rgb(0, 0, 0)"},
		{"missing", nil, "rgb(0, 0, 0)"},
		{"nil pointer", (*RGB)(nil), "rgb(0, 0, 0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseColor(tt.in))
		})
	}
}

func TestParseEffectsFromDescriptor(t *testing.T) {
	fx := psdtest.Obj("null",
		psdtest.Item{Key: "Scl ", Value: psdtest.Unit{ID: "#Prc", Value: 100}},
		psdtest.Item{Key: "masterFXSwitch", Value: true},
		psdtest.Item{Key: "FrFX", Value: psdtest.Obj("FrFX",
			psdtest.Item{Key: "enab", Value: true},
			psdtest.Item{Key: "Styl", Value: psdtest.Enum{Type: "FStl", Value: "InsF"}},
			psdtest.Item{Key: "Md  ", Value: psdtest.Enum{Type: "BlnM", Value: "Nrml"}},
			psdtest.Item{Key: "Opct", Value: psdtest.Unit{ID: "#Prc", Value: 80}},
			psdtest.Item{Key: "Sz  ", Value: psdtest.Unit{ID: "#Pxl", Value: 3}},
			psdtest.Item{Key: "Clr ", Value: psdtest.Color(255, 0, 0)},
		)},
		psdtest.Item{Key: "DrSh", Value: psdtest.Obj("DrSh",
			psdtest.Item{Key: "enab", Value: true},
			psdtest.Item{Key: "Md  ", Value: psdtest.Enum{Type: "BlnM", Value: "Mltp"}},
			psdtest.Item{Key: "Clr ", Value: psdtest.Color(0, 0, 255)},
			psdtest.Item{Key: "Opct", Value: psdtest.Unit{ID: "#Prc", Value: 50}},
			psdtest.Item{Key: "lagl", Value: psdtest.Unit{ID: "#Ang", Value: 90}},
			psdtest.Item{Key: "Dstn", Value: psdtest.Unit{ID: "#Pxl", Value: 10}},
			psdtest.Item{Key: "Ckmt", Value: psdtest.Unit{ID: "#Pxl", Value: 2}},
			psdtest.Item{Key: "blur", Value: psdtest.Unit{ID: "#Pxl", Value: 4}},
		)},
		psdtest.Item{Key: "IrSh", Value: psdtest.Obj("IrSh",
			psdtest.Item{Key: "enab", Value: false},
		)},
		psdtest.Item{Key: "ebbl", Value: psdtest.Obj("ebbl",
			psdtest.Item{Key: "enab", Value: true},
			psdtest.Item{Key: "bvlS", Value: psdtest.Enum{Type: "BESl", Value: "Embs"}},
			psdtest.Item{Key: "bvlT", Value: psdtest.Enum{Type: "bvlT", Value: "PrBL"}},
			psdtest.Item{Key: "srgR", Value: psdtest.Unit{ID: "#Prc", Value: 250}},
			psdtest.Item{Key: "hglM", Value: psdtest.Enum{Type: "BlnM", Value: "Scrn"}},
			psdtest.Item{Key: "sdwM", Value: psdtest.Enum{Type: "BlnM", Value: "Mltp"}},
		)},
	)

	layer := psdtest.TextLayer("Styled", "Hello", 0, 0, 100, 40, psdtest.TextStyle{Font: "ArialMT", Size: 12, Color: [4]float64{1, 0, 0, 0}})
	layer.Effects = fx
	layer.Fill = &color.NRGBA{A: 255}
	data := psdtest.Doc{Width: 100, Height: 100, Layers: []psdtest.Layer{layer}}.Bytes()

	doc, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, doc.Layers, 1)

	set := ParseEffects(&doc.Layers[0])
	require.True(t, set.HasEffects)

	require.NotNil(t, set.Stroke)
	assert.Equal(t, 3.0, set.Stroke.Size)
	assert.Equal(t, "inside", set.Stroke.Position)
	assert.Equal(t, 80.0, set.Stroke.Opacity)
	assert.Equal(t, "rgb(255, 0, 0)", set.Stroke.Color)

	require.NotNil(t, set.DropShadow)
	assert.Equal(t, "rgb(0, 0, 255)", set.DropShadow.Color)
	assert.Equal(t, 50.0, set.DropShadow.Opacity)
	assert.Equal(t, 90.0, set.DropShadow.Angle)
	assert.Equal(t, 10.0, set.DropShadow.Distance)
	assert.Equal(t, 4.0, set.DropShadow.Blur)
	assert.Equal(t, 2.0, set.DropShadow.Spread)

	assert.Nil(t, set.InnerShadow)

	require.NotNil(t, set.BevelEmboss)
	assert.Equal(t, "emboss", set.BevelEmboss.Style)
	assert.Equal(t, "chiselHard", set.BevelEmboss.Technique)
	assert.Equal(t, 250.0, set.BevelEmboss.Depth)
	assert.Equal(t, "screen", set.BevelEmboss.HighlightMode)
}

func TestCSSEffects(t *testing.T) {
	fx := document.EffectSet{
		Stroke:       &document.Stroke{Size: 1, Color: "rgb(255, 0, 0)", Position: "outside", Opacity: 100},
		OuterGlow:    &document.Glow{Color: "rgb(255, 255, 0)", Opacity: 75, Blur: 4},
		ColorOverlay: &document.ColorOverlay{Color: "rgb(0, 0, 255)", Opacity: 50},
		DropShadow:   &document.Shadow{Color: "rgb(0, 0, 0)", Distance: 10, Angle: 90, Blur: 5},
		InnerShadow:  &document.InnerShadow{Color: "rgb(0, 0, 0)", Distance: 2, Angle: 0, Blur: 1},
		HasEffects:   true,
	}

	css := CSSEffects(fx)
	parts := strings.Split(css, "; ")

	assert.Contains(t, parts, "-webkit-text-stroke: 1px rgb(255, 0, 0)")
	assert.Contains(t, parts, "-webkit-text-stroke-width: 1px")
	assert.Contains(t, parts, "text-shadow: 0 0 4px rgb(255, 255, 0), 0 0 8px rgb(255, 255, 0)")
	assert.Contains(t, parts, "filter: drop-shadow(0 0 4px rgb(255, 255, 0))")
	assert.Contains(t, parts, "color: rgb(0, 0, 255) !important")
	assert.Contains(t, parts, "opacity: 0.5")
	assert.Contains(t, parts, "text-shadow: 0px 10px 5px rgb(0, 0, 0)")
	assert.Contains(t, parts, "filter: drop-shadow(0px 10px 5px rgb(0, 0, 0))")
	assert.Contains(t, parts, "text-shadow: inset 2px 0px 1px rgb(0, 0, 0)")

	// a 1px stroke outlines with the eight neighbouring offsets
	for _, p := range parts {
		if strings.HasPrefix(p, "text-shadow: -1px") {
			assert.Equal(t, 8, strings.Count(p, "rgb(255, 0, 0)"))
		}
	}
}

func TestCSSEffectsStrokeGridIsBounded(t *testing.T) {
	css := CSSEffects(document.EffectSet{
		Stroke:     &document.Stroke{Size: 40, Color: "rgb(0, 0, 0)"},
		HasEffects: true,
	})
	// (2*10+1)^2 - 1 offsets
	assert.Equal(t, 440, strings.Count(css, " 0 rgb(0, 0, 0)"))
}
