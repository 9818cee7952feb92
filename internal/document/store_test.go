package document

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddElementAssignsIDAndOrder(t *testing.T) {
	s := NewStore(1080, 1080)

	h1, err := s.AddElement(Element{Type: TypeRect, Name: "bg", Width: 10, Height: 10})
	require.NoError(t, err)
	h2, err := s.AddElement(Element{ID: "title", Type: TypeText, Name: "title", Width: 5, Height: 1, Text: "Hi"})
	require.NoError(t, err)

	assert.NotEmpty(t, h1.ID)
	assert.Equal(t, 0, h1.Index)
	assert.Equal(t, "title", h2.ID)
	assert.Equal(t, 1, h2.Index)
	assert.Equal(t, s.ActivePage().ID, h2.Page)

	els := s.ActivePage().Elements()
	require.Len(t, els, 2)
	assert.Equal(t, "bg", els[0].Name)
	assert.Equal(t, "title", els[1].Name)
}

func TestAddElementRejectsInvalid(t *testing.T) {
	p := NewStore(100, 100).ActivePage()

	_, err := p.AddElement(Element{Type: "circle", Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrInvalidElement)

	_, err = p.AddElement(Element{Type: TypeRect, Width: 0, Height: 1})
	assert.ErrorIs(t, err, ErrInvalidElement)

	_, err = p.AddElement(Element{Type: TypeImage, Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrInvalidElement)

	_, err = p.AddElement(Element{ID: "a", Type: TypeRect, Width: 1, Height: 1})
	require.NoError(t, err)
	_, err = p.AddElement(Element{ID: "a", Type: TypeRect, Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrDuplicateID)

	assert.Len(t, p.Elements(), 1)
}

func TestSizeAndPages(t *testing.T) {
	s := NewStore(1080, 1080)
	require.NoError(t, s.SetSize(1920, 1080))
	w, h := s.Size()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
	assert.Error(t, s.SetSize(0, 10))

	first := s.ActivePage()
	second := s.AddPage()
	assert.Same(t, second, s.ActivePage())
	assert.Equal(t, []*Page{first, second}, s.Pages())
}

func TestMetadataWithIsPure(t *testing.T) {
	base := Metadata{"fromPSD": true}
	next := base.With("rasterized", false)
	merged := next.Merge(Metadata{"fromPSD": false, "cssClass": "x"})

	assert.Len(t, base, 1)
	assert.Len(t, next, 2)
	assert.True(t, base.Bool("fromPSD"))
	assert.False(t, merged.Bool("fromPSD"))
	assert.Equal(t, "x", merged.String("cssClass"))

	var empty Metadata
	assert.Equal(t, Metadata{"k": 1}, empty.With("k", 1))
}

func TestEffectSetScale(t *testing.T) {
	fx := &EffectSet{
		Stroke:      &Stroke{Size: 4, Opacity: 100},
		OuterGlow:   &Glow{Blur: 10, Spread: 2, Opacity: 75},
		DropShadow:  &Shadow{Distance: 8, Blur: 6, Spread: 2, Angle: 120},
		InnerShadow: &InnerShadow{Distance: 4, Blur: 2, Choke: 10},
		BevelEmboss: &Bevel{Depth: 100, Size: 6, Altitude: 30},
	}
	fx.Scale(0.5)

	assert.Equal(t, 2.0, fx.Stroke.Size)
	assert.Equal(t, 100.0, fx.Stroke.Opacity)
	assert.Equal(t, 5.0, fx.OuterGlow.Blur)
	assert.Equal(t, 1.0, fx.OuterGlow.Spread)
	assert.Equal(t, 4.0, fx.DropShadow.Distance)
	assert.Equal(t, 120.0, fx.DropShadow.Angle)
	assert.Equal(t, 2.0, fx.InnerShadow.Distance)
	assert.Equal(t, 10.0, fx.InnerShadow.Choke)
	assert.Equal(t, 50.0, fx.BevelEmboss.Depth)
	assert.Equal(t, 30.0, fx.BevelEmboss.Altitude)

	var none *EffectSet
	assert.NotPanics(t, func() { none.Scale(2) })
}

func TestWriteJSON(t *testing.T) {
	s := NewStore(500, 400)
	_, err := s.AddElement(Element{
		Type: TypeRect, Name: "ph", Width: 3, Height: 4, Opacity: 1, Visible: true, BlendMode: "normal",
		Fill: "rgba(200, 200, 200, 0.3)", Stroke: "#ccc", StrokeWidth: 1,
		Custom: Metadata{"isPlaceholder": true},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.WriteJSON(&buf))

	var doc struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		Pages  []struct {
			Children []map[string]any `json:"children"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 500, doc.Width)
	require.Len(t, doc.Pages, 1)
	require.Len(t, doc.Pages[0].Children, 1)
	el := doc.Pages[0].Children[0]
	assert.Equal(t, "rect", el["type"])
	assert.Equal(t, "#ccc", el["stroke"])
	assert.NotContains(t, el, "src")
	assert.Equal(t, true, el["custom"].(map[string]any)["isPlaceholder"])

	p := s.ActivePage().Elements()[0]
	assert.True(t, p.IsPlaceholder())
}
