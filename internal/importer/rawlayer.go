// Package importer converts parsed Photoshop documents into editor document elements.
package importer

import (
	"fmt"
	"image"

	psd "github.com/Mark24Code/psdimport"
)

// PixelBuffer is a raw RGBA buffer with premultiplied colour channels
type PixelBuffer struct {
	Data   []byte
	Width  int
	Height int
}

// maxPixelBufferSide is the largest side a document may declare
const maxPixelBufferSide = 300000

// usable reports whether the buffer holds data and declares a size it could plausibly
// fill. Buffers missing more than three quarters of their bytes are rejected.
func (p *PixelBuffer) usable() bool {
	if p == nil || len(p.Data) == 0 || p.Width <= 0 || p.Height <= 0 {
		return false
	}
	if p.Width > maxPixelBufferSide || p.Height > maxPixelBufferSide {
		return false
	}
	return p.Width*p.Height <= len(p.Data)
}

// RGB is a colour whose components are either all in [0,1] or in [0,255]
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// TextStyle is the typography of a text layer in source units. Zero numeric fields and
// nil pointers mean the source did not specify the value.
type TextStyle struct {
	FontName string
	// FontSize is in points
	FontSize float64
	// ImpliedFontSize is a pixel size already resolved by the source
	ImpliedFontSize float64
	FillColor       *RGB
	Alignment       string
	// Tracking is in thousandths of an em
	Tracking *float64
	// Leading is in points
	Leading float64
	// HorizontalScale and VerticalScale are percentages
	HorizontalScale float64
	VerticalScale   float64
	Transform       []float64

	FauxBold      bool
	FauxItalic    bool
	Underline     bool
	Strikethrough bool
}

// StyleRange applies a style to the characters in [Start, End)
type StyleRange struct {
	Start, End int
	Style      *TextStyle
}

// TextRun applies a style to Length characters
type TextRun struct {
	Length int
	Style  *TextStyle
}

// TextPayload is the text content of a type layer and every style source it carries
type TextPayload struct {
	Text string
	// Transform is [xx xy yx yy tx ty]
	Transform   []float64
	StyleRanges []StyleRange
	Runs        []TextRun
	Style       *TextStyle
	Engine      *psd.EngineData
}

// AdditionalInfo is a tagged auxiliary block attached to a layer
type AdditionalInfo struct {
	Key       string
	Signature string
	Data      map[string]any
}

// RawLayer is one layer of a parsed document. Bounds are in document pixels.
type RawLayer struct {
	ID                       string
	Name                     string
	Left, Top, Right, Bottom float64
	Hidden                   bool
	// Opacity is in [0,255]; nil means fully opaque
	Opacity   *float64
	BlendMode string

	Canvas image.Image
	Pixels *PixelBuffer
	Text   *TextPayload

	Effects        map[string]any
	LayerEffects   map[string]any
	AdditionalInfo []AdditionalInfo

	VectorMask bool
	Children   []RawLayer
}

// HasRaster reports whether the layer carries a decoded canvas or a pixel buffer
func (l *RawLayer) HasRaster() bool {
	if l.Canvas != nil && !l.Canvas.Bounds().Empty() {
		return true
	}
	return l.Pixels.usable()
}

// HasText reports whether the layer has a text payload with content
func (l *RawLayer) HasText() bool {
	return l.Text != nil && l.Text.Text != ""
}

// Document is a parsed document reduced to what the import pipeline consumes
type Document struct {
	Width      int
	Height     int
	Resolution float64
	// Layers are in paint order, bottom-most first
	Layers []RawLayer
	Source *psd.PSD
}

// FromDocument converts a parsed PSD into RawLayers. Children are listed bottom-most
// first so that adding elements in order stacks them the way the document paints.
func FromDocument(doc *psd.PSD) (*Document, error) {
	header := doc.Header()
	if header == nil {
		return nil, fmt.Errorf("document has no header")
	}
	tree := doc.Tree()
	if tree == nil {
		return nil, fmt.Errorf("document has no layer tree")
	}

	res, _ := doc.Resolution()
	return &Document{
		Width:      int(header.Width()),
		Height:     int(header.Height()),
		Resolution: res,
		Layers:     fromNodes(tree.Children),
		Source:     doc,
	}, nil
}

func fromNodes(nodes []*psd.Node) []RawLayer {
	out := make([]RawLayer, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		out = append(out, fromNode(nodes[i]))
	}
	return out
}

func fromNode(n *psd.Node) RawLayer {
	opacity := float64(n.Opacity)
	raw := RawLayer{
		Name:      n.Name,
		Left:      float64(n.Left),
		Top:       float64(n.Top),
		Right:     float64(n.Right),
		Bottom:    float64(n.Bottom),
		Hidden:    !n.Visible,
		Opacity:   &opacity,
		BlendMode: n.BlendMode,
	}

	if n.Type == psd.NodeTypeGroup {
		raw.Children = fromNodes(n.Children)
	}

	l := n.Layer
	if l == nil {
		return raw
	}
	if l.ID > 0 {
		raw.ID = fmt.Sprintf("layer_%d", l.ID)
	}
	raw.VectorMask = l.HasVectorMask()
	if len(l.Effects) > 0 {
		raw.AdditionalInfo = append(raw.AdditionalInfo, AdditionalInfo{
			Key:       psd.LayerInfoObjectEffects,
			Signature: "8BIM",
			Data:      l.Effects,
		})
	}
	if n.Type == psd.NodeTypeLayer && l.HasPixels() {
		if img, err := l.ToImage(); err == nil && img != nil {
			raw.Canvas = img
		}
	}
	if l.TypeTool != nil {
		raw.Text = textPayload(l.TypeTool)
	}
	return raw
}

func textPayload(tt *psd.TypeToolInfo) *TextPayload {
	t := tt.Transform
	p := &TextPayload{
		Text:      tt.Text(),
		Transform: []float64{t.XX, t.XY, t.YX, t.YY, t.TX, t.TY},
		Engine:    tt.Engine,
	}
	if tt.Engine == nil {
		return p
	}

	align := ""
	if j, ok := tt.Engine.Justification(); ok {
		align = justificationName(j)
	}
	for _, run := range tt.Engine.StyleRuns() {
		s := fromEngineStyle(run.Style)
		s.Alignment = align
		p.Runs = append(p.Runs, TextRun{Length: run.Length, Style: s})
	}
	if def := tt.Engine.DefaultStyle(); def != nil {
		s := fromEngineStyle(*def)
		s.Alignment = align
		p.Style = s
	}
	return p
}

// justificationName maps a paragraph justification code to its name
func justificationName(j int) string {
	switch j {
	case 0:
		return "left"
	case 1:
		return "right"
	case 2:
		return "center"
	case 3:
		return "justifyleft"
	case 4:
		return "justifyright"
	case 5:
		return "justifycenter"
	case 6:
		return "justifyall"
	}
	return ""
}

func fromEngineStyle(es psd.TextStyle) *TextStyle {
	s := &TextStyle{FontName: es.Font, Tracking: es.Tracking}
	if es.FontSize != nil {
		s.FontSize = *es.FontSize
	}
	if es.Leading != nil && (es.AutoLeading == nil || !*es.AutoLeading) {
		s.Leading = *es.Leading
	}
	if es.HorizontalScale != nil {
		s.HorizontalScale = *es.HorizontalScale * 100
	}
	if es.VerticalScale != nil {
		s.VerticalScale = *es.VerticalScale * 100
	}
	if len(es.FillColor) == 4 {
		s.FillColor = &RGB{R: es.FillColor[1], G: es.FillColor[2], B: es.FillColor[3]}
	}
	s.FauxBold = es.FauxBold != nil && *es.FauxBold
	s.FauxItalic = es.FauxItalic != nil && *es.FauxItalic
	s.Underline = es.Underline != nil && *es.Underline
	s.Strikethrough = es.Strikethrough != nil && *es.Strikethrough
	return s
}

// engineStyle returns the first style sheet of the engine data, or nil
func engineStyle(e *psd.EngineData) *TextStyle {
	if e == nil {
		return nil
	}
	runs := e.StyleRuns()
	if len(runs) == 0 {
		return nil
	}
	return fromEngineStyle(runs[0].Style)
}
