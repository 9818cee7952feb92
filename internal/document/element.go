// Package document holds the editor document produced by an import: pages of typed
// elements with their metadata and layer effects.
package document

import (
	"maps"
)

// ElementType tags the element variant
type ElementType string

const (
	TypeText  ElementType = "text"
	TypeImage ElementType = "image"
	TypeRect  ElementType = "rect"
)

// Element is one object on a page. Fields after BlendMode apply to some variants only.
type Element struct {
	ID        string      `json:"id"`
	Type      ElementType `json:"type"`
	Name      string      `json:"name"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Rotation  float64     `json:"rotation"`
	Opacity   float64     `json:"opacity"`
	Visible   bool        `json:"visible"`
	BlendMode string      `json:"blendMode"`

	// text
	Text           string  `json:"text,omitempty"`
	FontFamily     string  `json:"fontFamily,omitempty"`
	FontSize       float64 `json:"fontSize,omitempty"`
	FontWeight     string  `json:"fontWeight,omitempty"`
	FontStyle      string  `json:"fontStyle,omitempty"`
	Align          string  `json:"align,omitempty"`
	LineHeight     float64 `json:"lineHeight,omitempty"`
	LetterSpacing  float64 `json:"letterSpacing"`
	TextDecoration string  `json:"textDecoration,omitempty"`

	// text and rect
	Fill string `json:"fill,omitempty"`

	// image
	Src string `json:"src,omitempty"`

	// rect
	Stroke       string  `json:"stroke,omitempty"`
	StrokeWidth  float64 `json:"strokeWidth,omitempty"`
	CornerRadius float64 `json:"cornerRadius,omitempty"`

	Effects *EffectSet `json:"effects,omitempty"`
	Custom  Metadata   `json:"custom,omitempty"`
}

// IsPlaceholder reports whether the element stands in for a layer without pixels
func (e *Element) IsPlaceholder() bool {
	v, _ := e.Custom["isPlaceholder"].(bool)
	return e.Type == TypeRect && v
}

// Metadata is the free-form custom record attached to an element. It is treated as
// immutable: every With call returns a new record.
type Metadata map[string]any

// With returns a copy of m with key set to v
func (m Metadata) With(key string, v any) Metadata {
	out := make(Metadata, len(m)+1)
	maps.Copy(out, m)
	out[key] = v
	return out
}

// Merge returns a copy of m overlaid with every entry of other
func (m Metadata) Merge(other Metadata) Metadata {
	out := make(Metadata, len(m)+len(other))
	maps.Copy(out, m)
	maps.Copy(out, other)
	return out
}

// Bool returns a boolean entry, false when absent
func (m Metadata) Bool(key string) bool {
	v, _ := m[key].(bool)
	return v
}

// String returns a string entry, "" when absent
func (m Metadata) String(key string) string {
	v, _ := m[key].(string)
	return v
}
