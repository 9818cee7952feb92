package psd

import (
	"fmt"
	"strconv"
)

// EngineData is the decoded text engine block of a type layer. Dictionaries decode to
// map[string]interface{}, arrays to []interface{}, numbers to float64, booleans to bool
// and both names and string literals to string.
type EngineData struct {
	Root map[string]interface{}
}

// ParseEngineData parses the PostScript-like dictionary syntax used by the text engine
func ParseEngineData(data []byte) (*EngineData, error) {
	p := &engineParser{data: data}
	p.skipSpace()
	if !p.hasPrefix("<<") {
		return nil, fmt.Errorf("engine data does not start with a dictionary")
	}

	v, err := p.value()
	if err != nil {
		return nil, err
	}
	root, _ := v.(map[string]interface{})
	return &EngineData{Root: root}, nil
}

type engineParser struct {
	data []byte
	pos  int
}

func (p *engineParser) hasPrefix(s string) bool {
	return len(p.data)-p.pos >= len(s) && string(p.data[p.pos:p.pos+len(s)]) == s
}

func (p *engineParser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\r', '\n', 0:
			p.pos++
		default:
			return
		}
	}
}

func (p *engineParser) value() (interface{}, error) {
	p.skipSpace()
	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("unexpected end of engine data")
	}

	switch {
	case p.hasPrefix("<<"):
		return p.dict()
	case p.data[p.pos] == '[':
		return p.array()
	case p.data[p.pos] == '(':
		return p.literal()
	case p.data[p.pos] == '/':
		return p.name(), nil
	default:
		return p.scalar()
	}
}

func (p *engineParser) dict() (map[string]interface{}, error) {
	p.pos += 2
	out := make(map[string]interface{})
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return out, nil
		}
		if p.hasPrefix(">>") {
			p.pos += 2
			return out, nil
		}
		if p.data[p.pos] != '/' {
			return nil, fmt.Errorf("expected key at offset %d", p.pos)
		}
		key := p.name()
		v, err := p.value()
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", key, err)
		}
		out[key] = v
	}
}

func (p *engineParser) array() ([]interface{}, error) {
	p.pos++
	out := []interface{}{}
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return out, nil
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (p *engineParser) name() string {
	p.pos++
	start := p.pos
	for p.pos < len(p.data) && !isEngineDelimiter(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// literal reads a parenthesised string; backslash escapes the next byte
func (p *engineParser) literal() (string, error) {
	p.pos++
	var raw []byte
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch c {
		case '\\':
			if p.pos+1 < len(p.data) {
				raw = append(raw, p.data[p.pos+1])
			}
			p.pos += 2
			continue
		case ')':
			p.pos++
			return decodeEngineString(raw), nil
		}
		raw = append(raw, c)
		p.pos++
	}
	return "", fmt.Errorf("unterminated string in engine data")
}

func (p *engineParser) scalar() (interface{}, error) {
	start := p.pos
	for p.pos < len(p.data) && !isEngineDelimiter(p.data[p.pos]) {
		p.pos++
	}
	token := string(p.data[start:p.pos])

	switch token {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "":
		p.pos++
		return nil, fmt.Errorf("unexpected byte %q at offset %d", p.data[start], start)
	}

	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return token, nil
	}
	return f, nil
}

func isEngineDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', 0, '/', '[', ']', '(', ')', '<', '>':
		return true
	}
	return false
}

// Lookup walks nested dictionaries by key, returning nil when any step is missing
func (e *EngineData) Lookup(path ...string) interface{} {
	if e == nil {
		return nil
	}
	var cur interface{} = e.Root
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// TextStyle is one engine style sheet. Nil fields were absent from the sheet.
type TextStyle struct {
	Font            string
	FontSize        *float64
	FauxBold        *bool
	FauxItalic      *bool
	AutoLeading     *bool
	Leading         *float64
	HorizontalScale *float64
	VerticalScale   *float64
	Tracking        *float64
	// FillColor is ARGB with components in [0,1]
	FillColor     []float64
	Underline     *bool
	Strikethrough *bool
}

// StyleRun is a style applied to Length characters
type StyleRun struct {
	Length int
	Style  TextStyle
}

// FontNames returns the document font set, indexed by the Font field of style sheets
func (e *EngineData) FontNames() []string {
	set, ok := e.Lookup("ResourceDict", "FontSet").([]interface{})
	if !ok {
		set, _ = e.Lookup("DocumentResources", "FontSet").([]interface{})
	}

	names := make([]string, 0, len(set))
	for _, entry := range set {
		m, _ := entry.(map[string]interface{})
		name, _ := m["Name"].(string)
		names = append(names, name)
	}
	return names
}

// StyleRuns returns the character style runs in text order
func (e *EngineData) StyleRuns() []StyleRun {
	runs, _ := e.Lookup("EngineDict", "StyleRun", "RunArray").([]interface{})
	lengths, _ := e.Lookup("EngineDict", "StyleRun", "RunLengthArray").([]interface{})
	fonts := e.FontNames()

	out := make([]StyleRun, 0, len(runs))
	for i, run := range runs {
		m, _ := run.(map[string]interface{})
		sheet, _ := m["StyleSheet"].(map[string]interface{})
		data, _ := sheet["StyleSheetData"].(map[string]interface{})

		sr := StyleRun{Style: decodeTextStyle(data, fonts)}
		if i < len(lengths) {
			if n, ok := lengths[i].(float64); ok {
				sr.Length = int(n)
			}
		}
		out = append(out, sr)
	}
	return out
}

// DefaultStyle returns the default run style, falling back to the first named style
// sheet in the resource dictionary. Nil when neither is present.
func (e *EngineData) DefaultStyle() *TextStyle {
	fonts := e.FontNames()
	if data, ok := e.Lookup("EngineDict", "StyleRun", "DefaultRunData", "StyleSheet", "StyleSheetData").(map[string]interface{}); ok && len(data) > 0 {
		s := decodeTextStyle(data, fonts)
		return &s
	}

	sheets, _ := e.Lookup("ResourceDict", "StyleSheetSet").([]interface{})
	if len(sheets) > 0 {
		m, _ := sheets[0].(map[string]interface{})
		if data, ok := m["StyleSheetData"].(map[string]interface{}); ok {
			s := decodeTextStyle(data, fonts)
			return &s
		}
	}
	return nil
}

// Justification returns the paragraph justification of the first paragraph run
func (e *EngineData) Justification() (int, bool) {
	runs, _ := e.Lookup("EngineDict", "ParagraphRun", "RunArray").([]interface{})
	for _, run := range runs {
		m, _ := run.(map[string]interface{})
		sheet, _ := m["ParagraphSheet"].(map[string]interface{})
		props, _ := sheet["Properties"].(map[string]interface{})
		if j, ok := props["Justification"].(float64); ok {
			return int(j), true
		}
	}
	return 0, false
}

func decodeTextStyle(data map[string]interface{}, fonts []string) TextStyle {
	var s TextStyle
	if idx, ok := data["Font"].(float64); ok && int(idx) >= 0 && int(idx) < len(fonts) {
		s.Font = fonts[int(idx)]
	}
	s.FontSize = engineFloat(data, "FontSize")
	s.Leading = engineFloat(data, "Leading")
	s.HorizontalScale = engineFloat(data, "HorizontalScale")
	s.VerticalScale = engineFloat(data, "VerticalScale")
	s.Tracking = engineFloat(data, "Tracking")
	s.FauxBold = engineBool(data, "FauxBold")
	s.FauxItalic = engineBool(data, "FauxItalic")
	s.AutoLeading = engineBool(data, "AutoLeading")
	s.Underline = engineBool(data, "Underline")
	s.Strikethrough = engineBool(data, "Strikethrough")

	if fill, ok := data["FillColor"].(map[string]interface{}); ok {
		if values, ok := fill["Values"].([]interface{}); ok {
			for _, v := range values {
				f, _ := v.(float64)
				s.FillColor = append(s.FillColor, f)
			}
		}
	}
	return s
}

func engineFloat(m map[string]interface{}, key string) *float64 {
	if v, ok := m[key].(float64); ok {
		return &v
	}
	return nil
}

func engineBool(m map[string]interface{}, key string) *bool {
	switch v := m[key].(type) {
	case bool:
		return &v
	case float64:
		b := v != 0
		return &b
	}
	return nil
}
