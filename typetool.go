package psd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
)

// TypeToolInfo contains text layer information
type TypeToolInfo struct {
	Version     uint16
	Transform   Transform
	TextVersion uint16
	TextData    map[string]interface{}
	WarpData    map[string]interface{}
	// EngineData is the raw text engine block; Engine is its decoded form
	EngineData []byte
	Engine     *EngineData
}

// Transform represents the transformation matrix
type Transform struct {
	XX float64
	XY float64
	YX float64
	YY float64
	TX float64
	TY float64
}

// Text returns the text content with carriage returns turned into newlines
func (t *TypeToolInfo) Text() string {
	if t == nil || t.TextData == nil {
		return ""
	}
	txt, _ := t.TextData["Txt "].(string)
	txt = strings.ReplaceAll(txt, "\r\n", "\n")
	return strings.ReplaceAll(txt, "\r", "\n")
}

// HasTextContent checks if this TypeTool has actual text content
func (t *TypeToolInfo) HasTextContent() bool {
	return t.Text() != ""
}

// Fonts returns the font names referenced by the text engine
func (t *TypeToolInfo) Fonts() []string {
	if t == nil || t.Engine == nil {
		return nil
	}
	return t.Engine.FontNames()
}

// Sizes returns the font size of every style run that sets one
func (t *TypeToolInfo) Sizes() []float64 {
	if t == nil || t.Engine == nil {
		return nil
	}
	var sizes []float64
	for _, run := range t.Engine.StyleRuns() {
		if run.Style.FontSize != nil {
			sizes = append(sizes, *run.Style.FontSize)
		}
	}
	return sizes
}

// ParseTypeTool parses TypeTool data from a layer info block
func ParseTypeTool(data []byte) (*TypeToolInfo, error) {
	reader := bytes.NewReader(data)
	info := &TypeToolInfo{}

	if err := binary.Read(reader, binary.BigEndian, &info.Version); err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}

	// Six doubles: xx, xy, yx, yy, tx, ty
	if err := binary.Read(reader, binary.BigEndian, &info.Transform); err != nil {
		return nil, fmt.Errorf("failed to read transform: %w", err)
	}

	if err := binary.Read(reader, binary.BigEndian, &info.TextVersion); err != nil {
		return nil, fmt.Errorf("failed to read text version: %w", err)
	}

	var descriptorVersion uint32
	if err := binary.Read(reader, binary.BigEndian, &descriptorVersion); err != nil {
		return nil, fmt.Errorf("failed to read descriptor version: %w", err)
	}

	offset := len(data) - reader.Len()
	textParser := NewDescriptorParser(data[offset:])
	textData, err := textParser.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse text descriptor: %w", err)
	}
	info.TextData = textData
	offset += textParser.Consumed()

	if raw, ok := textData["EngineData"].([]byte); ok {
		info.EngineData = raw
		engine, err := ParseEngineData(raw)
		if err != nil {
			slog.Debug("failed to parse engine data", "error", err)
		} else {
			info.Engine = engine
		}
	}

	// Warp version (2) and descriptor version (4) precede the warp descriptor
	if offset+6 < len(data) {
		warpParser := NewDescriptorParser(data[offset+6:])
		if warp, err := warpParser.Parse(); err == nil {
			info.WarpData = warp
		}
	}

	return info, nil
}
