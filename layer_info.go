package psd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
)

// Additional layer info keys understood by the reader
const (
	LayerInfoUnicodeName     = "luni"
	LayerInfoLayerID         = "lyid"
	LayerInfoFillOpacity     = "iOpa"
	LayerInfoSectionDivider  = "lsct"
	LayerInfoSectionDivider2 = "lsdk"
	LayerInfoVectorMask      = "vmsk"
	LayerInfoVectorMask2     = "vsms"
	LayerInfoTypeTool        = "TySh"
	LayerInfoObjectEffects   = "lfx2"
)

// SectionDividerType represents layer section divider types
type SectionDividerType int32

const (
	SectionDividerOther         SectionDividerType = 0
	SectionDividerOpenFolder    SectionDividerType = 1
	SectionDividerClosedFolder  SectionDividerType = 2
	SectionDividerBoundingStart SectionDividerType = 3 // Folder end marker
)

// String returns a string representation of SectionDividerType
func (s SectionDividerType) String() string {
	switch s {
	case SectionDividerOther:
		return "other"
	case SectionDividerOpenFolder:
		return "open folder"
	case SectionDividerClosedFolder:
		return "closed folder"
	case SectionDividerBoundingStart:
		return "bounding section divider"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// SectionDividerInfo contains section divider information
type SectionDividerInfo struct {
	Type      SectionDividerType
	BlendMode string
	SubType   int32
}

// VectorMaskInfo contains vector mask information
type VectorMaskInfo struct {
	Version    uint32
	Flags      uint32
	PathData   []byte
	IsInverted bool
}

// parseUnicodeName parses a length-prefixed UTF-16 layer name
func parseUnicodeName(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	length := int(binary.BigEndian.Uint32(data))
	end := 4 + length*2
	if length == 0 || end > len(data) {
		return ""
	}
	return decodeUTF16BE(data[4:end])
}

func parseSectionDivider(data []byte) *SectionDividerInfo {
	if len(data) < 4 {
		return nil
	}
	info := &SectionDividerInfo{
		Type: SectionDividerType(binary.BigEndian.Uint32(data)),
	}
	if len(data) >= 12 {
		info.BlendMode = string(data[8:12])
	}
	if len(data) >= 16 {
		info.SubType = int32(binary.BigEndian.Uint32(data[12:16]))
	}
	return info
}

func parseVectorMask(data []byte) *VectorMaskInfo {
	info := &VectorMaskInfo{}
	if len(data) >= 8 {
		info.Version = binary.BigEndian.Uint32(data)
		info.Flags = binary.BigEndian.Uint32(data[4:])
		info.IsInverted = info.Flags&0x01 != 0
		info.PathData = data[8:]
	}
	return info
}

// ParseObjectEffects decodes an lfx2 block: an object effects version, a descriptor
// version and the effects descriptor.
func ParseObjectEffects(data []byte) (map[string]interface{}, error) {
	reader := bytes.NewReader(data)

	var version, descriptorVersion uint32
	if err := binary.Read(reader, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read effects version: %w", err)
	}
	if err := binary.Read(reader, binary.BigEndian, &descriptorVersion); err != nil {
		return nil, fmt.Errorf("failed to read descriptor version: %w", err)
	}
	if descriptorVersion != 16 {
		return nil, fmt.Errorf("unsupported effects descriptor version: %d", descriptorVersion)
	}

	return NewDescriptorParser(data[8:]).Parse()
}

// applyLayerInfo decodes the additional info blocks the importer relies on
func (l *Layer) applyLayerInfo() {
	l.FillOpacity = 255
	if l.LayerInfo == nil {
		return
	}

	if data, ok := l.LayerInfo[LayerInfoUnicodeName]; ok {
		if name := parseUnicodeName(data); name != "" {
			l.Name = name
		}
	}

	if data, ok := l.LayerInfo[LayerInfoLayerID]; ok && len(data) >= 4 {
		l.ID = int32(binary.BigEndian.Uint32(data))
	}

	if data, ok := l.LayerInfo[LayerInfoFillOpacity]; ok && len(data) >= 1 {
		l.FillOpacity = data[0]
	}

	if data, ok := l.LayerInfo[LayerInfoTypeTool]; ok {
		typeTool, err := ParseTypeTool(data)
		if err != nil {
			slog.Debug("failed to parse type tool", "layer", l.Name, "error", err)
		} else {
			l.TypeTool = typeTool
		}
	}

	if data, ok := l.LayerInfo[LayerInfoObjectEffects]; ok {
		effects, err := ParseObjectEffects(data)
		if err != nil {
			slog.Debug("failed to parse layer effects", "layer", l.Name, "error", err)
		} else {
			l.Effects = effects
		}
	}
}

// SectionDivider returns section divider info, nil for plain layers
func (l *Layer) SectionDivider() *SectionDividerInfo {
	for _, key := range []string{LayerInfoSectionDivider, LayerInfoSectionDivider2} {
		if data, ok := l.LayerInfo[key]; ok {
			return parseSectionDivider(data)
		}
	}
	return nil
}

// VectorMask returns vector mask info, nil when the layer has none
func (l *Layer) VectorMask() *VectorMaskInfo {
	for _, key := range []string{LayerInfoVectorMask, LayerInfoVectorMask2} {
		if data, ok := l.LayerInfo[key]; ok {
			return parseVectorMask(data)
		}
	}
	return nil
}

// HasVectorMask checks if layer has a vector mask
func (l *Layer) HasVectorMask() bool {
	return l.VectorMask() != nil
}

// IsFolderOpen checks if this is an open folder
func (l *Layer) IsFolderOpen() bool {
	d := l.SectionDivider()
	return d != nil && d.Type == SectionDividerOpenFolder
}
