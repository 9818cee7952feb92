package psd

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"log/slog"
)

// Layer represents a single layer in the PSD
type Layer struct {
	file   *File
	header *Header

	// Layer record fields
	Top    int32
	Left   int32
	Bottom int32
	Right  int32

	Channels     uint16
	ChannelInfo  []ChannelInfo
	BlendModeKey string
	Opacity      uint8
	Clipping     uint8
	Flags        uint8
	Name         string

	// Additional layer information, raw blocks by key
	LayerInfo map[string][]byte

	// Parsed layer info
	ID          int32
	FillOpacity uint8
	TypeTool    *TypeToolInfo
	// Effects holds the decoded lfx2 descriptor, nil when the layer has none
	Effects map[string]interface{}

	// Decoded channel planes keyed by channel ID
	ChannelData map[int16][]byte
}

// ChannelInfo represents channel information in the layer record
type ChannelInfo struct {
	ID     int16
	Length uint32
}

// Channel IDs used in layer records
const (
	ChannelTransparency int16 = -1
	ChannelUserMask     int16 = -2
	ChannelRed          int16 = 0
	ChannelGreen        int16 = 1
	ChannelBlue         int16 = 2
)

// parseRecord reads one layer record; channel image data comes later in the section
func (l *Layer) parseRecord() error {
	var rect struct {
		Top, Left, Bottom, Right int32
		Channels                 uint16
	}
	if err := binary.Read(l.file, binary.BigEndian, &rect); err != nil {
		return err
	}
	l.Top, l.Left, l.Bottom, l.Right = rect.Top, rect.Left, rect.Bottom, rect.Right
	l.Channels = rect.Channels

	l.ChannelInfo = make([]ChannelInfo, rect.Channels)
	if err := binary.Read(l.file, binary.BigEndian, l.ChannelInfo); err != nil {
		return err
	}

	var blend struct {
		Sig      [4]byte
		Key      [4]byte
		Opacity  uint8
		Clipping uint8
		Flags    uint8
		_        uint8
		ExtraLen uint32
	}
	if err := binary.Read(l.file, binary.BigEndian, &blend); err != nil {
		return err
	}
	if string(blend.Sig[:]) != "8BIM" {
		return fmt.Errorf("invalid blend mode signature: %s", blend.Sig[:])
	}
	l.BlendModeKey = string(blend.Key[:])
	l.Opacity, l.Clipping, l.Flags = blend.Opacity, blend.Clipping, blend.Flags

	if blend.ExtraLen > 0 {
		start, err := l.file.Tell()
		if err != nil {
			return err
		}
		end := start + int64(blend.ExtraLen)

		// Mask data and blending ranges are length-prefixed and unused
		if err := l.skipBlock(); err != nil {
			return err
		}
		if err := l.skipBlock(); err != nil {
			return err
		}
		if err := l.parseLayerName(); err != nil {
			return err
		}

		pos, err := l.file.Tell()
		if err != nil {
			return err
		}
		if pos < end {
			l.parseAdditionalLayerInfo(end)
		}
		if _, err := l.file.Seek(end, io.SeekStart); err != nil {
			return err
		}
	}

	l.applyLayerInfo()
	return nil
}

func (l *Layer) skipBlock() error {
	length, err := l.file.ReadUint32()
	if err != nil {
		return err
	}
	if length > 0 {
		return l.file.Skip(int64(length))
	}
	return nil
}

func (l *Layer) parseLayerName() error {
	nameLen, err := l.file.ReadByte()
	if err != nil {
		return err
	}

	if nameLen > 0 {
		name, err := l.file.ReadString(int(nameLen))
		if err != nil {
			return err
		}
		l.Name = name
	}

	// Pascal string padding to multiple of 4
	padSize := (4 - ((int(nameLen) + 1) % 4)) % 4
	if padSize > 0 {
		if err := l.file.Skip(int64(padSize)); err != nil {
			return err
		}
	}

	return nil
}

// parseAdditionalLayerInfo collects the keyed info blocks up to end. A malformed block
// ends the walk; whatever was read before it is kept.
func (l *Layer) parseAdditionalLayerInfo(end int64) {
	l.LayerInfo = make(map[string][]byte)

	for {
		pos, err := l.file.Tell()
		if err != nil || pos+12 > end {
			return
		}

		var block struct {
			Sig    [4]byte
			Key    [4]byte
			Length uint32
		}
		if err := binary.Read(l.file, binary.BigEndian, &block); err != nil {
			return
		}
		if sig := string(block.Sig[:]); sig != "8BIM" && sig != "8B64" {
			return
		}
		key := string(block.Key[:])
		if pos+12+int64(block.Length) > end {
			slog.Debug("layer info block overruns record", "layer", l.Name, "key", key)
			return
		}

		data := make([]byte, block.Length)
		if _, err := l.file.Read(data); err != nil {
			return
		}
		l.LayerInfo[key] = data

		// Blocks are padded to a multiple of 4
		if pad := (4 - block.Length%4) % 4; pad > 0 {
			if err := l.file.Skip(int64(pad)); err != nil {
				return
			}
		}
	}
}

func (l *Layer) parseChannelData() error {
	l.ChannelData = make(map[int16][]byte)

	width, height := int(l.Width()), int(l.Height())

	for _, info := range l.ChannelInfo {
		startPos, err := l.file.Tell()
		if err != nil {
			return fmt.Errorf("failed to get file position for channel %d: %w", info.ID, err)
		}
		expectedPos := startPos + int64(info.Length)

		// Length covers the 2-byte compression marker; anything shorter carries no pixels
		if info.Length <= 2 {
			if info.Length > 0 {
				if err := l.file.Skip(int64(info.Length)); err != nil {
					return fmt.Errorf("failed to skip channel %d: %w", info.ID, err)
				}
			}
			continue
		}

		compression, err := l.file.ReadUint16()
		if err != nil {
			return fmt.Errorf("failed to read compression for channel %d (length=%d): %w", info.ID, info.Length, err)
		}

		raw := make([]byte, info.Length-2)
		if _, err := l.file.Read(raw); err != nil {
			return fmt.Errorf("failed to read data for channel %d: %w", info.ID, err)
		}

		// The user mask has its own rectangle which is not decoded
		if info.ID == ChannelUserMask {
			continue
		}

		switch compression {
		case 0:
			l.ChannelData[info.ID] = raw
		case 1:
			l.ChannelData[info.ID] = decodeRLEChannel(raw, width, height)
		default:
			slog.Debug("skipping channel with unsupported compression",
				"layer", l.Name, "channel", info.ID, "compression", compression)
		}

		if pos, err := l.file.Tell(); err == nil && pos != expectedPos {
			if _, err := l.file.Seek(expectedPos, io.SeekStart); err != nil {
				return fmt.Errorf("failed to seek past channel %d: %w", info.ID, err)
			}
		}
	}

	return nil
}

// Width returns the width of the layer
func (l *Layer) Width() int32 {
	return l.Right - l.Left
}

// Height returns the height of the layer
func (l *Layer) Height() int32 {
	return l.Bottom - l.Top
}

// Visible returns whether the layer is visible
func (l *Layer) Visible() bool {
	return l.Flags&0x02 == 0
}

// IsFolder returns whether this layer is a folder start or end marker
func (l *Layer) IsFolder() bool {
	d := l.SectionDivider()
	return d != nil && d.Type != SectionDividerOther
}

// IsFolderEnd returns whether this is a folder end marker
func (l *Layer) IsFolderEnd() bool {
	d := l.SectionDivider()
	return d != nil && d.Type == SectionDividerBoundingStart
}

// IsTextLayer reports whether the layer carries type tool data
func (l *Layer) IsTextLayer() bool {
	return l.TypeTool != nil
}

// HasPixels reports whether any colour channel was decoded
func (l *Layer) HasPixels() bool {
	if l.Width() <= 0 || l.Height() <= 0 {
		return false
	}
	for id, data := range l.ChannelData {
		if id >= 0 && len(data) > 0 {
			return true
		}
	}
	return false
}

// NodeType returns the node type for this layer
func (l *Layer) NodeType() string {
	if l.IsFolder() {
		return NodeTypeGroup
	}
	return NodeTypeLayer
}

// BlendMode returns the readable blend mode name
func (l *Layer) BlendMode() string {
	return BlendModeName(l.BlendModeKey)
}

// ToImage converts the layer to a straight-alpha image. Missing colour channels read as
// zero and a missing transparency channel as opaque; nil is returned for empty bounds.
func (l *Layer) ToImage() (*image.NRGBA, error) {
	width := int(l.Width())
	height := int(l.Height())
	if width <= 0 || height <= 0 {
		return nil, nil
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	planes := [4][]byte{
		l.ChannelData[ChannelRed],
		l.ChannelData[ChannelGreen],
		l.ChannelData[ChannelBlue],
		l.ChannelData[ChannelTransparency],
	}

	gray := l.header != nil && l.header.Mode == ColorModeGrayscale
	for i := 0; i < width*height; i++ {
		o := i * 4
		for c := 0; c < 3; c++ {
			if i < len(planes[c]) {
				img.Pix[o+c] = planes[c][i]
			}
		}
		if gray && i < len(planes[0]) {
			img.Pix[o+1], img.Pix[o+2] = planes[0][i], planes[0][i]
		}
		img.Pix[o+3] = 255
		if planes[3] != nil && i < len(planes[3]) {
			img.Pix[o+3] = planes[3][i]
		}
	}

	return img, nil
}
