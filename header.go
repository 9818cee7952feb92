package psd

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Signature is the magic marker every PSD and PSB document starts with
const Signature = "8BPS"

// ErrInvalidSignature is returned when the input does not start with Signature
var ErrInvalidSignature = errors.New("invalid PSD signature")

// ValidateSignature checks the leading magic marker without parsing anything else
func ValidateSignature(data []byte) error {
	if len(data) < len(Signature) {
		return fmt.Errorf("%w: input is %d bytes", ErrInvalidSignature, len(data))
	}
	if string(data[:len(Signature)]) != Signature {
		return fmt.Errorf("%w: %q", ErrInvalidSignature, data[:len(Signature)])
	}
	return nil
}

// Header represents the PSD file header
type Header struct {
	file     *File
	Sig      string
	Version  uint16
	Channels uint16
	Rows     uint32
	Cols     uint32
	Depth    uint16
	Mode     uint16
}

// Color modes
const (
	ColorModeBitmap           = 0
	ColorModeGrayscale        = 1
	ColorModeIndexedColor     = 2
	ColorModeRGBColor         = 3
	ColorModeCMYKColor        = 4
	ColorModeHSLColor         = 5
	ColorModeHSBColor         = 6
	ColorModeMultichannel     = 7
	ColorModeDuotone          = 8
	ColorModeLabColor         = 9
	ColorModeGray16           = 10
	ColorModeRGB48            = 11
	ColorModeLab48            = 12
	ColorModeCMYK64           = 13
	ColorModeDeepMultichannel = 14
	ColorModeDuotone16        = 15
)

var colorModeNames = []string{
	"Bitmap",
	"GrayScale",
	"IndexedColor",
	"RGBColor",
	"CMYKColor",
	"HSLColor",
	"HSBColor",
	"Multichannel",
	"Duotone",
	"LabColor",
	"Gray16",
	"RGB48",
	"Lab48",
	"CMYK64",
	"DeepMultichannel",
	"Duotone16",
}

// Width returns the width of the document
func (h *Header) Width() uint32 {
	return h.Cols
}

// Height returns the height of the document
func (h *Header) Height() uint32 {
	return h.Rows
}

// ModeName returns the human-readable color mode name
func (h *Header) ModeName() string {
	if int(h.Mode) < len(colorModeNames) {
		return colorModeNames[h.Mode]
	}
	return fmt.Sprintf("Unknown(%d)", h.Mode)
}

// IsBig returns true if this is a PSB (large document format)
func (h *Header) IsBig() bool {
	return h.Version == 2
}

// IsRGB returns true if the color mode is RGB
func (h *Header) IsRGB() bool {
	return h.Mode == ColorModeRGBColor
}

// IsCMYK returns true if the color mode is CMYK
func (h *Header) IsCMYK() bool {
	return h.Mode == ColorModeCMYKColor
}

// Parse reads the fixed 26-byte header and skips the colour mode data that follows it
func (h *Header) Parse() error {
	var raw struct {
		Sig      [4]byte
		Version  uint16
		_        [6]byte
		Channels uint16
		Rows     uint32
		Cols     uint32
		Depth    uint16
		Mode     uint16
	}
	if err := binary.Read(h.file, binary.BigEndian, &raw); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	if sig := string(raw.Sig[:]); sig != Signature {
		return fmt.Errorf("%w: %q", ErrInvalidSignature, sig)
	}
	if raw.Version != 1 && raw.Version != 2 {
		return fmt.Errorf("unsupported PSD version: %d", raw.Version)
	}

	h.Sig = Signature
	h.Version = raw.Version
	h.Channels = raw.Channels
	h.Rows = raw.Rows
	h.Cols = raw.Cols
	h.Depth = raw.Depth
	h.Mode = raw.Mode

	colorDataLen, err := h.file.ReadUint32()
	if err != nil {
		return fmt.Errorf("failed to read color data length: %w", err)
	}
	if colorDataLen > 0 {
		if err := h.file.Skip(int64(colorDataLen)); err != nil {
			return fmt.Errorf("failed to skip color data: %w", err)
		}
	}
	return nil
}
