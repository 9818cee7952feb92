package psd

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
)

// Image represents the flattened composite stored at the end of the document
type Image struct {
	file   *File
	header *Header
	width  int
	height int
	// one plane per colour channel, plus alpha when present
	planes [][]byte
	parsed bool
}

// Parse parses the image data. A document saved without a composite ends right after
// the layer section; that is reported through HasContent rather than as an error.
func (img *Image) Parse() error {
	if img.parsed {
		return nil
	}

	img.width = int(img.header.Width())
	img.height = int(img.header.Height())
	img.parsed = true

	compression, err := img.file.ReadUint16()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			slog.Debug("document has no composite image")
			return nil
		}
		return fmt.Errorf("failed to read compression: %w", err)
	}

	switch compression {
	case 0:
		return img.parseRaw()
	case 1:
		return img.parseRLE()
	default:
		return fmt.Errorf("unsupported compression method: %d", compression)
	}
}

func (img *Image) channelCount() int {
	channels := int(img.header.Channels)
	if channels > 4 {
		channels = 4
	}
	return channels
}

func (img *Image) parseRaw() error {
	channels := img.channelCount()
	total := img.width * img.height

	planes := make([][]byte, channels)
	for i := range planes {
		planes[i] = make([]byte, total)
		if _, err := img.file.Read(planes[i]); err != nil {
			return fmt.Errorf("failed to read channel %d: %w", i, err)
		}
	}

	img.planes = planes
	return nil
}

func (img *Image) parseRLE() error {
	channels := int(img.header.Channels)
	height := img.height
	width := img.width

	// Byte counts cover every channel, including ones beyond RGBA
	counts := make([]uint16, channels*height)
	for i := range counts {
		count, err := img.file.ReadUint16()
		if err != nil {
			return fmt.Errorf("failed to read byte count: %w", err)
		}
		counts[i] = count
	}

	planes := make([][]byte, img.channelCount())
	for ch := range planes {
		planes[ch] = make([]byte, width*height)

		for row := 0; row < height; row++ {
			n := int(counts[ch*height+row])
			if n == 0 {
				continue
			}
			line := make([]byte, n)
			if _, err := img.file.Read(line); err != nil {
				return fmt.Errorf("failed to read RLE scanline: %w", err)
			}
			unpackBits(planes[ch][row*width:(row+1)*width], line)
		}
	}

	img.planes = planes
	return nil
}

// Width returns the image width
func (img *Image) Width() int {
	if !img.parsed {
		return int(img.header.Width())
	}
	return img.width
}

// Height returns the image height
func (img *Image) Height() int {
	if !img.parsed {
		return int(img.header.Height())
	}
	return img.height
}

// HasContent reports whether a composite was decoded
func (img *Image) HasContent() bool {
	return img != nil && len(img.planes) > 0 && img.width > 0 && img.height > 0
}

// ToPNG converts the composite to a straight-alpha image. Grayscale documents are
// expanded to RGB; a fourth channel is used as alpha.
func (img *Image) ToPNG() *image.NRGBA {
	if !img.parsed {
		if err := img.Parse(); err != nil {
			slog.Debug("composite parse failed", "error", err)
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
	if !img.HasContent() {
		return out
	}

	rgb := img.header.IsRGB() && len(img.planes) >= 3
	for i := 0; i < img.width*img.height; i++ {
		o := i * 4
		if rgb {
			out.Pix[o] = img.planes[0][i]
			out.Pix[o+1] = img.planes[1][i]
			out.Pix[o+2] = img.planes[2][i]
		} else {
			g := img.planes[0][i]
			out.Pix[o], out.Pix[o+1], out.Pix[o+2] = g, g, g
		}
		out.Pix[o+3] = 255
		if rgb && len(img.planes) == 4 {
			out.Pix[o+3] = img.planes[3][i]
		}
	}

	return out
}
