package importer

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RasterOptions tunes LayerToCanvas
type RasterOptions struct {
	// Supersample renders decoded canvases at this factor before reducing them to the
	// target size. Values at or below 1 scale directly.
	Supersample float64
	// Rand picks the placeholder tint; nil uses the global source
	Rand *rand.Rand
}

// targetSize is the layer bounds floored to whole pixels, falling back to the source
// bitmap size for layers without bounds. Never below 1x1.
func targetSize(l *RawLayer, srcW, srcH int) (int, int) {
	w := int(math.Floor(l.Right - l.Left))
	h := int(math.Floor(l.Bottom - l.Top))
	if w <= 0 {
		w = srcW
	}
	if h <= 0 {
		h = srcH
	}
	return max(1, w), max(1, h)
}

// LayerToCanvas renders a layer bitmap at its target size. A decoded canvas is used
// first, then a raw pixel buffer; with neither, a tinted placeholder carrying the
// layer name is drawn. Pixel buffers declaring far more pixels than they carry count
// as missing. The result is never nil.
func LayerToCanvas(l *RawLayer, opts RasterOptions) *image.NRGBA {
	if l.Canvas != nil && !l.Canvas.Bounds().Empty() {
		b := l.Canvas.Bounds()
		w, h := targetSize(l, b.Dx(), b.Dy())
		return resample(l.Canvas, w, h, opts.Supersample)
	}

	if l.Pixels.usable() {
		src := fromPixelBuffer(l.Pixels)
		w, h := targetSize(l, l.Pixels.Width, l.Pixels.Height)
		return resample(src, w, h, 1)
	}

	w, h := targetSize(l, 1, 1)
	return Placeholder(l.Name, w, h, opts.Rand)
}

// fromPixelBuffer copies a premultiplied buffer into a straight-alpha image. Short
// buffers are zero padded and long ones truncated.
func fromPixelBuffer(p *PixelBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	copy(img.Pix, p.Data)

	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		if a == 0 || a == 255 {
			continue
		}
		alpha := float64(a) / 255
		for c := 0; c < 3; c++ {
			img.Pix[i+c] = uint8(clamp(math.Round(float64(img.Pix[i+c])/alpha), 0, 255))
		}
	}
	return img
}

// resample scales src to w x h. With factor > 1 it first renders at factor times the
// target size and reduces from there.
func resample(src image.Image, w, h int, factor float64) *image.NRGBA {
	b := src.Bounds()
	if factor > 1 {
		hw := int(math.Round(float64(w) * factor))
		hh := int(math.Round(float64(h) * factor))
		hi := image.NewNRGBA(image.Rect(0, 0, hw, hh))
		draw.CatmullRom.Scale(hi, hi.Bounds(), src, b, draw.Src, nil)
		src, b = hi, hi.Bounds()
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if b.Dx() == w && b.Dy() == h {
		// straight alpha sources are copied row by row to keep partial alpha exact
		if n, ok := src.(*image.NRGBA); ok {
			for y := 0; y < h; y++ {
				copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], n.Pix[n.PixOffset(b.Min.X, b.Min.Y+y):])
			}
			return dst
		}
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Placeholder draws a randomly tinted half-transparent rectangle with a black border
// and the layer name
func Placeholder(name string, w, h int, rng *rand.Rand) *image.NRGBA {
	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}
	tint := color.NRGBA{R: uint8(intn(256)), G: uint8(intn(256)), B: uint8(intn(256)), A: 128}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(tint), image.Point{}, draw.Src)

	border := color.NRGBA{A: 255}
	for x := 0; x < w; x++ {
		img.SetNRGBA(x, 0, border)
		img.SetNRGBA(x, h-1, border)
	}
	for y := 0; y < h; y++ {
		img.SetNRGBA(0, y, border)
		img.SetNRGBA(w-1, y, border)
	}

	if name == "" {
		name = "Unnamed"
	}
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(5, 15),
	}
	d.DrawString(name)
	return img
}

// Enhance super-samples bitmaps narrower or shorter than threshold at 2x and returns
// them at their original size. Larger bitmaps are returned unchanged.
func Enhance(img *image.NRGBA, threshold int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() >= threshold && b.Dy() >= threshold {
		return img
	}
	return resample(img, b.Dx(), b.Dy(), 2)
}

// EncodeDataURL encodes img as a PNG data URL
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
