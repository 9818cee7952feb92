package importer

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerToCanvasPrefersDecodedCanvas(t *testing.T) {
	l := &RawLayer{
		Right: 4, Bottom: 4,
		Canvas: solid(4, 4, color.NRGBA{R: 255, A: 255}),
		Pixels: &PixelBuffer{Data: bytes.Repeat([]byte{0, 255, 0, 255}, 16), Width: 4, Height: 4},
	}
	img := LayerToCanvas(l, RasterOptions{})
	require.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(2, 2))
}

func TestLayerToCanvasResizesToBounds(t *testing.T) {
	l := &RawLayer{Right: 8, Bottom: 2, Canvas: solid(4, 1, color.NRGBA{B: 255, A: 255})}
	img := LayerToCanvas(l, RasterOptions{Supersample: 2})
	assert.Equal(t, image.Rect(0, 0, 8, 2), img.Bounds())
	px := img.NRGBAAt(4, 1)
	assert.InDelta(t, 255, int(px.B), 2)
	assert.InDelta(t, 255, int(px.A), 2)
}

func TestLayerToCanvasPixelBuffer(t *testing.T) {
	// one opaque red pixel and one half transparent premultiplied white pixel; the
	// buffer is short by one pixel
	data := []byte{
		255, 0, 0, 255,
		100, 100, 100, 128,
	}
	l := &RawLayer{Right: 3, Bottom: 1, Pixels: &PixelBuffer{Data: data, Width: 3, Height: 1}}

	img := LayerToCanvas(l, RasterOptions{})
	require.Equal(t, image.Rect(0, 0, 3, 1), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(0, 0))
	// 100 / (128/255) = 199.2
	assert.Equal(t, color.NRGBA{R: 199, G: 199, B: 199, A: 128}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(2, 0))

	// long buffers are truncated
	l.Pixels = &PixelBuffer{Data: bytes.Repeat([]byte{1, 2, 3, 255}, 10), Width: 3, Height: 1}
	img = LayerToCanvas(l, RasterOptions{})
	assert.Len(t, img.Pix, 12)
}

func TestLayerToCanvasRejectsOversizedBuffer(t *testing.T) {
	l := &RawLayer{Name: "big", Pixels: &PixelBuffer{Data: []byte{1, 2, 3, 255}, Width: 1 << 30, Height: 1 << 30}}
	assert.False(t, l.HasRaster())
	img := LayerToCanvas(l, RasterOptions{Rand: rand.New(rand.NewPCG(1, 2))})
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())

	// a buffer missing most of its rows is not drawn either
	l.Pixels = &PixelBuffer{Data: make([]byte, 16), Width: 10, Height: 10}
	assert.False(t, l.HasRaster())
	l.Pixels.Height = 1
	assert.True(t, l.HasRaster())
}

func TestLayerToCanvasPlaceholder(t *testing.T) {
	l := &RawLayer{Name: "missing", Right: 60, Bottom: 30}
	img := LayerToCanvas(l, RasterOptions{Rand: rand.New(rand.NewPCG(1, 2))})

	require.Equal(t, image.Rect(0, 0, 60, 30), img.Bounds())
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(59, 29))
	assert.Equal(t, uint8(128), img.NRGBAAt(58, 28).A)

	empty := LayerToCanvas(&RawLayer{}, RasterOptions{})
	assert.Equal(t, image.Rect(0, 0, 1, 1), empty.Bounds())
}

func TestPlaceholderIsDeterministicWithSeed(t *testing.T) {
	a := Placeholder("x", 20, 20, rand.New(rand.NewPCG(7, 7)))
	b := Placeholder("x", 20, 20, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a.Pix, b.Pix)
}

func TestEnhance(t *testing.T) {
	small := solid(10, 10, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
	out := Enhance(small, 500)
	assert.Equal(t, small.Bounds(), out.Bounds())
	assert.NotSame(t, small, out)
	px := out.NRGBAAt(5, 5)
	assert.InDelta(t, 50, int(px.R), 2)
	assert.InDelta(t, 60, int(px.G), 2)
	assert.InDelta(t, 70, int(px.B), 2)

	big := solid(20, 20, color.NRGBA{A: 255})
	assert.Same(t, big, Enhance(big, 10))
}

func TestEncodeDataURL(t *testing.T) {
	src := solid(3, 2, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	url, err := EncodeDataURL(src)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())
	r, g, b, _ := decoded.At(1, 1).RGBA()
	assert.Equal(t, []uint32{9, 8, 7}, []uint32{r >> 8, g >> 8, b >> 8})
}
