// Package psdtest writes small synthetic PSD documents for tests.
package psdtest

import (
	"bytes"
	"image"
	"image/color"
	"math"
)

// Doc describes a document to encode
type Doc struct {
	Width  int
	Height int
	// Resolution in pixels per inch; zero omits the resolution resource
	Resolution float64
	// Layers are listed top-most first, the way they appear in a layers panel
	Layers []Layer
	// Composite fills the flattened image; nil writes white
	Composite *color.NRGBA
	// NoComposite ends the stream after the layer section
	NoComposite bool
}

// Layer describes one layer record. Groups set Group and list Children top-most first.
type Layer struct {
	Name                     string
	Top, Left, Bottom, Right int32
	Hidden                   bool
	Opacity                  uint8
	// BlendKey defaults to "norm", or "pass" for groups
	BlendKey string
	// Fill paints the whole rectangle; Image supplies pixels directly. With neither the
	// layer carries no colour data.
	Fill  *color.NRGBA
	Image *image.NRGBA
	RLE   bool

	ID          int32
	FillOpacity *uint8
	Text        *Text
	Effects     *Descriptor

	Group    bool
	Closed   bool
	Children []Layer

	groupEnd bool
}

// Text describes a type layer
type Text struct {
	Value      string
	Transform  [6]float64
	EngineData []byte
}

// Bounds sets the layer rectangle from a position and size
func (l Layer) Bounds(x, y, w, h int32) Layer {
	l.Left, l.Top, l.Right, l.Bottom = x, y, x+w, y+h
	return l
}

// Bytes encodes the document
func (d Doc) Bytes() []byte {
	var buf bytes.Buffer

	// Header
	buf.WriteString("8BPS")
	be(&buf, uint16(1))
	buf.Write(make([]byte, 6))
	be(&buf, uint16(3))
	be(&buf, uint32(d.Height))
	be(&buf, uint32(d.Width))
	be(&buf, uint16(8))
	be(&buf, uint16(3))
	be(&buf, uint32(0))

	d.writeResources(&buf)
	d.writeLayerSection(&buf)

	if !d.NoComposite {
		fill := color.NRGBA{255, 255, 255, 255}
		if d.Composite != nil {
			fill = *d.Composite
		}
		be(&buf, uint16(0))
		for _, v := range []uint8{fill.R, fill.G, fill.B} {
			buf.Write(bytes.Repeat([]byte{v}, d.Width*d.Height))
		}
	}

	return buf.Bytes()
}

func (d Doc) writeResources(buf *bytes.Buffer) {
	var res bytes.Buffer
	if d.Resolution > 0 {
		fixed := uint32(math.Round(d.Resolution * 65536))
		res.WriteString("8BIM")
		be(&res, uint16(1005))
		res.Write([]byte{0, 0})
		be(&res, uint32(16))
		be(&res, fixed)
		be(&res, uint16(1))
		be(&res, uint16(1))
		be(&res, fixed)
		be(&res, uint16(1))
		be(&res, uint16(1))
	}
	be(buf, uint32(res.Len()))
	buf.Write(res.Bytes())
}

// flatten lists records bottom-most first, expanding groups into their divider records
func flatten(layers []Layer) []Layer {
	var out []Layer
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if !l.Group {
			out = append(out, l)
			continue
		}
		out = append(out, Layer{Name: "</Layer group>", Opacity: 255, BlendKey: "norm", Group: true, groupEnd: true})
		out = append(out, flatten(l.Children)...)
		out = append(out, l)
	}
	return out
}

func (d Doc) writeLayerSection(buf *bytes.Buffer) {
	records := flatten(d.Layers)

	var info bytes.Buffer
	be(&info, int16(len(records)))

	channelData := make([][][]byte, len(records))
	for i, l := range records {
		channelData[i] = l.channels()
		writeRecord(&info, l, channelData[i])
	}
	for _, chans := range channelData {
		for _, c := range chans {
			info.Write(c)
		}
	}
	if info.Len()%2 != 0 {
		info.WriteByte(0)
	}

	var section bytes.Buffer
	be(&section, uint32(info.Len()))
	section.Write(info.Bytes())
	// Global layer mask info
	be(&section, uint32(0))

	be(buf, uint32(section.Len()))
	buf.Write(section.Bytes())
}

var channelIDs = []int16{-1, 0, 1, 2}

func writeRecord(buf *bytes.Buffer, l Layer, chans [][]byte) {
	be(buf, l.Top)
	be(buf, l.Left)
	be(buf, l.Bottom)
	be(buf, l.Right)

	be(buf, uint16(len(chans)))
	for i, c := range chans {
		be(buf, channelIDs[i])
		be(buf, uint32(len(c)))
	}

	blend := l.BlendKey
	if blend == "" {
		blend = "norm"
		if l.Group {
			blend = "pass"
		}
	}
	buf.WriteString("8BIM")
	buf.WriteString(blend)
	buf.WriteByte(l.Opacity)
	buf.WriteByte(0)
	var flags uint8
	if l.Hidden {
		flags |= 0x02
	}
	buf.WriteByte(flags)
	buf.WriteByte(0)

	var extra bytes.Buffer
	be(&extra, uint32(0)) // mask
	be(&extra, uint32(0)) // blending ranges
	writeName(&extra, l.Name)
	writeBlocks(&extra, l)

	be(buf, uint32(extra.Len()))
	buf.Write(extra.Bytes())
}

func writeName(buf *bytes.Buffer, name string) {
	ascii := make([]byte, 0, len(name))
	for _, r := range name {
		if r < 0x80 {
			ascii = append(ascii, byte(r))
		} else {
			ascii = append(ascii, '?')
		}
	}
	if len(ascii) > 255 {
		ascii = ascii[:255]
	}
	buf.WriteByte(byte(len(ascii)))
	buf.Write(ascii)
	if pad := (4 - (len(ascii)+1)%4) % 4; pad > 0 {
		buf.Write(make([]byte, pad))
	}
}

func writeBlocks(buf *bytes.Buffer, l Layer) {
	var luni bytes.Buffer
	writeUnicode(&luni, l.Name)
	writeBlock(buf, "luni", luni.Bytes())

	if l.ID > 0 {
		var id bytes.Buffer
		be(&id, l.ID)
		writeBlock(buf, "lyid", id.Bytes())
	}

	if l.FillOpacity != nil {
		writeBlock(buf, "iOpa", []byte{*l.FillOpacity, 0, 0, 0})
	}

	if l.Group {
		var lsct bytes.Buffer
		switch {
		case l.groupEnd:
			be(&lsct, uint32(3))
		case l.Closed:
			be(&lsct, uint32(2))
		default:
			be(&lsct, uint32(1))
		}
		if !l.groupEnd {
			lsct.WriteString("8BIM")
			lsct.WriteString("pass")
		}
		writeBlock(buf, "lsct", lsct.Bytes())
	}

	if l.Text != nil {
		writeBlock(buf, "TySh", typeTool(l.Text, l))
	}

	if l.Effects != nil {
		var fx bytes.Buffer
		be(&fx, uint32(0))
		be(&fx, uint32(16))
		fx.Write(l.Effects.Bytes())
		writeBlock(buf, "lfx2", fx.Bytes())
	}
}

func writeBlock(buf *bytes.Buffer, key string, data []byte) {
	buf.WriteString("8BIM")
	buf.WriteString(key)
	be(buf, uint32(len(data)))
	buf.Write(data)
	if pad := (4 - len(data)%4) % 4; pad > 0 {
		buf.Write(make([]byte, pad))
	}
}

func typeTool(t *Text, l Layer) []byte {
	var buf bytes.Buffer
	be(&buf, uint16(1))
	transform := t.Transform
	if transform == [6]float64{} {
		transform = [6]float64{1, 0, 0, 1, float64(l.Left), float64(l.Bottom)}
	}
	for _, v := range transform {
		be(&buf, v)
	}

	be(&buf, uint16(50))
	be(&buf, uint32(16))
	text := Obj("TxLr",
		Item{"Txt ", t.Value},
		Item{"textGridding", Enum{"textGridding", "None"}},
		Item{"Ornt", Enum{"Ornt", "Hrzn"}},
		Item{"EngineData", t.EngineData},
	)
	buf.Write(text.Bytes())

	be(&buf, uint16(1))
	be(&buf, uint32(16))
	warp := Obj("warp", Item{"warpStyle", Enum{"warpStyle", "warpNone"}})
	buf.Write(warp.Bytes())

	// Text bounds
	buf.Write(make([]byte, 16))
	return buf.Bytes()
}

// channels returns the encoded channel data (compression marker included) in the
// order alpha, red, green, blue
func (l Layer) channels() [][]byte {
	w, h := int(l.Right-l.Left), int(l.Bottom-l.Top)

	img := l.Image
	if img == nil && l.Fill != nil && w > 0 && h > 0 {
		img = image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			copy(img.Pix[i*4:], []uint8{l.Fill.R, l.Fill.G, l.Fill.B, l.Fill.A})
		}
	}

	out := make([][]byte, 4)
	for i := range out {
		if img == nil {
			out[i] = []byte{0, 0}
			continue
		}
		plane := make([]byte, w*h)
		src := (i + 3) % 4 // alpha first, then R, G, B
		for p := range plane {
			plane[p] = img.Pix[p*4+src]
		}
		out[i] = encodePlane(plane, w, h, l.RLE)
	}
	return out
}

func encodePlane(plane []byte, w, h int, rle bool) []byte {
	var buf bytes.Buffer
	if !rle {
		be(&buf, uint16(0))
		buf.Write(plane)
		return buf.Bytes()
	}

	rows := make([][]byte, h)
	for y := range rows {
		rows[y] = packBits(plane[y*w : (y+1)*w])
	}
	be(&buf, uint16(1))
	for _, r := range rows {
		be(&buf, uint16(len(r)))
	}
	for _, r := range rows {
		buf.Write(r)
	}
	return buf.Bytes()
}

// packBits encodes a scanline in chunks of at most 128 bytes, using a run for chunks of
// identical bytes and a literal otherwise
func packBits(row []byte) []byte {
	var out []byte
	for len(row) > 0 {
		n := len(row)
		if n > 128 {
			n = 128
		}
		chunk := row[:n]
		if n > 1 && bytes.Count(chunk, chunk[:1]) == n {
			out = append(out, byte(257-n), chunk[0])
		} else {
			out = append(out, byte(n-1))
			out = append(out, chunk...)
		}
		row = row[n:]
	}
	return out
}

// Pixel returns an opaque layer filled with c
func Pixel(name string, x, y, w, h int32, c color.NRGBA) Layer {
	return Layer{Name: name, Opacity: 255, Fill: &c}.Bounds(x, y, w, h)
}

// TextLayer returns a type layer using a single engine style run
func TextLayer(name, text string, x, y, w, h int32, style TextStyle) Layer {
	l := Layer{Name: name, Opacity: 255}.Bounds(x, y, w, h)
	l.Text = &Text{Value: text, EngineData: EngineData(text, style)}
	return l
}

// Group returns an open, visible group
func Group(name string, children ...Layer) Layer {
	return Layer{Name: name, Opacity: 255, Group: true, Children: children}
}
