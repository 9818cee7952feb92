package psd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"
)

// PSD is a Photoshop document. Sections are parsed lazily in file order, so asking for
// the layer tree parses the header and resources first.
type PSD struct {
	file      *File
	header    *Header
	resources *ResourceSection
	layerMask *LayerMask
	image     *Image
	parsed    bool
}

// New opens the document at path; call Close when done
func New(filename string) (*PSD, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	return &PSD{file: &File{closer: f, reader: f}}, nil
}

// NewFromBytes creates a PSD instance backed by an in-memory buffer
func NewFromBytes(data []byte) *PSD {
	return NewFromReader(bytes.NewReader(data))
}

// NewFromReader creates a PSD instance reading from any seekable source
func NewFromReader(r io.ReadSeeker) *PSD {
	return &PSD{file: &File{reader: r}}
}

// Open opens and parses a document, hands it to fn and closes it afterwards
func Open(filename string, fn func(*PSD) error) error {
	psd, err := New(filename)
	if err != nil {
		return err
	}
	defer psd.Close()

	if err := psd.Parse(); err != nil {
		return err
	}
	return fn(psd)
}

// Close closes the underlying file, if any
func (p *PSD) Close() error {
	if p.file != nil && p.file.closer != nil {
		return p.file.closer.Close()
	}
	return nil
}

// Parse parses every section of the document
func (p *PSD) Parse() error {
	if err := p.parseImage(); err != nil {
		return err
	}
	p.parsed = true
	return nil
}

// Parsed returns whether the PSD has been parsed
func (p *PSD) Parsed() bool {
	return p.parsed
}

// Header returns the file header, nil when it cannot be read
func (p *PSD) Header() *Header {
	p.parseHeader()
	return p.header
}

// Resources returns the image resource section
func (p *PSD) Resources() *ResourceSection {
	p.parseResources()
	return p.resources
}

// LayerMask returns the layer and mask section
func (p *PSD) LayerMask() *LayerMask {
	p.parseLayerMask()
	return p.layerMask
}

// Image returns the flattened composite image
func (p *PSD) Image() *Image {
	p.parseImage()
	return p.image
}

// Layers returns all layer records, top-most first
func (p *PSD) Layers() []*Layer {
	if err := p.parseLayerMask(); err != nil {
		return nil
	}
	return p.layerMask.Layers
}

// Tree returns the root of the layer tree
func (p *PSD) Tree() *Node {
	if err := p.parseLayerMask(); err != nil {
		return nil
	}
	return p.layerMask.Tree()
}

// Resolution returns the horizontal and vertical resolution in pixels per inch
func (p *PSD) Resolution() (float64, float64) {
	if err := p.parseResources(); err != nil {
		return DefaultResolution, DefaultResolution
	}
	return p.resources.Resolution()
}

// Preview returns the composite image when the document carries one, otherwise the
// layer tree is rendered.
func (p *PSD) Preview() (image.Image, error) {
	if img := p.Image(); img.HasContent() {
		return img.ToPNG(), nil
	}

	tree := p.Tree()
	if tree == nil {
		return nil, fmt.Errorf("document has no layer tree")
	}
	return tree.ToPNG()
}

func (p *PSD) parseHeader() error {
	if p.header != nil {
		return nil
	}
	header := &Header{file: p.file}
	if err := header.Parse(); err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}
	p.header = header
	return nil
}

func (p *PSD) parseResources() error {
	if p.resources != nil {
		return nil
	}
	if err := p.parseHeader(); err != nil {
		return err
	}
	resources := &ResourceSection{file: p.file}
	if err := resources.Parse(); err != nil {
		return fmt.Errorf("failed to parse resources: %w", err)
	}
	p.resources = resources
	return nil
}

func (p *PSD) parseLayerMask() error {
	if p.layerMask != nil {
		return nil
	}
	if err := p.parseResources(); err != nil {
		return err
	}
	layerMask := &LayerMask{file: p.file, header: p.header}
	if err := layerMask.Parse(); err != nil {
		return fmt.Errorf("failed to parse layer mask: %w", err)
	}
	p.layerMask = layerMask
	return nil
}

func (p *PSD) parseImage() error {
	if p.image != nil {
		return nil
	}
	if err := p.parseLayerMask(); err != nil {
		return err
	}
	img := &Image{file: p.file, header: p.header}
	if err := img.Parse(); err != nil {
		return fmt.Errorf("failed to parse image: %w", err)
	}
	p.image = img
	return nil
}

// File wraps a seekable PSD byte source with big-endian read helpers
type File struct {
	reader io.ReadSeeker
	closer io.Closer
}

// Read reads exactly len(p) bytes
func (f *File) Read(p []byte) (n int, err error) {
	return io.ReadFull(f.reader, p)
}

// Seek seeks to a position in the file
func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.reader.Seek(offset, whence)
}

// Tell returns the current position in the file
func (f *File) Tell() (int64, error) {
	return f.reader.Seek(0, io.SeekCurrent)
}

// Skip skips n bytes
func (f *File) Skip(n int64) error {
	_, err := f.Seek(n, io.SeekCurrent)
	return err
}

// ReadString reads a string of specified length
func (f *File) ReadString(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := f.Read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadByte reads a single byte
func (f *File) ReadByte() (byte, error) {
	return readBE[byte](f)
}

// ReadUint16 reads a big-endian uint16
func (f *File) ReadUint16() (uint16, error) {
	return readBE[uint16](f)
}

// ReadInt16 reads a big-endian int16
func (f *File) ReadInt16() (int16, error) {
	return readBE[int16](f)
}

// ReadUint32 reads a big-endian uint32
func (f *File) ReadUint32() (uint32, error) {
	return readBE[uint32](f)
}

// ReadInt32 reads a big-endian int32
func (f *File) ReadInt32() (int32, error) {
	return readBE[int32](f)
}

func readBE[T uint8 | uint16 | int16 | uint32 | int32](f *File) (T, error) {
	var v T
	err := binary.Read(f, binary.BigEndian, &v)
	return v, err
}
