package psd

import (
	"encoding/binary"
	"fmt"
)

// Image resource IDs consumed by the importer
const (
	ResourceResolutionInfo uint16 = 1005
	ResourceICCProfile     uint16 = 1039
)

// DefaultResolution is assumed when a document carries no resolution info
const DefaultResolution = 72.0

// Resource represents a single image resource
type Resource struct {
	Type string
	ID   uint16
	Name string
	Data []byte
}

// ResourceSection represents the image resources section
type ResourceSection struct {
	file      *File
	Resources map[uint16]*Resource
}

// ResolutionInfo is the decoded form of resource 1005
type ResolutionInfo struct {
	HorizontalDPI float64
	VerticalDPI   float64
	// 1 = pixels per inch, 2 = pixels per centimetre
	HorizontalUnit uint16
	VerticalUnit   uint16
}

// Parse parses the resources section
func (r *ResourceSection) Parse() error {
	length, err := r.file.ReadUint32()
	if err != nil {
		return fmt.Errorf("failed to read resources length: %w", err)
	}

	r.Resources = make(map[uint16]*Resource)
	if length == 0 {
		return nil
	}

	startPos, err := r.file.Tell()
	if err != nil {
		return err
	}
	endPos := startPos + int64(length)

	for {
		currentPos, err := r.file.Tell()
		if err != nil {
			return err
		}
		if currentPos >= endPos {
			break
		}

		resource, err := r.parseResource()
		if err != nil {
			return fmt.Errorf("failed to parse resource: %w", err)
		}

		r.Resources[resource.ID] = resource
	}

	return nil
}

func (r *ResourceSection) parseResource() (*Resource, error) {
	resource := &Resource{}

	resourceType, err := r.file.ReadString(4)
	if err != nil {
		return nil, err
	}
	resource.Type = resourceType

	id, err := r.file.ReadUint16()
	if err != nil {
		return nil, err
	}
	resource.ID = id

	nameLen, err := r.file.ReadByte()
	if err != nil {
		return nil, err
	}
	if nameLen > 0 {
		name, err := r.file.ReadString(int(nameLen))
		if err != nil {
			return nil, err
		}
		resource.Name = name
	}

	// Pascal string is padded to even size
	if (int(nameLen)+1)%2 != 0 {
		if err := r.file.Skip(1); err != nil {
			return nil, err
		}
	}

	dataSize, err := r.file.ReadUint32()
	if err != nil {
		return nil, err
	}

	if dataSize > 0 {
		data := make([]byte, dataSize)
		if _, err := r.file.Read(data); err != nil {
			return nil, err
		}
		resource.Data = data

		if dataSize%2 != 0 {
			if err := r.file.Skip(1); err != nil {
				return nil, err
			}
		}
	}

	return resource, nil
}

// ResolutionInfo decodes resource 1005, returning nil when absent or truncated
func (r *ResourceSection) ResolutionInfo() *ResolutionInfo {
	if r == nil || r.Resources == nil {
		return nil
	}
	res, ok := r.Resources[ResourceResolutionInfo]
	if !ok || len(res.Data) < 16 {
		return nil
	}

	d := res.Data
	return &ResolutionInfo{
		HorizontalDPI:  fixed16(binary.BigEndian.Uint32(d[0:4])),
		HorizontalUnit: binary.BigEndian.Uint16(d[4:6]),
		VerticalDPI:    fixed16(binary.BigEndian.Uint32(d[8:12])),
		VerticalUnit:   binary.BigEndian.Uint16(d[12:14]),
	}
}

// Resolution returns pixels per inch on both axes, DefaultResolution when unknown
func (r *ResourceSection) Resolution() (float64, float64) {
	info := r.ResolutionInfo()
	if info == nil {
		return DefaultResolution, DefaultResolution
	}

	h, v := info.HorizontalDPI, info.VerticalDPI
	if info.HorizontalUnit == 2 {
		h *= 2.54
	}
	if info.VerticalUnit == 2 {
		v *= 2.54
	}
	if h <= 0 {
		h = DefaultResolution
	}
	if v <= 0 {
		v = DefaultResolution
	}
	return h, v
}

// HasColorProfile reports whether an ICC profile resource is embedded
func (r *ResourceSection) HasColorProfile() bool {
	if r == nil || r.Resources == nil {
		return false
	}
	_, ok := r.Resources[ResourceICCProfile]
	return ok
}

// fixed16 converts a 16.16 fixed point value
func fixed16(v uint32) float64 {
	return float64(v) / 65536.0
}
