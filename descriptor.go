package psd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// DescriptorParser decodes an action descriptor: a class followed by keyed items.
//
// Values decode as follows: bool, long (int32), comp (int64), doub (float64), TEXT
// (string), tdta and alis ([]byte), enum (map with "type" and "value"), UntF and UnFl
// (map with "id", "unit" and "value"), VlLs and ObAr ([]interface{}), obj (reference
// items), Objc and GlbO (nested maps carrying their own "class").
type DescriptorParser struct {
	reader *bytes.Reader
}

// NewDescriptorParser creates a new descriptor parser
func NewDescriptorParser(data []byte) *DescriptorParser {
	return &DescriptorParser{reader: bytes.NewReader(data)}
}

// Consumed returns the number of bytes read so far
func (d *DescriptorParser) Consumed() int {
	return int(d.reader.Size()) - d.reader.Len()
}

// Parse decodes one descriptor. The class is stored under "class".
func (d *DescriptorParser) Parse() (map[string]interface{}, error) {
	class, err := d.parseClass()
	if err != nil {
		return nil, fmt.Errorf("failed to parse class: %w", err)
	}

	count, err := read[uint32](d)
	if err != nil {
		return nil, fmt.Errorf("failed to read num items: %w", err)
	}

	result := map[string]interface{}{"class": class}
	for i := uint32(0); i < count; i++ {
		key, err := d.parseID()
		if err != nil {
			return nil, fmt.Errorf("failed to parse key %d: %w", i, err)
		}
		value, err := d.parseItem()
		if err != nil {
			return nil, fmt.Errorf("failed to parse value for key %s: %w", key, err)
		}
		result[key] = value
	}
	return result, nil
}

func read[T bool | uint8 | int32 | uint32 | int64 | float32 | float64](d *DescriptorParser) (T, error) {
	var v T
	err := binary.Read(d.reader, binary.BigEndian, &v)
	return v, err
}

func (d *DescriptorParser) readN(n uint32) ([]byte, error) {
	if int64(n) > int64(d.reader.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(d.reader, buf)
	return buf, err
}

// parseID reads a key or class ID: a zero length announces a four-character code
func (d *DescriptorParser) parseID() (string, error) {
	length, err := read[uint32](d)
	if err != nil {
		return "", err
	}
	if length == 0 {
		length = 4
	}
	buf, err := d.readN(length)
	return string(buf), err
}

func (d *DescriptorParser) parseType() (string, error) {
	buf, err := d.readN(4)
	return string(buf), err
}

func (d *DescriptorParser) parseClass() (map[string]interface{}, error) {
	name, err := d.readUnicodeString()
	if err != nil {
		return nil, fmt.Errorf("failed to read class name: %w", err)
	}
	id, err := d.parseID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class ID: %w", err)
	}
	return map[string]interface{}{"name": name, "id": id}, nil
}

func (d *DescriptorParser) parseItem() (interface{}, error) {
	itemType, err := d.parseType()
	if err != nil {
		return nil, err
	}

	switch itemType {
	case "bool":
		return read[bool](d)
	case "long":
		return read[int32](d)
	case "comp":
		return read[int64](d)
	case "doub":
		return read[float64](d)
	case "TEXT":
		return d.readUnicodeString()
	case "enum":
		return d.parseEnum()
	case "UntF":
		return d.parseUnit(false)
	case "UnFl":
		return d.parseUnit(true)
	case "type", "GlbC":
		return d.parseClass()
	case "Objc", "GlbO":
		return d.Parse()
	case "VlLs":
		return d.parseList()
	case "ObAr":
		return d.parseObjectArray()
	case "tdta", "alis":
		length, err := read[uint32](d)
		if err != nil {
			return nil, err
		}
		return d.readN(length)
	case "obj ":
		return d.parseReference()
	default:
		return nil, fmt.Errorf("unknown descriptor type: %s", itemType)
	}
}

func (d *DescriptorParser) parseEnum() (map[string]interface{}, error) {
	typeID, err := d.parseID()
	if err != nil {
		return nil, fmt.Errorf("failed to parse enum type: %w", err)
	}
	valueID, err := d.parseID()
	if err != nil {
		return nil, fmt.Errorf("failed to parse enum value: %w", err)
	}
	return map[string]interface{}{"type": typeID, "value": valueID}, nil
}

// Unit types
var unitTypes = map[string]string{
	"#Ang": "Angle",
	"#Rsl": "Density",
	"#Rlt": "Distance",
	"#Nne": "None",
	"#Prc": "Percent",
	"#Pxl": "Pixels",
	"#Mlm": "Millimeters",
	"#Pnt": "Points",
}

func unitName(id string) string {
	if unit, ok := unitTypes[id]; ok {
		return unit
	}
	return "Unknown"
}

// parseUnit reads a unit-tagged number; UnFl stores a float32, UntF a float64
func (d *DescriptorParser) parseUnit(single bool) (map[string]interface{}, error) {
	id, err := d.parseType()
	if err != nil {
		return nil, err
	}

	var value interface{}
	if single {
		value, err = read[float32](d)
	} else {
		value, err = read[float64](d)
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": id, "unit": unitName(id), "value": value}, nil
}

func (d *DescriptorParser) parseList() ([]interface{}, error) {
	count, err := read[uint32](d)
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, 0, min(count, 1024))
	for i := uint32(0); i < count; i++ {
		value, err := d.parseItem()
		if err != nil {
			return nil, fmt.Errorf("failed to parse list item %d: %w", i, err)
		}
		items = append(items, value)
	}
	return items, nil
}

// parseObjectArray reads an object array: a class followed by keyed unit-float
// arrays, as written for gradient and path data.
func (d *DescriptorParser) parseObjectArray() ([]interface{}, error) {
	if _, err := read[uint32](d); err != nil {
		return nil, err
	}
	class, err := d.parseClass()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object array class: %w", err)
	}
	keys, err := read[uint32](d)
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, 0, min(keys, 1024))
	for i := uint32(0); i < keys; i++ {
		key, err := d.parseID()
		if err != nil {
			return nil, err
		}
		if t, err := d.parseType(); err != nil || t != "UnFl" {
			if err == nil {
				err = fmt.Errorf("unsupported object array item type: %s", t)
			}
			return nil, err
		}
		unit, err := d.parseType()
		if err != nil {
			return nil, err
		}
		n, err := read[uint32](d)
		if err != nil {
			return nil, err
		}
		if int64(n)*8 > int64(d.reader.Len()) {
			return nil, io.ErrUnexpectedEOF
		}
		values := make([]float64, n)
		if err := binary.Read(d.reader, binary.BigEndian, values); err != nil {
			return nil, err
		}

		items = append(items, map[string]interface{}{
			"class":  class,
			"key":    key,
			"unit":   unitTypes[unit],
			"values": values,
		})
	}
	return items, nil
}

// parseReference reads the items of an "obj " reference
func (d *DescriptorParser) parseReference() ([]map[string]interface{}, error) {
	count, err := read[uint32](d)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, min(count, 1024))
	for i := uint32(0); i < count; i++ {
		refType, err := d.parseType()
		if err != nil {
			return nil, err
		}

		var value interface{}
		switch refType {
		case "prop":
			value, err = d.parseProperty()
		case "Clss":
			value, err = d.parseClass()
		case "Enmr":
			value, err = d.parseEnumReference()
		case "Idnt", "indx", "rele":
			value, err = read[int32](d)
		case "name":
			value, err = d.readUnicodeString()
		default:
			return nil, fmt.Errorf("unknown reference type: %s", refType)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse reference item %d: %w", i, err)
		}

		items = append(items, map[string]interface{}{"type": refType, "value": value})
	}
	return items, nil
}

func (d *DescriptorParser) parseProperty() (map[string]interface{}, error) {
	class, err := d.parseClass()
	if err != nil {
		return nil, fmt.Errorf("failed to parse property class: %w", err)
	}
	id, err := d.parseID()
	if err != nil {
		return nil, fmt.Errorf("failed to parse property ID: %w", err)
	}
	return map[string]interface{}{"class": class, "id": id}, nil
}

func (d *DescriptorParser) parseEnumReference() (map[string]interface{}, error) {
	class, err := d.parseClass()
	if err != nil {
		return nil, fmt.Errorf("failed to parse enum class: %w", err)
	}
	enum, err := d.parseEnum()
	if err != nil {
		return nil, err
	}
	enum["class"] = class
	return enum, nil
}

// readUnicodeString reads a string stored as a UTF-16 code unit count and the units
func (d *DescriptorParser) readUnicodeString() (string, error) {
	length, err := read[uint32](d)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	data, err := d.readN(length * 2)
	if err != nil {
		return "", err
	}
	return decodeUTF16BE(data), nil
}
