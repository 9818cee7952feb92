package psdtest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Descriptor is an action descriptor to be encoded
type Descriptor struct {
	Class string
	Items []Item
}

// Item is one keyed descriptor value. Value may be bool, int32, float64, string, Unit,
// Enum, *Descriptor, []interface{} or []byte.
type Item struct {
	Key   string
	Value interface{}
}

// Unit is a unit double such as "#Pxl" or "#Prc"
type Unit struct {
	ID    string
	Value float64
}

// Enum is an enumerated descriptor value
type Enum struct {
	Type  string
	Value string
}

// Obj is shorthand for a nested descriptor
func Obj(class string, items ...Item) *Descriptor {
	return &Descriptor{Class: class, Items: items}
}

// Color builds an RGB colour descriptor with components in 0-255
func Color(r, g, b float64) *Descriptor {
	return Obj("RGBC",
		Item{"Rd  ", r},
		Item{"Grn ", g},
		Item{"Bl  ", b},
	)
}

// Bytes encodes the descriptor body (class followed by items)
func (d *Descriptor) Bytes() []byte {
	var buf bytes.Buffer
	d.write(&buf)
	return buf.Bytes()
}

func (d *Descriptor) write(buf *bytes.Buffer) {
	writeUnicode(buf, "")
	writeID(buf, d.Class)
	be(buf, uint32(len(d.Items)))
	for _, item := range d.Items {
		writeID(buf, item.Key)
		writeValue(buf, item.Value)
	}
}

func writeValue(buf *bytes.Buffer, v interface{}) {
	switch v := v.(type) {
	case bool:
		buf.WriteString("bool")
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case int32:
		buf.WriteString("long")
		be(buf, v)
	case int:
		buf.WriteString("long")
		be(buf, int32(v))
	case float64:
		buf.WriteString("doub")
		be(buf, v)
	case string:
		buf.WriteString("TEXT")
		writeUnicode(buf, v)
	case Unit:
		buf.WriteString("UntF")
		buf.WriteString(v.ID)
		be(buf, v.Value)
	case Enum:
		buf.WriteString("enum")
		writeID(buf, v.Type)
		writeID(buf, v.Value)
	case *Descriptor:
		buf.WriteString("Objc")
		v.write(buf)
	case []interface{}:
		buf.WriteString("VlLs")
		be(buf, uint32(len(v)))
		for _, e := range v {
			writeValue(buf, e)
		}
	case []byte:
		buf.WriteString("tdta")
		be(buf, uint32(len(v)))
		buf.Write(v)
	default:
		panic(fmt.Sprintf("psdtest: unsupported descriptor value %T", v))
	}
}

// writeID writes a key or class ID: four-character codes use a zero length prefix
func writeID(buf *bytes.Buffer, id string) {
	if len(id) == 4 {
		be(buf, uint32(0))
	} else {
		be(buf, uint32(len(id)))
	}
	buf.WriteString(id)
}

// writeUnicode writes a length-prefixed UTF-16BE string
func writeUnicode(buf *bytes.Buffer, s string) {
	encoded := utf16BE(s)
	be(buf, uint32(len(encoded)/2))
	buf.Write(encoded)
}

func utf16BE(s string) []byte {
	out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return out
}

func be(buf *bytes.Buffer, v interface{}) {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		panic(err)
	}
}
