package psd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark24Code/psdimport/internal/psdtest"
)

func TestDescriptorParserValueTypes(t *testing.T) {
	desc := psdtest.Obj("Lyr ",
		psdtest.Item{Key: "enab", Value: true},
		psdtest.Item{Key: "Cnt ", Value: int32(42)},
		psdtest.Item{Key: "Scl ", Value: 1.5},
		psdtest.Item{Key: "Nm  ", Value: "héllo"},
		psdtest.Item{Key: "Opct", Value: psdtest.Unit{ID: "#Prc", Value: 75}},
		psdtest.Item{Key: "Ornt", Value: psdtest.Enum{Type: "Ornt", Value: "Hrzn"}},
		psdtest.Item{Key: "List", Value: []interface{}{int32(1), "two"}},
		psdtest.Item{Key: "textGridding", Value: []byte{1, 2, 3}},
		psdtest.Item{Key: "Clr ", Value: psdtest.Color(255, 128, 0)},
	)

	result, err := NewDescriptorParser(desc.Bytes()).Parse()
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"name": "", "id": "Lyr "}, result["class"])
	assert.Equal(t, true, result["enab"])
	assert.Equal(t, int32(42), result["Cnt "])
	assert.Equal(t, 1.5, result["Scl "])
	assert.Equal(t, "héllo", result["Nm  "])
	assert.Equal(t, map[string]interface{}{"id": "#Prc", "unit": "Percent", "value": 75.0}, result["Opct"])
	assert.Equal(t, map[string]interface{}{"type": "Ornt", "value": "Hrzn"}, result["Ornt"])
	assert.Equal(t, []interface{}{int32(1), "two"}, result["List"])
	assert.Equal(t, []byte{1, 2, 3}, result["textGridding"])

	clr, ok := result["Clr "].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 255.0, clr["Rd  "])
	assert.Equal(t, 128.0, clr["Grn "])
	assert.Equal(t, "RGBC", clr["class"].(map[string]interface{})["id"])
}

func TestDescriptorParserSurrogatePairs(t *testing.T) {
	buf := new(bytes.Buffer)

	// Class with an empty name
	binary.Write(buf, binary.BigEndian, uint32(0))
	writeID(buf, "null")
	binary.Write(buf, binary.BigEndian, uint32(1))

	// "a😀" is three UTF-16 code units
	writeID(buf, "Txt ")
	buf.WriteString("TEXT")
	binary.Write(buf, binary.BigEndian, uint32(3))
	binary.Write(buf, binary.BigEndian, []uint16{'a', 0xD83D, 0xDE00})

	result, err := NewDescriptorParser(buf.Bytes()).Parse()
	require.NoError(t, err)
	assert.Equal(t, "a😀", result["Txt "])
}

func TestDescriptorParserObjectArray(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint32(0))
	writeID(buf, "null")
	binary.Write(buf, binary.BigEndian, uint32(1))

	writeID(buf, "Pts ")
	buf.WriteString("ObAr")
	binary.Write(buf, binary.BigEndian, uint32(2)) // entries
	binary.Write(buf, binary.BigEndian, uint32(0)) // class name
	writeID(buf, "Pnt ")
	binary.Write(buf, binary.BigEndian, uint32(2)) // keys

	writeID(buf, "Hrzn")
	buf.WriteString("UnFl")
	buf.WriteString("#Pxl")
	binary.Write(buf, binary.BigEndian, uint32(2))
	binary.Write(buf, binary.BigEndian, []float64{10, 20})

	writeID(buf, "Vrtc")
	buf.WriteString("UnFl")
	buf.WriteString("#Pxl")
	binary.Write(buf, binary.BigEndian, uint32(2))
	binary.Write(buf, binary.BigEndian, []float64{30, 40})

	result, err := NewDescriptorParser(buf.Bytes()).Parse()
	require.NoError(t, err)

	items, ok := result["Pts "].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)

	first := items[0].(map[string]interface{})
	assert.Equal(t, "Hrzn", first["key"])
	assert.Equal(t, "Pixels", first["unit"])
	assert.Equal(t, []float64{10, 20}, first["values"])
	assert.Equal(t, []float64{30, 40}, items[1].(map[string]interface{})["values"])
}

func TestDescriptorParserErrors(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint32(0))
	writeID(buf, "null")
	binary.Write(buf, binary.BigEndian, uint32(1))
	writeID(buf, "what")
	buf.WriteString("zzzz")

	_, err := NewDescriptorParser(buf.Bytes()).Parse()
	assert.ErrorContains(t, err, "unknown descriptor type: zzzz")

	full := psdtest.Obj("null", psdtest.Item{Key: "Nm  ", Value: "truncated"}).Bytes()
	_, err = NewDescriptorParser(full[:len(full)-3]).Parse()
	assert.Error(t, err)
}

func TestDescriptorParserConsumed(t *testing.T) {
	desc := psdtest.Obj("null", psdtest.Item{Key: "Cnt ", Value: int32(1)}).Bytes()
	data := append(append([]byte{}, desc...), 0xAA, 0xBB)

	p := NewDescriptorParser(data)
	_, err := p.Parse()
	require.NoError(t, err)
	assert.Equal(t, len(desc), p.Consumed())
}

// writeID writes a four-character code with a zero length, anything else length-prefixed
func writeID(buf *bytes.Buffer, id string) {
	if len(id) == 4 {
		binary.Write(buf, binary.BigEndian, uint32(0))
	} else {
		binary.Write(buf, binary.BigEndian, uint32(len(id)))
	}
	buf.WriteString(id)
}
